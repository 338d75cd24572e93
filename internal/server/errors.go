package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"freightportal/internal/rate"
	"freightportal/internal/tracking"
)

// writeErrorJSON writes a standardized JSON error response:
// {"error": {"code": string, "message": string}}
func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// writeDomainError maps engine and aggregator errors onto the error JSON
// shape. Validation is the caller's fault, not-found surfaces as-is, and a
// bound carrier's failure is a bad gateway because no fallback runs.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *rate.ValidationError
	if errors.As(err, &verr) {
		writeErrorJSON(w, http.StatusBadRequest, "validation_error", verr.Error())
		return
	}
	var nf *rate.NotFoundError
	if errors.As(err, &nf) {
		writeErrorJSON(w, http.StatusNotFound, "resource_not_found", nf.Error())
		return
	}
	if errors.Is(err, tracking.ErrNotFound) {
		writeErrorJSON(w, http.StatusNotFound, "resource_not_found", err.Error())
		return
	}
	if errors.Is(err, tracking.ErrBatchTooLarge) {
		writeErrorJSON(w, http.StatusBadRequest, "batch_too_large", err.Error())
		return
	}
	var ue *tracking.UpstreamError
	if errors.As(err, &ue) {
		writeErrorJSON(w, http.StatusBadGateway, "upstream_error", ue.Error())
		return
	}
	writeErrorJSON(w, http.StatusInternalServerError, "internal_error", "internal error")
}
