package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freightportal/internal/tracking"
)

func TestTrack_HappyPath(t *testing.T) {
	tracker := &fakeTracker{
		trackFn: func(ctx context.Context, number, carrier string) (tracking.Result, error) {
			return tracking.Result{
				TrackingNumber: number,
				Carrier:        "ups",
				Status:         tracking.StatusInTransit,
				Events: []tracking.Event{
					{Carrier: "ups", Timestamp: time.Now().UTC(), Status: "In transit"},
				},
			}, nil
		},
	}
	h := newTestHandler(t, tracker, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/track/1Z999?carrier=ups", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
	}
	var res TrackResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !res.Success || res.Carrier != "ups" || res.TrackingInfo.Status != tracking.StatusInTransit {
		t.Fatalf("unexpected response: %+v", res)
	}
}

func TestTrack_NotFound(t *testing.T) {
	h := newTestHandler(t, &fakeTracker{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/track/UNKNOWN", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d; body=%s", rr.Code, rr.Body.String())
	}
	var e stdError
	_ = json.Unmarshal(rr.Body.Bytes(), &e)
	if e.Error.Code != "resource_not_found" {
		t.Fatalf("unexpected error code: %s", e.Error.Code)
	}
}

func TestTrack_UpstreamErrorIsBadGateway(t *testing.T) {
	tracker := &fakeTracker{
		trackFn: func(ctx context.Context, number, carrier string) (tracking.Result, error) {
			return tracking.Result{}, &tracking.UpstreamError{Carrier: "ups", Err: errors.New("503")}
		},
	}
	h := newTestHandler(t, tracker, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/track/1Z999?carrier=ups", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d; body=%s", rr.Code, rr.Body.String())
	}
	var e stdError
	_ = json.Unmarshal(rr.Body.Bytes(), &e)
	if e.Error.Code != "upstream_error" {
		t.Fatalf("unexpected error code: %s", e.Error.Code)
	}
}

func TestTrack_MissingNumber(t *testing.T) {
	h := newTestHandler(t, nil, nil)
	// space decodes to empty after trim
	req := httptest.NewRequest(http.MethodGet, "/v1/track/%20", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d; body=%s", rr.Code, rr.Body.String())
	}
}

func TestTrackBulk_CountsSurface(t *testing.T) {
	tracker := &fakeTracker{
		bulkFn: func(ctx context.Context, items []tracking.BulkItem) (tracking.BulkResult, error) {
			results := make([]tracking.BulkItemResult, len(items))
			successful := 0
			for i, it := range items {
				if it.TrackingNumber == "BAD" {
					results[i] = tracking.BulkItemResult{TrackingNumber: it.TrackingNumber, Error: "tracking number not found"}
					continue
				}
				results[i] = tracking.BulkItemResult{TrackingNumber: it.TrackingNumber, Success: true}
				successful++
			}
			return tracking.BulkResult{Results: results, TotalTracked: len(items), Successful: successful}, nil
		},
	}
	h := newTestHandler(t, tracker, nil)

	body := `{"items":[{"tracking_number":"A1"},{"tracking_number":"BAD"},{"tracking_number":"C3"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/track/bulk", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
	}
	var res tracking.BulkResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if res.TotalTracked != 3 || res.Successful != 2 || len(res.Results) != 3 {
		t.Fatalf("unexpected counts: %+v", res)
	}
}

func TestTrackBulk_TooLarge(t *testing.T) {
	tracker := &fakeTracker{
		bulkFn: func(ctx context.Context, items []tracking.BulkItem) (tracking.BulkResult, error) {
			return tracking.BulkResult{}, tracking.ErrBatchTooLarge
		},
	}
	h := newTestHandler(t, tracker, nil)
	body := `{"items":[{"tracking_number":"A1"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/track/bulk", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d; body=%s", rr.Code, rr.Body.String())
	}
	var e stdError
	_ = json.Unmarshal(rr.Body.Bytes(), &e)
	if e.Error.Code != "batch_too_large" {
		t.Fatalf("unexpected error code: %s", e.Error.Code)
	}
}

func TestTrackBulk_EmptyItems(t *testing.T) {
	h := newTestHandler(t, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/track/bulk", bytes.NewBufferString(`{"items":[]}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
