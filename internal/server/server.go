package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"freightportal/internal/rate"
	"freightportal/internal/ratelimit"
	"freightportal/internal/tracking"
)

// Tracker is what the HTTP layer needs from the tracking aggregator.
type Tracker interface {
	Track(ctx context.Context, trackingNumber, carrier string) (tracking.Result, error)
	TrackBulk(ctx context.Context, items []tracking.BulkItem) (tracking.BulkResult, error)
	Ingest(ctx context.Context, carrier, trackingNumber string, ev tracking.Event) (tracking.Result, error)
}

type Server struct {
	engine  *rate.Engine
	shopper *rate.Shopper
	tracker Tracker
	limiter ratelimit.Limiter
	secrets map[string]string // webhook HMAC secrets by carrier code
	log     *zap.SugaredLogger
}

// Options wires the server's collaborators. Limiter may be nil to disable
// rate limiting (tests, local dev).
type Options struct {
	Engine         *rate.Engine
	Shopper        *rate.Shopper
	Tracker        Tracker
	Limiter        ratelimit.Limiter
	WebhookSecrets map[string]string
	Log            *zap.SugaredLogger
}

func New(opts Options) http.Handler {
	s := &Server{
		engine:  opts.Engine,
		shopper: opts.Shopper,
		tracker: opts.Tracker,
		limiter: opts.Limiter,
		secrets: opts.WebhookSecrets,
		log:     opts.Log,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(middleware.Logger)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)
		r.Post("/v1/quotes", s.handleQuote)
		r.Post("/v1/rates", s.handleShopRates)
		r.Get("/v1/track/{number}", s.handleTrack)
		r.Post("/v1/track/bulk", s.handleTrackBulk)
	})
	r.Post("/webhooks/{carrier}", s.handleWebhook)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Single-shipment quote

type QuoteResponse struct {
	Quote rate.Quote `json:"quote"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req rate.ShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	q, err := s.engine.Quote(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, QuoteResponse{Quote: q})
}

// Multi-carrier rate shopping

type ShopRequest struct {
	rate.ShipmentRequest
	Filter *rate.Filter `json:"filter,omitempty"`
}

type ShopResponse struct {
	Rates []rate.ShopQuote `json:"rates"`
	Meta  ShopMeta         `json:"meta"`
}

type ShopMeta struct {
	CheapestRate *rate.ShopQuote `json:"cheapest_rate,omitempty"`
	FastestRate  *rate.ShopQuote `json:"fastest_rate,omitempty"`
}

func (s *Server) handleShopRates(w http.ResponseWriter, r *http.Request) {
	var req ShopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	res, err := s.shopper.Shop(req.ShipmentRequest, req.Filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, ShopResponse{
		Rates: res.Quotes,
		Meta:  ShopMeta{CheapestRate: res.Cheapest, FastestRate: res.FastestGuaranteed},
	})
}

// Tracking

type TrackResponse struct {
	Carrier      string          `json:"carrier"`
	TrackingInfo tracking.Result `json:"tracking_info"`
	Success      bool            `json:"success"`
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	number := strings.TrimSpace(chi.URLParam(r, "number"))
	if number == "" {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "tracking number required")
		return
	}
	res, err := s.tracker.Track(r.Context(), number, r.URL.Query().Get("carrier"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, TrackResponse{Carrier: res.Carrier, TrackingInfo: res, Success: true})
}

type BulkTrackRequest struct {
	Items []tracking.BulkItem `json:"items"`
}

func (s *Server) handleTrackBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if len(req.Items) == 0 {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "items required")
		return
	}
	res, err := s.tracker.TrackBulk(r.Context(), req.Items)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, res)
}

// Webhook ingestion: carriers push tracking events signed with a shared
// HMAC-SHA256 secret.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	carrier := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "carrier")))
	if carrier == "" {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "carrier required")
		return
	}
	secret, ok := s.secrets[carrier]
	if !ok {
		writeErrorJSON(w, http.StatusNotFound, "unsupported_carrier", "unsupported carrier")
		return
	}
	if strings.TrimSpace(secret) == "" {
		writeErrorJSON(w, http.StatusUnauthorized, "secret_not_configured", "webhook secret not configured")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "read_error", "read error")
		return
	}
	sigHeader := strings.TrimSpace(r.Header.Get("X-Signature"))
	sigHeader = strings.TrimPrefix(sigHeader, "sha256=")
	if sigHeader == "" {
		writeErrorJSON(w, http.StatusUnauthorized, "missing_signature", "missing signature")
		return
	}
	provided, err := hex.DecodeString(sigHeader)
	if err != nil {
		writeErrorJSON(w, http.StatusUnauthorized, "invalid_signature_format", "invalid signature format")
		return
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), provided) {
		writeErrorJSON(w, http.StatusUnauthorized, "signature_mismatch", "signature mismatch")
		return
	}

	number, ev, nerr := normalizeWebhook(body, time.Now().UTC())
	if nerr != nil {
		if errors.Is(nerr, ErrMissingTrackingNumber) {
			writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "tracking number required")
		} else {
			writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		}
		return
	}
	res, err := s.tracker.Ingest(r.Context(), carrier, number, ev)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, TrackResponse{Carrier: res.Carrier, TrackingInfo: res, Success: true})
}

// rateLimitMiddleware applies the injected limiter per caller identity:
// the API key when supplied, the client IP otherwise.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if key == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			key = host
		}
		ok, err := s.limiter.Allow(r.Context(), key)
		if err != nil {
			if s.log != nil {
				s.log.Warnw("rate limiter error", "key", key, "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			writeErrorJSON(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware ensures X-Request-ID is set on the response. A
// provided header is propagated; otherwise a UUID is generated.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if rid == "" {
			rid = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
