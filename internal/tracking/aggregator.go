package tracking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result is what one tracking lookup produces.
type Result struct {
	TrackingNumber    string     `json:"tracking_number"`
	Carrier           string     `json:"carrier"`
	Status            Status     `json:"status"`
	Events            []Event    `json:"events"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
}

// Aggregator fans tracking lookups out over carrier adapters, normalizes
// statuses, and appends immutable history records. Its only cross-request
// state lives in the injected stores.
type Aggregator struct {
	adapters []Adapter // discovery priority order
	byCode   map[string]Adapter
	bindings BindingStore
	history  HistoryStore
	audit    AuditLog
	log      *zap.SugaredLogger
	timeout  time.Duration
	workers  int
	now      func() time.Time
}

// Options tunes the aggregator. Zero values fall back to defaults.
type Options struct {
	AdapterTimeout time.Duration // per-adapter call budget, default 5s
	BulkWorkers    int           // bulk worker pool size, default 8
	Now            func() time.Time
}

// NewAggregator builds an aggregator over adapters in discovery priority
// order.
func NewAggregator(adapters []Adapter, bindings BindingStore, history HistoryStore, audit AuditLog, log *zap.SugaredLogger, opts Options) *Aggregator {
	if opts.AdapterTimeout <= 0 {
		opts.AdapterTimeout = 5 * time.Second
	}
	if opts.BulkWorkers <= 0 {
		opts.BulkWorkers = 8
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	byCode := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		byCode[a.Code()] = a
	}
	return &Aggregator{
		adapters: adapters,
		byCode:   byCode,
		bindings: bindings,
		history:  history,
		audit:    audit,
		log:      log,
		timeout:  opts.AdapterTimeout,
		workers:  opts.BulkWorkers,
		now:      opts.Now,
	}
}

// Track resolves the carrier for a tracking number (directly when hinted or
// previously bound, by discovery otherwise), fetches fresh events, and
// records the observation.
//
// A bound carrier that fails or returns nothing does NOT fall back to
// discovery: a prior resolution is trusted over re-probing every carrier.
func (a *Aggregator) Track(ctx context.Context, trackingNumber, carrierHint string) (Result, error) {
	carrier := strings.ToLower(strings.TrimSpace(carrierHint))
	if carrier == "" && a.bindings != nil {
		bound, err := a.bindings.Carrier(ctx, trackingNumber)
		if err != nil {
			return Result{}, fmt.Errorf("binding lookup: %w", err)
		}
		carrier = bound
	}

	var (
		events []Event
		err    error
	)
	if carrier != "" {
		events, err = a.queryCarrier(ctx, trackingNumber, carrier)
	} else {
		carrier, events, err = a.discover(ctx, trackingNumber)
	}
	if err != nil {
		return Result{}, err
	}

	return a.resolved(ctx, trackingNumber, carrier, events)
}

// queryCarrier asks a single, already-known carrier. Errors surface as
// UpstreamError; an empty result is NotFound.
func (a *Aggregator) queryCarrier(ctx context.Context, trackingNumber, carrier string) ([]Event, error) {
	adapter, ok := a.byCode[carrier]
	if !ok {
		return nil, fmt.Errorf("carrier %q: %w", carrier, ErrNotFound)
	}
	events, err := a.callAdapter(ctx, adapter, trackingNumber)
	if err != nil {
		adapterErrors.WithLabelValues(carrier).Inc()
		return nil, &UpstreamError{Carrier: carrier, Err: err}
	}
	if len(events) == 0 {
		trackNotFound.Inc()
		return nil, ErrNotFound
	}
	// A hinted lookup that succeeds binds the carrier too, so a later
	// unhinted track skips discovery. Re-binding an existing binding is a
	// no-op upsert.
	if a.bindings != nil {
		if err := a.bindings.Bind(ctx, trackingNumber, carrier); err != nil && a.log != nil {
			a.log.Warnw("carrier bind failed", "carrier", carrier, "tracking_number", trackingNumber, "error", err)
		}
	}
	return events, nil
}

// discover probes adapters in priority order and stops at the first
// non-empty result. An adapter error or timeout just means "try the next
// one".
func (a *Aggregator) discover(ctx context.Context, trackingNumber string) (string, []Event, error) {
	for _, adapter := range a.adapters {
		discoverAttempts.WithLabelValues(adapter.Code()).Inc()
		events, err := a.callAdapter(ctx, adapter, trackingNumber)
		if err != nil {
			adapterErrors.WithLabelValues(adapter.Code()).Inc()
			if a.log != nil {
				a.log.Warnw("carrier probe failed", "carrier", adapter.Code(), "tracking_number", trackingNumber, "error", err)
			}
			continue
		}
		if len(events) == 0 {
			continue
		}
		if a.bindings != nil {
			if err := a.bindings.Bind(ctx, trackingNumber, adapter.Code()); err != nil && a.log != nil {
				a.log.Warnw("carrier bind failed", "carrier", adapter.Code(), "tracking_number", trackingNumber, "error", err)
			}
		}
		return adapter.Code(), events, nil
	}
	trackNotFound.Inc()
	return "", nil, ErrNotFound
}

// callAdapter wraps one adapter call in the per-call timeout.
func (a *Aggregator) callAdapter(ctx context.Context, adapter Adapter, trackingNumber string) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return adapter.Track(ctx, trackingNumber)
}

// resolved canonicalizes the latest event's status and emits the history
// record.
func (a *Aggregator) resolved(ctx context.Context, trackingNumber, carrier string, events []Event) (Result, error) {
	trackResolved.Inc()
	sortEventsAsc(events)

	status := StatusPending
	var latest *Event
	if len(events) > 0 {
		latest = &events[len(events)-1]
		if s, ok := Canonicalize(latest.Status); ok {
			status = s
		}
	}

	res := Result{
		TrackingNumber: trackingNumber,
		Carrier:        carrier,
		Status:         status,
		Events:         events,
	}
	if latest != nil && latest.DeliveryDate != nil {
		res.EstimatedDelivery = latest.DeliveryDate
	}

	if a.history != nil {
		rec := HistoryRecord{
			ID:             uuid.New(),
			TrackingNumber: trackingNumber,
			Carrier:        carrier,
			Status:         status,
			Events:         events,
			ObservedAt:     a.now().UTC(),
		}
		if err := a.history.Append(ctx, rec); err != nil {
			return Result{}, fmt.Errorf("append history: %w", err)
		}
	}
	if a.audit != nil {
		if err := a.audit.Audit(ctx, "track", trackingNumber, carrier); err != nil && a.log != nil {
			a.log.Warnw("audit append failed", "tracking_number", trackingNumber, "error", err)
		}
	}
	return res, nil
}

// Ingest records a carrier-pushed event (webhook path) without querying the
// adapter. The push binds the carrier and appends a single-event snapshot.
func (a *Aggregator) Ingest(ctx context.Context, carrier, trackingNumber string, ev Event) (Result, error) {
	if _, ok := a.byCode[carrier]; !ok {
		return Result{}, fmt.Errorf("carrier %q: %w", carrier, ErrNotFound)
	}
	ev.Carrier = carrier
	if a.bindings != nil {
		if err := a.bindings.Bind(ctx, trackingNumber, carrier); err != nil {
			return Result{}, fmt.Errorf("bind carrier: %w", err)
		}
	}
	return a.resolved(ctx, trackingNumber, carrier, []Event{ev})
}

// sortEventsAsc orders events oldest first, for stable history payloads.
func sortEventsAsc(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
