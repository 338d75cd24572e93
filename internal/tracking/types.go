package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is one observation from a carrier. Immutable once received.
type Event struct {
	Carrier      string     `json:"carrier"`
	Timestamp    time.Time  `json:"timestamp"`
	Status       string     `json:"status"`
	Location     string     `json:"location,omitempty"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
}

// Adapter is the contract a concrete carrier integration implements.
//
// Track must return an empty slice, not an error, when the carrier does not
// know the tracking number; errors are reserved for transport and auth
// failures so the aggregator can tell "try the next carrier" from "this
// carrier is broken". Implementations must honor ctx cancellation.
type Adapter interface {
	Code() string
	Track(ctx context.Context, trackingNumber string) ([]Event, error)
}

// HistoryRecord is an immutable, timestamped snapshot of the events
// observed for a tracking number. Created once per aggregator invocation,
// never mutated.
type HistoryRecord struct {
	ID             uuid.UUID `json:"id"`
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier"`
	Status         Status    `json:"status"`
	Events         []Event   `json:"events"`
	ObservedAt     time.Time `json:"observed_at"`
}

// BindingStore remembers which carrier owns a tracking number.
type BindingStore interface {
	// Carrier returns the bound carrier code, or "" when unknown.
	Carrier(ctx context.Context, trackingNumber string) (string, error)
	Bind(ctx context.Context, trackingNumber, carrier string) error
}

// HistoryStore appends history records. Appends are idempotent-safe to
// retry.
type HistoryStore interface {
	Append(ctx context.Context, rec HistoryRecord) error
}

// AuditLog records aggregator actions for later inspection.
type AuditLog interface {
	Audit(ctx context.Context, action, trackingNumber, carrier string) error
}

// ErrNotFound means no configured carrier knows the tracking number.
var ErrNotFound = errors.New("tracking number not found")

// ErrBatchTooLarge means a bulk request exceeded MaxBulkItems.
var ErrBatchTooLarge = errors.New("bulk request exceeds maximum batch size")

// UpstreamError reports a failure from a carrier whose binding was already
// known, where no fallback is attempted.
type UpstreamError struct {
	Carrier string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("carrier %s: %v", e.Carrier, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
