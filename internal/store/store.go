package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"freightportal/internal/tracking"
)

// Store is the pgx-backed persistence collaborator for the tracking
// aggregator: carrier bindings, append-only tracking history, and the
// audit log.
type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Carrier returns the carrier bound to a tracking number, or "" when the
// number has never been resolved.
func (s *Store) Carrier(ctx context.Context, trackingNumber string) (string, error) {
	var carrier string
	err := s.db.QueryRow(ctx,
		`SELECT carrier FROM carrier_bindings WHERE tracking_number = $1`,
		trackingNumber).Scan(&carrier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return carrier, nil
}

// Bind records which carrier owns a tracking number. Re-binding the same
// number updates the row.
func (s *Store) Bind(ctx context.Context, trackingNumber, carrier string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO carrier_bindings (tracking_number, carrier, bound_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (tracking_number) DO UPDATE SET carrier = EXCLUDED.carrier, bound_at = EXCLUDED.bound_at
	`, trackingNumber, carrier, time.Now().UTC())
	return err
}

// Append inserts one history record. Records are append-only: nothing here
// updates or deletes. A duplicate record id means a retried write and is
// treated as idempotent success.
func (s *Store) Append(ctx context.Context, rec tracking.HistoryRecord) error {
	events, err := json.Marshal(rec.Events)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO tracking_history (id, tracking_number, carrier, status, events, observed_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)
	`, rec.ID, rec.TrackingNumber, rec.Carrier, string(rec.Status), string(events), rec.ObservedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil
		}
		return err
	}
	return nil
}

// Audit appends one audit-log entry.
func (s *Store) Audit(ctx context.Context, action, trackingNumber, carrier string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO audit_log (id, action, tracking_number, carrier, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), action, trackingNumber, carrier, time.Now().UTC())
	return err
}

// History returns the recorded snapshots for a tracking number, newest
// first.
func (s *Store) History(ctx context.Context, trackingNumber string) ([]tracking.HistoryRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, tracking_number, carrier, status, events, observed_at
		FROM tracking_history
		WHERE tracking_number = $1
		ORDER BY observed_at DESC
	`, trackingNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tracking.HistoryRecord
	for rows.Next() {
		var (
			rec    tracking.HistoryRecord
			status string
			events []byte
		)
		if err := rows.Scan(&rec.ID, &rec.TrackingNumber, &rec.Carrier, &status, &events, &rec.ObservedAt); err != nil {
			return nil, err
		}
		rec.Status = tracking.Status(status)
		if err := json.Unmarshal(events, &rec.Events); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
