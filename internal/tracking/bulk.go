package tracking

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// MaxBulkItems caps a bulk request to bound total latency.
const MaxBulkItems = 50

// BulkItem is one entry in a bulk tracking request.
type BulkItem struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier,omitempty"`
}

// BulkItemResult is one entry's outcome. A failed item carries its error
// message in its own slot and never affects the rest of the batch.
type BulkItemResult struct {
	TrackingNumber string  `json:"tracking_number"`
	Success        bool    `json:"success"`
	Result         *Result `json:"tracking_info,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// BulkResult is the whole batch outcome. Results are in input order and
// there is exactly one per input item.
type BulkResult struct {
	Results      []BulkItemResult `json:"results"`
	TotalTracked int              `json:"total_tracked"`
	Successful   int              `json:"successful"`
}

// TrackBulk processes up to MaxBulkItems lookups with a bounded worker
// pool. Items are independent: one failure is confined to its result slot.
func (a *Aggregator) TrackBulk(ctx context.Context, items []BulkItem) (BulkResult, error) {
	if len(items) > MaxBulkItems {
		return BulkResult{}, ErrBatchTooLarge
	}

	results := make([]BulkItemResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, item := range items {
		i, item := i, item
		if strings.TrimSpace(item.TrackingNumber) == "" {
			results[i] = BulkItemResult{Success: false, Error: "tracking number required"}
			continue
		}
		g.Go(func() error {
			res, err := a.Track(gctx, item.TrackingNumber, item.Carrier)
			if err != nil {
				results[i] = BulkItemResult{
					TrackingNumber: item.TrackingNumber,
					Success:        false,
					Error:          err.Error(),
				}
				return nil // per-item failures never abort the batch
			}
			results[i] = BulkItemResult{
				TrackingNumber: item.TrackingNumber,
				Success:        true,
				Result:         &res,
			}
			return nil
		})
	}
	_ = g.Wait()

	out := BulkResult{Results: results, TotalTracked: len(items)}
	for _, r := range results {
		if r.Success {
			out.Successful++
		}
	}
	return out, nil
}
