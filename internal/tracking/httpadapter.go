package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPAdapter is a generic JSON-over-HTTP carrier integration: it queries
// {base_url}/shipments/{tracking_number}/events with a bearer token. A 404
// is "not found here", per the Adapter contract.
type HTTPAdapter struct {
	code    string
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPAdapter(code, baseURL, apiKey string) *HTTPAdapter {
	return &HTTPAdapter{
		code:    code,
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HTTPAdapter) Code() string { return h.code }

type upstreamEvent struct {
	Timestamp    time.Time  `json:"timestamp"`
	Status       string     `json:"status"`
	Location     string     `json:"location"`
	DeliveryDate *time.Time `json:"delivery_date"`
}

func (h *HTTPAdapter) Track(ctx context.Context, trackingNumber string) ([]Event, error) {
	u := fmt.Sprintf("%s/shipments/%s/events", h.baseURL, url.PathEscape(trackingNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("carrier %s: unexpected status %d", h.code, resp.StatusCode)
	}

	var payload struct {
		Events []upstreamEvent `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("carrier %s: decode: %w", h.code, err)
	}

	events := make([]Event, 0, len(payload.Events))
	for _, e := range payload.Events {
		events = append(events, Event{
			Carrier:      h.code,
			Timestamp:    e.Timestamp,
			Status:       e.Status,
			Location:     e.Location,
			DeliveryDate: e.DeliveryDate,
		})
	}
	return events, nil
}
