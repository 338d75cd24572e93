package server

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"freightportal/internal/tracking"
)

// ErrMissingTrackingNumber is returned when a webhook payload cannot
// produce a tracking number.
var ErrMissingTrackingNumber = errors.New("missing tracking number")

// normalizeWebhook maps a carrier's webhook payload into a tracking event.
// Carriers disagree on field names, so candidate keys are tried in order,
// with dot-path navigation for nested payloads.
func normalizeWebhook(body []byte, receivedAt time.Time) (string, tracking.Event, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", tracking.Event{}, err
	}

	number := getString(payload, []string{"tracking_number", "code", "tracking_code", "number", "id"})
	number = strings.TrimSpace(number)
	if number == "" {
		return "", tracking.Event{}, ErrMissingTrackingNumber
	}

	ev := tracking.Event{
		Status:    getString(payload, []string{"status", "event.status", "tracking_status"}),
		Location:  getLocation(payload),
		Timestamp: receivedAt,
	}
	if raw := getString(payload, []string{"occurred_at", "event.occurred_at", "event_time", "timestamp"}); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			ev.Timestamp = t.UTC()
		}
	}
	if raw := getString(payload, []string{"delivery_date", "estimated_delivery", "event.delivery_date"}); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			ev.DeliveryDate = &t
		}
	}
	return number, ev, nil
}

// getLocation handles both string locations and nested address objects.
func getLocation(payload map[string]any) string {
	if s := getString(payload, []string{"location", "event.location", "city"}); s != "" {
		return s
	}
	if v := getPath(payload, "location"); v != nil {
		if m, ok := v.(map[string]any); ok {
			city, _ := m["city"].(string)
			region, _ := m["region"].(string)
			if city != "" && region != "" {
				return city + ", " + region
			}
			return city
		}
	}
	return ""
}

// getString returns the first non-empty string from the candidate keys.
func getString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if v := getPath(m, k); v != nil {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

// getPath navigates a dot-separated key into nested maps.
func getPath(m map[string]any, path string) any {
	parts := strings.Split(path, ".")
	var cur any = m
	for _, p := range parts {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := mm[p]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}
