package tracking

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		text string
		want Status
	}{
		{"Delivered to front door", StatusDelivered},
		{"Out for delivery", StatusOutForDelivery},
		{"OUT FOR DELIVERY", StatusOutForDelivery},
		{"In transit to next facility", StatusInTransit},
		{"Departed sort facility", StatusInTransit},
		{"Arrived at hub", StatusInTransit},
		{"Picked up by driver", StatusPickedUp},
		{"Pickup scheduled", StatusPickedUp},
		{"Delivery exception: address not found", StatusException},
		{"Delivery failed", StatusException},
		{"Return to sender initiated", StatusReturned},
		{"Returned", StatusReturned},
		{"Label created", StatusPending},
		{"Pending acceptance", StatusPending},
	}
	for _, c := range cases {
		got, ok := Canonicalize(c.text)
		if !ok {
			t.Fatalf("Canonicalize(%q): no match", c.text)
		}
		if got != c.want {
			t.Fatalf("Canonicalize(%q) = %s, want %s", c.text, got, c.want)
		}
	}
}

func TestCanonicalize_SpecificBeatsGeneral(t *testing.T) {
	// "out for delivery" and "in transit" could both plausibly match loose
	// phrasings; the ordered rule list must pick the more specific state.
	got, ok := Canonicalize("Out for delivery, in transit from local depot")
	if !ok || got != StatusOutForDelivery {
		t.Fatalf("expected OUT_FOR_DELIVERY, got %s (matched=%v)", got, ok)
	}
	got, ok = Canonicalize("Package delivered after transit")
	if !ok || got != StatusDelivered {
		t.Fatalf("expected DELIVERED, got %s (matched=%v)", got, ok)
	}
}

func TestCanonicalize_NoMatch(t *testing.T) {
	if _, ok := Canonicalize("status code 47"); ok {
		t.Fatalf("expected no match for unknown status text")
	}
}
