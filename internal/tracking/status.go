package tracking

import "strings"

// Status is the canonical state a carrier's free-text status normalizes
// into. Normal lifecycle moves forward through the first five values;
// EXCEPTION and RETURNED are absorbing.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusPickedUp       Status = "PICKED_UP"
	StatusInTransit      Status = "IN_TRANSIT"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusException      Status = "EXCEPTION"
	StatusReturned       Status = "RETURNED"
)

// statusRules maps free-text substrings to canonical statuses. The list is
// ordered: the first matching keyword wins, so specific phrases sit above
// the general ones they could shadow.
var statusRules = []struct {
	keyword string
	status  Status
}{
	{"out for delivery", StatusOutForDelivery},
	{"delivered", StatusDelivered},
	{"return to sender", StatusReturned},
	{"returned", StatusReturned},
	{"exception", StatusException},
	{"failed", StatusException},
	{"damaged", StatusException},
	{"held", StatusException},
	{"picked up", StatusPickedUp},
	{"pickup", StatusPickedUp},
	{"in transit", StatusInTransit},
	{"departed", StatusInTransit},
	{"arrived", StatusInTransit},
	{"on the way", StatusInTransit},
	{"label created", StatusPending},
	{"pending", StatusPending},
	{"pre-shipment", StatusPending},
}

// Canonicalize maps a carrier's free-text status to a canonical Status. The
// bool reports whether any rule matched; callers leave their status
// unchanged on a miss.
func Canonicalize(freeText string) (Status, bool) {
	s := strings.ToLower(freeText)
	for _, rule := range statusRules {
		if strings.Contains(s, rule.keyword) {
			return rule.status, true
		}
	}
	return "", false
}
