package rate

import (
	"strings"
	"time"
)

// Location identifies one end of a shipment. Country defaults to US when
// empty.
type Location struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country,omitempty"`
}

// Key renders the location the way the geo coordinate table is keyed.
func (l Location) Key() string {
	if l.Region == "" {
		return l.City
	}
	return l.City + ", " + l.Region
}

func (l Location) country() string {
	if strings.TrimSpace(l.Country) == "" {
		return "US"
	}
	return strings.ToUpper(strings.TrimSpace(l.Country))
}

// Dimensions are package dimensions in inches.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ShipmentRequest carries everything needed to price a shipment.
type ShipmentRequest struct {
	Origin        Location   `json:"origin"`
	Destination   Location   `json:"destination"`
	Equipment     string     `json:"equipment"`
	WeightLbs     float64    `json:"weight_lbs"`
	Dimensions    Dimensions `json:"dimensions"`
	DeclaredValue float64    `json:"declared_value"`
	PickupDate    time.Time  `json:"pickup_date,omitempty"`
	DeliveryDate  time.Time  `json:"delivery_date,omitempty"`

	Insurance         bool `json:"insurance"`
	SignatureRequired bool `json:"signature_required"`
	SaturdayDelivery  bool `json:"saturday_delivery"`
	Residential       bool `json:"residential"`

	// Caller-supplied extra surcharges, both default 0.
	CustomSurcharge     float64 `json:"custom_surcharge,omitempty"`
	CustomFuelSurcharge float64 `json:"custom_fuel_surcharge,omitempty"`
}

// Breakdown itemizes a quoted cost. The components always sum to the quote
// total (within float rounding).
type Breakdown struct {
	Base       float64 `json:"base"`
	Weight     float64 `json:"weight_cost"`
	Distance   float64 `json:"distance_adjustment"`
	Fuel       float64 `json:"fuel_surcharge"`
	Additional float64 `json:"additional_surcharges"`
}

// Total sums the breakdown components.
func (b Breakdown) Total() float64 {
	return b.Base + b.Weight + b.Distance + b.Fuel + b.Additional
}
