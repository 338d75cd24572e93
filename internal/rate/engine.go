package rate

import (
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"freightportal/internal/geo"
)

// maxWeightLbs is the legal gross-weight ceiling for a loaded trailer.
const maxWeightLbs = 80000

// EquipmentConfig is the per-equipment pricing configuration.
type EquipmentConfig struct {
	BaseRatePerMile   float64 `json:"base_rate_per_mile"`
	WeightMultiplier  float64 `json:"weight_multiplier"`
	FuelSurchargeRate float64 `json:"fuel_surcharge_rate"`
}

var equipmentConfigs = map[string]EquipmentConfig{
	"van":        {BaseRatePerMile: 2.10, WeightMultiplier: 0.015, FuelSurchargeRate: 0.18},
	"reefer":     {BaseRatePerMile: 2.60, WeightMultiplier: 0.018, FuelSurchargeRate: 0.20},
	"flatbed":    {BaseRatePerMile: 2.45, WeightMultiplier: 0.017, FuelSurchargeRate: 0.19},
	"step_deck":  {BaseRatePerMile: 2.55, WeightMultiplier: 0.017, FuelSurchargeRate: 0.19},
	"power_only": {BaseRatePerMile: 1.85, WeightMultiplier: 0.010, FuelSurchargeRate: 0.16},
}

// defaultEquipment applies when the equipment type is not in the table.
var defaultEquipment = EquipmentConfig{BaseRatePerMile: 2.00, WeightMultiplier: 0.015, FuelSurchargeRate: 0.18}

// EquipmentFor resolves an equipment type to its pricing configuration,
// falling back to the default for unknown types.
func EquipmentFor(equipment string) EquipmentConfig {
	if cfg, ok := equipmentConfigs[strings.ToLower(strings.TrimSpace(equipment))]; ok {
		return cfg
	}
	return defaultEquipment
}

// Quote is a single-shipment price with its transit estimate and a
// confidence score for the estimate.
type Quote struct {
	Equipment     string    `json:"equipment"`
	DistanceMiles int       `json:"distance_miles"`
	Breakdown     Breakdown `json:"breakdown"`
	TotalCost     float64   `json:"total_cost"`
	TransitDays   int       `json:"transit_days"`
	Confidence    float64   `json:"confidence"`
}

// Engine prices a single shipment deterministically from geography, weight,
// equipment, and options. It holds no mutable state.
type Engine struct {
	resolver *geo.Resolver
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewEngine(resolver *geo.Resolver, log *zap.SugaredLogger) *Engine {
	return &Engine{resolver: resolver, log: log, now: time.Now}
}

// NewEngineAt is NewEngine with an injected clock, for deterministic tests
// of the time-sensitive confidence terms.
func NewEngineAt(resolver *geo.Resolver, log *zap.SugaredLogger, now func() time.Time) *Engine {
	return &Engine{resolver: resolver, log: log, now: now}
}

// Quote validates the request and prices it.
func (e *Engine) Quote(req ShipmentRequest) (Quote, error) {
	if err := validateRequest(req, e.now()); err != nil {
		return Quote{}, err
	}

	cfg := EquipmentFor(req.Equipment)
	distance := e.resolver.Distance(req.Origin.Key(), req.Destination.Key())

	base := float64(distance) * cfg.BaseRatePerMile
	weightCost := req.WeightLbs * cfg.WeightMultiplier
	var distanceAdj float64
	if distance > 1000 {
		distanceAdj = float64(distance) * 0.1
	}
	fuel := base * cfg.FuelSurchargeRate
	additional := req.CustomSurcharge + req.CustomFuelSurcharge

	bd := Breakdown{
		Base:       base,
		Weight:     weightCost,
		Distance:   distanceAdj,
		Fuel:       fuel,
		Additional: additional,
	}

	return Quote{
		Equipment:     req.Equipment,
		DistanceMiles: distance,
		Breakdown:     bd,
		TotalCost:     bd.Total(),
		TransitDays:   TransitDays(distance),
		Confidence:    e.confidence(req),
	}, nil
}

// TransitDays estimates transit time in days for a distance in miles. It is
// non-decreasing in distance.
func TransitDays(distance int) int {
	switch {
	case distance <= 100:
		return 1
	case distance <= 300:
		return 2
	case distance <= 600:
		return 3
	case distance <= 1000:
		return 4
	case distance <= 1500:
		return 5
	case distance <= 2500:
		return 7
	default:
		return int(math.Ceil(float64(distance) / 400))
	}
}

// confidence scores how much of the request is filled in, from a 0.4 floor
// up to a 0.95 cap.
func (e *Engine) confidence(req ShipmentRequest) float64 {
	score := 0.4
	if req.Origin.City != "" && req.Destination.City != "" {
		score += 0.15
	}
	if strings.TrimSpace(req.Equipment) != "" {
		score += 0.10
	}
	if req.WeightLbs > 0 {
		score += 0.10
	}
	now := e.now()
	if !req.PickupDate.IsZero() {
		score += 0.05
		daysOut := req.PickupDate.Sub(now).Hours() / 24
		if daysOut >= 1 && daysOut <= 7 {
			score += 0.10
		}
	}
	if h := now.Hour(); h >= 9 && h < 17 {
		score += 0.10
	}
	return math.Min(score, 0.95)
}

// validateRequest enforces the request preconditions shared by the engine
// and the shopper.
func validateRequest(req ShipmentRequest, now time.Time) error {
	if strings.TrimSpace(req.Origin.City) == "" {
		return &ValidationError{Field: "origin", Reason: "required"}
	}
	if strings.TrimSpace(req.Destination.City) == "" {
		return &ValidationError{Field: "destination", Reason: "required"}
	}
	if strings.TrimSpace(req.Equipment) == "" {
		return &ValidationError{Field: "equipment", Reason: "required"}
	}
	if req.WeightLbs < 0 {
		return &ValidationError{Field: "weight_lbs", Reason: "must be positive"}
	}
	if req.WeightLbs > maxWeightLbs {
		return &ValidationError{Field: "weight_lbs", Reason: "exceeds 80000 lbs"}
	}
	if req.Dimensions.Length < 0 || req.Dimensions.Width < 0 || req.Dimensions.Height < 0 {
		return &ValidationError{Field: "dimensions", Reason: "must be positive"}
	}
	if !req.PickupDate.IsZero() {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if req.PickupDate.Before(today) {
			return &ValidationError{Field: "pickup_date", Reason: "must not be in the past"}
		}
	}
	return nil
}
