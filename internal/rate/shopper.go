package rate

import (
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"freightportal/internal/geo"
)

// ShopQuote is one carrier/service candidate for a shipment.
type ShopQuote struct {
	CarrierCode       string    `json:"carrier_code"`
	CarrierName       string    `json:"carrier_name"`
	ServiceCode       string    `json:"service_code"`
	ServiceName       string    `json:"service_name"`
	Breakdown         Breakdown `json:"breakdown"`
	TotalCost         float64   `json:"total_cost"`
	BillableWeight    float64   `json:"billable_weight"`
	TransitDays       int       `json:"transit_days"`
	Guaranteed        bool      `json:"guaranteed"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
}

// ShopResult is the ranked quote set. Quotes are sorted ascending by total
// cost; the ordering is derived on every call, never stored.
type ShopResult struct {
	Quotes            []ShopQuote `json:"quotes"`
	Cheapest          *ShopQuote  `json:"cheapest,omitempty"`
	FastestGuaranteed *ShopQuote  `json:"fastest_guaranteed,omitempty"`
}

// Filter restricts shopping to the named carriers and/or services. A nil
// filter means all candidates.
type Filter struct {
	Carriers []string `json:"carriers,omitempty"`
	Services []string `json:"services,omitempty"`
}

// Shopper prices a shipment against every configured carrier/service pair
// and ranks the candidates. Pure function over the injected table.
type Shopper struct {
	table    *Table
	resolver *geo.Resolver
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewShopper(table *Table, resolver *geo.Resolver, log *zap.SugaredLogger) *Shopper {
	return &Shopper{table: table, resolver: resolver, log: log, now: time.Now}
}

// NewShopperAt is NewShopper with an injected clock for delivery-date tests.
func NewShopperAt(table *Table, resolver *geo.Resolver, log *zap.SugaredLogger, now func() time.Time) *Shopper {
	return &Shopper{table: table, resolver: resolver, log: log, now: now}
}

// Shop validates the request, prices every candidate, and returns the
// quotes sorted ascending by total cost.
func (s *Shopper) Shop(req ShipmentRequest, filter *Filter) (*ShopResult, error) {
	if err := validateRequest(req, s.now()); err != nil {
		return nil, err
	}

	carriers, err := s.selectCarriers(filter)
	if err != nil {
		return nil, err
	}
	if filter != nil {
		if err := validateServices(filter.Services, carriers); err != nil {
			return nil, err
		}
	}

	shipStart := req.PickupDate
	if shipStart.IsZero() {
		shipStart = s.now()
	}
	distance := s.resolver.Distance(req.Origin.Key(), req.Destination.Key())

	var quotes []ShopQuote
	for _, c := range carriers {
		billable := billableWeight(req, c.DimDivisor)
		dm := distanceMultiplier(req.Origin, req.Destination)
		options := optionSurcharges(req, c)
		for _, svc := range c.Services {
			if filter != nil && len(filter.Services) > 0 && !containsFold(filter.Services, svc.Code) {
				continue
			}
			base := float64(distance) * svc.RatePerMile * dm
			weightCost := billable * c.WeightMultiplier * dm
			fuel := (base + weightCost) * c.FuelSurchargeRate
			bd := Breakdown{
				Base:       base,
				Weight:     weightCost,
				Fuel:       fuel,
				Additional: options,
			}
			quotes = append(quotes, ShopQuote{
				CarrierCode:       c.Code,
				CarrierName:       c.Name,
				ServiceCode:       svc.Code,
				ServiceName:       svc.Name,
				Breakdown:         bd,
				TotalCost:         bd.Total(),
				BillableWeight:    billable,
				TransitDays:       svc.TransitDays,
				Guaranteed:        svc.Guaranteed,
				EstimatedDelivery: addBusinessDays(shipStart, svc.TransitDays, req.SaturdayDelivery),
			})
		}
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].TotalCost < quotes[j].TotalCost })

	res := &ShopResult{Quotes: quotes}
	if len(quotes) > 0 {
		res.Cheapest = &quotes[0]
		res.FastestGuaranteed = fastestGuaranteed(quotes)
	}
	return res, nil
}

// selectCarriers resolves the carrier filter against the table. An unknown
// carrier code in the filter is a NotFoundError, not an empty result.
func (s *Shopper) selectCarriers(filter *Filter) ([]Carrier, error) {
	if filter == nil || len(filter.Carriers) == 0 {
		return s.table.Carriers, nil
	}
	var out []Carrier
	for _, code := range filter.Carriers {
		c, ok := s.table.Carrier(code)
		if !ok {
			return nil, &NotFoundError{Kind: "carrier", Code: code}
		}
		out = append(out, c)
	}
	return out, nil
}

// validateServices rejects any filter service code that none of the
// selected carriers offers, mirroring selectCarriers for carrier codes.
func validateServices(codes []string, carriers []Carrier) error {
	for _, code := range codes {
		found := false
		for _, c := range carriers {
			for _, svc := range c.Services {
				if strings.EqualFold(strings.TrimSpace(code), svc.Code) {
					found = true
				}
			}
		}
		if !found {
			return &NotFoundError{Kind: "service", Code: strings.TrimSpace(code)}
		}
	}
	return nil
}

// billableWeight is the greater of actual and dimensional weight.
func billableWeight(req ShipmentRequest, divisor float64) float64 {
	dim := req.Dimensions.Length * req.Dimensions.Width * req.Dimensions.Height / divisor
	return math.Max(req.WeightLbs, dim)
}

// distanceMultiplier scales the linehaul by geographic relationship:
// 1.0 same region, 1.2 same country, 1.5 cross-border.
func distanceMultiplier(o, d Location) float64 {
	if o.country() != d.country() {
		return 1.5
	}
	if strings.EqualFold(strings.TrimSpace(o.Region), strings.TrimSpace(d.Region)) {
		return 1.0
	}
	return 1.2
}

// optionSurcharges totals the requested option fees for one carrier.
func optionSurcharges(req ShipmentRequest, c Carrier) float64 {
	var total float64
	if req.Residential {
		total += c.ResidentialFee
	}
	if req.SignatureRequired {
		total += c.SignatureFee
	}
	if req.SaturdayDelivery {
		total += c.SaturdayFee
	}
	if req.Insurance {
		total += math.Max(2.50, req.DeclaredValue*0.01)
	}
	return total
}

// addBusinessDays walks forward skipping Sundays, and Saturdays unless
// Saturday delivery was requested.
func addBusinessDays(start time.Time, days int, saturdayOK bool) time.Time {
	d := start
	for added := 0; added < days; {
		d = d.AddDate(0, 0, 1)
		switch d.Weekday() {
		case time.Sunday:
			continue
		case time.Saturday:
			if !saturdayOK {
				continue
			}
		}
		added++
	}
	return d
}

// fastestGuaranteed picks the guaranteed quote with the fewest transit
// days; the ascending cost order breaks ties toward the cheaper service.
func fastestGuaranteed(sorted []ShopQuote) *ShopQuote {
	var best *ShopQuote
	for i := range sorted {
		if !sorted[i].Guaranteed {
			continue
		}
		if best == nil || sorted[i].TransitDays < best.TransitDays {
			best = &sorted[i]
		}
	}
	return best
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}
