package rate

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Service is one delivery product offered by a carrier. RatePerMile is the
// linehaul rate; the base charge for a shipment is distance times this.
type Service struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	RatePerMile float64 `json:"rate_per_mile"`
	TransitDays int     `json:"transit_days"`
	Guaranteed  bool    `json:"guaranteed"`
}

// Carrier is one row of the rate table. Surcharge fees are flat amounts;
// WeightMultiplier and FuelSurchargeRate apply across the carrier's
// services.
type Carrier struct {
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	WeightMultiplier  float64   `json:"weight_multiplier"`
	FuelSurchargeRate float64   `json:"fuel_surcharge_rate"`
	DimDivisor        float64   `json:"dim_divisor"`
	ResidentialFee    float64   `json:"residential_fee"`
	SignatureFee      float64   `json:"signature_fee"`
	SaturdayFee       float64   `json:"saturday_fee"`
	Services          []Service `json:"services"`
}

// Table is the full carrier rate configuration. It is data, not code:
// operators swap it by pointing RATE_TABLE_PATH at a different file.
type Table struct {
	Carriers []Carrier `json:"carriers"`
}

// Carrier looks up a carrier by code.
func (t *Table) Carrier(code string) (Carrier, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, c := range t.Carriers {
		if c.Code == code {
			return c, true
		}
	}
	return Carrier{}, false
}

// LoadTable reads a rate table from a JSON file. An empty path returns the
// built-in table.
func LoadTable(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultTable(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rate table: %w", err)
	}
	var t Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("rate table: %w", err)
	}
	if len(t.Carriers) == 0 {
		return nil, fmt.Errorf("rate table: no carriers in %s", path)
	}
	for i := range t.Carriers {
		t.Carriers[i].Code = strings.ToLower(strings.TrimSpace(t.Carriers[i].Code))
		if t.Carriers[i].DimDivisor == 0 {
			t.Carriers[i].DimDivisor = 139
		}
	}
	return &t, nil
}

// DefaultTable is the built-in carrier configuration. The postal carrier
// uses the 166 dimensional divisor; everyone else uses 139.
func DefaultTable() *Table {
	return &Table{Carriers: []Carrier{
		{
			Code: "usps", Name: "US Postal",
			WeightMultiplier: 0.55, FuelSurchargeRate: 0.10, DimDivisor: 166,
			ResidentialFee: 0, SignatureFee: 3.25, SaturdayFee: 0,
			Services: []Service{
				{Code: "usps_ground", Name: "Ground Advantage", RatePerMile: 0.010, TransitDays: 5},
				{Code: "usps_priority", Name: "Priority Mail", RatePerMile: 0.016, TransitDays: 3},
			},
		},
		{
			Code: "ups", Name: "UPS",
			WeightMultiplier: 0.72, FuelSurchargeRate: 0.145, DimDivisor: 139,
			ResidentialFee: 5.25, SignatureFee: 6.05, SaturdayFee: 16.00,
			Services: []Service{
				{Code: "ups_ground", Name: "UPS Ground", RatePerMile: 0.012, TransitDays: 5},
				{Code: "ups_3day", Name: "UPS 3 Day Select", RatePerMile: 0.021, TransitDays: 3, Guaranteed: true},
				{Code: "ups_2day", Name: "UPS 2nd Day Air", RatePerMile: 0.029, TransitDays: 2, Guaranteed: true},
				{Code: "ups_nextday", Name: "UPS Next Day Air", RatePerMile: 0.051, TransitDays: 1, Guaranteed: true},
			},
		},
		{
			Code: "fedex", Name: "FedEx",
			WeightMultiplier: 0.70, FuelSurchargeRate: 0.15, DimDivisor: 139,
			ResidentialFee: 5.55, SignatureFee: 6.30, SaturdayFee: 16.50,
			Services: []Service{
				{Code: "fedex_ground", Name: "FedEx Ground", RatePerMile: 0.011, TransitDays: 5},
				{Code: "fedex_express_saver", Name: "FedEx Express Saver", RatePerMile: 0.022, TransitDays: 3, Guaranteed: true},
				{Code: "fedex_2day", Name: "FedEx 2Day", RatePerMile: 0.030, TransitDays: 2, Guaranteed: true},
				{Code: "fedex_overnight", Name: "FedEx Standard Overnight", RatePerMile: 0.054, TransitDays: 1, Guaranteed: true},
			},
		},
		{
			Code: "dhl", Name: "DHL Express",
			WeightMultiplier: 0.88, FuelSurchargeRate: 0.1625, DimDivisor: 139,
			ResidentialFee: 4.95, SignatureFee: 5.75, SaturdayFee: 18.00,
			Services: []Service{
				{Code: "dhl_worldwide", Name: "Express Worldwide", RatePerMile: 0.036, TransitDays: 4, Guaranteed: true},
				{Code: "dhl_1200", Name: "Express 12:00", RatePerMile: 0.058, TransitDays: 2, Guaranteed: true},
			},
		},
	}}
}
