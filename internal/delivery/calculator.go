package delivery

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/yawboateng/marketgh-backend/pkg/config"
	"github.com/yawboateng/marketgh-backend/pkg/db/models"
)

const earthRadiusKm = 6371.0

// distance band -> multiplier on the option base cost. Multipliers never drop
// below 1, so the fee is always at least the base cost.
var distanceBands = []struct {
	maxKm      float64
	multiplier decimal.Decimal
}{
	{maxKm: 5, multiplier: decimal.NewFromInt(1)},
	{maxKm: 15, multiplier: decimal.RequireFromString("1.2")},
	{maxKm: 50, multiplier: decimal.RequireFromString("1.5")},
	{maxKm: math.MaxFloat64, multiplier: decimal.NewFromInt(2)},
}

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Calculator prices deliveries from the vendor's dispatch location to the
// buyer's coordinates.
type Calculator struct {
	cfg config.DeliveryConfig
}

// NewCalculator builds a delivery fee calculator.
func NewCalculator(cfg config.DeliveryConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// DefaultPoint is the configured city-centre fallback for buyers without
// saved coordinates.
func (c *Calculator) DefaultPoint() Point {
	return Point{Latitude: c.cfg.DefaultLatitude, Longitude: c.cfg.DefaultLongitude}
}

// BuyerPoint resolves the buyer's delivery coordinates from their profile,
// falling back to the default point when either coordinate is missing.
func (c *Calculator) BuyerPoint(profile *models.Profile) Point {
	if profile == nil || profile.Latitude == nil || profile.Longitude == nil {
		return c.DefaultPoint()
	}
	return Point{Latitude: *profile.Latitude, Longitude: *profile.Longitude}
}

// Fee applies the distance-band multiplier to the option's base cost, rounded
// to two decimal places.
func (c *Calculator) Fee(vendor Point, buyer Point, baseCost decimal.Decimal) decimal.Decimal {
	km := Haversine(vendor, buyer)
	for _, band := range distanceBands {
		if km <= band.maxKm {
			return baseCost.Mul(band.multiplier).Round(2)
		}
	}
	return baseCost.Round(2)
}

// Haversine returns the great-circle distance between two points in
// kilometres.
func Haversine(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// ResolveDefaultOption returns the option flagged as default for the product,
// or nil when none is flagged.
func ResolveDefaultOption(options []models.ProductDeliveryOption) *models.DeliveryOption {
	for _, link := range options {
		if link.IsDefault && link.DeliveryOption != nil {
			return link.DeliveryOption
		}
	}
	return nil
}
