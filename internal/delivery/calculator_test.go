package delivery

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yawboateng/marketgh-backend/pkg/config"
	"github.com/yawboateng/marketgh-backend/pkg/db/models"
)

func testDeliveryConfig() config.DeliveryConfig {
	return config.DeliveryConfig{
		DefaultLatitude:   5.5600,
		DefaultLongitude:  -0.2050,
		SameDayCutoffHour: 12,
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	t.Parallel()

	// Accra to Kumasi is roughly 200km as the crow flies
	accra := Point{Latitude: 5.5600, Longitude: -0.2050}
	kumasi := Point{Latitude: 6.6885, Longitude: -1.6244}

	km := Haversine(accra, kumasi)
	if km < 190 || km > 210 {
		t.Fatalf("expected ~200km, got %f", km)
	}
	if got := Haversine(accra, accra); got != 0 {
		t.Fatalf("expected zero distance, got %f", got)
	}
}

func TestFeeNeverBelowBaseCost(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(testDeliveryConfig())
	base := decimal.RequireFromString("10.00")
	vendor := Point{Latitude: 5.5600, Longitude: -0.2050}

	distances := []Point{
		vendor,                                        // same point
		{Latitude: 5.6000, Longitude: -0.2050},        // a few km
		{Latitude: 6.6885, Longitude: -1.6244},        // ~200km
		{Latitude: 9.4075, Longitude: -0.8533},        // ~430km
	}
	for _, buyer := range distances {
		fee := calc.Fee(vendor, buyer, base)
		if fee.LessThan(base) {
			t.Fatalf("fee %s below base cost %s at %f km", fee, base, Haversine(vendor, buyer))
		}
	}
}

func TestFeeBands(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(testDeliveryConfig())
	base := decimal.RequireFromString("10.00")
	vendor := Point{Latitude: 5.5600, Longitude: -0.2050}

	// ~0km -> 1.0x
	if fee := calc.Fee(vendor, vendor, base); !fee.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected 10.00 in closest band, got %s", fee)
	}

	// ~200km -> 2.0x
	far := Point{Latitude: 6.6885, Longitude: -1.6244}
	if fee := calc.Fee(vendor, far, base); !fee.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected 20.00 in farthest band, got %s", fee)
	}
}

func TestBuyerPointFallsBackToDefault(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(testDeliveryConfig())

	got := calc.BuyerPoint(nil)
	if got.Latitude != 5.5600 || got.Longitude != -0.2050 {
		t.Fatalf("expected default point, got %+v", got)
	}

	lat := 6.1
	got = calc.BuyerPoint(&models.Profile{Latitude: &lat}) // longitude missing
	if got.Latitude != 5.5600 {
		t.Fatalf("partial coordinates should fall back, got %+v", got)
	}

	lon := -0.3
	got = calc.BuyerPoint(&models.Profile{Latitude: &lat, Longitude: &lon})
	if math.Abs(got.Latitude-6.1) > 1e-9 || math.Abs(got.Longitude+0.3) > 1e-9 {
		t.Fatalf("expected profile coordinates, got %+v", got)
	}
}

func TestDateRangeLabels(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(testDeliveryConfig())
	morning := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 9, 1, 15, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		min, max int
		now      time.Time
		want     string
	}{
		{"same day before cutoff", 0, 0, morning, "Today"},
		{"same day after cutoff", 0, 0, evening, "Tomorrow"},
		{"next day", 1, 1, morning, "Tomorrow"},
		{"fixed days", 3, 3, morning, "In 3 days"},
		{"range", 1, 4, morning, "02 September to 05 September"},
	}
	for _, tc := range cases {
		if got := calc.DateRangeLabel(tc.min, tc.max, tc.now); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestResolveDefaultOption(t *testing.T) {
	t.Parallel()

	standard := &models.DeliveryOption{ID: uuid.New(), Name: "Standard"}
	express := &models.DeliveryOption{ID: uuid.New(), Name: "Express"}

	links := []models.ProductDeliveryOption{
		{DeliveryOption: express},
		{DeliveryOption: standard, IsDefault: true},
	}
	if got := ResolveDefaultOption(links); got == nil || got.ID != standard.ID {
		t.Fatalf("expected flagged default option")
	}

	none := []models.ProductDeliveryOption{{DeliveryOption: express}}
	if got := ResolveDefaultOption(none); got != nil {
		t.Fatalf("expected nil when no default flagged, got %+v", got)
	}
}
