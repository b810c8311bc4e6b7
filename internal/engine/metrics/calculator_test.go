package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/replenish-engine/internal/config"
	"github.com/andresuchdata/replenish-engine/internal/domain"
)

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		WindowCapDays:         90,
		UnderstockedThreshold: 7,
		OverstockedThreshold:  60,
		DeadStockDays:         90,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAverageDemand_ExpandingWindow(t *testing.T) {
	c := New(testEngineConfig())
	asOf := day(2024, 3, 10)

	// First observation 10 days back: the window is 10 days, not the cap,
	// so an early-life SKU is not diluted with zero-padding.
	series := []domain.DemandPoint{
		{Date: day(2024, 3, 1), UnitsSold: 12},
		{Date: day(2024, 3, 5), UnitsSold: 8},
	}

	assert.InDelta(t, 2.0, c.AverageDemand(series, nil, asOf), 1e-9)
}

func TestAverageDemand_WindowCappedForOldHistory(t *testing.T) {
	c := New(testEngineConfig())
	asOf := day(2024, 6, 30)

	series := []domain.DemandPoint{
		{Date: day(2023, 1, 1), UnitsSold: 1000}, // outside the cap, ignored
		{Date: day(2024, 6, 1), UnitsSold: 90},
	}

	// Window is exactly WindowCapDays even though history is much older.
	assert.InDelta(t, 1.0, c.AverageDemand(series, nil, asOf), 1e-9)
}

func TestAverageDemand_PrefersForecastWhenSupplied(t *testing.T) {
	c := New(testEngineConfig())

	series := []domain.DemandPoint{{Date: day(2024, 1, 1), UnitsSold: 100}}
	forecast := []float64{3, 4, 5}

	assert.InDelta(t, 4.0, c.AverageDemand(series, forecast, day(2024, 1, 2)), 1e-9)
}

func TestAverageDemand_EmptySeriesIsZero(t *testing.T) {
	c := New(testEngineConfig())

	assert.Zero(t, c.AverageDemand(nil, nil, day(2024, 1, 1)))
}

func TestDaysOfSupply_ZeroDemandYieldsSentinel(t *testing.T) {
	c := New(testEngineConfig())

	assert.True(t, math.IsInf(c.DaysOfSupply(50, 0), 1))
	assert.InDelta(t, 25.0, c.DaysOfSupply(50, 2), 1e-9)
}

func TestClassifyStock(t *testing.T) {
	c := New(testEngineConfig())
	thresholds := c.EffectiveThresholds(nil)

	tests := []struct {
		name              string
		daysOfSupply      float64
		daysSinceLastSale int
		onHand            float64
		want              string
	}{
		{"below threshold is understocked", 3, 5, 6, domain.StockUnderstocked},
		{"within band is healthy", 30, 5, 60, domain.StockHealthy},
		{"above threshold is overstocked", 120, 5, 240, domain.StockOverstocked},
		{"stale stock is dead stock", 120, 120, 240, domain.StockDead},
		{"sentinel is no_demand, never understocked", math.Inf(1), 10, 40, domain.StockNoDemand},
		{"sentinel with stale stock is dead stock", math.Inf(1), 200, 40, domain.StockDead},
		{"sentinel with no stock is no_demand", math.Inf(1), 200, 0, domain.StockNoDemand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ClassifyStock(tt.daysOfSupply, tt.daysSinceLastSale, tt.onHand, thresholds)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectiveThresholds_ClientOverridesApplyIndependently(t *testing.T) {
	c := New(testEngineConfig())

	understocked := 14.0
	settings := &domain.ClientSettings{UnderstockedThreshold: &understocked}
	thresholds := c.EffectiveThresholds(settings)

	assert.Equal(t, 14.0, thresholds.Understocked)
	assert.Equal(t, 60.0, thresholds.Overstocked) // system default kept
	assert.Equal(t, 90, thresholds.DeadStockDays)
}

func TestDaysSinceLastSale(t *testing.T) {
	c := New(testEngineConfig())
	asOf := day(2024, 3, 31)

	last := day(2024, 3, 1)
	assert.Equal(t, 30, c.DaysSinceLastSale(&last, nil, asOf))

	series := []domain.DemandPoint{
		{Date: day(2024, 1, 1), UnitsSold: 0},
		{Date: day(2024, 1, 31), UnitsSold: 5},
		{Date: day(2024, 2, 10), UnitsSold: 0},
	}
	assert.Equal(t, 60, c.DaysSinceLastSale(nil, series, asOf))

	// Never sold: counts from the start of observed history.
	zeroOnly := []domain.DemandPoint{{Date: day(2024, 1, 1), UnitsSold: 0}}
	assert.Equal(t, 90, c.DaysSinceLastSale(nil, zeroOnly, asOf))

	// No history at all: older than any dead-stock threshold.
	assert.Equal(t, math.MaxInt32, c.DaysSinceLastSale(nil, nil, asOf))
}
