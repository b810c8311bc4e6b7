// Package metrics computes the windowed demand/inventory KPIs that back
// InventoryMetricsSnapshot rows: expanding-window average demand,
// days-of-supply and the stock-status classification.
package metrics

import (
	"math"
	"time"

	"github.com/andresuchdata/replenish-engine/internal/config"
	"github.com/andresuchdata/replenish-engine/internal/domain"
)

// Thresholds are the effective stock-status settings for one client.
// Each field overrides the system default independently.
type Thresholds struct {
	Understocked  float64
	Overstocked   float64
	DeadStockDays int
}

// Calculator computes inventory metrics for snapshot rows.
type Calculator struct {
	cfg config.EngineConfig
}

func New(cfg config.EngineConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// EffectiveThresholds merges per-client settings over system defaults.
func (c *Calculator) EffectiveThresholds(settings *domain.ClientSettings) Thresholds {
	t := Thresholds{
		Understocked:  c.cfg.UnderstockedThreshold,
		Overstocked:   c.cfg.OverstockedThreshold,
		DeadStockDays: c.cfg.DeadStockDays,
	}
	if settings == nil {
		return t
	}
	if settings.UnderstockedThreshold != nil {
		t.Understocked = *settings.UnderstockedThreshold
	}
	if settings.OverstockedThreshold != nil {
		t.Overstocked = *settings.OverstockedThreshold
	}
	if settings.DeadStockDays != nil {
		t.DeadStockDays = *settings.DeadStockDays
	}
	return t
}

// AverageDemand computes average daily demand over an expanding window: the
// window runs from the first observation (or asOf minus the cap, whichever
// is later) to asOf, so early-life SKUs are not diluted with zero-padding
// before their first sale. When a forecast series is supplied it is
// preferred over raw history; the forecast values are produced upstream and
// treated as opaque.
func (c *Calculator) AverageDemand(series []domain.DemandPoint, forecast []float64, asOf time.Time) float64 {
	if len(forecast) > 0 {
		var sum float64
		for _, v := range forecast {
			sum += v
		}
		return sum / float64(len(forecast))
	}

	if len(series) == 0 {
		return 0
	}

	asOfDay := dateOnly(asOf)
	windowStart := dateOnly(series[0].Date)
	if capStart := asOfDay.AddDate(0, 0, -c.cfg.WindowCapDays+1); capStart.After(windowStart) {
		windowStart = capStart
	}

	var units float64
	for _, d := range series {
		day := dateOnly(d.Date)
		if day.Before(windowStart) || day.After(asOfDay) {
			continue
		}
		units += d.UnitsSold
	}

	windowDays := int(asOfDay.Sub(windowStart).Hours()/24) + 1
	if windowDays <= 0 {
		return 0
	}

	return units / float64(windowDays)
}

// DaysOfSupply divides on-hand stock by average daily demand. Zero average
// demand yields +Inf, never a division error; callers must treat the
// sentinel as "no demand signal", not as understocked.
func (c *Calculator) DaysOfSupply(onHand, avgDemand float64) float64 {
	if avgDemand <= 0 {
		return math.Inf(1)
	}
	return onHand / avgDemand
}

// ClassifyStock buckets one (item, location) into exactly one stock
// condition. Total over (days-of-supply, days-since-last-sale):
//
//  1. on-hand stock with no sale for DeadStockDays or more is dead stock
//  2. the infinite days-of-supply sentinel is no_demand (a SKU without a
//     demand signal can never be understocked)
//  3. otherwise the understocked/overstocked thresholds apply
func (c *Calculator) ClassifyStock(daysOfSupply float64, daysSinceLastSale int, onHand float64, t Thresholds) string {
	if onHand > 0 && daysSinceLastSale >= t.DeadStockDays {
		return domain.StockDead
	}
	if math.IsInf(daysOfSupply, 1) {
		return domain.StockNoDemand
	}

	switch {
	case daysOfSupply < t.Understocked:
		return domain.StockUnderstocked
	case daysOfSupply > t.Overstocked:
		return domain.StockOverstocked
	default:
		return domain.StockHealthy
	}
}

// DaysSinceLastSale counts calendar days between the last sale and asOf.
// A SKU that never sold counts from the beginning of its history, or as
// "older than any dead-stock threshold" when there is no history at all.
func (c *Calculator) DaysSinceLastSale(lastSaleAt *time.Time, series []domain.DemandPoint, asOf time.Time) int {
	asOfDay := dateOnly(asOf)

	if lastSaleAt != nil {
		return int(asOfDay.Sub(dateOnly(*lastSaleAt)).Hours() / 24)
	}

	for i := len(series) - 1; i >= 0; i-- {
		if series[i].UnitsSold > 0 {
			return int(asOfDay.Sub(dateOnly(series[i].Date)).Hours() / 24)
		}
	}
	if len(series) > 0 {
		return int(asOfDay.Sub(dateOnly(series[0].Date)).Hours() / 24)
	}

	return math.MaxInt32
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
