// Package classifier buckets a SKU's demand history into value (ABC),
// variability (XYZ) and demand-pattern classes. Classification never fails
// for empty histories: a SKU with no observations degrades to C/Z/intermittent
// so downstream consumers never special-case missing classifications.
package classifier

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/replenish-engine/internal/config"
	"github.com/andresuchdata/replenish-engine/internal/domain"
)

// Classifier holds the classification thresholds.
type Classifier struct {
	cfg config.EngineConfig
}

func New(cfg config.EngineConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// PopulationItem is one SKU of a client's population for ABC ranking.
type PopulationItem struct {
	ItemID    int64
	UnitPrice float64
	Series    []domain.DemandPoint
}

// Classify produces the full classification for one SKU given its demand
// series and the ABC class already derived from the client population.
func (c *Classifier) Classify(itemID int64, abc domain.ABCClass, series []domain.DemandPoint) (domain.SKUClassification, error) {
	if err := validateSeries(series); err != nil {
		return domain.SKUClassification{}, err
	}

	return domain.SKUClassification{
		ItemID:   itemID,
		ABCClass: abc,
		XYZClass: c.ClassifyXYZ(series),
		Pattern:  c.ClassifyPattern(series),
	}, nil
}

// ClassifyXYZ buckets by coefficient of variation of the demand series.
// A mean of zero (no demand at all) is a boundary case classified Z.
func (c *Classifier) ClassifyXYZ(series []domain.DemandPoint) domain.XYZClass {
	cv, ok := coefficientOfVariation(values(series))
	if !ok {
		return domain.XYZClassZ
	}

	switch {
	case cv < c.cfg.XYZLowCV:
		return domain.XYZClassX
	case cv < c.cfg.XYZHighCV:
		return domain.XYZClassY
	default:
		return domain.XYZClassZ
	}
}

// ClassifyPattern assigns exactly one demand pattern label.
//
// Precedence: an empty or all-zero series is intermittent; lumpy when demand
// arrives rarely and the nonzero sizes also vary highly; intermittent when
// the zero-day ratio is above threshold and overall CV is high; erratic when
// CV is high but demand occurs regularly; smooth otherwise.
func (c *Classifier) ClassifyPattern(series []domain.DemandPoint) domain.Pattern {
	vals := values(series)

	nonzero := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v > 0 {
			nonzero = append(nonzero, v)
		}
	}
	if len(vals) == 0 || len(nonzero) == 0 {
		return domain.PatternIntermittent
	}

	zeroRatio := float64(len(vals)-len(nonzero)) / float64(len(vals))
	adi := float64(len(vals)) / float64(len(nonzero))
	cv, _ := coefficientOfVariation(vals)
	sizeCV, _ := coefficientOfVariation(nonzero)

	highCV := cv >= c.cfg.XYZHighCV

	switch {
	case adi >= c.cfg.LumpyADIDays && sizeCV >= c.cfg.SizeCVThreshold:
		return domain.PatternLumpy
	case zeroRatio > c.cfg.ZeroRatioThreshold && highCV:
		return domain.PatternIntermittent
	case highCV:
		return domain.PatternErratic
	default:
		return domain.PatternSmooth
	}
}

// ClassifyABC ranks a client's SKU population by cumulative value
// contribution (units x unit price), descending. A SKU bands by the
// cumulative share accumulated before it: below ABCClassAPct is A, below
// ABCClassBPct is B, the remainder C. Banding on the share before the SKU
// keeps the one that crosses a band boundary in the higher band, so a
// single SKU carrying most of a client's value is always A. Ties rank
// stable by item id ascending.
func (c *Classifier) ClassifyABC(population []PopulationItem) map[int64]domain.ABCClass {
	type ranked struct {
		itemID int64
		value  decimal.Decimal
	}

	items := make([]ranked, 0, len(population))
	total := decimal.Zero
	for _, p := range population {
		price := decimal.NewFromFloat(p.UnitPrice)
		units := decimal.Zero
		for _, d := range p.Series {
			units = units.Add(decimal.NewFromFloat(d.UnitsSold))
		}
		value := units.Mul(price)
		items = append(items, ranked{itemID: p.ItemID, value: value})
		total = total.Add(value)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].value.Equal(items[j].value) {
			return items[i].value.GreaterThan(items[j].value)
		}
		return items[i].itemID < items[j].itemID
	})

	result := make(map[int64]domain.ABCClass, len(items))
	if total.IsZero() {
		// No value anywhere: the whole population is lowest tier.
		for _, item := range items {
			result[item.itemID] = domain.ABCClassC
		}
		return result
	}

	bandA := decimal.NewFromFloat(c.cfg.ABCClassAPct)
	bandB := decimal.NewFromFloat(c.cfg.ABCClassBPct)
	hundred := decimal.NewFromInt(100)

	cumulative := decimal.Zero
	for _, item := range items {
		pctBefore := cumulative.Mul(hundred).Div(total)
		cumulative = cumulative.Add(item.value)

		switch {
		case pctBefore.LessThan(bandA):
			result[item.itemID] = domain.ABCClassA
		case pctBefore.LessThan(bandB):
			result[item.itemID] = domain.ABCClassB
		default:
			result[item.itemID] = domain.ABCClassC
		}
	}

	return result
}

// validateSeries rejects a demand series whose dates are not chronological.
func validateSeries(series []domain.DemandPoint) error {
	var prev time.Time
	for i, d := range series {
		if i > 0 && d.Date.Before(prev) {
			return &domain.InvalidInputError{
				Field:  "demand_series",
				Reason: "observations must be in chronological order",
			}
		}
		prev = d.Date
	}
	return nil
}

func values(series []domain.DemandPoint) []float64 {
	vals := make([]float64, len(series))
	for i, d := range series {
		vals[i] = d.UnitsSold
	}
	return vals
}
