package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/replenish-engine/internal/config"
	"github.com/andresuchdata/replenish-engine/internal/domain"
	"github.com/andresuchdata/replenish-engine/internal/engine/metrics"
	"github.com/andresuchdata/replenish-engine/internal/engine/resolver"
	"github.com/andresuchdata/replenish-engine/internal/engine/simulator"
	"github.com/andresuchdata/replenish-engine/internal/repository"
)

// ScenarioRequest describes one what-if replenishment run for a single SKU.
// The horizon is inclusive on both ends; dates are interpreted day-granular.
type ScenarioRequest struct {
	ClientID   int64     `json:"client_id"`
	ItemID     int64     `json:"item_id"`
	LocationID string    `json:"location_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// ScenarioResult summarizes a simulated replenishment horizon.
type ScenarioResult struct {
	ClientID      int64                          `json:"client_id"`
	ItemID        int64                          `json:"item_id"`
	Parameters    domain.ReplenishmentParameters `json:"parameters"`
	OrdersPlaced  int                            `json:"orders_placed"`
	UnitsOrdered  int                            `json:"units_ordered"`
	UnitsReceived int                            `json:"units_received"`
	StockoutDays  int                            `json:"stockout_days"`
	EndingOnHand  float64                        `json:"ending_on_hand"`
	Orders        []domain.Order                 `json:"orders"`
}

// SimulationService replays a SKU's historical demand against the resolved
// replenishment parameters to show how the order book and stock position
// would have evolved.
type SimulationService struct {
	products   repository.ProductRepository
	demand     repository.DemandRepository
	stock      repository.StockRepository
	resolver   *resolver.Resolver
	calculator *metrics.Calculator
}

func NewSimulationService(
	cfg config.EngineConfig,
	products repository.ProductRepository,
	demand repository.DemandRepository,
	stock repository.StockRepository,
) *SimulationService {
	return &SimulationService{
		products:   products,
		demand:     demand,
		stock:      stock,
		resolver:   resolver.New(resolver.DefaultsFromConfig(cfg)),
		calculator: metrics.New(cfg),
	}
}

// RunScenario walks the horizon day by day: arrivals are received first,
// the day's demand is consumed, and a replenishment order is placed whenever
// the position (on hand plus on order) drops to the reorder level implied by
// the resolved lead time and safety buffer.
func (s *SimulationService) RunScenario(ctx context.Context, req ScenarioRequest) (*ScenarioResult, error) {
	if req.End.Before(req.Start) {
		return nil, &domain.InvalidInputError{Field: "end", Reason: "horizon end precedes start"}
	}
	locationID := req.LocationID
	if locationID == "" {
		locationID = domain.LocationUnspecified
	}

	overrides, err := s.products.GetOverrides(ctx, req.ClientID, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product overrides: %w", err)
	}

	params, err := s.resolver.Resolve(req.ClientID, overrides)
	if err != nil {
		return nil, err
	}
	if params.LeadTimeDays <= 0 {
		return nil, &domain.ConfigurationError{Parameter: "lead_time_days"}
	}

	series, err := s.demand.GetDemandSeries(ctx, req.ClientID, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load demand series: %w", err)
	}

	stockLevels, err := s.stock.GetStockLevels(ctx, req.ClientID, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock levels: %w", err)
	}

	avgDemand := s.calculator.AverageDemand(series, nil, req.Start)
	// Reorder when remaining cover no longer spans one replenishment cycle;
	// each order tops the position back up to the same cover.
	coverDays := float64(params.LeadTimeDays) + params.SafetyBufferDays
	reorderLevel := avgDemand * coverDays
	orderQty := int(math.Ceil(reorderLevel))

	demandByDay := make(map[time.Time]float64, len(series))
	for _, point := range series {
		day := point.Date.UTC().Truncate(24 * time.Hour)
		demandByDay[day] += point.UnitsSold
	}

	sim := simulator.New()
	onHand := stockLevels[req.ItemID].OnHand
	onOrder := 0

	result := &ScenarioResult{
		ClientID:   req.ClientID,
		ItemID:     req.ItemID,
		Parameters: params,
	}

	start := req.Start.UTC().Truncate(24 * time.Hour)
	end := req.End.UTC().Truncate(24 * time.Hour)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for _, order := range sim.OrdersArriving(day) {
			if err := sim.MarkReceived(order); err != nil {
				return nil, err
			}
			onHand += float64(order.Quantity)
			onOrder -= order.Quantity
			result.UnitsReceived += order.Quantity
		}

		onHand -= demandByDay[day]
		if onHand < 0 {
			onHand = 0
			result.StockoutDays++
		}

		if onHand+float64(onOrder) <= reorderLevel && orderQty > 0 {
			order, err := sim.PlaceOrder(req.ItemID, orderQty, day, params.LeadTimeDays, params.MOQ)
			if err != nil {
				return nil, err
			}
			onOrder += order.Quantity
			result.OrdersPlaced++
			result.UnitsOrdered += order.Quantity
			result.Orders = append(result.Orders, *order)
		}
	}

	result.EndingOnHand = onHand

	log.Info().
		Int64("client_id", req.ClientID).
		Int64("item_id", req.ItemID).
		Int("orders_placed", result.OrdersPlaced).
		Int("stockout_days", result.StockoutDays).
		Msg("simulation scenario completed")

	return result, nil
}
