package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/replenish-engine/internal/cache"
	"github.com/andresuchdata/replenish-engine/internal/config"
	"github.com/andresuchdata/replenish-engine/internal/domain"
	"github.com/andresuchdata/replenish-engine/internal/engine/classifier"
	"github.com/andresuchdata/replenish-engine/internal/engine/metrics"
	"github.com/andresuchdata/replenish-engine/internal/repository"
)

// refreshWorkers bounds the all-clients fan-out. Scopes of different
// clients are independent, so they may refresh concurrently; same-client
// serialization remains the caller's contract.
const refreshWorkers = 4

// ForecastProvider supplies forecast-informed daily demand values for a SKU.
// The values are produced by an upstream forecasting system and treated as
// opaque; a nil provider or empty result falls back to raw history.
type ForecastProvider interface {
	GetForecast(ctx context.Context, clientID, itemID int64) ([]float64, error)
}

// SKUFailure records one SKU that could not be refreshed.
type SKUFailure struct {
	ItemID int64  `json:"item_id"`
	SKU    string `json:"sku"`
	Reason string `json:"reason"`
}

// RefreshSummary reports the outcome of one refresh scope. Per-SKU failures
// never abort the remaining SKUs of the batch.
type RefreshSummary struct {
	ClientID   int64        `json:"client_id"`
	LocationID string       `json:"location_id"`
	Refreshed  int          `json:"refreshed"`
	Failures   []SKUFailure `json:"failures,omitempty"`
}

// MetricsService recomputes SKU classifications and inventory metrics
// snapshots per (client, location) scope.
type MetricsService struct {
	clients         repository.ClientRepository
	products        repository.ProductRepository
	demand          repository.DemandRepository
	stock           repository.StockRepository
	classifications repository.ClassificationRepository
	snapshots       repository.SnapshotRepository
	cache           cache.SnapshotCache
	forecasts       ForecastProvider

	classifier *classifier.Classifier
	calculator *metrics.Calculator

	now func() time.Time
}

type MetricsServiceDeps struct {
	Clients         repository.ClientRepository
	Products        repository.ProductRepository
	Demand          repository.DemandRepository
	Stock           repository.StockRepository
	Classifications repository.ClassificationRepository
	Snapshots       repository.SnapshotRepository
	Cache           cache.SnapshotCache
	Forecasts       ForecastProvider
}

func NewMetricsService(cfg config.EngineConfig, deps MetricsServiceDeps) *MetricsService {
	snapshotCache := deps.Cache
	if snapshotCache == nil {
		snapshotCache = cache.NewNoopSnapshotCache()
	}

	return &MetricsService{
		clients:         deps.Clients,
		products:        deps.Products,
		demand:          deps.Demand,
		stock:           deps.Stock,
		classifications: deps.Classifications,
		snapshots:       deps.Snapshots,
		cache:           snapshotCache,
		forecasts:       deps.Forecasts,
		classifier:      classifier.New(cfg),
		calculator:      metrics.New(cfg),
		now:             time.Now,
	}
}

// RefreshClientMetrics recomputes and replaces the snapshot set for one
// (client, location) scope. An empty locationID refreshes the unspecified
// location sentinel. The previous rows for the scope are superseded
// wholesale; rows of other clients are never touched.
func (s *MetricsService) RefreshClientMetrics(ctx context.Context, clientID int64, locationID string) (*RefreshSummary, error) {
	if locationID == "" {
		locationID = domain.LocationUnspecified
	}

	summary := &RefreshSummary{ClientID: clientID, LocationID: locationID}
	asOf := s.now().UTC()

	settings, err := s.clients.GetSettings(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client settings: %w", err)
	}
	thresholds := s.calculator.EffectiveThresholds(settings)

	products, err := s.products.ListProducts(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	stockLevels, err := s.stock.GetStockLevels(ctx, clientID, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock levels: %w", err)
	}

	// Load each SKU's demand series once; it feeds both the population ABC
	// ranking and the per-SKU metrics.
	seriesByItem := make(map[int64][]domain.DemandPoint, len(products))
	population := make([]classifier.PopulationItem, 0, len(products))
	for _, product := range products {
		series, err := s.demand.GetDemandSeries(ctx, clientID, product.ID)
		if err != nil {
			summary.Failures = append(summary.Failures, SKUFailure{
				ItemID: product.ID,
				SKU:    product.SKU,
				Reason: err.Error(),
			})
			continue
		}
		seriesByItem[product.ID] = series
		population = append(population, classifier.PopulationItem{
			ItemID:    product.ID,
			UnitPrice: product.UnitPrice,
			Series:    series,
		})
	}

	abcByItem := s.classifier.ClassifyABC(population)

	classifications := make([]domain.SKUClassification, 0, len(products))
	snapshots := make([]domain.InventoryMetricsSnapshot, 0, len(products))

	for _, product := range products {
		series, ok := seriesByItem[product.ID]
		if !ok {
			continue // demand load already failed above
		}

		classification, err := s.classifier.Classify(product.ID, abcByItem[product.ID], series)
		if err != nil {
			summary.Failures = append(summary.Failures, SKUFailure{
				ItemID: product.ID,
				SKU:    product.SKU,
				Reason: err.Error(),
			})
			continue
		}
		classification.ClientID = clientID
		classification.ComputedAt = asOf
		classifications = append(classifications, classification)

		snapshots = append(snapshots, s.buildSnapshot(ctx, product, series, stockLevels[product.ID], thresholds, clientID, locationID, asOf))
	}

	// Snapshots land first: if the scope replace fails, classifications stay
	// stale alongside the stale snapshots instead of getting ahead of them.
	if err := s.snapshots.ReplaceForScope(ctx, clientID, locationID, snapshots); err != nil {
		return nil, fmt.Errorf("failed to replace snapshot scope: %w", err)
	}
	summary.Refreshed = len(snapshots)

	if err := s.classifications.UpsertClassifications(ctx, classifications); err != nil {
		return nil, fmt.Errorf("failed to persist classifications: %w", err)
	}

	if err := s.cache.InvalidateClient(ctx, clientID); err != nil {
		log.Warn().Err(err).Int64("client_id", clientID).Msg("metrics: cache invalidation failed")
	}

	log.Info().
		Int64("client_id", clientID).
		Str("location_id", locationID).
		Int("refreshed", summary.Refreshed).
		Int("failures", len(summary.Failures)).
		Msg("metrics refresh completed")

	return summary, nil
}

// RefreshAllClients refreshes every known client for the given location.
// Client scopes are disjoint, so they run concurrently with a bounded pool.
func (s *MetricsService) RefreshAllClients(ctx context.Context, locationID string) ([]*RefreshSummary, error) {
	clientIDs, err := s.clients.ListClientIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	summaries := make([]*RefreshSummary, len(clientIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshWorkers)
	for i, clientID := range clientIDs {
		g.Go(func() error {
			summary, err := s.RefreshClientMetrics(gctx, clientID, locationID)
			if err != nil {
				return fmt.Errorf("client %d: %w", clientID, err)
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// GetSummary reads the condition summary for a scope, preferring the cache.
func (s *MetricsService) GetSummary(ctx context.Context, filter domain.SnapshotFilter) ([]domain.SnapshotSummary, error) {
	if summaries, ok, err := s.cache.GetSummary(ctx, filter); err == nil && ok {
		return summaries, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("metrics: cache get summary failed")
	}

	summaries, err := s.snapshots.GetSummary(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetSummary(ctx, filter, summaries); err != nil {
		log.Warn().Err(err).Msg("metrics: cache set summary failed")
	}

	return summaries, nil
}

// GetSnapshots reads snapshot rows for dashboards and exports.
func (s *MetricsService) GetSnapshots(ctx context.Context, filter domain.SnapshotFilter) ([]domain.InventoryMetricsSnapshot, int, error) {
	return s.snapshots.GetSnapshots(ctx, filter)
}

func (s *MetricsService) buildSnapshot(
	ctx context.Context,
	product domain.Product,
	series []domain.DemandPoint,
	stock domain.StockLevel,
	thresholds metrics.Thresholds,
	clientID int64,
	locationID string,
	asOf time.Time,
) domain.InventoryMetricsSnapshot {
	var forecast []float64
	if s.forecasts != nil {
		values, err := s.forecasts.GetForecast(ctx, clientID, product.ID)
		if err != nil {
			log.Warn().Err(err).Int64("item_id", product.ID).Msg("metrics: forecast unavailable, using raw history")
		} else {
			forecast = values
		}
	}

	avgDemand := s.calculator.AverageDemand(series, forecast, asOf)
	daysOfSupply := s.calculator.DaysOfSupply(stock.OnHand, avgDemand)
	daysSinceLastSale := s.calculator.DaysSinceLastSale(stock.LastSaleAt, series, asOf)
	condition := s.calculator.ClassifyStock(daysOfSupply, daysSinceLastSale, stock.OnHand, thresholds)

	value := decimal.NewFromFloat(stock.OnHand).Mul(decimal.NewFromFloat(product.UnitPrice))

	snapshot := domain.InventoryMetricsSnapshot{
		ClientID:       clientID,
		ItemID:         product.ID,
		SKU:            product.SKU,
		LocationID:     locationID,
		AvgDailyDemand: avgDemand,
		OnHand:         stock.OnHand,
		InventoryValue: value.InexactFloat64(),
		StockCondition: condition,
		LastSaleAt:     stock.LastSaleAt,
		ComputedAt:     asOf,
	}
	if !math.IsInf(daysOfSupply, 1) {
		snapshot.DaysOfSupply = &daysOfSupply
	}

	return snapshot
}
