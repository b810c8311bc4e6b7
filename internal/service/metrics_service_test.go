package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/replenish-engine/internal/config"
	"github.com/andresuchdata/replenish-engine/internal/domain"
)

// fakeStore is an in-memory implementation of every repository interface,
// recording the writes the service performs.
type fakeStore struct {
	clientIDs []int64
	settings  map[int64]*domain.ClientSettings
	products  map[int64][]domain.Product
	overrides map[string]domain.ProductOverrides
	series    map[string][]domain.DemandPoint
	seriesErr map[string]error
	stock     map[string]map[int64]domain.StockLevel

	upserted   []domain.SKUClassification
	replaced   map[string][]domain.InventoryMetricsSnapshot
	replaceErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings:  make(map[int64]*domain.ClientSettings),
		products:  make(map[int64][]domain.Product),
		overrides: make(map[string]domain.ProductOverrides),
		series:    make(map[string][]domain.DemandPoint),
		seriesErr: make(map[string]error),
		stock:     make(map[string]map[int64]domain.StockLevel),
		replaced:  make(map[string][]domain.InventoryMetricsSnapshot),
	}
}

func itemKey(clientID, itemID int64) string   { return fmt.Sprintf("%d:%d", clientID, itemID) }
func scopeKey(clientID int64, loc string) string { return fmt.Sprintf("%d:%s", clientID, loc) }

func (f *fakeStore) ListClientIDs(ctx context.Context) ([]int64, error) {
	return f.clientIDs, nil
}

func (f *fakeStore) GetSettings(ctx context.Context, clientID int64) (*domain.ClientSettings, error) {
	return f.settings[clientID], nil
}

func (f *fakeStore) ListProducts(ctx context.Context, clientID int64) ([]domain.Product, error) {
	return f.products[clientID], nil
}

func (f *fakeStore) GetOverrides(ctx context.Context, clientID, productID int64) (domain.ProductOverrides, error) {
	return f.overrides[itemKey(clientID, productID)], nil
}

func (f *fakeStore) GetDemandSeries(ctx context.Context, clientID, itemID int64) ([]domain.DemandPoint, error) {
	if err := f.seriesErr[itemKey(clientID, itemID)]; err != nil {
		return nil, err
	}
	return f.series[itemKey(clientID, itemID)], nil
}

func (f *fakeStore) GetStockLevels(ctx context.Context, clientID int64, locationID string) (map[int64]domain.StockLevel, error) {
	return f.stock[scopeKey(clientID, locationID)], nil
}

func (f *fakeStore) UpsertClassifications(ctx context.Context, rows []domain.SKUClassification) error {
	f.upserted = append(f.upserted, rows...)
	return nil
}

func (f *fakeStore) ReplaceForScope(ctx context.Context, clientID int64, locationID string, rows []domain.InventoryMetricsSnapshot) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced[scopeKey(clientID, locationID)] = rows
	return nil
}

func (f *fakeStore) GetSnapshots(ctx context.Context, filter domain.SnapshotFilter) ([]domain.InventoryMetricsSnapshot, int, error) {
	rows := f.replaced[scopeKey(filter.ClientID, filter.LocationID)]
	return rows, len(rows), nil
}

func (f *fakeStore) GetSummary(ctx context.Context, filter domain.SnapshotFilter) ([]domain.SnapshotSummary, error) {
	counts := make(map[string]int)
	for _, row := range f.replaced[scopeKey(filter.ClientID, filter.LocationID)] {
		counts[row.StockCondition]++
	}
	summaries := make([]domain.SnapshotSummary, 0, len(counts))
	for condition, count := range counts {
		summaries = append(summaries, domain.SnapshotSummary{Condition: condition, Count: count})
	}
	return summaries, nil
}

// countingCache is a pass-through cache that records invalidations.
type countingCache struct {
	invalidated []int64
}

func (c *countingCache) GetSummary(ctx context.Context, filter domain.SnapshotFilter) ([]domain.SnapshotSummary, bool, error) {
	return nil, false, nil
}

func (c *countingCache) SetSummary(ctx context.Context, filter domain.SnapshotFilter, summaries []domain.SnapshotSummary) error {
	return nil
}

func (c *countingCache) InvalidateClient(ctx context.Context, clientID int64) error {
	c.invalidated = append(c.invalidated, clientID)
	return nil
}

func (c *countingCache) InvalidateAll(ctx context.Context) error { return nil }

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		DefaultMOQ:              0,
		DefaultLeadTimeDays:     14,
		DefaultSafetyBufferDays: 7,
		ABCClassAPct:            80,
		ABCClassBPct:            95,
		XYZLowCV:                0.5,
		XYZHighCV:               1.0,
		ZeroRatioThreshold:      0.4,
		LumpyADIDays:            1.32,
		SizeCVThreshold:         0.7,
		WindowCapDays:           90,
		UnderstockedThreshold:   7,
		OverstockedThreshold:    60,
		DeadStockDays:           90,
	}
}

func newMetricsService(store *fakeStore, c *countingCache) *MetricsService {
	svc := NewMetricsService(testEngineConfig(), MetricsServiceDeps{
		Clients:         store,
		Products:        store,
		Demand:          store,
		Stock:           store,
		Classifications: store,
		Snapshots:       store,
		Cache:           c,
	})
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func dailySeries(start time.Time, units float64, days int) []domain.DemandPoint {
	series := make([]domain.DemandPoint, days)
	for i := range series {
		series[i] = domain.DemandPoint{Date: start.AddDate(0, 0, i), UnitsSold: units}
	}
	return series
}

func TestRefreshClientMetricsReplacesScope(t *testing.T) {
	store := newFakeStore()
	c := &countingCache{}

	start := time.Date(2024, 5, 23, 0, 0, 0, 0, time.UTC) // 10 days ending at asOf
	store.products[1] = []domain.Product{
		{ID: 101, ClientID: 1, SKU: "SKU-101", UnitPrice: 4.0},
		{ID: 102, ClientID: 1, SKU: "SKU-102", UnitPrice: 10.0},
	}
	store.series[itemKey(1, 101)] = dailySeries(start, 5, 10)
	store.series[itemKey(1, 102)] = dailySeries(start, 1, 10)
	store.stock[scopeKey(1, domain.LocationUnspecified)] = map[int64]domain.StockLevel{
		101: {ItemID: 101, OnHand: 50},
		102: {ItemID: 102, OnHand: 10},
	}

	svc := newMetricsService(store, c)

	summary, err := svc.RefreshClientMetrics(context.Background(), 1, "")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Refreshed)
	assert.Empty(t, summary.Failures)
	assert.Equal(t, domain.LocationUnspecified, summary.LocationID)

	rows := store.replaced[scopeKey(1, domain.LocationUnspecified)]
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, int64(101), first.ItemID)
	assert.InDelta(t, 5.0, first.AvgDailyDemand, 1e-9)
	require.NotNil(t, first.DaysOfSupply)
	assert.InDelta(t, 10.0, *first.DaysOfSupply, 1e-9)
	assert.InDelta(t, 200.0, first.InventoryValue, 1e-9)
	assert.Equal(t, domain.StockHealthy, first.StockCondition)

	require.Len(t, store.upserted, 2)
	assert.Equal(t, int64(1), store.upserted[0].ClientID)
	assert.Equal(t, domain.ABCClassA, store.upserted[0].ABCClass)

	assert.Equal(t, []int64{1}, c.invalidated)
}

func TestRefreshClientMetricsIsolatesOtherClients(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2024, 5, 23, 0, 0, 0, 0, time.UTC)

	store.products[1] = []domain.Product{{ID: 101, ClientID: 1, SKU: "A", UnitPrice: 1}}
	store.products[2] = []domain.Product{{ID: 201, ClientID: 2, SKU: "B", UnitPrice: 1}}
	store.series[itemKey(1, 101)] = dailySeries(start, 2, 10)
	store.series[itemKey(2, 201)] = dailySeries(start, 2, 10)

	svc := newMetricsService(store, &countingCache{})

	_, err := svc.RefreshClientMetrics(context.Background(), 2, "")
	require.NoError(t, err)
	_, err = svc.RefreshClientMetrics(context.Background(), 1, "")
	require.NoError(t, err)

	// client 2's scope survives client 1's refresh untouched
	require.Len(t, store.replaced[scopeKey(2, domain.LocationUnspecified)], 1)
	assert.Equal(t, int64(201), store.replaced[scopeKey(2, domain.LocationUnspecified)][0].ItemID)
	require.Len(t, store.replaced[scopeKey(1, domain.LocationUnspecified)], 1)
}

func TestRefreshClientMetricsCollectsPerSKUFailures(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2024, 5, 23, 0, 0, 0, 0, time.UTC)

	store.products[1] = []domain.Product{
		{ID: 101, ClientID: 1, SKU: "GOOD", UnitPrice: 1},
		{ID: 102, ClientID: 1, SKU: "BROKEN", UnitPrice: 1},
	}
	store.series[itemKey(1, 101)] = dailySeries(start, 3, 10)
	store.seriesErr[itemKey(1, 102)] = errors.New("demand store unavailable")

	svc := newMetricsService(store, &countingCache{})

	summary, err := svc.RefreshClientMetrics(context.Background(), 1, "")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Refreshed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, int64(102), summary.Failures[0].ItemID)
	assert.Equal(t, "BROKEN", summary.Failures[0].SKU)
	assert.Contains(t, summary.Failures[0].Reason, "demand store unavailable")

	// the healthy SKU still landed
	rows := store.replaced[scopeKey(1, domain.LocationUnspecified)]
	require.Len(t, rows, 1)
	assert.Equal(t, int64(101), rows[0].ItemID)
}

func TestRefreshClientMetricsFailedReplaceSkipsClassifications(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2024, 5, 23, 0, 0, 0, 0, time.UTC)

	store.products[1] = []domain.Product{{ID: 101, ClientID: 1, SKU: "A", UnitPrice: 1}}
	store.series[itemKey(1, 101)] = dailySeries(start, 3, 10)
	store.replaceErr = errors.New("replace failed")

	c := &countingCache{}
	svc := newMetricsService(store, c)

	_, err := svc.RefreshClientMetrics(context.Background(), 1, "")
	require.Error(t, err)

	// a failed scope replace leaves classifications stale alongside the
	// stale snapshots, never ahead of them
	assert.Empty(t, store.upserted)
	assert.Empty(t, c.invalidated)
}

func TestRefreshAllClients(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2024, 5, 23, 0, 0, 0, 0, time.UTC)

	store.clientIDs = []int64{1, 2}
	store.products[1] = []domain.Product{{ID: 101, ClientID: 1, SKU: "A", UnitPrice: 1}}
	store.products[2] = []domain.Product{{ID: 201, ClientID: 2, SKU: "B", UnitPrice: 1}}
	store.series[itemKey(1, 101)] = dailySeries(start, 2, 10)
	store.series[itemKey(2, 201)] = dailySeries(start, 2, 10)

	svc := newMetricsService(store, &countingCache{})

	summaries, err := svc.RefreshAllClients(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, int64(1), summaries[0].ClientID)
	assert.Equal(t, int64(2), summaries[1].ClientID)
}

func TestGetSummaryFallsBackToStore(t *testing.T) {
	store := newFakeStore()
	store.replaced[scopeKey(1, domain.LocationUnspecified)] = []domain.InventoryMetricsSnapshot{
		{ClientID: 1, ItemID: 101, StockCondition: domain.StockHealthy},
		{ClientID: 1, ItemID: 102, StockCondition: domain.StockHealthy},
	}

	svc := newMetricsService(store, &countingCache{})

	summaries, err := svc.GetSummary(context.Background(), domain.SnapshotFilter{
		ClientID:   1,
		LocationID: domain.LocationUnspecified,
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, domain.StockHealthy, summaries[0].Condition)
	assert.Equal(t, 2, summaries[0].Count)
}
