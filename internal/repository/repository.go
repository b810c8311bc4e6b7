// Package repository defines the persistence boundary of the engine. The
// core computations never touch the database themselves; they consume
// already-materialized records loaded through these interfaces and hand the
// results back for persistence.
package repository

import (
	"context"

	"github.com/andresuchdata/replenish-engine/internal/domain"
)

// ClientRepository lists the known tenants for all-clients refresh runs.
type ClientRepository interface {
	ListClientIDs(ctx context.Context) ([]int64, error)
	GetSettings(ctx context.Context, clientID int64) (*domain.ClientSettings, error)
}

// ProductRepository loads a client's SKU population and its override records.
type ProductRepository interface {
	ListProducts(ctx context.Context, clientID int64) ([]domain.Product, error)
	GetOverrides(ctx context.Context, clientID int64, productID int64) (domain.ProductOverrides, error)
}

// DemandRepository loads per-SKU demand time series, ordered by date.
type DemandRepository interface {
	GetDemandSeries(ctx context.Context, clientID, itemID int64) ([]domain.DemandPoint, error)
}

// StockRepository reads current on-hand stock per (item, location).
type StockRepository interface {
	GetStockLevels(ctx context.Context, clientID int64, locationID string) (map[int64]domain.StockLevel, error)
}

// ClassificationRepository persists SKUClassification rows with
// overwrite semantics: one row per (client, item).
type ClassificationRepository interface {
	UpsertClassifications(ctx context.Context, rows []domain.SKUClassification) error
}

// SnapshotRepository persists and reads InventoryMetricsSnapshot rows.
// ReplaceForScope supersedes the previous rows for one (client, location)
// scope atomically; a failed refresh must not leave a mixed old/new set.
type SnapshotRepository interface {
	ReplaceForScope(ctx context.Context, clientID int64, locationID string, rows []domain.InventoryMetricsSnapshot) error
	GetSnapshots(ctx context.Context, filter domain.SnapshotFilter) ([]domain.InventoryMetricsSnapshot, int, error)
	GetSummary(ctx context.Context, filter domain.SnapshotFilter) ([]domain.SnapshotSummary, error)
}
