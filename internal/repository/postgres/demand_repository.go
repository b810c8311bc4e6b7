package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/replenish-engine/internal/domain"
	"github.com/andresuchdata/replenish-engine/internal/repository"
)

type demandRepository struct {
	db *sqlx.DB
}

func NewDemandRepository(db *sqlx.DB) repository.DemandRepository {
	return &demandRepository{db: db}
}

func (r *demandRepository) GetDemandSeries(ctx context.Context, clientID, itemID int64) ([]domain.DemandPoint, error) {
	query := `
		SELECT date, units_sold
		FROM demand_history
		WHERE client_id = $1 AND item_id = $2
		ORDER BY date
	`

	var series []domain.DemandPoint
	if err := r.db.SelectContext(ctx, &series, query, clientID, itemID); err != nil {
		return nil, fmt.Errorf("error getting demand series for item %d: %w", itemID, err)
	}

	return series, nil
}

type stockRepository struct {
	db *sqlx.DB
}

func NewStockRepository(db *sqlx.DB) repository.StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) GetStockLevels(ctx context.Context, clientID int64, locationID string) (map[int64]domain.StockLevel, error) {
	query := `
		SELECT client_id, item_id, location_id, on_hand, last_sale_at
		FROM stock_levels
		WHERE client_id = $1 AND location_id = $2
	`

	var levels []domain.StockLevel
	if err := r.db.SelectContext(ctx, &levels, query, clientID, locationID); err != nil {
		return nil, fmt.Errorf("error getting stock levels: %w", err)
	}

	byItem := make(map[int64]domain.StockLevel, len(levels))
	for _, level := range levels {
		byItem[level.ItemID] = level
	}

	return byItem, nil
}
