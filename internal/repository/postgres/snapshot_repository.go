package postgres

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/andresuchdata/replenish-engine/internal/domain"
	"github.com/andresuchdata/replenish-engine/internal/repository"
)

type snapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) repository.SnapshotRepository {
	return &snapshotRepository{db: db}
}

// ReplaceForScope deletes the previous snapshot rows for the (client,
// location) scope and inserts the new set inside one transaction, so a
// failed refresh never leaves a mixed old/new snapshot behind.
func (r *snapshotRepository) ReplaceForScope(ctx context.Context, clientID int64, locationID string, rows []domain.InventoryMetricsSnapshot) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		deleteQuery := `
			DELETE FROM inventory_metrics_snapshots
			WHERE client_id = $1 AND location_id = $2
		`
		if _, err := tx.ExecContext(ctx, deleteQuery, clientID, locationID); err != nil {
			return fmt.Errorf("error superseding snapshot scope: %w", err)
		}

		insertQuery := `
			INSERT INTO inventory_metrics_snapshots (
				client_id, item_id, sku, location_id, avg_daily_demand,
				on_hand, days_of_supply, inventory_value, stock_condition,
				last_sale_at, computed_at
			) VALUES (
				:client_id, :item_id, :sku, :location_id, :avg_daily_demand,
				:on_hand, :days_of_supply, :inventory_value, :stock_condition,
				:last_sale_at, :computed_at
			)
		`
		for _, row := range rows {
			// The infinite sentinel persists as NULL days_of_supply.
			if row.DaysOfSupply != nil && math.IsInf(*row.DaysOfSupply, 0) {
				row.DaysOfSupply = nil
			}
			if _, err := tx.NamedExecContext(ctx, insertQuery, row); err != nil {
				return fmt.Errorf("error inserting snapshot row for item %d: %w", row.ItemID, err)
			}
		}

		return nil
	})
}

func (r *snapshotRepository) GetSnapshots(ctx context.Context, filter domain.SnapshotFilter) ([]domain.InventoryMetricsSnapshot, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM inventory_metrics_snapshots
		WHERE client_id = $1
	`

	query := `
		SELECT client_id, item_id, sku, location_id, avg_daily_demand,
		       on_hand, days_of_supply, inventory_value, stock_condition,
		       last_sale_at, computed_at
		FROM inventory_metrics_snapshots
		WHERE client_id = $1
	`

	args := []interface{}{filter.ClientID}
	conditions, args := buildSnapshotConditions(filter, args)

	if len(conditions) > 0 {
		whereClause := " AND " + strings.Join(conditions, " AND ")
		query += whereClause
		countQuery += whereClause
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("error counting snapshots: %w", err)
	}

	query += " ORDER BY item_id"
	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.PageSize, offset)
	}

	var snapshots []domain.InventoryMetricsSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("error getting snapshots: %w", err)
	}

	return snapshots, total, nil
}

func (r *snapshotRepository) GetSummary(ctx context.Context, filter domain.SnapshotFilter) ([]domain.SnapshotSummary, error) {
	query := `
		SELECT stock_condition, COUNT(*) as count
		FROM inventory_metrics_snapshots
		WHERE client_id = $1
	`

	args := []interface{}{filter.ClientID}
	conditions, args := buildSnapshotConditions(filter, args)

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " GROUP BY stock_condition"

	var summaries []domain.SnapshotSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("error getting snapshot summary: %w", err)
	}

	return summaries, nil
}

func buildSnapshotConditions(filter domain.SnapshotFilter, args []interface{}) ([]string, []interface{}) {
	var conditions []string

	if filter.LocationID != "" {
		conditions = append(conditions, fmt.Sprintf("location_id = $%d", len(args)+1))
		args = append(args, filter.LocationID)
	}
	if len(filter.ItemIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("item_id = ANY($%d::bigint[])", len(args)+1))
		args = append(args, pq.Array(filter.ItemIDs))
	}
	if len(filter.Conditions) > 0 {
		conditions = append(conditions, fmt.Sprintf("stock_condition = ANY($%d::text[])", len(args)+1))
		args = append(args, pq.Array(filter.Conditions))
	}

	return conditions, args
}

type classificationRepository struct {
	db *DB
}

func NewClassificationRepository(db *DB) repository.ClassificationRepository {
	return &classificationRepository{db: db}
}

// UpsertClassifications overwrites the previous classification of each
// (client, item); classifications are recomputed wholesale, not versioned.
func (r *classificationRepository) UpsertClassifications(ctx context.Context, rows []domain.SKUClassification) error {
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO sku_classifications (
			client_id, item_id, abc_class, xyz_class, demand_pattern, computed_at
		) VALUES (
			:client_id, :item_id, :abc_class, :xyz_class, :demand_pattern, :computed_at
		)
		ON CONFLICT (client_id, item_id)
		DO UPDATE SET
			abc_class = EXCLUDED.abc_class,
			xyz_class = EXCLUDED.xyz_class,
			demand_pattern = EXCLUDED.demand_pattern,
			computed_at = EXCLUDED.computed_at
	`

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, row := range rows {
			if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
				return fmt.Errorf("error upserting classification for item %d: %w", row.ItemID, err)
			}
		}
		return nil
	})
}
