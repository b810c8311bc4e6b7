package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/replenish-engine/internal/domain"
	"github.com/andresuchdata/replenish-engine/internal/repository"
)

type clientRepository struct {
	db *sqlx.DB
}

func NewClientRepository(db *sqlx.DB) repository.ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) ListClientIDs(ctx context.Context) ([]int64, error) {
	query := `
		SELECT id
		FROM clients
		ORDER BY id
	`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("error listing client ids: %w", err)
	}

	return ids, nil
}

func (r *clientRepository) GetSettings(ctx context.Context, clientID int64) (*domain.ClientSettings, error) {
	query := `
		SELECT client_id, safety_buffer_days, understocked_threshold,
		       overstocked_threshold, dead_stock_days
		FROM client_settings
		WHERE client_id = $1
	`

	var settings domain.ClientSettings
	err := r.db.GetContext(ctx, &settings, query, clientID)
	if errors.Is(err, sql.ErrNoRows) {
		// No row means no client-level overrides; resolution falls through
		// to system defaults.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting client settings: %w", err)
	}

	return &settings, nil
}
