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

type productRepository struct {
	db      *sqlx.DB
	clients repository.ClientRepository
}

func NewProductRepository(db *sqlx.DB) repository.ProductRepository {
	return &productRepository{db: db, clients: NewClientRepository(db)}
}

func (r *productRepository) ListProducts(ctx context.Context, clientID int64) ([]domain.Product, error) {
	query := `
		SELECT id, client_id, sku, name, supplier_id, unit_price, safety_buffer_days
		FROM products
		WHERE client_id = $1
		ORDER BY id
	`

	var products []domain.Product
	if err := r.db.SelectContext(ctx, &products, query, clientID); err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}

	return products, nil
}

// GetOverrides loads everything the resolver needs for one (client, product)
// pair in one shot, so resolution itself stays free of database calls.
func (r *productRepository) GetOverrides(ctx context.Context, clientID, productID int64) (domain.ProductOverrides, error) {
	var ov domain.ProductOverrides

	productQuery := `
		SELECT id, client_id, sku, name, supplier_id, unit_price, safety_buffer_days
		FROM products
		WHERE client_id = $1 AND id = $2
	`
	if err := r.db.GetContext(ctx, &ov.Product, productQuery, clientID, productID); err != nil {
		return ov, fmt.Errorf("error getting product %d: %w", productID, err)
	}

	if ov.Product.SupplierID != nil {
		supplierQuery := `
			SELECT id, client_id, name, default_moq, default_lead_time_days
			FROM suppliers
			WHERE id = $1
		`
		var supplier domain.Supplier
		err := r.db.GetContext(ctx, &supplier, supplierQuery, *ov.Product.SupplierID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return ov, fmt.Errorf("error getting supplier: %w", err)
		}
		if err == nil {
			ov.Supplier = &supplier
		}

		conditionQuery := `
			SELECT supplier_id, product_id, moq, lead_time_days
			FROM supplier_conditions
			WHERE supplier_id = $1 AND product_id = $2
		`
		var condition domain.SupplierCondition
		err = r.db.GetContext(ctx, &condition, conditionQuery, *ov.Product.SupplierID, productID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return ov, fmt.Errorf("error getting supplier condition: %w", err)
		}
		if err == nil {
			ov.Condition = &condition
		}
	}

	settings, err := r.clients.GetSettings(ctx, clientID)
	if err != nil {
		return ov, err
	}
	ov.Settings = settings

	return ov, nil
}
