package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newSeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Seed the database from CSV files",
		Subcommands: []*cli.Command{
			{
				Name:  "master",
				Usage: "Seed master data (clients, suppliers, products, overrides)",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Directory containing master seed CSVs",
						Value:   "./data/seeds/master",
						EnvVars: []string{"SEED_DATA_DIR"},
					},
				},
				Action: runMasterSeed,
			},
			{
				Name:  "demand",
				Usage: "Seed demand history and stock levels",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Directory containing demand and stock CSVs",
						Value:   "./data/seeds/demand",
						EnvVars: []string{"DEMAND_DATA_DIR"},
					},
				},
				Action: runDemandSeed,
			},
		},
	}
}

func openSeedDB(c *cli.Context) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func runMasterSeed(c *cli.Context) error {
	db, err := openSeedDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	dataDir := c.String("data-dir")
	ctx := c.Context

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	log.Info().Str("dir", dataDir).Msg("seeding master data")

	if err := seedClients(ctx, tx, filepath.Join(dataDir, "clients.csv")); err != nil {
		return fmt.Errorf("failed to seed clients: %w", err)
	}
	if err := seedSuppliers(ctx, tx, filepath.Join(dataDir, "suppliers.csv")); err != nil {
		return fmt.Errorf("failed to seed suppliers: %w", err)
	}
	if err := seedProducts(ctx, tx, filepath.Join(dataDir, "products.csv")); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if err := seedSupplierConditions(ctx, tx, filepath.Join(dataDir, "supplier_conditions.csv")); err != nil {
		return fmt.Errorf("failed to seed supplier conditions: %w", err)
	}
	if err := seedClientSettings(ctx, tx, filepath.Join(dataDir, "client_settings.csv")); err != nil {
		return fmt.Errorf("failed to seed client settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().Msg("master data seeding completed")
	return nil
}

func runDemandSeed(c *cli.Context) error {
	db, err := openSeedDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	dataDir := c.String("data-dir")
	ctx := c.Context

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	log.Info().Str("dir", dataDir).Msg("seeding demand data")

	if err := seedDemandHistory(ctx, tx, filepath.Join(dataDir, "demand_history.csv")); err != nil {
		return fmt.Errorf("failed to seed demand history: %w", err)
	}
	if err := seedStockLevels(ctx, tx, filepath.Join(dataDir, "stock_levels.csv")); err != nil {
		return fmt.Errorf("failed to seed stock levels: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().Msg("demand data seeding completed")
	return nil
}

func seedClients(ctx context.Context, tx *sql.Tx, path string) error {
	const query = `
		INSERT INTO clients (id, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
	`
	return forEachRecord(path, func(rec map[string]string) error {
		_, err := tx.ExecContext(ctx, query, rec["id"], rec["name"])
		return err
	})
}

func seedSuppliers(ctx context.Context, tx *sql.Tx, path string) error {
	const query = `
		INSERT INTO suppliers (id, client_id, name, default_moq, default_lead_time_days)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			default_moq = EXCLUDED.default_moq,
			default_lead_time_days = EXCLUDED.default_lead_time_days
	`
	return forEachRecord(path, func(rec map[string]string) error {
		_, err := tx.ExecContext(ctx, query,
			rec["id"], rec["client_id"], rec["name"],
			nullableInt(rec["default_moq"]),
			nullableInt(rec["default_lead_time_days"]),
		)
		return err
	})
}

func seedProducts(ctx context.Context, tx *sql.Tx, path string) error {
	const query = `
		INSERT INTO products (id, client_id, sku, name, supplier_id, unit_price, safety_buffer_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			sku = EXCLUDED.sku,
			name = EXCLUDED.name,
			supplier_id = EXCLUDED.supplier_id,
			unit_price = EXCLUDED.unit_price,
			safety_buffer_days = EXCLUDED.safety_buffer_days
	`
	count := 0
	err := forEachRecord(path, func(rec map[string]string) error {
		price, err := parseFloatField(rec["unit_price"])
		if err != nil {
			return fmt.Errorf("invalid unit_price for sku %s: %w", rec["sku"], err)
		}
		if _, err := tx.ExecContext(ctx, query,
			rec["id"], rec["client_id"], rec["sku"], rec["name"],
			nullIfEmpty(rec["supplier_id"]),
			price,
			nullableFloat(rec["safety_buffer_days"]),
		); err != nil {
			return err
		}
		count++
		if count%5000 == 0 {
			log.Info().Int("rows", count).Msg("seeding products...")
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Int("rows", count).Msg("seeded products")
	return nil
}

func seedSupplierConditions(ctx context.Context, tx *sql.Tx, path string) error {
	const query = `
		INSERT INTO supplier_conditions (supplier_id, product_id, moq, lead_time_days)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (supplier_id, product_id) DO UPDATE SET
			moq = EXCLUDED.moq,
			lead_time_days = EXCLUDED.lead_time_days
	`
	return forEachRecord(path, func(rec map[string]string) error {
		_, err := tx.ExecContext(ctx, query,
			rec["supplier_id"], rec["product_id"],
			nullableInt(rec["moq"]),
			nullableInt(rec["lead_time_days"]),
		)
		return err
	})
}

func seedClientSettings(ctx context.Context, tx *sql.Tx, path string) error {
	const query = `
		INSERT INTO client_settings (client_id, safety_buffer_days, understocked_threshold, overstocked_threshold, dead_stock_days)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (client_id) DO UPDATE SET
			safety_buffer_days = EXCLUDED.safety_buffer_days,
			understocked_threshold = EXCLUDED.understocked_threshold,
			overstocked_threshold = EXCLUDED.overstocked_threshold,
			dead_stock_days = EXCLUDED.dead_stock_days
	`
	return forEachRecord(path, func(rec map[string]string) error {
		_, err := tx.ExecContext(ctx, query,
			rec["client_id"],
			nullableFloat(rec["safety_buffer_days"]),
			nullableFloat(rec["understocked_threshold"]),
			nullableFloat(rec["overstocked_threshold"]),
			nullableInt(rec["dead_stock_days"]),
		)
		return err
	})
}

func seedDemandHistory(ctx context.Context, tx *sql.Tx, path string) error {
	const query = `
		INSERT INTO demand_history (client_id, item_id, date, units_sold)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (client_id, item_id, date) DO UPDATE SET units_sold = EXCLUDED.units_sold
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare demand statement: %w", err)
	}
	defer stmt.Close()

	count := 0
	err = forEachRecord(path, func(rec map[string]string) error {
		date, err := time.Parse(dateLayout, rec["date"])
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", rec["date"], err)
		}
		units, err := parseFloatField(rec["units_sold"])
		if err != nil {
			return fmt.Errorf("invalid units_sold %q: %w", rec["units_sold"], err)
		}
		if _, err := stmt.ExecContext(ctx, rec["client_id"], rec["item_id"], date, units); err != nil {
			return err
		}
		count++
		if count%10000 == 0 {
			log.Info().Int("rows", count).Msg("seeding demand history...")
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Int("rows", count).Msg("seeded demand history")
	return nil
}

func seedStockLevels(ctx context.Context, tx *sql.Tx, path string) error {
	const query = `
		INSERT INTO stock_levels (client_id, item_id, location_id, on_hand, last_sale_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (client_id, item_id, location_id) DO UPDATE SET
			on_hand = EXCLUDED.on_hand,
			last_sale_at = EXCLUDED.last_sale_at
	`
	return forEachRecord(path, func(rec map[string]string) error {
		onHand, err := parseFloatField(rec["on_hand"])
		if err != nil {
			return fmt.Errorf("invalid on_hand for item %s: %w", rec["item_id"], err)
		}

		var lastSale sql.NullTime
		if rec["last_sale_at"] != "" {
			t, err := time.Parse(dateLayout, rec["last_sale_at"])
			if err != nil {
				return fmt.Errorf("invalid last_sale_at %q: %w", rec["last_sale_at"], err)
			}
			lastSale = sql.NullTime{Time: t, Valid: true}
		}

		location := rec["location_id"]
		if location == "" {
			location = "unspecified"
		}

		_, err = tx.ExecContext(ctx, query,
			rec["client_id"], rec["item_id"], location, onHand, lastSale,
		)
		return err
	})
}

// forEachRecord streams a CSV file and invokes fn with a header-keyed map
// per data row.
func forEachRecord(path string, fn func(rec map[string]string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read CSV record: %w", err)
		}

		rec := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				rec[col] = strings.TrimSpace(record[i])
			}
		}

		if err := fn(rec); err != nil {
			return err
		}
	}

	return nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableInt(s string) sql.NullInt64 {
	if s == "" {
		return sql.NullInt64{}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

func nullableFloat(s string) sql.NullFloat64 {
	if s == "" {
		return sql.NullFloat64{}
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: n, Valid: true}
}

func parseFloatField(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}
