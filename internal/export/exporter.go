// Package export serializes snapshot scopes to CSV for downstream
// consumers and archives them in object storage.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/andresuchdata/replenish-engine/internal/domain"
	"github.com/andresuchdata/replenish-engine/internal/repository"
	"github.com/andresuchdata/replenish-engine/internal/storage"
	"github.com/andresuchdata/replenish-engine/pkg/logger"
)

type Exporter struct {
	snapshots repository.SnapshotRepository
	store     storage.ObjectStorage
	log       zerolog.Logger
}

func NewExporter(snapshots repository.SnapshotRepository, store storage.ObjectStorage) *Exporter {
	return &Exporter{
		snapshots: snapshots,
		store:     store,
		log:       logger.With("export"),
	}
}

// ExportClient writes the current snapshot rows for one (client, location)
// scope to a dated CSV object. Returns the object key.
func (e *Exporter) ExportClient(ctx context.Context, clientID int64, locationID string, asOf time.Time) (string, error) {
	if locationID == "" {
		locationID = domain.LocationUnspecified
	}

	rows, _, err := e.snapshots.GetSnapshots(ctx, domain.SnapshotFilter{
		ClientID:   clientID,
		LocationID: locationID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to load snapshots for export: %w", err)
	}

	payload, err := marshalCSV(rows)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("snapshots/%d/%s/%s.csv", clientID, locationID, asOf.Format("20060102"))
	if err := e.store.UploadObject(ctx, key, payload); err != nil {
		return "", err
	}

	e.log.Info().
		Int64("client_id", clientID).
		Str("location_id", locationID).
		Int("rows", len(rows)).
		Str("key", key).
		Msg("snapshot export uploaded")

	return key, nil
}

func marshalCSV(rows []domain.InventoryMetricsSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"client_id",
		"item_id",
		"sku",
		"location_id",
		"avg_daily_demand",
		"on_hand",
		"days_of_supply",
		"inventory_value",
		"stock_condition",
		"last_sale_at",
		"computed_at",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		daysOfSupply := ""
		if row.DaysOfSupply != nil {
			daysOfSupply = strconv.FormatFloat(*row.DaysOfSupply, 'f', 2, 64)
		}
		lastSale := ""
		if row.LastSaleAt != nil {
			lastSale = row.LastSaleAt.Format("2006-01-02")
		}

		record := []string{
			strconv.FormatInt(row.ClientID, 10),
			strconv.FormatInt(row.ItemID, 10),
			row.SKU,
			row.LocationID,
			strconv.FormatFloat(row.AvgDailyDemand, 'f', 4, 64),
			strconv.FormatFloat(row.OnHand, 'f', 2, 64),
			daysOfSupply,
			strconv.FormatFloat(row.InventoryValue, 'f', 2, 64),
			row.StockCondition,
			lastSale,
			row.ComputedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), nil
}
