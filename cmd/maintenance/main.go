package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/replenish-engine/internal/cache"
	"github.com/andresuchdata/replenish-engine/internal/config"
	"github.com/andresuchdata/replenish-engine/internal/domain"
	"github.com/andresuchdata/replenish-engine/internal/export"
	"github.com/andresuchdata/replenish-engine/internal/repository/postgres"
	"github.com/andresuchdata/replenish-engine/internal/service"
	"github.com/andresuchdata/replenish-engine/internal/storage"
	"github.com/andresuchdata/replenish-engine/pkg/logger"
)

const dateLayout = "2006-01-02"

// services bundles everything a subcommand can reach after wiring.
type services struct {
	cfg        *config.Config
	db         *postgres.DB
	metrics    *service.MetricsService
	simulation *service.SimulationService
	exporter   *export.Exporter
	store      storage.ObjectStorage
}

func buildServices() (*services, error) {
	cfg := config.Load()

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	snapshotCache, err := cache.NewSnapshotCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("cache unavailable, continuing without it")
		snapshotCache = cache.NewNoopSnapshotCache()
	}

	snapshots := postgres.NewSnapshotRepository(db)

	metrics := service.NewMetricsService(cfg.Engine, service.MetricsServiceDeps{
		Clients:         postgres.NewClientRepository(db.DB),
		Products:        postgres.NewProductRepository(db.DB),
		Demand:          postgres.NewDemandRepository(db.DB),
		Stock:           postgres.NewStockRepository(db.DB),
		Classifications: postgres.NewClassificationRepository(db),
		Snapshots:       snapshots,
		Cache:           snapshotCache,
	})

	simulation := service.NewSimulationService(
		cfg.Engine,
		postgres.NewProductRepository(db.DB),
		postgres.NewDemandRepository(db.DB),
		postgres.NewStockRepository(db.DB),
	)

	svcs := &services{
		cfg:        cfg,
		db:         db,
		metrics:    metrics,
		simulation: simulation,
	}

	if cfg.Storage.Enabled {
		store, err := storage.NewS3Client(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to init object storage: %w", err)
		}
		svcs.store = store
		svcs.exporter = export.NewExporter(snapshots, store)
	}

	return svcs, nil
}

func newClientFlag(required bool) *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:     "client",
		Usage:    "Client (tenant) id",
		Required: required,
	}
}

func newLocationFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "location",
		Usage: "Location id (defaults to the unspecified-location scope)",
		Value: domain.LocationUnspecified,
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logger.SetLevel(level)
	}

	app := &cli.App{
		Name:  "maintenance",
		Usage: "Replenishment engine maintenance tasks",
		Commands: []*cli.Command{
			{
				Name:  "refresh",
				Usage: "Recompute classifications and metrics snapshots",
				Flags: []cli.Flag{
					newClientFlag(false),
					newLocationFlag(),
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Refresh every known client",
					},
				},
				Action: runRefresh,
			},
			{
				Name:  "summary",
				Usage: "Print the stock condition summary for a client scope",
				Flags: []cli.Flag{
					newClientFlag(true),
					newLocationFlag(),
					&cli.StringSliceFlag{
						Name:  "condition",
						Usage: "Restrict to stock conditions (repeatable)",
					},
				},
				Action: runSummary,
			},
			{
				Name:  "simulate",
				Usage: "Replay a SKU's demand against its resolved replenishment parameters",
				Flags: []cli.Flag{
					newClientFlag(true),
					newLocationFlag(),
					&cli.Int64Flag{
						Name:     "item",
						Usage:    "Item (SKU) id",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "start",
						Usage:    "Horizon start date (YYYY-MM-DD)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "end",
						Usage:    "Horizon end date (YYYY-MM-DD)",
						Required: true,
					},
				},
				Action: runSimulate,
			},
			{
				Name:  "export",
				Usage: "Snapshot CSV exports in object storage",
				Subcommands: []*cli.Command{
					{
						Name:  "run",
						Usage: "Export a client's snapshot scope as CSV to object storage",
						Flags: []cli.Flag{
							newClientFlag(true),
							newLocationFlag(),
						},
						Action: runExport,
					},
					{
						Name:  "list",
						Usage: "List previously exported snapshot objects",
						Flags: []cli.Flag{
							newClientFlag(false),
						},
						Action: runExportList,
					},
				},
			},
			newSeedCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("maintenance command failed")
	}
}

func runRefresh(c *cli.Context) error {
	svcs, err := buildServices()
	if err != nil {
		return err
	}
	defer svcs.db.Close()

	if c.Bool("all") {
		summaries, err := svcs.metrics.RefreshAllClients(c.Context, c.String("location"))
		if err != nil {
			return err
		}
		return printJSON(summaries)
	}

	if !c.IsSet("client") {
		return fmt.Errorf("either --client or --all is required")
	}

	summary, err := svcs.metrics.RefreshClientMetrics(c.Context, c.Int64("client"), c.String("location"))
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func runSummary(c *cli.Context) error {
	conditions := c.StringSlice("condition")
	if err := validateConditions(conditions); err != nil {
		return err
	}

	svcs, err := buildServices()
	if err != nil {
		return err
	}
	defer svcs.db.Close()

	summaries, err := svcs.metrics.GetSummary(c.Context, domain.SnapshotFilter{
		ClientID:   c.Int64("client"),
		LocationID: c.String("location"),
		Conditions: conditions,
	})
	if err != nil {
		return err
	}
	return printJSON(summaries)
}

// validateConditions rejects condition filters outside the known buckets
// before any connection is opened.
func validateConditions(conditions []string) error {
	valid := domain.StockConditions()
	for _, condition := range conditions {
		if !slices.Contains(valid, condition) {
			return fmt.Errorf("unknown stock condition %q (valid: %s)", condition, strings.Join(valid, ", "))
		}
	}
	return nil
}

func runSimulate(c *cli.Context) error {
	start, err := time.Parse(dateLayout, c.String("start"))
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := time.Parse(dateLayout, c.String("end"))
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}

	svcs, err := buildServices()
	if err != nil {
		return err
	}
	defer svcs.db.Close()

	result, err := svcs.simulation.RunScenario(c.Context, service.ScenarioRequest{
		ClientID:   c.Int64("client"),
		ItemID:     c.Int64("item"),
		LocationID: c.String("location"),
		Start:      start,
		End:        end,
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runExport(c *cli.Context) error {
	svcs, err := buildServices()
	if err != nil {
		return err
	}
	defer svcs.db.Close()

	if svcs.exporter == nil {
		return fmt.Errorf("object storage is not configured (set STORAGE_ENABLED)")
	}

	key, err := svcs.exporter.ExportClient(c.Context, c.Int64("client"), c.String("location"), time.Now().UTC())
	if err != nil {
		return err
	}

	fmt.Println(key)
	return nil
}

func runExportList(c *cli.Context) error {
	svcs, err := buildServices()
	if err != nil {
		return err
	}
	defer svcs.db.Close()

	if svcs.store == nil {
		return fmt.Errorf("object storage is not configured (set STORAGE_ENABLED)")
	}

	prefix := "snapshots/"
	if c.IsSet("client") {
		prefix = fmt.Sprintf("snapshots/%d/", c.Int64("client"))
	}

	objects, err := svcs.store.ListObjects(c.Context, prefix)
	if err != nil {
		return err
	}
	return printJSON(objects)
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
