// cmd/optiflow/main.go
//
// Operational CLI: ETL sync, model training, forecast generation and
// evaluation, runnable one-shot or on a cron schedule.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/optiflow/backend/internal/config"
	"github.com/optiflow/backend/internal/etl"
	"github.com/optiflow/backend/internal/repository/postgres"
	"github.com/optiflow/backend/internal/service"
	"github.com/optiflow/backend/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "optiflow",
		Usage: "Inventory forecasting operations",
		Commands: []*cli.Command{
			syncCommand(),
			trainCommand(),
			forecastCommand(),
			evaluateCommand(),
			scheduleCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Mirror ERP exports into the local store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory containing the ERP export files",
				EnvVars: []string{"SYNC_DATA_DIR"},
			},
			&cli.IntFlag{
				Name:    "days-back",
				Usage:   "How many days of sales history to import",
				EnvVars: []string{"SYNC_DAYS_BACK"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			logger.SetLevel(cfg.Server.Mode)

			syncer, db, err := buildSyncer(cfg, c.String("data-dir"))
			if err != nil {
				return err
			}
			defer db.Close()

			daysBack := c.Int("days-back")
			if daysBack <= 0 {
				daysBack = cfg.Sync.DaysBack
			}

			result := syncer.RunFullSync(c.Context, daysBack)
			log.Info().
				Int("products", result.Products.Records).
				Int("stock", result.Stock.Records).
				Int("sales", result.Sales.Records).
				Msg("full sync finished")
			if result.Products.Status != "success" || result.Stock.Status != "success" || result.Sales.Status != "success" {
				return fmt.Errorf("one or more sync phases failed")
			}
			return nil
		},
	}
}

func trainCommand() *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "Train forecasting models",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "product",
				Usage: "Train a single product instead of the whole fleet",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			logger.SetLevel(cfg.Server.Mode)

			svc, db, err := service.Build(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if productID := c.Int64("product"); productID > 0 {
				result, err := svc.TrainProduct(c.Context, productID)
				if err != nil {
					return err
				}
				log.Info().
					Int64("product_id", result.ProductID).
					Int("data_points", result.DataPoints).
					Str("validation", result.Validation.Status).
					Msg("model trained")
				return nil
			}

			result, err := svc.TrainAll(c.Context)
			if err != nil {
				return err
			}
			log.Info().
				Int("trained", result.Succeeded).
				Int("failed", result.Failed).
				Msg("fleet training finished")
			return nil
		},
	}
}

func forecastCommand() *cli.Command {
	return &cli.Command{
		Name:  "forecast",
		Usage: "Generate and persist demand forecasts",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "product",
				Usage: "Forecast a single product instead of the whole fleet",
			},
			&cli.IntFlag{
				Name:  "horizon",
				Usage: "Forecast horizon in days (defaults to config)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			logger.SetLevel(cfg.Server.Mode)

			svc, db, err := service.Build(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if productID := c.Int64("product"); productID > 0 {
				result, err := svc.ForecastProduct(c.Context, productID, c.Int("horizon"))
				if err != nil {
					return err
				}
				log.Info().
					Int64("product_id", result.ProductID).
					Int("days_until_stockout", result.Stockout.DaysUntilStockout).
					Str("alert_level", string(result.AlertLevel)).
					Int("recommended_qty", result.Reorder.RecommendedQty).
					Msg("forecast generated")
				return nil
			}

			result, err := svc.ForecastAll(c.Context)
			if err != nil {
				return err
			}
			log.Info().
				Int("succeeded", result.Succeeded).
				Int("failed", result.Failed).
				Int("alerts_raised", result.AlertsRaised).
				Msg("fleet forecast finished")
			return nil
		},
	}
}

func evaluateCommand() *cli.Command {
	return &cli.Command{
		Name:  "evaluate",
		Usage: "Evaluate forecast accuracy against held-out history",
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			logger.SetLevel(cfg.Server.Mode)

			svc, db, err := service.Build(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			summary, _, err := svc.PerformanceSummary(c.Context, false)
			if err != nil {
				return err
			}
			log.Info().
				Int("evaluated", summary.ProductsEvaluated).
				Int("skipped", summary.ProductsSkipped).
				Float64("mean_mape", summary.MAPE.Mean).
				Str("strategy", summary.GlobalStrategy).
				Msg("fleet evaluation finished")
			return nil
		},
	}
}

// scheduleCommand runs the nightly pipeline on a cron loop: sync, then
// retrain, then regenerate forecasts.
func scheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Run sync, training and forecasting on a cron schedule",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "cron",
				Usage:   "Five-field cron expression",
				EnvVars: []string{"SYNC_CRON_SCHEDULE"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			logger.SetLevel(cfg.Server.Mode)

			schedule := c.String("cron")
			if schedule == "" {
				schedule = cfg.Sync.CronSchedule
			}

			svc, db, err := service.Build(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			syncer, _, err := buildSyncer(cfg, "")
			if err != nil {
				return err
			}

			runner := cron.New()
			_, err = runner.AddFunc(schedule, func() {
				ctx := c.Context
				syncer.RunFullSync(ctx, cfg.Sync.DaysBack)
				if _, err := svc.TrainAll(ctx); err != nil {
					log.Error().Err(err).Msg("scheduled training failed")
					return
				}
				if _, err := svc.ForecastAll(ctx); err != nil {
					log.Error().Err(err).Msg("scheduled forecasting failed")
				}
			})
			if err != nil {
				return fmt.Errorf("invalid cron expression %q: %w", schedule, err)
			}

			log.Info().Str("cron", schedule).Msg("pipeline scheduled")
			runner.Run()
			return nil
		},
	}
}

func buildSyncer(cfg *config.Config, dataDir string) (*etl.Syncer, *postgres.DB, error) {
	db, err := connectDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dataDir == "" {
		dataDir = cfg.Sync.DataDir
	}
	source := etl.NewCSVSource(dataDir)
	syncer := etl.NewSyncer(
		source,
		postgres.NewProductRepository(db),
		postgres.NewSalesRepository(db),
		postgres.NewStockRepository(db),
		postgres.NewSyncLogRepository(db),
	)
	return syncer, db, nil
}

// connectDB prefers DATABASE_URL when set, which is how the CLI runs
// against hosted databases. Falls back to the host/port config.
func connectDB(cfg *config.Config) (*postgres.DB, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return postgres.NewDBFromURL(url)
	}
	return postgres.NewDB(&cfg.Database)
}
