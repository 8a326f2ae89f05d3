package service

import (
	"fmt"

	"github.com/optiflow/backend/internal/alerting"
	"github.com/optiflow/backend/internal/cache"
	"github.com/optiflow/backend/internal/config"
	"github.com/optiflow/backend/internal/engine"
	"github.com/optiflow/backend/internal/evaluation"
	"github.com/optiflow/backend/internal/forecaster"
	"github.com/optiflow/backend/internal/model"
	"github.com/optiflow/backend/internal/repository/postgres"
)

// Build assembles the full service graph from configuration. Both the
// HTTP server and the CLI start here so they share one wiring.
func Build(cfg *config.Config) (*EngineService, *postgres.DB, error) {
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	products := postgres.NewProductRepository(db)
	sales := postgres.NewSalesRepository(db)
	stock := postgres.NewStockRepository(db)
	forecasts := postgres.NewForecastRepository(db)
	alertRepo := postgres.NewAlertRepository(db)

	store := model.NewFSStore(cfg.Forecast.ModelsDir)

	fcCfg := forecaster.Config{
		SeasonalityMode: cfg.Forecast.SeasonalityMode,
		IntervalWidth:   cfg.Forecast.IntervalWidth,
		TrendDamping:    cfg.Forecast.TrendDamping,
	}

	manager := model.NewManager(products, sales, store, model.Config{
		MinTrainPoints: cfg.Forecast.MinTrainPoints,
		Forecaster:     fcCfg,
	})
	coordinator := alerting.NewCoordinator(alertRepo)
	generator := engine.NewGenerator(manager, stock, forecasts, coordinator, engine.Config{
		HorizonDays:     cfg.Forecast.HorizonDays,
		LeadTimeDays:    cfg.Forecast.LeadTimeDays,
		SafetyStockDays: cfg.Forecast.SafetyStockDays,
		MinimumOrderQty: cfg.Forecast.MinimumOrderQty,
		IntervalWidth:   cfg.Forecast.IntervalWidth,
	})
	evaluator := evaluation.NewEvaluator(sales, manager, evaluation.Config{
		MinPoints:  cfg.Forecast.MinEvalPoints,
		TestDays:   cfg.Forecast.EvalTestDays,
		Forecaster: fcCfg,
	})

	perfCache, err := cache.NewPerformanceCache(cfg.Cache)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("open performance cache: %w", err)
	}

	svc := NewEngineService(products, stock, forecasts, manager, generator, evaluator, coordinator, perfCache)
	return svc, db, nil
}
