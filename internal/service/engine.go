// Package service is the read-side facade composed by the HTTP layer.
// It aggregates the forecasting subsystems into response-shaped views
// and degrades partially instead of failing whole pages.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/optiflow/backend/internal/alerting"
	"github.com/optiflow/backend/internal/cache"
	"github.com/optiflow/backend/internal/domain"
	"github.com/optiflow/backend/internal/engine"
	"github.com/optiflow/backend/internal/evaluation"
	"github.com/optiflow/backend/internal/model"
	"github.com/optiflow/backend/internal/repository"
)

const dashboardTopAlerts = 5

type EngineService struct {
	products  repository.ProductRepository
	stock     repository.StockRepository
	forecasts repository.ForecastRepository
	manager   *model.Manager
	generator *engine.Generator
	evaluator *evaluation.Evaluator
	alerts    *alerting.Coordinator
	perfCache cache.PerformanceCache
}

func NewEngineService(
	products repository.ProductRepository,
	stock repository.StockRepository,
	forecasts repository.ForecastRepository,
	manager *model.Manager,
	generator *engine.Generator,
	evaluator *evaluation.Evaluator,
	alerts *alerting.Coordinator,
	perfCache cache.PerformanceCache,
) *EngineService {
	return &EngineService{
		products:  products,
		stock:     stock,
		forecasts: forecasts,
		manager:   manager,
		generator: generator,
		evaluator: evaluator,
		alerts:    alerts,
		perfCache: perfCache,
	}
}

// Dashboard is the landing-page aggregate. Sub-sections that fail are
// reported in Errors and zeroed rather than sinking the whole view.
type Dashboard struct {
	GeneratedAt     time.Time               `json:"generated_at"`
	ActiveProducts  int                     `json:"active_products"`
	TrainedModels   int                     `json:"trained_models"`
	ForecastRows    int                     `json:"forecast_rows"`
	ActiveAlerts    int                     `json:"active_alerts"`
	AlertBreakdown  map[domain.Severity]int `json:"alert_breakdown"`
	TopAlerts       []domain.Alert          `json:"top_alerts"`
	Performance     *evaluation.Summary     `json:"performance,omitempty"`
	PerformanceHit  bool                    `json:"performance_cache_hit"`
	Errors          map[string]string       `json:"errors,omitempty"`
}

func (s *EngineService) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{
		GeneratedAt:    time.Now().UTC(),
		AlertBreakdown: map[domain.Severity]int{},
		Errors:         map[string]string{},
	}

	var err error
	if d.ActiveProducts, err = s.products.CountActive(ctx); err != nil {
		d.Errors["products"] = err.Error()
	}
	if d.TrainedModels, err = s.manager.TrainedCount(ctx); err != nil {
		d.Errors["models"] = err.Error()
	}
	if d.ForecastRows, err = s.forecasts.CountAll(ctx); err != nil {
		d.Errors["forecasts"] = err.Error()
	}

	alerts, err := s.alerts.ListActive(ctx)
	if err != nil {
		d.Errors["alerts"] = err.Error()
	} else {
		d.ActiveAlerts = len(alerts)
		if len(alerts) > dashboardTopAlerts {
			alerts = alerts[:dashboardTopAlerts]
		}
		d.TopAlerts = alerts
	}
	if breakdown, err := s.alerts.BreakdownBySeverity(ctx); err != nil {
		d.Errors["alert_breakdown"] = err.Error()
	} else {
		d.AlertBreakdown = breakdown
	}

	summary, hit, err := s.performance(ctx, true)
	if err != nil {
		d.Errors["performance"] = err.Error()
	} else {
		d.Performance = summary
		d.PerformanceHit = hit
	}

	if len(d.Errors) == 0 {
		d.Errors = nil
	} else {
		log.Warn().Int("sections_failed", len(d.Errors)).Msg("dashboard assembled partially")
	}
	return d, nil
}

// ProductDetail is the per-product drill-down: identity, current
// stock, a fresh non-persisted forecast and a fresh evaluation. An
// evaluation failure is embedded, not fatal; short-history products
// still get their forecast.
type ProductDetail struct {
	Product         *domain.Product       `json:"product"`
	CurrentStock    *domain.StockSnapshot `json:"current_stock,omitempty"`
	Forecast        *engine.Result        `json:"forecast,omitempty"`
	ForecastError   string                `json:"forecast_error,omitempty"`
	Evaluation      *evaluation.Report    `json:"evaluation,omitempty"`
	EvaluationError string                `json:"evaluation_error,omitempty"`
}

func (s *EngineService) ProductDetail(ctx context.Context, productID int64) (*ProductDetail, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrValidation
	}

	detail := &ProductDetail{Product: product}

	if snapshot, err := s.stock.LatestByProduct(ctx, productID); err == nil {
		detail.CurrentStock = snapshot
	}

	forecast, err := s.generator.Generate(ctx, productID, engine.Options{Persist: false})
	if err != nil {
		detail.ForecastError = err.Error()
		log.Warn().Err(err).Int64("product_id", productID).Msg("detail forecast unavailable")
	} else {
		detail.Forecast = forecast
	}

	report, err := s.evaluator.EvaluateProduct(ctx, productID, 0)
	if err != nil {
		detail.EvaluationError = err.Error()
	} else {
		detail.Evaluation = report
	}

	return detail, nil
}

// ActiveAlerts returns unresolved alerts in triage order.
func (s *EngineService) ActiveAlerts(ctx context.Context) ([]domain.Alert, error) {
	return s.alerts.ListActive(ctx)
}

// PerformanceSummary returns the fleet evaluation, read through the
// cache unless the caller forces a recompute.
func (s *EngineService) PerformanceSummary(ctx context.Context, useCache bool) (*evaluation.Summary, bool, error) {
	return s.performance(ctx, useCache)
}

func (s *EngineService) performance(ctx context.Context, useCache bool) (*evaluation.Summary, bool, error) {
	if useCache {
		if cached, ok, err := s.perfCache.GetSummary(ctx); err != nil {
			log.Warn().Err(err).Msg("performance cache read failed, recomputing")
		} else if ok {
			return cached, true, nil
		}
	}

	summary, err := s.evaluator.EvaluateAll(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := s.perfCache.SetSummary(ctx, summary); err != nil {
		log.Warn().Err(err).Msg("performance cache write failed")
	}
	return summary, false, nil
}

// TrainAll retrains every forecastable product and invalidates the
// cached performance summary, which the new models make stale.
func (s *EngineService) TrainAll(ctx context.Context) (*model.BatchTrainingResult, error) {
	result, err := s.manager.TrainAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.perfCache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("performance cache invalidation failed")
	}
	return result, nil
}

// ForecastAll regenerates and persists forecasts for the whole fleet.
func (s *EngineService) ForecastAll(ctx context.Context) (*engine.BatchResult, error) {
	return s.generator.GenerateAll(ctx)
}

// TrainProduct retrains one product's model.
func (s *EngineService) TrainProduct(ctx context.Context, productID int64) (*model.TrainingResult, error) {
	result, err := s.manager.Train(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := s.perfCache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("performance cache invalidation failed")
	}
	return result, nil
}

// ForecastProduct generates and persists one product's forecast.
func (s *EngineService) ForecastProduct(ctx context.Context, productID int64, horizonDays int) (*engine.Result, error) {
	return s.generator.Generate(ctx, productID, engine.Options{HorizonDays: horizonDays, Persist: true})
}
