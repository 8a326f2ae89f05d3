// Package engine produces forward forecasts and turns them into
// replenishment decisions: stock-out timing, reorder quantity and
// alert severity.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/optiflow/backend/internal/alerting"
	"github.com/optiflow/backend/internal/domain"
	"github.com/optiflow/backend/internal/forecaster"
	"github.com/optiflow/backend/internal/repository"
)

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// ModelSource supplies trained models and the product universe for
// batch runs. The lifecycle manager satisfies it.
type ModelSource interface {
	Load(ctx context.Context, productID int64) (forecaster.Forecaster, error)
	ListForecastableProducts(ctx context.Context) ([]domain.ProductSummary, error)
}

// Alerter is the hand-off for CRITICAL/HIGH outcomes.
type Alerter interface {
	Raise(ctx context.Context, req alerting.Request) (bool, error)
}

// Config carries the business parameters of forecast generation.
type Config struct {
	HorizonDays     int
	LeadTimeDays    int
	SafetyStockDays int
	MinimumOrderQty int
	IntervalWidth   float64
	ModelVersion    string
}

func (c Config) normalized() Config {
	if c.HorizonDays <= 0 {
		c.HorizonDays = 30
	}
	if c.LeadTimeDays <= 0 {
		c.LeadTimeDays = 7
	}
	if c.SafetyStockDays <= 0 {
		c.SafetyStockDays = 5
	}
	if c.MinimumOrderQty <= 0 {
		c.MinimumOrderQty = 1
	}
	if c.IntervalWidth <= 0 {
		c.IntervalWidth = 0.80
	}
	if c.ModelVersion == "" {
		c.ModelVersion = "seasonal_trend_v1"
	}
	return c
}

// Generator runs the forecast-to-decision pipeline.
type Generator struct {
	models    ModelSource
	stock     repository.StockRepository
	forecasts repository.ForecastRepository
	alerts    Alerter
	cfg       Config
	now       func() time.Time
}

// NewGenerator wires a forecast generator. The alerts dependency may be
// nil, in which case no alerts are raised.
func NewGenerator(models ModelSource, stock repository.StockRepository, forecasts repository.ForecastRepository, alerts Alerter, cfg Config) *Generator {
	return &Generator{
		models:    models,
		stock:     stock,
		forecasts: forecasts,
		alerts:    alerts,
		cfg:       cfg.normalized(),
		now:       time.Now,
	}
}

// Options tune a single generation run. Zero HorizonDays falls back to
// the configured default.
type Options struct {
	HorizonDays int
	Persist     bool
}

// StockoutAnalysis is the result of the day-by-day depletion walk.
type StockoutAnalysis struct {
	DaysUntilStockout int        `json:"days_until_stockout"`
	StockoutDate      *time.Time `json:"stockout_date,omitempty"`
	Confidence        string     `json:"confidence"`
}

// ReorderRecommendation is the suggested order and its coverage.
type ReorderRecommendation struct {
	RecommendedQty      int     `json:"recommended_quantity"`
	Rationale           string  `json:"rationale"`
	CoversDays          int     `json:"covers_days"`
	TotalDemandForecast float64 `json:"total_demand_forecast"`
	AvgDailyDemand      float64 `json:"avg_daily_demand"`
}

// DemandSummary aggregates the horizon's point estimates.
type DemandSummary struct {
	TotalDemand    float64   `json:"total_demand"`
	AvgDailyDemand float64   `json:"avg_daily_demand"`
	PeakDemand     float64   `json:"peak_demand"`
	PeakDate       time.Time `json:"peak_date"`
}

// Result is one complete forecast run for a product.
type Result struct {
	ProductID    int64                   `json:"product_id"`
	GeneratedAt  time.Time               `json:"generated_at"`
	HorizonDays  int                     `json:"horizon_days"`
	PeriodStart  time.Time               `json:"period_start"`
	PeriodEnd    time.Time               `json:"period_end"`
	CurrentStock float64                 `json:"current_stock"`
	Predictions  []forecaster.Prediction `json:"predictions"`
	Demand       DemandSummary           `json:"demand"`
	Stockout     StockoutAnalysis        `json:"stockout"`
	Reorder      ReorderRecommendation   `json:"reorder"`
	AlertLevel   domain.Severity         `json:"alert_level"`
	AlertRaised  bool                    `json:"alert_raised"`
}

// BatchResult aggregates a generate-all run.
type BatchResult struct {
	Total        int           `json:"total"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	AlertsRaised int           `json:"alerts_raised"`
	Details      []BatchDetail `json:"details"`
}

type BatchDetail struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Success     bool            `json:"success"`
	AlertLevel  domain.Severity `json:"alert_level,omitempty"`
	ErrorKind   string          `json:"error_kind,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Generate runs the full pipeline for one product: load model, predict,
// read stock, simulate depletion, recommend a reorder, grade severity,
// optionally persist and alert. Each step requires the previous one.
func (g *Generator) Generate(ctx context.Context, productID int64, opts Options) (*Result, error) {
	horizon := opts.HorizonDays
	if horizon <= 0 {
		horizon = g.cfg.HorizonDays
	}

	// 1. Trained model is a precondition; there is no implicit
	// auto-train on miss.
	mdl, err := g.models.Load(ctx, productID)
	if err != nil {
		return nil, err
	}

	// 2. Forward horizon, no negative demand.
	preds, err := mdl.Predict(horizon)
	if err != nil {
		return nil, fmt.Errorf("predict product %d: %w", productID, err)
	}
	clipPredictions(preds)

	// 3. Missing snapshot means zero stock: the conservative default
	// that alerts loudly instead of silently skipping the product.
	currentStock := 0.0
	snapshot, err := g.stock.LatestByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load stock for product %d: %w", productID, err)
	}
	if snapshot != nil {
		currentStock = snapshot.QuantityOnHand
	}

	stockout := simulateStockout(currentStock, preds)
	reorder := g.computeReorder(preds)
	severity := domain.SeverityFor(currentStock, stockout.DaysUntilStockout)

	result := &Result{
		ProductID:    productID,
		GeneratedAt:  g.now().UTC(),
		HorizonDays:  horizon,
		PeriodStart:  preds[0].Date,
		PeriodEnd:    preds[len(preds)-1].Date,
		CurrentStock: currentStock,
		Predictions:  preds,
		Demand:       summarizeDemand(preds),
		Stockout:     stockout,
		Reorder:      reorder,
		AlertLevel:   severity,
	}

	if opts.Persist {
		if err := g.persist(ctx, result); err != nil {
			return nil, err
		}
		if severity == domain.SeverityCritical || severity == domain.SeverityHigh {
			raised, err := g.raiseAlert(ctx, result)
			if err != nil {
				log.Warn().Err(err).Int64("product_id", productID).Msg("alert hand-off failed")
			}
			result.AlertRaised = raised
		}
	}

	log.Info().
		Int64("product_id", productID).
		Float64("current_stock", currentStock).
		Int("days_until_stockout", stockout.DaysUntilStockout).
		Int("recommended_qty", reorder.RecommendedQty).
		Str("alert_level", string(severity)).
		Msg("forecast generated")

	return result, nil
}

// GenerateAll forecasts every forecastable product. Per-product
// failures are recorded and never abort the batch.
func (g *Generator) GenerateAll(ctx context.Context) (*BatchResult, error) {
	products, err := g.models.ListForecastableProducts(ctx)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{Total: len(products)}
	for _, p := range products {
		detail := BatchDetail{ProductID: p.ID, ProductName: p.Name}
		result, err := g.Generate(ctx, p.ID, Options{Persist: true})
		if err != nil {
			log.Warn().Err(err).Int64("product_id", p.ID).Msg("forecast failed")
			detail.ErrorKind = domain.ErrorKind(err)
			detail.Error = err.Error()
			batch.Failed++
		} else {
			detail.Success = true
			detail.AlertLevel = result.AlertLevel
			batch.Succeeded++
			if result.AlertRaised {
				batch.AlertsRaised++
			}
		}
		batch.Details = append(batch.Details, detail)
	}
	return batch, nil
}

// simulateStockout walks the forecast day by day subtracting demand
// from the running stock. The first day the counter reaches zero or
// below is the stock-out day; if it never does, the full horizon length
// is reported.
func simulateStockout(currentStock float64, preds []forecaster.Prediction) StockoutAnalysis {
	remaining := currentStock
	analysis := StockoutAnalysis{DaysUntilStockout: len(preds)}

	for i, p := range preds {
		remaining -= math.Max(0, p.Point)
		if remaining <= 0 {
			analysis.DaysUntilStockout = i + 1
			date := p.Date
			analysis.StockoutDate = &date
			break
		}
	}

	analysis.Confidence = intervalConfidence(preds)
	return analysis
}

// intervalConfidence grades forecast certainty from the ratio of mean
// interval width to mean demand.
func intervalConfidence(preds []forecaster.Prediction) string {
	if len(preds) == 0 {
		return ConfidenceMedium
	}

	var widthSum, pointSum float64
	hasBounds := false
	for _, p := range preds {
		if p.Upper != p.Lower {
			hasBounds = true
		}
		widthSum += p.Upper - p.Lower
		pointSum += p.Point
	}
	if !hasBounds {
		return ConfidenceMedium
	}

	n := float64(len(preds))
	ratio := (widthSum / n) / math.Max(pointSum/n, 1)
	switch {
	case ratio < 0.2:
		return ConfidenceHigh
	case ratio < 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// computeReorder sums demand across lead time plus safety stock, rounds
// up to whole units and floors at the minimum order quantity. Coverage
// is informational only and never feeds back into the quantity.
func (g *Generator) computeReorder(preds []forecaster.Prediction) ReorderRecommendation {
	period := g.cfg.LeadTimeDays + g.cfg.SafetyStockDays
	if period > len(preds) {
		period = len(preds)
	}

	var totalDemand float64
	for _, p := range preds[:period] {
		totalDemand += p.Point
	}
	totalDemand = math.Max(0, totalDemand)

	qty := int(math.Ceil(totalDemand))
	rationale := fmt.Sprintf("covers %dd lead time + %dd safety stock", g.cfg.LeadTimeDays, g.cfg.SafetyStockDays)
	if qty < g.cfg.MinimumOrderQty {
		qty = g.cfg.MinimumOrderQty
		rationale = fmt.Sprintf("raised to minimum order quantity of %d units", g.cfg.MinimumOrderQty)
	}

	var meanDemand float64
	for _, p := range preds {
		meanDemand += p.Point
	}
	if len(preds) > 0 {
		meanDemand /= float64(len(preds))
	}

	return ReorderRecommendation{
		RecommendedQty:      qty,
		Rationale:           rationale,
		CoversDays:          int(float64(qty) / math.Max(meanDemand, 0.1)),
		TotalDemandForecast: totalDemand,
		AvgDailyDemand:      meanDemand,
	}
}

func summarizeDemand(preds []forecaster.Prediction) DemandSummary {
	var summary DemandSummary
	if len(preds) == 0 {
		return summary
	}

	summary.PeakDate = preds[0].Date
	for _, p := range preds {
		summary.TotalDemand += p.Point
		if p.Point > summary.PeakDemand {
			summary.PeakDemand = p.Point
			summary.PeakDate = p.Date
		}
	}
	summary.AvgDailyDemand = summary.TotalDemand / float64(len(preds))
	return summary
}

// persist atomically replaces the product's forecast rows with this
// run's rows. Delete-then-insert runs inside one transaction in the
// repository, so readers never observe a partially written run.
func (g *Generator) persist(ctx context.Context, result *Result) error {
	rows := make([]domain.ForecastRow, len(result.Predictions))
	risk := domain.RuptureRisk(result.Stockout.DaysUntilStockout)
	for i, p := range result.Predictions {
		rows[i] = domain.ForecastRow{
			ProductID:           result.ProductID,
			ForecastDate:        p.Date,
			PredictedDemand:     p.Point,
			LowerBound:          p.Lower,
			UpperBound:          p.Upper,
			ConfidenceLevel:     g.cfg.IntervalWidth,
			RuptureRisk:         risk,
			RecommendedOrderQty: result.Reorder.RecommendedQty,
			ModelVersion:        g.cfg.ModelVersion,
		}
	}

	if err := g.forecasts.ReplaceForProduct(ctx, result.ProductID, rows); err != nil {
		return fmt.Errorf("%w: replace forecast rows for product %d: %v", domain.ErrPersistence, result.ProductID, err)
	}

	log.Debug().Int64("product_id", result.ProductID).Int("rows", len(rows)).Msg("forecast rows persisted")
	return nil
}

func (g *Generator) raiseAlert(ctx context.Context, result *Result) (bool, error) {
	if g.alerts == nil {
		return false, nil
	}

	alertType := "stockout_expected"
	if result.Stockout.DaysUntilStockout <= 7 {
		alertType = "stockout_imminent"
	}

	return g.alerts.Raise(ctx, alerting.Request{
		ProductID:         result.ProductID,
		AlertType:         alertType,
		Severity:          result.AlertLevel,
		Message:           fmt.Sprintf("stock-out expected in %d days", result.Stockout.DaysUntilStockout),
		RecommendedAction: fmt.Sprintf("order %d units", result.Reorder.RecommendedQty),
	})
}

func clipPredictions(preds []forecaster.Prediction) {
	for i := range preds {
		preds[i].Point = math.Max(0, preds[i].Point)
		preds[i].Lower = math.Max(0, preds[i].Lower)
		preds[i].Upper = math.Max(0, preds[i].Upper)
	}
}
