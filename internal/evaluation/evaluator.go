// Package evaluation measures forecast accuracy through temporal
// holdout and classifies how far each model can be trusted.
package evaluation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/optiflow/backend/internal/domain"
	"github.com/optiflow/backend/internal/forecaster"
	"github.com/optiflow/backend/internal/repository"
	"github.com/optiflow/backend/internal/timeseries"
)

// Quality tiers, graded from MAPE.
const (
	TierExcellent  = "excellent"
	TierGood       = "good"
	TierAcceptable = "acceptable"
	TierPoor       = "poor"
	TierVeryPoor   = "very_poor"
)

var tierRecommendations = map[string]string{
	TierExcellent:  "highly reliable model, replenishment can be automated",
	TierGood:       "reliable model, suitable for alerts and decision support",
	TierAcceptable: "acceptable model, useful for general demand trends",
	TierPoor:       "low reliability, use for monitoring only",
	TierVeryPoor:   "not recommended, more historical data needed",
}

// ProductLister supplies the product universe for batch evaluation.
type ProductLister interface {
	ListForecastableProducts(ctx context.Context) ([]domain.ProductSummary, error)
}

// Config tunes the evaluator. Evaluation floors are stricter than
// training's because the held-out segment must itself be long enough
// to be meaningful.
type Config struct {
	MinPoints      int
	TestDays       int
	MinTrainPoints int
	MinTestPoints  int
	Forecaster     forecaster.Config
}

func (c Config) normalized() Config {
	if c.MinPoints <= 0 {
		c.MinPoints = 30
	}
	if c.TestDays <= 0 {
		c.TestDays = 14
	}
	if c.MinTrainPoints <= 0 {
		c.MinTrainPoints = 20
	}
	if c.MinTestPoints <= 0 {
		c.MinTestPoints = 3
	}
	return c
}

// Evaluator runs holdout evaluations over the sales history.
type Evaluator struct {
	sales  repository.SalesRepository
	lister ProductLister
	cfg    Config
	now    func() time.Time
}

func NewEvaluator(sales repository.SalesRepository, lister ProductLister, cfg Config) *Evaluator {
	return &Evaluator{sales: sales, lister: lister, cfg: cfg.normalized(), now: time.Now}
}

// Metrics is the full accuracy profile of one evaluation.
type Metrics struct {
	MAE                 float64 `json:"mae"`
	MSE                 float64 `json:"mse"`
	RMSE                float64 `json:"rmse"`
	MAPE                float64 `json:"mape"`
	Bias                float64 `json:"bias"`
	BiasPercent         float64 `json:"bias_percent"`
	DirectionalAccuracy float64 `json:"directional_accuracy"`
	Coverage            float64 `json:"confidence_coverage"`
	IntervalWidth       float64 `json:"avg_interval_width"`
	RSquared            float64 `json:"r_squared"`
}

// Usability flags which workflows the model quality supports.
type Usability struct {
	Automation bool `json:"automation"`
	Alerts     bool `json:"alerts"`
	Monitoring bool `json:"monitoring"`
}

// QualityAnalysis is the qualitative reading of the metrics.
type QualityAnalysis struct {
	Tier            string    `json:"tier"`
	Recommendation  string    `json:"recommendation"`
	Strengths       []string  `json:"strengths"`
	Weaknesses      []string  `json:"weaknesses"`
	ConfidenceScore float64   `json:"confidence_score"`
	Usability       Usability `json:"usability"`
}

// DataSummary describes the evaluated series.
type DataSummary struct {
	TotalDays     int       `json:"total_days"`
	TrainDays     int       `json:"train_days"`
	TestDays      int       `json:"test_days"`
	TotalSales    float64   `json:"total_sales"`
	AvgDailySales float64   `json:"avg_daily_sales"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
}

// Report is a per-product evaluation. Ephemeral: recomputed on demand.
type Report struct {
	ProductID int64           `json:"product_id"`
	Data      DataSummary     `json:"data"`
	Metrics   Metrics         `json:"metrics"`
	Quality   QualityAnalysis `json:"quality"`
}

// EvaluateProduct trains a fresh model on all but the last testDays
// points and measures it against that held-out tail. A non-positive
// testDays uses the configured default.
func (e *Evaluator) EvaluateProduct(ctx context.Context, productID int64, testDays int) (*Report, error) {
	if testDays <= 0 {
		testDays = e.cfg.TestDays
	}

	records, err := e.sales.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load sales for product %d: %w", productID, err)
	}
	series, err := timeseries.Prepare(timeseries.FromSales(records))
	if err != nil {
		return nil, err
	}
	if len(series) < e.cfg.MinPoints {
		return nil, fmt.Errorf("%w: product %d has %d daily points, evaluation needs %d",
			domain.ErrInsufficientData, productID, len(series), e.cfg.MinPoints)
	}

	train, test := series.Split(testDays)
	if len(train) < e.cfg.MinTrainPoints || len(test) < e.cfg.MinTestPoints {
		return nil, fmt.Errorf("%w: train/test split impossible for product %d (train=%d, test=%d)",
			domain.ErrValidation, productID, len(train), len(test))
	}

	mdl := forecaster.NewSeasonalTrend(e.cfg.Forecaster)
	if err := mdl.Fit(train); err != nil {
		return nil, fmt.Errorf("fit evaluation model for product %d: %w", productID, err)
	}
	preds, err := mdl.Predict(len(test))
	if err != nil {
		return nil, fmt.Errorf("predict evaluation horizon for product %d: %w", productID, err)
	}

	actual := test.Values()
	predicted := make([]float64, len(preds))
	lower := make([]float64, len(preds))
	upper := make([]float64, len(preds))
	for i, p := range preds {
		predicted[i] = p.Point
		lower[i] = p.Lower
		upper[i] = p.Upper
	}

	metrics := Metrics{
		MAE:                 timeseries.MAE(actual, predicted),
		MSE:                 timeseries.MSE(actual, predicted),
		RMSE:                timeseries.RMSE(actual, predicted),
		MAPE:                timeseries.MAPE(actual, predicted),
		Bias:                timeseries.Bias(actual, predicted),
		BiasPercent:         timeseries.BiasPercent(actual, predicted),
		DirectionalAccuracy: timeseries.DirectionalAccuracy(actual, predicted),
		Coverage:            timeseries.Coverage(actual, lower, upper),
		IntervalWidth:       timeseries.MeanIntervalWidth(lower, upper),
		RSquared:            timeseries.RSquared(actual, predicted),
	}

	report := &Report{
		ProductID: productID,
		Data: DataSummary{
			TotalDays:     len(series),
			TrainDays:     len(train),
			TestDays:      len(test),
			TotalSales:    series.Total(),
			AvgDailySales: series.Mean(),
			PeriodStart:   series.Start(),
			PeriodEnd:     series.End(),
		},
		Metrics: metrics,
		Quality: analyzeQuality(metrics, len(series)),
	}

	log.Info().
		Int64("product_id", productID).
		Float64("mape", metrics.MAPE).
		Str("tier", report.Quality.Tier).
		Msg("product evaluated")
	return report, nil
}

// analyzeQuality derives the tier, narrative and usability flags from
// the metric profile.
func analyzeQuality(m Metrics, dataPoints int) QualityAnalysis {
	var tier string
	switch {
	case m.MAPE <= 20:
		tier = TierExcellent
	case m.MAPE <= 50:
		tier = TierGood
	case m.MAPE <= 100:
		tier = TierAcceptable
	case m.MAPE <= 200:
		tier = TierPoor
	default:
		tier = TierVeryPoor
	}

	var strengths, weaknesses []string
	if m.DirectionalAccuracy >= 70 {
		strengths = append(strengths, "captures day-over-day demand direction")
	} else {
		weaknesses = append(weaknesses, "struggles to predict demand direction")
	}
	if m.Coverage >= 75 {
		strengths = append(strengths, "well-calibrated confidence intervals")
	} else {
		weaknesses = append(weaknesses, "poorly calibrated confidence intervals")
	}
	switch {
	case math.Abs(m.BiasPercent) <= 10:
		strengths = append(strengths, "unbiased point estimates")
	case m.BiasPercent > 10:
		weaknesses = append(weaknesses, "systematically overestimates demand")
	default:
		weaknesses = append(weaknesses, "systematically underestimates demand")
	}
	if dataPoints >= 100 {
		strengths = append(strengths, "history long enough for stable seasonality")
	} else {
		weaknesses = append(weaknesses, "limited history, more data would improve the model")
	}

	return QualityAnalysis{
		Tier:            tier,
		Recommendation:  tierRecommendations[tier],
		Strengths:       strengths,
		Weaknesses:      weaknesses,
		ConfidenceScore: math.Min(100, math.Max(0, 100-m.MAPE)),
		Usability: Usability{
			Automation: tier == TierExcellent || tier == TierGood,
			Alerts:     tier == TierExcellent || tier == TierGood || tier == TierAcceptable,
			Monitoring: true,
		},
	}
}
