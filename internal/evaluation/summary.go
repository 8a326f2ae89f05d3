package evaluation

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/optiflow/backend/internal/timeseries"
)

// Global deployment strategies, chosen from the automation-ready
// fraction of the evaluated fleet.
const (
	StrategyBroadAutomation = "broad_automation"
	StrategyDecisionSupport = "alerts_and_decision_support"
	StrategyMonitoringOnly  = "monitoring_only"
	StrategyNeedsMoreData   = "needs_more_data"
)

// MetricSpread aggregates one metric across the fleet.
type MetricSpread struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Std    float64 `json:"std"`
}

// Summary is the fleet-wide evaluation rollup.
type Summary struct {
	GeneratedAt       time.Time      `json:"generated_at"`
	ProductsTotal     int            `json:"products_total"`
	ProductsEvaluated int            `json:"products_evaluated"`
	ProductsSkipped   int            `json:"products_skipped"`
	MAPE              MetricSpread   `json:"mape"`
	RMSE              MetricSpread   `json:"rmse"`
	TierCounts        map[string]int `json:"tier_counts"`
	AutomationReady   int            `json:"automation_ready"`
	AlertReady        int            `json:"alert_ready"`
	MonitoringReady   int            `json:"monitoring_ready"`
	GlobalStrategy    string         `json:"global_strategy"`
	Reports           []*Report      `json:"reports"`
	Failures          map[int64]string `json:"failures,omitempty"`
}

// EvaluateAll runs the holdout evaluation over every forecastable
// product. Products with too little history are skipped, not failed.
func (e *Evaluator) EvaluateAll(ctx context.Context) (*Summary, error) {
	products, err := e.lister.ListForecastableProducts(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		GeneratedAt:   e.now().UTC(),
		ProductsTotal: len(products),
		TierCounts:    map[string]int{},
		Failures:      map[int64]string{},
	}
	var mapes, rmses []float64

	for _, p := range products {
		report, err := e.EvaluateProduct(ctx, p.ID, e.cfg.TestDays)
		if err != nil {
			summary.ProductsSkipped++
			summary.Failures[p.ID] = err.Error()
			log.Warn().Err(err).Int64("product_id", p.ID).Msg("evaluation skipped")
			continue
		}
		summary.ProductsEvaluated++
		summary.Reports = append(summary.Reports, report)
		summary.TierCounts[report.Quality.Tier]++
		if report.Quality.Usability.Automation {
			summary.AutomationReady++
		}
		if report.Quality.Usability.Alerts {
			summary.AlertReady++
		}
		summary.MonitoringReady++
		mapes = append(mapes, report.Metrics.MAPE)
		rmses = append(rmses, report.Metrics.RMSE)
	}

	summary.MAPE = spread(mapes)
	summary.RMSE = spread(rmses)
	summary.GlobalStrategy = globalStrategy(summary.ProductsEvaluated, summary.AutomationReady)

	log.Info().
		Int("evaluated", summary.ProductsEvaluated).
		Int("skipped", summary.ProductsSkipped).
		Str("strategy", summary.GlobalStrategy).
		Msg("fleet evaluation finished")
	return summary, nil
}

func spread(values []float64) MetricSpread {
	if len(values) == 0 {
		return MetricSpread{}
	}
	return MetricSpread{
		Mean:   timeseries.Mean(values),
		Median: timeseries.Median(values),
		Min:    timeseries.Min(values),
		Max:    timeseries.Max(values),
		Std:    timeseries.Std(values),
	}
}

func globalStrategy(evaluated, automationReady int) string {
	if evaluated == 0 {
		return StrategyNeedsMoreData
	}
	frac := float64(automationReady) / float64(evaluated)
	switch {
	case frac >= 0.6:
		return StrategyBroadAutomation
	case frac >= 0.3:
		return StrategyDecisionSupport
	case frac >= 0.1:
		return StrategyMonitoringOnly
	default:
		return StrategyNeedsMoreData
	}
}
