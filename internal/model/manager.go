package model

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/optiflow/backend/internal/domain"
	"github.com/optiflow/backend/internal/forecaster"
	"github.com/optiflow/backend/internal/repository"
	"github.com/optiflow/backend/internal/timeseries"
)

const (
	// defaultMinTrainPoints is the hard floor below which a model is
	// statistically unreliable and training is refused outright.
	defaultMinTrainPoints = 10

	// shortSeriesThreshold switches the holdout split from a straight
	// 80/20 to a fixed-size test tail.
	shortSeriesThreshold = 15
	shortSeriesTestTail  = 5
	minTestPoints        = 2
)

const (
	ValidationSuccess          = "success"
	ValidationInsufficientTest = "insufficient_test_data"
	ValidationError            = "error"
)

// Config tunes the lifecycle manager.
type Config struct {
	MinTrainPoints int
	Forecaster     forecaster.Config
}

// Manager trains, validates, persists and loads one forecasting model
// per product.
type Manager struct {
	products repository.ProductRepository
	sales    repository.SalesRepository
	store    Store
	cfg      Config
}

// NewManager wires a lifecycle manager over the given repositories and
// model store.
func NewManager(products repository.ProductRepository, sales repository.SalesRepository, store Store, cfg Config) *Manager {
	if cfg.MinTrainPoints <= 0 {
		cfg.MinTrainPoints = defaultMinTrainPoints
	}
	return &Manager{products: products, sales: sales, store: store, cfg: cfg}
}

// ValidationMetrics are the holdout results attached to a training run.
// They describe the throwaway validation model, not the final artifact.
type ValidationMetrics struct {
	MAPE       float64 `json:"mape"`
	RMSE       float64 `json:"rmse"`
	TestPoints int     `json:"test_points"`
	Status     string  `json:"status"`
}

// TrainingResult summarizes one successful training run.
type TrainingResult struct {
	ProductID   int64             `json:"product_id"`
	DataPoints  int               `json:"data_points"`
	PeriodStart time.Time         `json:"period_start"`
	PeriodEnd   time.Time         `json:"period_end"`
	Validation  ValidationMetrics `json:"validation"`
}

// BatchTrainingResult aggregates a train-all run.
type BatchTrainingResult struct {
	Total     int                   `json:"total"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Details   []BatchTrainingDetail `json:"details"`
}

type BatchTrainingDetail struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Success     bool   `json:"success"`
	ErrorKind   string `json:"error_kind,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ListForecastableProducts returns active products that have at least
// one sales record, busiest first.
func (m *Manager) ListForecastableProducts(ctx context.Context) ([]domain.ProductSummary, error) {
	products, err := m.products.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}

	summaries := make([]domain.ProductSummary, 0, len(products))
	for _, p := range products {
		count, err := m.sales.CountByProduct(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("count sales for product %d: %w", p.ID, err)
		}
		if count == 0 {
			continue
		}
		summaries = append(summaries, domain.ProductSummary{ID: p.ID, Name: p.Name, SalesCount: count})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].SalesCount > summaries[j].SalesCount })
	return summaries, nil
}

// Train fits a model on the product's full prepared series, runs a
// holdout validation, and persists the artifact, overwriting any prior
// version. Below the minimum-point floor nothing is persisted.
func (m *Manager) Train(ctx context.Context, productID int64) (*TrainingResult, error) {
	records, err := m.sales.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load sales for product %d: %w", productID, err)
	}

	series, err := timeseries.Prepare(timeseries.FromSales(records))
	if err != nil {
		return nil, err
	}
	if len(series) < m.cfg.MinTrainPoints {
		return nil, fmt.Errorf("%w: product %d has %d daily points, need %d",
			domain.ErrInsufficientData, productID, len(series), m.cfg.MinTrainPoints)
	}

	validation := m.validate(series)

	final := forecaster.NewSeasonalTrend(m.cfg.Forecaster)
	if err := final.Fit(series); err != nil {
		return nil, fmt.Errorf("fit model for product %d: %w", productID, err)
	}

	if err := m.store.Put(ctx, productID, final); err != nil {
		return nil, fmt.Errorf("persist model for product %d: %w", productID, err)
	}

	log.Info().
		Int64("product_id", productID).
		Int("data_points", len(series)).
		Float64("mape", validation.MAPE).
		Float64("rmse", validation.RMSE).
		Msg("model trained")

	return &TrainingResult{
		ProductID:   productID,
		DataPoints:  len(series),
		PeriodStart: series.Start(),
		PeriodEnd:   series.End(),
		Validation:  validation,
	}, nil
}

// Load retrieves the persisted model for a product. It never retrains.
func (m *Manager) Load(ctx context.Context, productID int64) (forecaster.Forecaster, error) {
	return m.store.Get(ctx, productID)
}

// TrainedCount reports how many products currently have a persisted
// model artifact.
func (m *Manager) TrainedCount(ctx context.Context) (int, error) {
	ids, err := m.store.ProductIDs(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// TrainAll trains every forecastable product, isolating per-product
// failures so one bad series never aborts the batch.
func (m *Manager) TrainAll(ctx context.Context) (*BatchTrainingResult, error) {
	products, err := m.ListForecastableProducts(ctx)
	if err != nil {
		return nil, err
	}

	result := &BatchTrainingResult{Total: len(products)}
	for _, p := range products {
		detail := BatchTrainingDetail{ProductID: p.ID, ProductName: p.Name}
		if _, err := m.Train(ctx, p.ID); err != nil {
			log.Warn().Err(err).Int64("product_id", p.ID).Msg("training failed")
			detail.ErrorKind = domain.ErrorKind(err)
			detail.Error = err.Error()
			result.Failed++
		} else {
			detail.Success = true
			result.Succeeded++
		}
		result.Details = append(result.Details, detail)
	}
	return result, nil
}

// validate measures the model on a chronological holdout. Failure here
// degrades the metrics to zero rather than failing the training call.
func (m *Manager) validate(series timeseries.DailySeries) ValidationMetrics {
	n := len(series)
	tailLen := n - (n * 8 / 10)
	if n < shortSeriesThreshold {
		tailLen = shortSeriesTestTail
		if pct := n / 5; pct > tailLen {
			tailLen = pct
		}
	}

	head, tail := series.Split(tailLen)
	if len(tail) < minTestPoints || len(head) < minTestPoints {
		return ValidationMetrics{Status: ValidationInsufficientTest}
	}

	throwaway := forecaster.NewSeasonalTrend(m.cfg.Forecaster)
	if err := throwaway.Fit(head); err != nil {
		log.Warn().Err(err).Msg("holdout validation fit failed")
		return ValidationMetrics{Status: ValidationError}
	}
	preds, err := throwaway.Predict(len(tail))
	if err != nil {
		log.Warn().Err(err).Msg("holdout validation predict failed")
		return ValidationMetrics{Status: ValidationError}
	}

	actual := tail.Values()
	predicted := make([]float64, len(preds))
	for i, p := range preds {
		predicted[i] = p.Point
	}

	return ValidationMetrics{
		MAPE:       timeseries.MAPE(actual, predicted),
		RMSE:       timeseries.RMSE(actual, predicted),
		TestPoints: len(tail),
		Status:     ValidationSuccess,
	}
}
