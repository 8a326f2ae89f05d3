package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optiflow/backend/internal/alerting"
	"github.com/optiflow/backend/internal/cache"
	"github.com/optiflow/backend/internal/domain"
	"github.com/optiflow/backend/internal/engine"
	"github.com/optiflow/backend/internal/evaluation"
	"github.com/optiflow/backend/internal/model"
)

type fakeProductRepo struct {
	products []domain.Product
	countErr error
}

func (f *fakeProductRepo) Upsert(ctx context.Context, p *domain.Product) (int64, error) {
	return p.ID, nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, nil
}

func (f *fakeProductRepo) GetByErpID(ctx context.Context, erpID int64) (*domain.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) ListActive(ctx context.Context) ([]domain.Product, error) {
	var active []domain.Product
	for _, p := range f.products {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

func (f *fakeProductRepo) CountActive(ctx context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	active, _ := f.ListActive(ctx)
	return len(active), nil
}

type fakeSalesRepo struct {
	records map[int64][]domain.SalesRecord
}

func (f *fakeSalesRepo) Insert(ctx context.Context, r *domain.SalesRecord) error { return nil }

func (f *fakeSalesRepo) ListByProduct(ctx context.Context, productID int64) ([]domain.SalesRecord, error) {
	return f.records[productID], nil
}

func (f *fakeSalesRepo) CountByProduct(ctx context.Context, productID int64) (int, error) {
	return len(f.records[productID]), nil
}

type fakeStockRepo struct {
	snapshots map[int64]*domain.StockSnapshot
}

func (f *fakeStockRepo) InsertSnapshot(ctx context.Context, s *domain.StockSnapshot) error {
	return nil
}

func (f *fakeStockRepo) LatestByProduct(ctx context.Context, productID int64) (*domain.StockSnapshot, error) {
	return f.snapshots[productID], nil
}

type fakeForecastRepo struct {
	rows map[int64][]domain.ForecastRow
}

func (f *fakeForecastRepo) ReplaceForProduct(ctx context.Context, productID int64, rows []domain.ForecastRow) error {
	if f.rows == nil {
		f.rows = make(map[int64][]domain.ForecastRow)
	}
	f.rows[productID] = rows
	return nil
}

func (f *fakeForecastRepo) ListByProduct(ctx context.Context, productID int64) ([]domain.ForecastRow, error) {
	return f.rows[productID], nil
}

func (f *fakeForecastRepo) CountAll(ctx context.Context) (int, error) {
	total := 0
	for _, rows := range f.rows {
		total += len(rows)
	}
	return total, nil
}

type fakeAlertRepo struct {
	alerts []domain.Alert
}

func (f *fakeAlertRepo) Insert(ctx context.Context, a *domain.Alert) error {
	a.ID = int64(len(f.alerts) + 1)
	f.alerts = append(f.alerts, *a)
	return nil
}

func (f *fakeAlertRepo) HasUnresolved(ctx context.Context, productID int64) (bool, error) {
	for _, a := range f.alerts {
		if a.ProductID == productID && !a.IsResolved {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAlertRepo) ListUnresolved(ctx context.Context) ([]domain.Alert, error) {
	var unresolved []domain.Alert
	for _, a := range f.alerts {
		if !a.IsResolved {
			unresolved = append(unresolved, a)
		}
	}
	return unresolved, nil
}

func salesHistory(productID int64, days int, qty float64) []domain.SalesRecord {
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	records := make([]domain.SalesRecord, days)
	for i := range records {
		records[i] = domain.SalesRecord{ProductID: productID, Quantity: qty, OrderDate: start.AddDate(0, 0, i)}
	}
	return records
}

type harness struct {
	svc       *EngineService
	products  *fakeProductRepo
	alertRepo *fakeAlertRepo
}

// newHarness wires real subsystems over fake repositories: product 1
// has 60 days of flat sales and 100 units of stock.
func newHarness(t *testing.T) *harness {
	t.Helper()

	products := &fakeProductRepo{products: []domain.Product{
		{ID: 1, Name: "widget", IsActive: true},
	}}
	sales := &fakeSalesRepo{records: map[int64][]domain.SalesRecord{
		1: salesHistory(1, 60, 5),
	}}
	stock := &fakeStockRepo{snapshots: map[int64]*domain.StockSnapshot{
		1: {ProductID: 1, QuantityOnHand: 100},
	}}
	forecasts := &fakeForecastRepo{}
	alertRepo := &fakeAlertRepo{}

	manager := model.NewManager(products, sales, model.NewMemoryStore(), model.Config{})
	coordinator := alerting.NewCoordinator(alertRepo)
	generator := engine.NewGenerator(manager, stock, forecasts, coordinator, engine.Config{})
	evaluator := evaluation.NewEvaluator(sales, manager, evaluation.Config{})
	perfCache := cache.NewMemoryCache(10*time.Minute, time.Now)

	svc := NewEngineService(products, stock, forecasts, manager, generator, evaluator, coordinator, perfCache)

	_, err := svc.TrainAll(context.Background())
	require.NoError(t, err)

	return &harness{svc: svc, products: products, alertRepo: alertRepo}
}

func TestDashboardAggregates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.ForecastAll(ctx)
	require.NoError(t, err)

	d, err := h.svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, d.ActiveProducts)
	assert.Equal(t, 1, d.TrainedModels)
	assert.Equal(t, 30, d.ForecastRows)
	assert.Nil(t, d.Errors)
	require.NotNil(t, d.Performance)
	assert.Equal(t, 1, d.Performance.ProductsEvaluated)
}

func TestDashboardPartialOnSectionFailure(t *testing.T) {
	h := newHarness(t)
	h.products.countErr = errors.New("connection reset")

	d, err := h.svc.Dashboard(context.Background())
	require.NoError(t, err)

	require.NotNil(t, d.Errors)
	assert.Contains(t, d.Errors["products"], "connection reset")
	// Other sections still populated.
	assert.Equal(t, 1, d.TrainedModels)
}

func TestPerformanceSummaryCaching(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, hit, err := h.svc.PerformanceSummary(ctx, true)
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = h.svc.PerformanceSummary(ctx, true)
	require.NoError(t, err)
	assert.True(t, hit)

	// Forced refresh bypasses the cache.
	_, hit, err = h.svc.PerformanceSummary(ctx, false)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestTrainAllInvalidatesPerformanceCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, _, err := h.svc.PerformanceSummary(ctx, true)
	require.NoError(t, err)

	_, err = h.svc.TrainAll(ctx)
	require.NoError(t, err)

	_, hit, err := h.svc.PerformanceSummary(ctx, true)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestProductDetail(t *testing.T) {
	h := newHarness(t)

	detail, err := h.svc.ProductDetail(context.Background(), 1)
	require.NoError(t, err)

	require.NotNil(t, detail.Product)
	assert.Equal(t, "widget", detail.Product.Name)
	require.NotNil(t, detail.CurrentStock)
	assert.Equal(t, 100.0, detail.CurrentStock.QuantityOnHand)
	require.NotNil(t, detail.Forecast)
	assert.Empty(t, detail.ForecastError)
	require.NotNil(t, detail.Evaluation)
	assert.Empty(t, detail.EvaluationError)

	// Detail forecasts are ephemeral: nothing persisted, no alert.
	assert.Empty(t, h.alertRepo.alerts)
}

func TestProductDetailUnknownProduct(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.ProductDetail(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProductDetailEmbedsEvaluationFailure(t *testing.T) {
	// Product with enough history to train (10 points) but not enough
	// to evaluate (<30): detail still carries the forecast.
	products := &fakeProductRepo{products: []domain.Product{{ID: 2, Name: "sparse", IsActive: true}}}
	sales := &fakeSalesRepo{records: map[int64][]domain.SalesRecord{2: salesHistory(2, 12, 3)}}
	stock := &fakeStockRepo{snapshots: map[int64]*domain.StockSnapshot{}}
	forecasts := &fakeForecastRepo{}
	alertRepo := &fakeAlertRepo{}

	manager := model.NewManager(products, sales, model.NewMemoryStore(), model.Config{})
	coordinator := alerting.NewCoordinator(alertRepo)
	generator := engine.NewGenerator(manager, stock, forecasts, coordinator, engine.Config{})
	evaluator := evaluation.NewEvaluator(sales, manager, evaluation.Config{})
	svc := NewEngineService(products, stock, forecasts, manager, generator, evaluator, coordinator,
		cache.NewMemoryCache(time.Minute, time.Now))

	ctx := context.Background()
	_, err := svc.TrainProduct(ctx, 2)
	require.NoError(t, err)

	detail, err := svc.ProductDetail(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, detail.Forecast)
	assert.Nil(t, detail.Evaluation)
	assert.NotEmpty(t, detail.EvaluationError)
}

func TestActiveAlertsEmptyWithoutStockouts(t *testing.T) {
	h := newHarness(t)

	alerts, err := h.svc.ActiveAlerts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
