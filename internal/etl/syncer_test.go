package etl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optiflow/backend/internal/domain"
)

type fakeProductRepo struct {
	byErpID map[int64]*domain.Product
	nextID  int64
}

func (f *fakeProductRepo) Upsert(ctx context.Context, p *domain.Product) (int64, error) {
	if f.byErpID == nil {
		f.byErpID = make(map[int64]*domain.Product)
	}
	if existing, ok := f.byErpID[p.ErpID]; ok {
		p.ID = existing.ID
	} else {
		f.nextID++
		p.ID = f.nextID
	}
	stored := *p
	f.byErpID[p.ErpID] = &stored
	return p.ID, nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	for _, p := range f.byErpID {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductRepo) GetByErpID(ctx context.Context, erpID int64) (*domain.Product, error) {
	return f.byErpID[erpID], nil
}

func (f *fakeProductRepo) ListActive(ctx context.Context) ([]domain.Product, error) { return nil, nil }

func (f *fakeProductRepo) CountActive(ctx context.Context) (int, error) { return 0, nil }

type fakeSalesRepo struct {
	records []domain.SalesRecord
}

func (f *fakeSalesRepo) Insert(ctx context.Context, r *domain.SalesRecord) error {
	f.records = append(f.records, *r)
	return nil
}

func (f *fakeSalesRepo) ListByProduct(ctx context.Context, productID int64) ([]domain.SalesRecord, error) {
	return nil, nil
}

func (f *fakeSalesRepo) CountByProduct(ctx context.Context, productID int64) (int, error) {
	return 0, nil
}

type fakeStockRepo struct {
	snapshots []domain.StockSnapshot
}

func (f *fakeStockRepo) InsertSnapshot(ctx context.Context, s *domain.StockSnapshot) error {
	f.snapshots = append(f.snapshots, *s)
	return nil
}

func (f *fakeStockRepo) LatestByProduct(ctx context.Context, productID int64) (*domain.StockSnapshot, error) {
	return nil, nil
}

type fakeSyncLogRepo struct {
	entries []domain.SyncLog
}

func (f *fakeSyncLogRepo) Insert(ctx context.Context, l *domain.SyncLog) error {
	f.entries = append(f.entries, *l)
	return nil
}

// fakeSource serves fixtures and can fail per phase.
type fakeSource struct {
	products   []SourceProduct
	stock      []SourceStock
	orders     []SourceOrder
	productErr error
}

func (f *fakeSource) Products(ctx context.Context) ([]SourceProduct, error) {
	return f.products, f.productErr
}

func (f *fakeSource) StockLevels(ctx context.Context) ([]SourceStock, error) {
	return f.stock, nil
}

func (f *fakeSource) Orders(ctx context.Context, since time.Time) ([]SourceOrder, error) {
	var kept []SourceOrder
	for _, o := range f.orders {
		if !o.OrderDate.Before(since) {
			kept = append(kept, o)
		}
	}
	return kept, nil
}

func fixtureSource() *fakeSource {
	orderDate := time.Now().UTC().AddDate(0, 0, -3)
	return &fakeSource{
		products: []SourceProduct{
			{ErpID: 100, Name: "Widget", Reference: "W-100", Category: "Widgets", ListPrice: 20, StandardPrice: 12, IsActive: true},
			{ErpID: 200, Name: "Gadget", Reference: "G-200", Category: "Gadgets", ListPrice: 50, StandardPrice: 30, IsActive: true},
		},
		stock: []SourceStock{
			{ErpProductID: 100, QuantityOnHand: 40},
			{ErpProductID: 999, QuantityOnHand: 5}, // unknown product
		},
		orders: []SourceOrder{
			{
				Reference:    "SO001",
				CustomerName: "Acme",
				OrderDate:    orderDate,
				Lines: []SourceOrderLine{
					{ErpProductID: 100, Quantity: 3, UnitPrice: 20, Subtotal: 60, StandardPrice: 12, Stockable: true},
					{ErpProductID: 100, Quantity: 1, UnitPrice: 20, Subtotal: 20, StandardPrice: 12, Stockable: false},
					{ErpProductID: 999, Quantity: 2, UnitPrice: 5, Subtotal: 10, Stockable: true},
				},
			},
		},
	}
}

func newTestSyncer(source Source) (*Syncer, *fakeProductRepo, *fakeSalesRepo, *fakeStockRepo, *fakeSyncLogRepo) {
	products := &fakeProductRepo{}
	sales := &fakeSalesRepo{}
	stock := &fakeStockRepo{}
	syncLog := &fakeSyncLogRepo{}
	return NewSyncer(source, products, sales, stock, syncLog), products, sales, stock, syncLog
}

func TestSyncProductsUpserts(t *testing.T) {
	syncer, products, _, _, _ := newTestSyncer(fixtureSource())

	count, err := syncer.SyncProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	p, err := products.GetByErpID(context.Background(), 100)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Widget", p.Name)

	// Re-running does not duplicate.
	count, err = syncer.SyncProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, products.byErpID, 2)
}

func TestSyncStockSkipsUnknownProducts(t *testing.T) {
	syncer, _, _, stock, _ := newTestSyncer(fixtureSource())
	ctx := context.Background()

	_, err := syncer.SyncProducts(ctx)
	require.NoError(t, err)

	count, err := syncer.SyncStockLevels(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, stock.snapshots, 1)
	assert.Equal(t, 40.0, stock.snapshots[0].QuantityOnHand)
}

func TestSyncSalesSkipsNonStockableAndUnknown(t *testing.T) {
	syncer, _, sales, _, _ := newTestSyncer(fixtureSource())
	ctx := context.Background()

	_, err := syncer.SyncProducts(ctx)
	require.NoError(t, err)

	count, err := syncer.SyncSales(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, sales.records, 1)

	rec := sales.records[0]
	assert.Equal(t, "SO001", rec.OrderRef)
	assert.Equal(t, 3.0, rec.Quantity)
	// margin = (20 - 12) * 3
	assert.InDelta(t, 24.0, rec.Margin, 1e-9)
}

func TestSyncSalesWindowExcludesOldOrders(t *testing.T) {
	source := fixtureSource()
	source.orders[0].OrderDate = time.Now().UTC().AddDate(0, 0, -60)
	syncer, _, sales, _, _ := newTestSyncer(source)
	ctx := context.Background()

	_, err := syncer.SyncProducts(ctx)
	require.NoError(t, err)

	count, err := syncer.SyncSales(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, sales.records)
}

func TestRunFullSyncLogsEveryPhase(t *testing.T) {
	syncer, _, _, _, syncLog := newTestSyncer(fixtureSource())

	result := syncer.RunFullSync(context.Background(), 30)
	assert.Equal(t, "success", result.Products.Status)
	assert.Equal(t, "success", result.Stock.Status)
	assert.Equal(t, "success", result.Sales.Status)

	require.Len(t, syncLog.entries, 3)
	assert.Equal(t, "products", syncLog.entries[0].SyncType)
	assert.Equal(t, "stock", syncLog.entries[1].SyncType)
	assert.Equal(t, "sales", syncLog.entries[2].SyncType)
	for _, e := range syncLog.entries {
		assert.Equal(t, "success", e.Status)
		assert.False(t, e.StartedAt.IsZero())
		assert.False(t, e.CompletedAt.IsZero())
	}
}

func TestRunFullSyncRecordsFailureAndContinues(t *testing.T) {
	source := fixtureSource()
	source.productErr = errors.New("export unreachable")
	syncer, _, _, _, syncLog := newTestSyncer(source)

	result := syncer.RunFullSync(context.Background(), 30)
	assert.Equal(t, "failed", result.Products.Status)
	// Later phases still run.
	assert.Equal(t, "success", result.Stock.Status)
	assert.Equal(t, "success", result.Sales.Status)

	require.Len(t, syncLog.entries, 3)
	assert.Equal(t, "failed", syncLog.entries[0].Status)
	assert.Contains(t, syncLog.entries[0].ErrorMessage, "export unreachable")
}
