// internal/repository/interfaces.go
package repository

import (
	"context"

	"github.com/optiflow/backend/internal/domain"
)

// ProductRepository mirrors ERP products into the store. Upsert is
// keyed on the ERP id and returns the local product id.
type ProductRepository interface {
	Upsert(ctx context.Context, p *domain.Product) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByErpID(ctx context.Context, erpID int64) (*domain.Product, error)
	ListActive(ctx context.Context) ([]domain.Product, error)
	CountActive(ctx context.Context) (int, error)
}

// SalesRepository is append-only order history.
type SalesRepository interface {
	Insert(ctx context.Context, r *domain.SalesRecord) error
	ListByProduct(ctx context.Context, productID int64) ([]domain.SalesRecord, error)
	CountByProduct(ctx context.Context, productID int64) (int, error)
}

// StockRepository stores point-in-time stock snapshots.
// LatestByProduct returns (nil, nil) when no snapshot exists.
type StockRepository interface {
	InsertSnapshot(ctx context.Context, s *domain.StockSnapshot) error
	LatestByProduct(ctx context.Context, productID int64) (*domain.StockSnapshot, error)
}

// ForecastRepository holds the persisted forecast rows. A product's
// rows are always replaced as a unit, never appended to.
type ForecastRepository interface {
	ReplaceForProduct(ctx context.Context, productID int64, rows []domain.ForecastRow) error
	ListByProduct(ctx context.Context, productID int64) ([]domain.ForecastRow, error)
	CountAll(ctx context.Context) (int, error)
}

// AlertRepository stores replenishment alerts.
type AlertRepository interface {
	Insert(ctx context.Context, a *domain.Alert) error
	HasUnresolved(ctx context.Context, productID int64) (bool, error)
	ListUnresolved(ctx context.Context) ([]domain.Alert, error)
}

// SyncLogRepository records ETL sync outcomes.
type SyncLogRepository interface {
	Insert(ctx context.Context, l *domain.SyncLog) error
}
