package postgres

import (
	"context"
	"fmt"

	"github.com/optiflow/backend/internal/domain"
)

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *salesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) Insert(ctx context.Context, rec *domain.SalesRecord) error {
	query := `
		INSERT INTO sales_history (
			product_id, order_ref, customer_name, quantity, unit_price, total_amount, margin, order_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ProductID, rec.OrderRef, rec.CustomerName, rec.Quantity,
		rec.UnitPrice, rec.TotalAmount, rec.Margin, rec.OrderDate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sales record: %w", err)
	}
	return nil
}

func (r *salesRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.SalesRecord, error) {
	var records []domain.SalesRecord
	query := `SELECT * FROM sales_history WHERE product_id = $1 ORDER BY order_date`
	if err := r.db.SelectContext(ctx, &records, query, productID); err != nil {
		return nil, fmt.Errorf("failed to list sales for product %d: %w", productID, err)
	}
	return records, nil
}

func (r *salesRepository) CountByProduct(ctx context.Context, productID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM sales_history WHERE product_id = $1`
	if err := r.db.GetContext(ctx, &count, query, productID); err != nil {
		return 0, fmt.Errorf("failed to count sales for product %d: %w", productID, err)
	}
	return count, nil
}
