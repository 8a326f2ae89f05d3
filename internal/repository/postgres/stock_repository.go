package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/optiflow/backend/internal/domain"
)

type stockRepository struct {
	db *DB
}

func NewStockRepository(db *DB) *stockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) InsertSnapshot(ctx context.Context, s *domain.StockSnapshot) error {
	query := `
		INSERT INTO stock_levels (
			product_id, quantity_on_hand, quantity_forecasted, quantity_incoming, quantity_outgoing, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ProductID, s.QuantityOnHand, s.QuantityForecasted,
		s.QuantityIncoming, s.QuantityOutgoing, s.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert stock snapshot: %w", err)
	}
	return nil
}

func (r *stockRepository) LatestByProduct(ctx context.Context, productID int64) (*domain.StockSnapshot, error) {
	var s domain.StockSnapshot
	query := `
		SELECT * FROM stock_levels
		WHERE product_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &s, query, productID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest stock for product %d: %w", productID, err)
	}
	return &s, nil
}
