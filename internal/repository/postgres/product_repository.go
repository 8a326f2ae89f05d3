package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/optiflow/backend/internal/domain"
)

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *productRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Upsert(ctx context.Context, p *domain.Product) (int64, error) {
	query := `
		INSERT INTO products (
			erp_id, name, reference, category, list_price, standard_price, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (erp_id) DO UPDATE SET
			name = EXCLUDED.name,
			reference = EXCLUDED.reference,
			category = EXCLUDED.category,
			list_price = EXCLUDED.list_price,
			standard_price = EXCLUDED.standard_price,
			is_active = EXCLUDED.is_active
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		p.ErpID, p.Name, p.Reference, p.Category, p.ListPrice, p.StandardPrice, p.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert product: %w", err)
	}
	return id, nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	query := `SELECT * FROM products WHERE id = $1`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &p, nil
}

func (r *productRepository) GetByErpID(ctx context.Context, erpID int64) (*domain.Product, error) {
	var p domain.Product
	query := `SELECT * FROM products WHERE erp_id = $1`
	if err := r.db.GetContext(ctx, &p, query, erpID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by erp id %d: %w", erpID, err)
	}
	return &p, nil
}

func (r *productRepository) ListActive(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	query := `SELECT * FROM products WHERE is_active = TRUE ORDER BY name`
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}
	return products, nil
}

func (r *productRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM products WHERE is_active = TRUE`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count active products: %w", err)
	}
	return count, nil
}
