package postgres

import (
	"context"
	"fmt"

	"github.com/optiflow/backend/internal/domain"
)

type alertRepository struct {
	db *DB
}

func NewAlertRepository(db *DB) *alertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Insert(ctx context.Context, a *domain.Alert) error {
	query := `
		INSERT INTO alerts (
			product_id, alert_type, severity, message, recommended_action, is_resolved, created_at
		) VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ProductID, a.AlertType, a.Severity, a.Message, a.RecommendedAction,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

func (r *alertRepository) HasUnresolved(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM alerts WHERE product_id = $1 AND is_resolved = FALSE)`
	if err := r.db.GetContext(ctx, &exists, query, productID); err != nil {
		return false, fmt.Errorf("failed to check unresolved alerts for product %d: %w", productID, err)
	}
	return exists, nil
}

func (r *alertRepository) ListUnresolved(ctx context.Context) ([]domain.Alert, error) {
	var alerts []domain.Alert
	query := `SELECT * FROM alerts WHERE is_resolved = FALSE ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &alerts, query); err != nil {
		return nil, fmt.Errorf("failed to list unresolved alerts: %w", err)
	}
	return alerts, nil
}
