package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/optiflow/backend/internal/domain"
)

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) *forecastRepository {
	return &forecastRepository{db: db}
}

// ReplaceForProduct swaps a product's forecast rows atomically. The
// delete and inserts share one transaction so readers never observe a
// mix of old and new horizons.
func (r *forecastRepository) ReplaceForProduct(ctx context.Context, productID int64, rows []domain.ForecastRow) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM forecasts WHERE product_id = $1`, productID); err != nil {
			return fmt.Errorf("failed to delete stale forecasts: %w", err)
		}

		query := `
			INSERT INTO forecasts (
				product_id, forecast_date, predicted_demand, lower_bound, upper_bound,
				confidence_level, rupture_risk, recommended_order_qty, model_version, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		`
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			_, err := stmt.ExecContext(ctx,
				productID, row.ForecastDate, row.PredictedDemand, row.LowerBound, row.UpperBound,
				row.ConfidenceLevel, row.RuptureRisk, row.RecommendedOrderQty, row.ModelVersion,
			)
			if err != nil {
				return fmt.Errorf("failed to insert forecast row: %w", err)
			}
		}
		return nil
	})
}

func (r *forecastRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.ForecastRow, error) {
	var rows []domain.ForecastRow
	query := `SELECT * FROM forecasts WHERE product_id = $1 ORDER BY forecast_date`
	if err := r.db.SelectContext(ctx, &rows, query, productID); err != nil {
		return nil, fmt.Errorf("failed to list forecasts for product %d: %w", productID, err)
	}
	return rows, nil
}

func (r *forecastRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM forecasts`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count forecasts: %w", err)
	}
	return count, nil
}
