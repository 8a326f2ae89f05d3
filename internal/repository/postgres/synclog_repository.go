package postgres

import (
	"context"
	"fmt"

	"github.com/optiflow/backend/internal/domain"
)

type syncLogRepository struct {
	db *DB
}

func NewSyncLogRepository(db *DB) *syncLogRepository {
	return &syncLogRepository{db: db}
}

func (r *syncLogRepository) Insert(ctx context.Context, l *domain.SyncLog) error {
	query := `
		INSERT INTO etl_sync_log (
			sync_type, status, records_processed, error_message, started_at, completed_at, duration_seconds
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		l.SyncType, l.Status, l.RecordsProcessed, l.ErrorMessage,
		l.StartedAt, l.CompletedAt, l.DurationSeconds,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync log: %w", err)
	}
	return nil
}
