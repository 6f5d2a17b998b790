package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/clearpath-assistant/models"
	"github.com/upb/clearpath-assistant/repositories"
)

// RoutingLogRepository implements repositories.RoutingLogRepository
type RoutingLogRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRoutingLogRepository creates a new routing log repository
func NewRoutingLogRepository(db *DB, logger *zap.Logger) repositories.RoutingLogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoutingLogRepository{
		db:     db,
		logger: logger,
	}
}

// Insert appends a routing log entry
func (r *RoutingLogRepository) Insert(ctx context.Context, entry *models.RoutingLogEntry) error {
	query := `
		INSERT INTO routing_logs (
			id, request_id, session_id, query, classification,
			model_used, latency_ms, flagged, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		entry.ID,
		entry.RequestID,
		entry.SessionID,
		entry.Query,
		entry.Classification,
		entry.ModelUsed,
		entry.LatencyMs,
		entry.Flagged,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert routing log: %w", err)
	}

	r.logger.Debug("routing log inserted",
		zap.String("id", entry.ID.String()),
		zap.String("classification", string(entry.Classification)))
	return nil
}

// ListRecent returns up to limit entries, newest first
func (r *RoutingLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.RoutingLogEntry, error) {
	query := `
		SELECT id, request_id, session_id, query, classification,
		       model_used, latency_ms, flagged, created_at
		FROM routing_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list routing logs: %w", err)
	}
	defer rows.Close()

	entries := []*models.RoutingLogEntry{}
	for rows.Next() {
		e := &models.RoutingLogEntry{}
		if err := rows.Scan(
			&e.ID,
			&e.RequestID,
			&e.SessionID,
			&e.Query,
			&e.Classification,
			&e.ModelUsed,
			&e.LatencyMs,
			&e.Flagged,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan routing log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating routing logs: %w", err)
	}

	return entries, nil
}
