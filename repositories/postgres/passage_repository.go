package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/upb/clearpath-assistant/models"
	"github.com/upb/clearpath-assistant/repositories"
)

// PassageRepository implements repositories.PassageRepository
type PassageRepository struct {
	db     *DB
	txMgr  repositories.TransactionManager
	logger *zap.Logger
}

// NewPassageRepository creates a new passage repository
func NewPassageRepository(db *DB, logger *zap.Logger) repositories.PassageRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PassageRepository{
		db:     db,
		txMgr:  NewTransactionManager(db, logger),
		logger: logger,
	}
}

// LoadAll returns every passage in ingestion order
func (r *PassageRepository) LoadAll(ctx context.Context) ([]models.Passage, error) {
	query := `
		SELECT text, source, embedding
		FROM passages
		ORDER BY position ASC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load passages: %w", err)
	}
	defer rows.Close()

	passages := []models.Passage{}
	for rows.Next() {
		var p models.Passage
		if err := rows.Scan(&p.Text, &p.Source, pq.Array(&p.Embedding)); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating passages: %w", err)
	}

	return passages, nil
}

// ReplaceAll swaps the stored corpus atomically
func (r *PassageRepository) ReplaceAll(ctx context.Context, passages []models.Passage) error {
	return r.txMgr.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		executor := GetExecutor(txCtx, r.db)

		if _, err := executor.ExecContext(txCtx, `DELETE FROM passages`); err != nil {
			return fmt.Errorf("failed to clear passages: %w", err)
		}

		insert := `
			INSERT INTO passages (position, source, text, embedding)
			VALUES ($1, $2, $3, $4)
		`
		for i, p := range passages {
			if _, err := executor.ExecContext(txCtx, insert, i, p.Source, p.Text, pq.Array(p.Embedding)); err != nil {
				return fmt.Errorf("failed to insert passage %d: %w", i, err)
			}
		}

		r.logger.Info("passages replaced", zap.Int("count", len(passages)))
		return nil
	})
}

// Count returns the number of stored passages
func (r *PassageRepository) Count(ctx context.Context) (int, error) {
	var n int
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM passages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count passages: %w", err)
	}
	return n, nil
}
