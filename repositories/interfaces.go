package repositories

import (
	"context"

	"github.com/upb/clearpath-assistant/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Repositories called with the function's ctx join the transaction.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// PassageRepository stores the embedded corpus
type PassageRepository interface {
	// LoadAll returns every passage in ingestion order
	LoadAll(ctx context.Context) ([]models.Passage, error)

	// ReplaceAll swaps the stored corpus for the given passages
	ReplaceAll(ctx context.Context, passages []models.Passage) error

	// Count returns the number of stored passages
	Count(ctx context.Context) (int, error)
}

// RoutingLogRepository is the append-only sink for routing decisions
type RoutingLogRepository interface {
	// Insert appends a routing log entry
	Insert(ctx context.Context, entry *models.RoutingLogEntry) error

	// ListRecent returns up to limit entries, newest first
	ListRecent(ctx context.Context, limit int) ([]*models.RoutingLogEntry, error)
}

// Repositories holds all repository instances
type Repositories struct {
	Passages    PassageRepository
	RoutingLogs RoutingLogRepository
}
