package services

import (
	"context"

	"github.com/upb/clearpath-assistant/repositories"
)

// WithTransaction executes fn within a database transaction.
// Commits on success, rolls back on error. Repositories called with the ctx
// handed to fn join the transaction. A nil manager runs fn directly, which is
// the case for file-backed stores.
func WithTransaction(ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) error) error {
	if txMgr == nil {
		return fn(ctx)
	}
	return txMgr.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		return fn(txCtx)
	})
}
