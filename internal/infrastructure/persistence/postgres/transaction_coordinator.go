package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/ports"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/infrastructure/persistence"
)

// TransactionCoordinator runs transaction and refund writes inside a single
// database transaction. It implements ports.UnitOfWork.
type TransactionCoordinator struct {
	pool *pgxpool.Pool
}

func NewTransactionCoordinator(db *persistence.DB) *TransactionCoordinator {
	return &TransactionCoordinator{
		pool: db.Pool,
	}
}

// WithTransaction executes fn within a database transaction. The repositories
// handed to fn are bound to that transaction; a returned error rolls
// everything back.
func (tc *TransactionCoordinator) WithTransaction(
	ctx context.Context,
	fn func(txRepo ports.TransactionRepository, refundRepo ports.RefundRepository) error,
) error {
	tx, err := tc.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txTransactionRepo := (&TransactionRepository{}).withExecutor(tx)
	txRefundRepo := (&RefundRepository{}).withExecutor(tx)

	if err := fn(txTransactionRepo, txRefundRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
