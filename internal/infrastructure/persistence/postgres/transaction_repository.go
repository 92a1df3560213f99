package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/infrastructure/persistence"
)

const transactionColumns = `
	id, external_order_id, external_user_id, amount, currency, type,
	payment_method_id, status, provider_transaction_id, failure_reason,
	created_at, updated_at, version`

// TransactionRepository persists the Transaction aggregate. Reads hydrate the
// full aggregate including its refund rows; updates go through an optimistic
// version check.
type TransactionRepository struct {
	q persistence.Executor
}

func NewTransactionRepository(db *persistence.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// withExecutor returns a copy bound to a transaction-scoped executor.
func (r *TransactionRepository) withExecutor(q persistence.Executor) *TransactionRepository {
	return &TransactionRepository{q: q}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	m := toTransactionModel(tx)
	_, err := r.q.Exec(ctx, query,
		m.ID,
		m.ExternalOrderID,
		m.ExternalUserID,
		m.Amount,
		m.Currency,
		m.Type,
		m.PaymentMethodID,
		m.Status,
		m.ProviderTransactionID,
		m.FailureReason,
		m.CreatedAt,
		m.UpdatedAt,
		m.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// Update persists mutable state. The WHERE clause carries the version the
// aggregate was loaded with; zero rows affected on an existing row means
// another writer got there first.
func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $1,
			provider_transaction_id = $2,
			failure_reason = $3,
			updated_at = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
	`

	m := toTransactionModel(tx)
	result, err := r.q.Exec(ctx, query,
		m.Status,
		m.ProviderTransactionID,
		m.FailureReason,
		m.UpdatedAt,
		m.ID,
		m.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		exists, err := r.ExistsByID(ctx, tx.ID())
		if err != nil {
			return err
		}
		if !exists {
			return domain.NewTransactionNotFoundError(tx.ID())
		}
		return domain.NewConcurrentModificationError(tx.ID(), tx.Version())
	}

	tx.SetVersion(tx.Version() + 1)
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	row := r.q.QueryRow(ctx, query, id)
	m, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewTransactionNotFoundError(id)
		}
		return nil, err
	}
	return r.hydrate(ctx, m)
}

func (r *TransactionRepository) FindByExternalOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE external_order_id = $1`

	row := r.q.QueryRow(ctx, query, orderID)
	m, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewTransactionNotFoundError(orderID)
		}
		return nil, err
	}
	return r.hydrate(ctx, m)
}

func (r *TransactionRepository) FindByExternalUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE external_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query transactions by external_user_id: %w", err)
	}
	return r.collectAndHydrate(ctx, rows)
}

func (r *TransactionRepository) FindByStatus(ctx context.Context, status domain.TransactionStatus, limit int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = $1
		ORDER BY updated_at ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions by status: %w", err)
	}
	return r.collectAndHydrate(ctx, rows)
}

func (r *TransactionRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}
	return exists, nil
}

// hydrate attaches the refund rows and builds the aggregate.
func (r *TransactionRepository) hydrate(ctx context.Context, m transactionModel) (*domain.Transaction, error) {
	refunds, err := r.refundModelsFor(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return toDomainTransaction(m, refunds)
}

func (r *TransactionRepository) collectAndHydrate(ctx context.Context, rows pgx.Rows) ([]*domain.Transaction, error) {
	models, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (transactionModel, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}

	results := make([]*domain.Transaction, 0, len(models))
	for _, m := range models {
		tx, err := r.hydrate(ctx, m)
		if err != nil {
			return nil, err
		}
		results = append(results, tx)
	}
	return results, nil
}

func (r *TransactionRepository) refundModelsFor(ctx context.Context, transactionID uuid.UUID) ([]refundModel, error) {
	query := `
		SELECT ` + refundColumns + `
		FROM refunds
		WHERE transaction_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.q.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("query refunds for transaction: %w", err)
	}
	models, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (refundModel, error) {
		return scanRefund(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan refunds: %w", err)
	}
	return models, nil
}

func scanTransaction(row pgx.Row) (transactionModel, error) {
	var m transactionModel
	err := row.Scan(
		&m.ID, &m.ExternalOrderID, &m.ExternalUserID, &m.Amount, &m.Currency, &m.Type,
		&m.PaymentMethodID, &m.Status, &m.ProviderTransactionID, &m.FailureReason,
		&m.CreatedAt, &m.UpdatedAt, &m.Version,
	)
	return m, err
}
