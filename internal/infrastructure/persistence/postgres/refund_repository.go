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

const refundColumns = `
	id, transaction_id, amount, currency, reason, status,
	provider_refund_id, failure_reason, created_at, updated_at`

// RefundRepository persists refund rows. Save is an upsert keyed on id, since
// the same refund is written once in flight and again after the provider
// settles it.
type RefundRepository struct {
	q persistence.Executor
}

func NewRefundRepository(db *persistence.DB) *RefundRepository {
	return &RefundRepository{q: db.Pool}
}

func (r *RefundRepository) withExecutor(q persistence.Executor) *RefundRepository {
	return &RefundRepository{q: q}
}

func (r *RefundRepository) Save(ctx context.Context, refund *domain.Refund) error {
	query := `
		INSERT INTO refunds (` + refundColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			provider_refund_id = EXCLUDED.provider_refund_id,
			failure_reason = EXCLUDED.failure_reason,
			updated_at = EXCLUDED.updated_at
	`

	m := toRefundModel(refund)
	_, err := r.q.Exec(ctx, query,
		m.ID,
		m.TransactionID,
		m.Amount,
		m.Currency,
		m.Reason,
		m.Status,
		m.ProviderRefundID,
		m.FailureReason,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save refund: %w", err)
	}
	return nil
}

func (r *RefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1`

	m, err := scanRefund(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewRefundNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to scan refund: %w", err)
	}
	return toDomainRefund(m)
}

func (r *RefundRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*domain.Refund, error) {
	query := `
		SELECT ` + refundColumns + `
		FROM refunds
		WHERE transaction_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.q.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("query refunds by transaction_id: %w", err)
	}
	return collectRefunds(rows)
}

func (r *RefundRepository) FindByStatus(ctx context.Context, status domain.RefundStatus, limit int) ([]*domain.Refund, error) {
	query := `
		SELECT ` + refundColumns + `
		FROM refunds
		WHERE status = $1
		ORDER BY updated_at ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("query refunds by status: %w", err)
	}
	return collectRefunds(rows)
}

func collectRefunds(rows pgx.Rows) ([]*domain.Refund, error) {
	models, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (refundModel, error) {
		return scanRefund(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan refunds: %w", err)
	}

	results := make([]*domain.Refund, 0, len(models))
	for _, m := range models {
		refund, err := toDomainRefund(m)
		if err != nil {
			return nil, err
		}
		results = append(results, refund)
	}
	return results, nil
}

func scanRefund(row pgx.Row) (refundModel, error) {
	var m refundModel
	err := row.Scan(
		&m.ID, &m.TransactionID, &m.Amount, &m.Currency, &m.Reason, &m.Status,
		&m.ProviderRefundID, &m.FailureReason, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}
