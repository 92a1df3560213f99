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

const paymentMethodColumns = `
	id, name, type, provider_code, active, description, display_order,
	created_at, updated_at`

// PaymentMethodRepository reads the payment-method catalog.
type PaymentMethodRepository struct {
	q persistence.Executor
}

func NewPaymentMethodRepository(db *persistence.DB) *PaymentMethodRepository {
	return &PaymentMethodRepository{q: db.Pool}
}

func (r *PaymentMethodRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error) {
	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods WHERE id = $1`

	m, err := scanPaymentMethod(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewPaymentMethodNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to scan payment method: %w", err)
	}
	return toDomainPaymentMethod(m), nil
}

func (r *PaymentMethodRepository) FindAllActive(ctx context.Context) ([]*domain.PaymentMethod, error) {
	query := `
		SELECT ` + paymentMethodColumns + `
		FROM payment_methods
		WHERE active = TRUE
		ORDER BY display_order ASC, name ASC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active payment methods: %w", err)
	}
	return collectPaymentMethods(rows)
}

func (r *PaymentMethodRepository) FindByType(ctx context.Context, methodType domain.PaymentMethodType) ([]*domain.PaymentMethod, error) {
	query := `
		SELECT ` + paymentMethodColumns + `
		FROM payment_methods
		WHERE type = $1
		ORDER BY display_order ASC, name ASC
	`

	rows, err := r.q.Query(ctx, query, string(methodType))
	if err != nil {
		return nil, fmt.Errorf("query payment methods by type: %w", err)
	}
	return collectPaymentMethods(rows)
}

func collectPaymentMethods(rows pgx.Rows) ([]*domain.PaymentMethod, error) {
	models, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (paymentMethodModel, error) {
		return scanPaymentMethod(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan payment methods: %w", err)
	}

	results := make([]*domain.PaymentMethod, 0, len(models))
	for _, m := range models {
		results = append(results, toDomainPaymentMethod(m))
	}
	return results, nil
}

func scanPaymentMethod(row pgx.Row) (paymentMethodModel, error) {
	var m paymentMethodModel
	err := row.Scan(
		&m.ID, &m.Name, &m.Type, &m.ProviderCode, &m.Active, &m.Description,
		&m.DisplayOrder, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}
