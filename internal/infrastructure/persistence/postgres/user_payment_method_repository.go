package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/infrastructure/persistence"
)

const userPaymentMethodColumns = `
	id, external_user_id, payment_method_id, provider_token, masked_details,
	is_default, created_at, updated_at`

// UserPaymentMethodRepository stores users' saved instruments.
type UserPaymentMethodRepository struct {
	q persistence.Executor
}

func NewUserPaymentMethodRepository(db *persistence.DB) *UserPaymentMethodRepository {
	return &UserPaymentMethodRepository{q: db.Pool}
}

func (r *UserPaymentMethodRepository) Save(ctx context.Context, upm *domain.UserPaymentMethod) error {
	query := `
		INSERT INTO user_payment_methods (` + userPaymentMethodColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.Exec(ctx, query,
		upm.ID,
		upm.ExternalUserID,
		upm.PaymentMethodID,
		upm.ProviderToken,
		upm.MaskedDetails,
		upm.IsDefault,
		upm.CreatedAt,
		upm.UpdatedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return domain.NewValidationError("payment method already saved for this user")
		}
		return fmt.Errorf("failed to save user payment method: %w", err)
	}
	return nil
}

func (r *UserPaymentMethodRepository) FindByExternalUserID(ctx context.Context, userID uuid.UUID) ([]*domain.UserPaymentMethod, error) {
	query := `
		SELECT ` + userPaymentMethodColumns + `
		FROM user_payment_methods
		WHERE external_user_id = $1
		ORDER BY is_default DESC, created_at DESC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query user payment methods: %w", err)
	}

	models, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (userPaymentMethodModel, error) {
		var m userPaymentMethodModel
		err := row.Scan(
			&m.ID, &m.ExternalUserID, &m.PaymentMethodID, &m.ProviderToken,
			&m.MaskedDetails, &m.IsDefault, &m.CreatedAt, &m.UpdatedAt,
		)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan user payment methods: %w", err)
	}

	results := make([]*domain.UserPaymentMethod, 0, len(models))
	for _, m := range models {
		results = append(results, toDomainUserPaymentMethod(m))
	}
	return results, nil
}
