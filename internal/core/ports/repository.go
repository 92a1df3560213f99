// Package ports declares the contracts the payment core consumes:
// persistence, the external payment provider and the event publisher.
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
)

// TransactionRepository persists the Transaction aggregate. FindByID loads
// the full aggregate including its refunds. Update performs an optimistic
// check against the aggregate's version and returns a
// CONCURRENT_MODIFICATION domain error on a stale write.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	Update(ctx context.Context, tx *domain.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	FindByExternalOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Transaction, error)
	FindByExternalUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, error)
	FindByStatus(ctx context.Context, status domain.TransactionStatus, limit int) ([]*domain.Transaction, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
}

// RefundRepository persists refunds belonging to the Transaction aggregate.
type RefundRepository interface {
	Save(ctx context.Context, refund *domain.Refund) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error)
	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*domain.Refund, error)
	FindByStatus(ctx context.Context, status domain.RefundStatus, limit int) ([]*domain.Refund, error)
}

// PaymentMethodRepository reads the payment-method catalog.
type PaymentMethodRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error)
	FindAllActive(ctx context.Context) ([]*domain.PaymentMethod, error)
	FindByType(ctx context.Context, methodType domain.PaymentMethodType) ([]*domain.PaymentMethod, error)
}

// UserPaymentMethodRepository persists instruments saved by users.
type UserPaymentMethodRepository interface {
	Save(ctx context.Context, upm *domain.UserPaymentMethod) error
	FindByExternalUserID(ctx context.Context, userID uuid.UUID) ([]*domain.UserPaymentMethod, error)
}

// UnitOfWork runs fn inside a single database transaction so a refund and its
// transaction are persisted together, or not at all.
type UnitOfWork interface {
	WithTransaction(ctx context.Context, fn func(txRepo TransactionRepository, refundRepo RefundRepository) error) error
}
