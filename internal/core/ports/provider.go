package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
)

// PaymentRequest is what the provider needs to move money for a transaction.
// The transaction id doubles as the idempotency key for the call.
type PaymentRequest struct {
	TransactionID   uuid.UUID
	OrderID         uuid.UUID
	Amount          domain.Money
	PaymentMethodID uuid.UUID
	CardToken       string
	CVV             string
}

// PaymentResult is the provider's verdict on a payment.
type PaymentResult struct {
	Success               bool
	ProviderTransactionID string
	ErrorCode             string
	ErrorMessage          string
}

// RefundRequest asks the provider to reverse part of a settled payment.
type RefundRequest struct {
	RefundID              uuid.UUID
	ProviderTransactionID string
	Amount                domain.Money
	Reason                string
}

// RefundResult is the provider's verdict on a refund.
type RefundResult struct {
	Success          bool
	ProviderRefundID string
	ErrorCode        string
	ErrorMessage     string
}

// PaymentStatus is the provider-side view of a previously submitted call,
// fetched by idempotency key during reconciliation.
type PaymentStatus struct {
	Known                 bool
	Success               bool
	ProviderTransactionID string
	ErrorCode             string
	ErrorMessage          string
}

// RefundStatus mirrors PaymentStatus for refund calls.
type RefundStatus struct {
	Known            bool
	Success          bool
	ProviderRefundID string
	ErrorCode        string
	ErrorMessage     string
}

// PaymentProviderGateway is the external payment processor. It is the single
// source of truth for whether money moved: the core never marks a transaction
// COMPLETED or a refund COMPLETED without a successful result from here, and
// never re-submits a call of unknown outcome under a fresh idempotency key.
type PaymentProviderGateway interface {
	ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
	ProcessRefund(ctx context.Context, req RefundRequest) (*RefundResult, error)
	ValidateToken(ctx context.Context, token string) (bool, error)

	// Status lookups by idempotency key, used by the reconciler to resolve
	// calls whose outcome was lost to a timeout.
	GetPayment(ctx context.Context, transactionID uuid.UUID) (*PaymentStatus, error)
	GetRefund(ctx context.Context, refundID uuid.UUID) (*RefundStatus, error)
}
