package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// transactionModel mirrors the transactions table. Version is the optimistic
// locking token compared on every update.
type transactionModel struct {
	ID                    uuid.UUID
	ExternalOrderID       uuid.UUID
	ExternalUserID        uuid.UUID
	Amount                decimal.Decimal
	Currency              string
	Type                  string
	PaymentMethodID       uuid.UUID
	Status                string
	ProviderTransactionID *string
	FailureReason         *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Version               int64
}

// refundModel mirrors the refunds table. Currency is denormalized from the
// parent transaction so a refund row scans without a join.
type refundModel struct {
	ID               uuid.UUID
	TransactionID    uuid.UUID
	Amount           decimal.Decimal
	Currency         string
	Reason           string
	Status           string
	ProviderRefundID *string
	FailureReason    *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type paymentMethodModel struct {
	ID           uuid.UUID
	Name         string
	Type         string
	ProviderCode string
	Active       bool
	Description  string
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type userPaymentMethodModel struct {
	ID              uuid.UUID
	ExternalUserID  uuid.UUID
	PaymentMethodID uuid.UUID
	ProviderToken   string
	MaskedDetails   string
	IsDefault       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
