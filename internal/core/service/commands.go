package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
)

// CreateTransactionCommand opens a new PENDING transaction for an order.
type CreateTransactionCommand struct {
	ExternalOrderID uuid.UUID
	ExternalUserID  uuid.UUID
	Amount          decimal.Decimal
	Currency        string
	Type            domain.TransactionType
	PaymentMethodID uuid.UUID
}

func (c CreateTransactionCommand) Validate() error {
	if c.ExternalOrderID == uuid.Nil {
		return domain.NewMissingRequiredFieldError("external order ID")
	}
	if c.ExternalUserID == uuid.Nil {
		return domain.NewMissingRequiredFieldError("external user ID")
	}
	if c.PaymentMethodID == uuid.Nil {
		return domain.NewMissingRequiredFieldError("payment method ID")
	}
	if !c.Amount.IsPositive() {
		return domain.NewValidationError("amount must be positive")
	}
	if c.Currency == "" {
		return domain.NewMissingRequiredFieldError("currency")
	}
	if !domain.ValidTransactionType(c.Type) {
		return domain.NewValidationError("unknown transaction type: " + string(c.Type))
	}
	return nil
}

// ProcessTransactionCommand drives a PENDING transaction through the provider.
type ProcessTransactionCommand struct {
	TransactionID uuid.UUID
	CardToken     string
	CVV           string
}

func (c ProcessTransactionCommand) Validate() error {
	if c.TransactionID == uuid.Nil {
		return domain.NewMissingRequiredFieldError("transaction ID")
	}
	return nil
}

// RefundTransactionCommand requests a refund against a completed transaction.
type RefundTransactionCommand struct {
	TransactionID uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	Reason        string
}

func (c RefundTransactionCommand) Validate() error {
	if c.TransactionID == uuid.Nil {
		return domain.NewMissingRequiredFieldError("transaction ID")
	}
	if !c.Amount.IsPositive() {
		return domain.NewValidationError("refund amount must be positive")
	}
	if c.Currency == "" {
		return domain.NewMissingRequiredFieldError("currency")
	}
	return nil
}

// CancelTransactionCommand aborts a transaction that has not completed.
type CancelTransactionCommand struct {
	TransactionID uuid.UUID
}

func (c CancelTransactionCommand) Validate() error {
	if c.TransactionID == uuid.Nil {
		return domain.NewMissingRequiredFieldError("transaction ID")
	}
	return nil
}

// SaveUserPaymentMethodCommand stores a tokenized instrument for a user.
type SaveUserPaymentMethodCommand struct {
	ExternalUserID  uuid.UUID
	PaymentMethodID uuid.UUID
	ProviderToken   string
	MaskedDetails   string
	IsDefault       bool
}

func (c SaveUserPaymentMethodCommand) Validate() error {
	if c.ExternalUserID == uuid.Nil {
		return domain.NewMissingRequiredFieldError("external user ID")
	}
	if c.PaymentMethodID == uuid.Nil {
		return domain.NewMissingRequiredFieldError("payment method ID")
	}
	if c.ProviderToken == "" {
		return domain.NewMissingRequiredFieldError("provider token")
	}
	return nil
}
