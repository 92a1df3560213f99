package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DomainError represents a business rule violation.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Retryable is implemented by errors whose operation can be safely re-attempted
// with the same idempotency key.
type Retryable interface {
	IsRetryable() bool
}

const (
	ErrCodeValidation               = "VALIDATION_ERROR"
	ErrCodeCurrencyMismatch         = "CURRENCY_MISMATCH"
	ErrCodeInvalidStateTransition   = "INVALID_STATE_TRANSITION"
	ErrCodeInvalidTransactionState  = "INVALID_TRANSACTION_STATE"
	ErrCodeRefundExceedsTransaction = "REFUND_EXCEEDS_TRANSACTION"
	ErrCodeTransactionNotFound      = "TRANSACTION_NOT_FOUND"
	ErrCodeRefundNotFound           = "REFUND_NOT_FOUND"
	ErrCodePaymentMethodNotFound    = "PAYMENT_METHOD_NOT_FOUND"
	ErrCodeConcurrentModification   = "CONCURRENT_MODIFICATION"
	ErrCodeProvider                 = "PROVIDER_ERROR"
	ErrCodeProviderOutcomeUnknown   = "PROVIDER_OUTCOME_UNKNOWN"
	ErrCodePaymentMethodNotActive   = "PAYMENT_METHOD_NOT_ACTIVE"
	ErrCodePaymentMethodNoRefunds   = "PAYMENT_METHOD_NO_REFUNDS"
)

func NewValidationError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewCurrencyMismatchError(expected, actual string) *DomainError {
	return &DomainError{
		Code:    ErrCodeCurrencyMismatch,
		Message: fmt.Sprintf("currency mismatch: %s vs %s", expected, actual),
	}
}

func NewInvalidTransitionError(from, to TransactionStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidStateTransition,
		Message: fmt.Sprintf("cannot transition transaction from %s to %s", from, to),
	}
}

func NewInvalidRefundTransitionError(from, to RefundStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidStateTransition,
		Message: fmt.Sprintf("cannot transition refund from %s to %s", from, to),
	}
}

func NewInvalidTransactionStateError(status TransactionStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransactionState,
		Message: fmt.Sprintf("cannot refund transaction in status %s", status),
	}
}

func NewRefundExceedsTransactionError(requested, remaining Money) *DomainError {
	return &DomainError{
		Code:    ErrCodeRefundExceedsTransaction,
		Message: fmt.Sprintf("refund of %s exceeds remaining refundable amount %s", requested, remaining),
	}
}

func NewTransactionNotFoundError(id uuid.UUID) *DomainError {
	return &DomainError{
		Code:    ErrCodeTransactionNotFound,
		Message: fmt.Sprintf("transaction %s not found", id),
	}
}

func NewRefundNotFoundError(id uuid.UUID) *DomainError {
	return &DomainError{
		Code:    ErrCodeRefundNotFound,
		Message: fmt.Sprintf("refund %s not found", id),
	}
}

func NewPaymentMethodNotFoundError(id uuid.UUID) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentMethodNotFound,
		Message: fmt.Sprintf("payment method %s not found", id),
	}
}

func NewPaymentMethodNotActiveError(id uuid.UUID) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentMethodNotActive,
		Message: fmt.Sprintf("payment method %s is not active", id),
	}
}

func NewPaymentMethodNoRefundsError(t PaymentMethodType) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentMethodNoRefunds,
		Message: fmt.Sprintf("payment method type %s does not support refunds", t),
	}
}

func NewConcurrentModificationError(id uuid.UUID, version int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeConcurrentModification,
		Message: fmt.Sprintf("transaction %s was modified concurrently (stale version %d)", id, version),
	}
}

func NewProviderError(message string, err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeProvider,
		Message: message,
		Err:     err,
	}
}

// NewProviderOutcomeUnknownError marks a provider call whose result never
// arrived. The transaction stays in PROCESSING until reconciliation resolves it.
func NewProviderOutcomeUnknownError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeProviderOutcomeUnknown,
		Message: "payment provider outcome unknown",
		Err:     err,
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code.
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
