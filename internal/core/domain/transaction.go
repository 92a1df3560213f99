// Package domain holds the payment ledger aggregates: Transaction, its
// Refunds, the Money value object and the payment method catalog. All
// lifecycle invariants are enforced here; callers go through the named
// transition methods, never raw field writes.
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// TransactionStatus represents the current state of a transaction in its lifecycle.
type TransactionStatus string

const (
	StatusPending           TransactionStatus = "PENDING"
	StatusProcessing        TransactionStatus = "PROCESSING"
	StatusCompleted         TransactionStatus = "COMPLETED"
	StatusFailed            TransactionStatus = "FAILED"
	StatusCancelled         TransactionStatus = "CANCELLED"
	StatusPartiallyRefunded TransactionStatus = "PARTIALLY_REFUNDED"
	StatusRefunded          TransactionStatus = "REFUNDED"
)

// transactionTransitions is the allowed-transition table. A status missing
// from the map is terminal.
var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:           {StatusProcessing, StatusCancelled},
	StatusProcessing:        {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted:         {StatusPartiallyRefunded, StatusRefunded},
	StatusPartiallyRefunded: {StatusRefunded},
}

// AllowedTransitions returns the valid target statuses from this status.
func (s TransactionStatus) AllowedTransitions() []TransactionStatus {
	return transactionTransitions[s]
}

// CanTransitionTo reports whether moving to target is legal from this status.
func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	return slices.Contains(transactionTransitions[s], target)
}

func (s TransactionStatus) IsTerminal() bool {
	return len(transactionTransitions[s]) == 0
}

func (s TransactionStatus) IsSuccessful() bool {
	switch s {
	case StatusCompleted, StatusPartiallyRefunded, StatusRefunded:
		return true
	default:
		return false
	}
}

// AllowsRefund reports whether refunds may be requested in this status.
func (s TransactionStatus) AllowsRefund() bool {
	return s == StatusCompleted || s == StatusPartiallyRefunded
}

// TransactionType distinguishes customer payments from outbound payouts.
type TransactionType string

const (
	TypePayment TransactionType = "PAYMENT"
	TypePayout  TransactionType = "PAYOUT"
)

func ValidTransactionType(t TransactionType) bool {
	return t == TypePayment || t == TypePayout
}

// Transaction is the aggregate root for a single payment's lifecycle. It owns
// its refund list and accumulates domain events that the orchestrator drains
// after a successful persist.
type Transaction struct {
	id              uuid.UUID
	externalOrderID uuid.UUID
	externalUserID  uuid.UUID
	amount          Money
	txType          TransactionType
	paymentMethodID uuid.UUID

	status                TransactionStatus
	providerTransactionID *string
	failureReason         *string
	refunds               []*Refund

	createdAt time.Time
	updatedAt time.Time

	// version is the optimistic-concurrency token; the repository bumps it on
	// every successful update.
	version int64

	pendingEvents []Event
}

// NewTransaction creates a PENDING transaction and records the
// TransactionCreated event on its outbox.
func NewTransaction(
	externalOrderID, externalUserID uuid.UUID,
	amount Money,
	txType TransactionType,
	paymentMethodID uuid.UUID,
) (*Transaction, error) {
	if externalOrderID == uuid.Nil {
		return nil, NewMissingRequiredFieldError("external order ID")
	}
	if externalUserID == uuid.Nil {
		return nil, NewMissingRequiredFieldError("external user ID")
	}
	if paymentMethodID == uuid.Nil {
		return nil, NewMissingRequiredFieldError("payment method ID")
	}
	if !ValidTransactionType(txType) {
		return nil, NewValidationError("unknown transaction type: " + string(txType))
	}
	if !amount.IsPositive() {
		return nil, NewValidationError("transaction amount must be positive")
	}

	now := time.Now().UTC()
	t := &Transaction{
		id:              uuid.New(),
		externalOrderID: externalOrderID,
		externalUserID:  externalUserID,
		amount:          amount,
		txType:          txType,
		paymentMethodID: paymentMethodID,
		status:          StatusPending,
		createdAt:       now,
		updatedAt:       now,
		version:         1,
	}

	t.registerEvent(TransactionCreated{
		TransactionID: t.id,
		OrderID:       externalOrderID,
		UserID:        externalUserID,
		Amount:        amount.Amount().StringFixed(moneyScale),
		Currency:      amount.Currency(),
		Timestamp:     now,
	})

	return t, nil
}

// BeginProcessing moves the transaction to PROCESSING ahead of the provider
// call, so an ambiguous provider outcome leaves a visible in-flight state.
func (t *Transaction) BeginProcessing() error {
	if err := t.transition(StatusProcessing); err != nil {
		return err
	}
	return nil
}

// MarkCompleted records the provider's confirmation. The provider transaction
// id is set exactly once and never overwritten.
func (t *Transaction) MarkCompleted(providerTransactionID string) error {
	if providerTransactionID == "" {
		return NewMissingRequiredFieldError("provider transaction ID")
	}
	if err := t.transition(StatusCompleted); err != nil {
		return err
	}
	t.providerTransactionID = &providerTransactionID

	t.registerEvent(TransactionProcessed{
		TransactionID:         t.id,
		ProviderTransactionID: providerTransactionID,
		Timestamp:             t.updatedAt,
	})
	return nil
}

// MarkFailed records a definite provider decline or error.
func (t *Transaction) MarkFailed(reason string) error {
	if err := t.transition(StatusFailed); err != nil {
		return err
	}
	t.failureReason = &reason

	t.registerEvent(TransactionFailed{
		TransactionID: t.id,
		Reason:        reason,
		Timestamp:     t.updatedAt,
	})
	return nil
}

// Cancel aborts a transaction that has not completed.
func (t *Transaction) Cancel() error {
	if err := t.transition(StatusCancelled); err != nil {
		return err
	}
	t.registerEvent(TransactionCancelled{
		TransactionID: t.id,
		Timestamp:     t.updatedAt,
	})
	return nil
}

// RequestRefund validates a refund request against the remaining refundable
// balance and attaches a PENDING refund to the aggregate. The transaction's
// own status does not change until the refund completes.
func (t *Transaction) RequestRefund(amount Money, reason string) (*Refund, error) {
	if !t.status.AllowsRefund() {
		return nil, NewInvalidTransactionStateError(t.status)
	}

	reserved, err := t.reservedRefunds()
	if err != nil {
		return nil, err
	}
	remaining, err := t.amount.Subtract(reserved)
	if err != nil {
		return nil, err
	}
	exceeds, err := amount.GreaterThan(remaining)
	if err != nil {
		return nil, err
	}
	if exceeds {
		return nil, NewRefundExceedsTransactionError(amount, remaining)
	}

	refund, err := newRefund(t.id, amount, reason)
	if err != nil {
		return nil, err
	}
	t.refunds = append(t.refunds, refund)
	t.touch()
	return refund, nil
}

// RegisterRefund applies a completed refund to the aggregate: it recomputes
// the refunded total and flips the transaction to PARTIALLY_REFUNDED or
// REFUNDED accordingly.
func (t *Transaction) RegisterRefund(refund *Refund) error {
	if !t.status.AllowsRefund() {
		return NewInvalidTransactionStateError(t.status)
	}
	if refund.Status() != RefundCompleted {
		return NewValidationError("only completed refunds can be registered")
	}

	if !slices.ContainsFunc(t.refunds, func(r *Refund) bool { return r.ID() == refund.ID() }) {
		t.refunds = append(t.refunds, refund)
	}

	completed, err := t.TotalRefunded()
	if err != nil {
		return err
	}

	target := StatusPartiallyRefunded
	if completed.Equal(t.amount) {
		target = StatusRefunded
	}
	// A further partial refund keeps the transaction PARTIALLY_REFUNDED;
	// that is not a transition, so only validate when the status changes.
	if target == t.status {
		t.touch()
	} else if err := t.transition(target); err != nil {
		return err
	}

	t.registerEvent(TransactionRefunded{
		TransactionID: t.id,
		RefundID:      refund.ID(),
		Amount:        refund.Amount().Amount().StringFixed(moneyScale),
		Currency:      refund.Amount().Currency(),
		NewStatus:     string(t.status),
		Timestamp:     t.updatedAt,
	})
	return nil
}

// TotalRefunded sums the amounts of refunds that reached COMPLETED.
func (t *Transaction) TotalRefunded() (Money, error) {
	total := ZeroMoney(t.amount.Currency())
	var err error
	for _, r := range t.refunds {
		if r.Status() != RefundCompleted {
			continue
		}
		total, err = total.Add(r.Amount())
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// RemainingRefundable returns the amount still available for refund.
func (t *Transaction) RemainingRefundable() (Money, error) {
	completed, err := t.TotalRefunded()
	if err != nil {
		return Money{}, err
	}
	return t.amount.Subtract(completed)
}

// reservedRefunds sums every refund that has not been rejected or failed, so
// in-flight refunds hold their slice of the balance while the provider call
// is outstanding.
func (t *Transaction) reservedRefunds() (Money, error) {
	total := ZeroMoney(t.amount.Currency())
	var err error
	for _, r := range t.refunds {
		if r.Status() == RefundRejected || r.Status() == RefundFailed {
			continue
		}
		total, err = total.Add(r.Amount())
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

func (t *Transaction) transition(target TransactionStatus) error {
	if !t.status.CanTransitionTo(target) {
		return NewInvalidTransitionError(t.status, target)
	}
	t.status = target
	t.touch()
	return nil
}

func (t *Transaction) touch() {
	t.updatedAt = time.Now().UTC()
}

func (t *Transaction) registerEvent(event Event) {
	t.pendingEvents = append(t.pendingEvents, event)
}

// PendingEvents returns the events accumulated since the last drain.
func (t *Transaction) PendingEvents() []Event {
	return slices.Clone(t.pendingEvents)
}

// ClearEvents empties the outbox. Called by the orchestrator after publishing.
func (t *Transaction) ClearEvents() {
	t.pendingEvents = nil
}

func (t *Transaction) ID() uuid.UUID                  { return t.id }
func (t *Transaction) ExternalOrderID() uuid.UUID     { return t.externalOrderID }
func (t *Transaction) ExternalUserID() uuid.UUID      { return t.externalUserID }
func (t *Transaction) Amount() Money                  { return t.amount }
func (t *Transaction) Type() TransactionType          { return t.txType }
func (t *Transaction) PaymentMethodID() uuid.UUID     { return t.paymentMethodID }
func (t *Transaction) Status() TransactionStatus      { return t.status }
func (t *Transaction) ProviderTransactionID() *string { return t.providerTransactionID }
func (t *Transaction) FailureReason() *string         { return t.failureReason }
func (t *Transaction) Refunds() []*Refund             { return slices.Clone(t.refunds) }
func (t *Transaction) CreatedAt() time.Time           { return t.createdAt }
func (t *Transaction) UpdatedAt() time.Time           { return t.updatedAt }
func (t *Transaction) Version() int64                 { return t.version }

// SetVersion is for repositories only, after a successful optimistic update.
func (t *Transaction) SetVersion(v int64) { t.version = v }

// ReconstituteTransaction rebuilds an aggregate from persisted state without
// running creation-time validation or emitting events.
func ReconstituteTransaction(
	id, externalOrderID, externalUserID uuid.UUID,
	amount Money,
	txType TransactionType,
	paymentMethodID uuid.UUID,
	status TransactionStatus,
	providerTransactionID, failureReason *string,
	refunds []*Refund,
	createdAt, updatedAt time.Time,
	version int64,
) *Transaction {
	return &Transaction{
		id:                    id,
		externalOrderID:       externalOrderID,
		externalUserID:        externalUserID,
		amount:                amount,
		txType:                txType,
		paymentMethodID:       paymentMethodID,
		status:                status,
		providerTransactionID: providerTransactionID,
		failureReason:         failureReason,
		refunds:               refunds,
		createdAt:             createdAt,
		updatedAt:             updatedAt,
		version:               version,
	}
}
