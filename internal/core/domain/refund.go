package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// RefundStatus represents the current state of a refund request.
type RefundStatus string

const (
	RefundPending    RefundStatus = "PENDING"
	RefundApproved   RefundStatus = "APPROVED"
	RefundProcessing RefundStatus = "PROCESSING"
	RefundCompleted  RefundStatus = "COMPLETED"
	RefundRejected   RefundStatus = "REJECTED"
	RefundFailed     RefundStatus = "FAILED"
)

var refundTransitions = map[RefundStatus][]RefundStatus{
	RefundPending:    {RefundApproved, RefundRejected},
	RefundApproved:   {RefundProcessing, RefundRejected},
	RefundProcessing: {RefundCompleted, RefundFailed},
}

// AllowedTransitions returns the valid target statuses from this status.
func (s RefundStatus) AllowedTransitions() []RefundStatus {
	return refundTransitions[s]
}

// CanTransitionTo reports whether moving to target is legal from this status.
func (s RefundStatus) CanTransitionTo(target RefundStatus) bool {
	return slices.Contains(refundTransitions[s], target)
}

func (s RefundStatus) IsTerminal() bool {
	return len(refundTransitions[s]) == 0
}

// Refund is a child entity of the Transaction aggregate: it never outlives
// its transaction and cannot be reassigned to another one.
type Refund struct {
	id            uuid.UUID
	transactionID uuid.UUID
	amount        Money
	reason        string

	status           RefundStatus
	providerRefundID *string
	failureReason    *string

	createdAt time.Time
	updatedAt time.Time
}

// newRefund is called from Transaction.RequestRefund; refunds are never
// created outside their aggregate.
func newRefund(transactionID uuid.UUID, amount Money, reason string) (*Refund, error) {
	if !amount.IsPositive() {
		return nil, NewValidationError("refund amount must be positive")
	}
	now := time.Now().UTC()
	return &Refund{
		id:            uuid.New(),
		transactionID: transactionID,
		amount:        amount,
		reason:        reason,
		status:        RefundPending,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Approve accepts a pending refund request.
func (r *Refund) Approve() error {
	return r.transition(RefundApproved)
}

// Reject declines a refund before any provider call is made.
func (r *Refund) Reject(reason string) error {
	if err := r.transition(RefundRejected); err != nil {
		return err
	}
	r.failureReason = &reason
	return nil
}

// MarkProcessing moves the refund in flight ahead of the provider call.
func (r *Refund) MarkProcessing() error {
	return r.transition(RefundProcessing)
}

// MarkCompleted records the provider's confirmation of a refund.
func (r *Refund) MarkCompleted(providerRefundID string) error {
	if providerRefundID == "" {
		return NewMissingRequiredFieldError("provider refund ID")
	}
	if err := r.transition(RefundCompleted); err != nil {
		return err
	}
	r.providerRefundID = &providerRefundID
	return nil
}

// MarkFailed records a definite provider failure.
func (r *Refund) MarkFailed(reason string) error {
	if err := r.transition(RefundFailed); err != nil {
		return err
	}
	r.failureReason = &reason
	return nil
}

func (r *Refund) transition(target RefundStatus) error {
	if !r.status.CanTransitionTo(target) {
		return NewInvalidRefundTransitionError(r.status, target)
	}
	r.status = target
	r.updatedAt = time.Now().UTC()
	return nil
}

func (r *Refund) ID() uuid.UUID             { return r.id }
func (r *Refund) TransactionID() uuid.UUID  { return r.transactionID }
func (r *Refund) Amount() Money             { return r.amount }
func (r *Refund) Reason() string            { return r.reason }
func (r *Refund) Status() RefundStatus      { return r.status }
func (r *Refund) ProviderRefundID() *string { return r.providerRefundID }
func (r *Refund) FailureReason() *string    { return r.failureReason }
func (r *Refund) CreatedAt() time.Time      { return r.createdAt }
func (r *Refund) UpdatedAt() time.Time      { return r.updatedAt }

// ReconstituteRefund rebuilds a refund from persisted state.
func ReconstituteRefund(
	id, transactionID uuid.UUID,
	amount Money,
	reason string,
	status RefundStatus,
	providerRefundID, failureReason *string,
	createdAt, updatedAt time.Time,
) *Refund {
	return &Refund{
		id:               id,
		transactionID:    transactionID,
		amount:           amount,
		reason:           reason,
		status:           status,
		providerRefundID: providerRefundID,
		failureReason:    failureReason,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}
