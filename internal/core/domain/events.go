package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event names as they appear on the wire.
const (
	EventTypeTransactionCreated   = "payment.transaction.created"
	EventTypeTransactionProcessed = "payment.transaction.processed"
	EventTypeTransactionFailed    = "payment.transaction.failed"
	EventTypeTransactionCancelled = "payment.transaction.cancelled"
	EventTypeTransactionRefunded  = "payment.transaction.refunded"
)

// Event is a domain event accumulated on the Transaction aggregate and
// drained by the orchestrator after a successful persist.
type Event interface {
	EventType() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// TransactionCreated is published when a new transaction enters PENDING.
type TransactionCreated struct {
	TransactionID uuid.UUID `json:"transactionId"`
	OrderID       uuid.UUID `json:"orderId"`
	UserID        uuid.UUID `json:"userId"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Timestamp     time.Time `json:"occurredAt"`
}

func (e TransactionCreated) EventType() string      { return EventTypeTransactionCreated }
func (e TransactionCreated) AggregateID() uuid.UUID { return e.TransactionID }
func (e TransactionCreated) OccurredAt() time.Time  { return e.Timestamp }

// TransactionProcessed is published when the provider confirms a payment.
type TransactionProcessed struct {
	TransactionID         uuid.UUID `json:"transactionId"`
	ProviderTransactionID string    `json:"providerTransactionId"`
	Timestamp             time.Time `json:"occurredAt"`
}

func (e TransactionProcessed) EventType() string      { return EventTypeTransactionProcessed }
func (e TransactionProcessed) AggregateID() uuid.UUID { return e.TransactionID }
func (e TransactionProcessed) OccurredAt() time.Time  { return e.Timestamp }

// TransactionFailed is published when a payment is declined or errors out.
type TransactionFailed struct {
	TransactionID uuid.UUID `json:"transactionId"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"occurredAt"`
}

func (e TransactionFailed) EventType() string      { return EventTypeTransactionFailed }
func (e TransactionFailed) AggregateID() uuid.UUID { return e.TransactionID }
func (e TransactionFailed) OccurredAt() time.Time  { return e.Timestamp }

// TransactionCancelled is published when a transaction is cancelled before
// completion.
type TransactionCancelled struct {
	TransactionID uuid.UUID `json:"transactionId"`
	Timestamp     time.Time `json:"occurredAt"`
}

func (e TransactionCancelled) EventType() string      { return EventTypeTransactionCancelled }
func (e TransactionCancelled) AggregateID() uuid.UUID { return e.TransactionID }
func (e TransactionCancelled) OccurredAt() time.Time  { return e.Timestamp }

// TransactionRefunded is published when a refund completes against a
// transaction, carrying the transaction's resulting status.
type TransactionRefunded struct {
	TransactionID uuid.UUID `json:"transactionId"`
	RefundID      uuid.UUID `json:"refundId"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	NewStatus     string    `json:"newStatus"`
	Timestamp     time.Time `json:"occurredAt"`
}

func (e TransactionRefunded) EventType() string      { return EventTypeTransactionRefunded }
func (e TransactionRefunded) AggregateID() uuid.UUID { return e.TransactionID }
func (e TransactionRefunded) OccurredAt() time.Time  { return e.Timestamp }
