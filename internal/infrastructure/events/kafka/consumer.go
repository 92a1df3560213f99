package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/service"
)

const (
	orderEventCreated         = "order.created"
	orderEventCancelled       = "order.cancelled"
	orderEventRefundRequested = "order.refund_requested"
)

// orderEvent is the envelope the order service publishes. Created events
// carry the charge details; cancelled events only reference the order;
// refund requests carry the amount to return and a reason.
type orderEvent struct {
	EventType       string          `json:"event_type"`
	OrderID         uuid.UUID       `json:"order_id"`
	UserID          uuid.UUID       `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PaymentMethodID uuid.UUID       `json:"payment_method_id"`
	ProviderToken   string          `json:"provider_token,omitempty"`
	Reason          string          `json:"reason,omitempty"`
}

// OrderEventConsumer opens and settles a transaction when an order is
// created, cancels
// the transaction when the order is cancelled before settlement, and starts
// a refund when the order service requests one.
type OrderEventConsumer struct {
	reader  *kafka.Reader
	creator *service.CreateTransactionService
	flow    *service.ProcessTransactionService
	refunds *service.RefundTransactionService
	queries *service.QueryService
	logger  *slog.Logger
}

func NewOrderEventConsumer(
	brokers []string,
	groupID, topic string,
	creator *service.CreateTransactionService,
	flow *service.ProcessTransactionService,
	refunds *service.RefundTransactionService,
	queries *service.QueryService,
	logger *slog.Logger,
) *OrderEventConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	return &OrderEventConsumer{
		reader:  reader,
		creator: creator,
		flow:    flow,
		refunds: refunds,
		queries: queries,
		logger:  logger,
	}
}

// Start consumes order events until the context is cancelled. Offsets are
// committed only after successful handling (at-least-once); malformed
// messages are committed immediately so a poison pill cannot wedge the group.
func (c *OrderEventConsumer) Start(ctx context.Context) error {
	c.logger.Info("starting order event consumer",
		"topic", c.reader.Config().Topic,
		"group_id", c.reader.Config().GroupID,
	)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("order event consumer stopping")
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}

		if c.processMessage(ctx, m) {
			if err := c.reader.CommitMessages(ctx, m); err != nil {
				c.logger.Error("failed to commit message offset",
					"error", err,
					"partition", m.Partition,
					"offset", m.Offset,
				)
			}
		}
	}
}

func (c *OrderEventConsumer) Close() error {
	c.logger.Info("closing order event consumer")
	return c.reader.Close()
}

// processMessage reports whether the offset should be committed.
func (c *OrderEventConsumer) processMessage(ctx context.Context, m kafka.Message) bool {
	var event orderEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.logger.Error("failed to unmarshal order event",
			"error", err,
			"partition", m.Partition,
			"offset", m.Offset,
		)
		return true
	}

	var err error
	switch event.EventType {
	case orderEventCreated:
		err = c.handleOrderCreated(ctx, event)
	case orderEventCancelled:
		err = c.handleOrderCancelled(ctx, event)
	case orderEventRefundRequested:
		err = c.handleRefundRequested(ctx, event)
	default:
		c.logger.Debug("ignoring order event", "event_type", event.EventType)
		return true
	}

	if err != nil {
		if _, ok := err.(*domain.DomainError); ok {
			// Business rejection: redelivery cannot change the outcome.
			c.logger.Warn("order event rejected",
				"event_type", event.EventType,
				"order_id", event.OrderID,
				"error", err,
			)
			return true
		}
		// Infrastructure failure: leave the offset so Kafka redelivers.
		c.logger.Error("failed to handle order event",
			"event_type", event.EventType,
			"order_id", event.OrderID,
			"error", err,
		)
		return false
	}
	return true
}

func (c *OrderEventConsumer) handleOrderCreated(ctx context.Context, event orderEvent) error {
	// Redelivery guard: one transaction per order. A redelivered event may
	// still need to finish processing if the first attempt died after create.
	tx, err := c.queries.GetTransactionByOrder(ctx, event.OrderID)
	switch {
	case err == nil:
	case domain.IsErrorCode(err, domain.ErrCodeTransactionNotFound):
		tx, err = c.creator.Create(ctx, service.CreateTransactionCommand{
			ExternalOrderID: event.OrderID,
			ExternalUserID:  event.UserID,
			Amount:          event.Amount,
			Currency:        event.Currency,
			Type:            domain.TypePayment,
			PaymentMethodID: event.PaymentMethodID,
		})
		if err != nil {
			return err
		}
	default:
		// The lookup itself failed; leave the offset so Kafka redelivers.
		return err
	}

	if tx.Status() != domain.StatusPending {
		c.logger.Info("transaction already settled for order",
			"order_id", event.OrderID,
			"status", tx.Status(),
		)
		return nil
	}

	_, err = c.flow.Process(ctx, service.ProcessTransactionCommand{
		TransactionID: tx.ID(),
		CardToken:     event.ProviderToken,
	})
	return err
}

func (c *OrderEventConsumer) handleOrderCancelled(ctx context.Context, event orderEvent) error {
	tx, err := c.queries.GetTransactionByOrder(ctx, event.OrderID)
	if err != nil {
		return err
	}

	_, err = c.flow.Cancel(ctx, service.CancelTransactionCommand{TransactionID: tx.ID()})
	return err
}

func (c *OrderEventConsumer) handleRefundRequested(ctx context.Context, event orderEvent) error {
	tx, err := c.queries.GetTransactionByOrder(ctx, event.OrderID)
	if err != nil {
		return err
	}

	// Redelivered requests are absorbed by the refundable-balance guard:
	// once the first delivery reserved the amount, a duplicate exceeds the
	// remaining balance and is rejected as a DomainError.
	_, err = c.refunds.Refund(ctx, service.RefundTransactionCommand{
		TransactionID: tx.ID(),
		Amount:        event.Amount,
		Currency:      event.Currency,
		Reason:        event.Reason,
	})
	return err
}
