package service

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/ports"
)

// publishEvents drains the aggregate's outbox after a successful persist.
// Publish failures are logged and swallowed: the transaction is already
// committed and a lost event is recoverable, a rolled-back charge is not.
func publishEvents(ctx context.Context, publisher ports.EventPublisher, tx *domain.Transaction, logger *slog.Logger) {
	for _, event := range tx.PendingEvents() {
		if err := publisher.Publish(ctx, event); err != nil {
			logger.Warn("failed to publish domain event",
				"event_type", event.EventType(),
				"transaction_id", tx.ID(),
				"error", err,
			)
		}
	}
	tx.ClearEvents()
}

// outcomeUnknown reports whether a provider call failed in a way that leaves
// the money movement undecided: the request may or may not have reached the
// provider. Definite provider responses (declines, validation rejections)
// are not ambiguous.
func outcomeUnknown(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return domain.IsErrorCode(err, domain.ErrCodeProviderOutcomeUnknown)
}
