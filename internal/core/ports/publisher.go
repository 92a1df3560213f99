package ports

import (
	"context"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
)

// EventPublisher emits domain events to the messaging transport. Publish
// routes by event type; PublishTo targets an explicit topic.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
	PublishTo(ctx context.Context, topic string, event domain.Event) error
}
