package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
)

// Publisher writes domain events to Kafka. Each event type maps to its own
// topic (the event type string is the topic name), keyed by aggregate id so
// all events of one transaction land on the same partition in order.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewPublisher(brokers []string, logger *slog.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
	}

	return &Publisher{
		writer: writer,
		logger: logger,
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Publish routes the event to the topic named after its type.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	return p.PublishTo(ctx, event.EventType(), event)
}

func (p *Publisher) PublishTo(ctx context.Context, topic string, event domain.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(event.AggregateID().String()),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		p.logger.Error("failed to publish event",
			"topic", topic,
			"event_type", event.EventType(),
			"aggregate_id", event.AggregateID(),
			"error", err,
		)
		return fmt.Errorf("failed to publish event to %s: %w", topic, err)
	}

	p.logger.Info("event published",
		"topic", topic,
		"event_type", event.EventType(),
		"aggregate_id", event.AggregateID(),
	)
	return nil
}
