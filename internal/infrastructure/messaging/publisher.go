// Package messaging publishes domain events to Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// domainEvent is the shape every published event satisfies.
type domainEvent interface {
	EventType() string
	AggregateID() uuid.UUID
}

// KafkaPublisher implements port.EventPublisher using kafka-go.
type KafkaPublisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewKafkaPublisher creates a Kafka event publisher for the given topic.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafkago.Writer{
			Addr:     kafkago.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafkago.LeastBytes{},
		},
		logger: logger,
	}
}

// Publish sends domain events to Kafka, keyed by aggregate ID so events for
// the same aggregate stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...any) error {
	messages := make([]kafkago.Message, 0, len(events))
	for _, evt := range events {
		de, ok := evt.(domainEvent)
		if !ok {
			return fmt.Errorf("publish: %T does not implement the domain event contract", evt)
		}

		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("publish: marshal %s: %w", de.EventType(), err)
		}

		messages = append(messages, kafkago.Message{
			Key:   []byte(de.AggregateID().String()),
			Value: payload,
			Headers: []kafkago.Header{
				{Key: "event_type", Value: []byte(de.EventType())},
			},
		})

		p.logger.Debug("publishing event",
			slog.String("event_type", de.EventType()),
			slog.Int("payload_size", len(payload)),
		)
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("publish: write messages: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("publish: close writer: %w", err)
	}
	return nil
}

// LogPublisher implements port.EventPublisher by logging events instead of
// sending them anywhere. Used when Kafka is disabled.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a log-only event publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs each event payload at debug level.
func (p *LogPublisher) Publish(_ context.Context, events ...any) error {
	for _, evt := range events {
		eventType := "unknown"
		if de, ok := evt.(domainEvent); ok {
			eventType = de.EventType()
		}

		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("publish: marshal %s: %w", eventType, err)
		}

		p.logger.Debug("event published (log only)",
			slog.String("event_type", eventType),
			slog.String("payload", string(payload)),
		)
	}
	return nil
}
