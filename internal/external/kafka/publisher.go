package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/thechainkeshflip/keshflip-go/internal/messaging"
	"github.com/thechainkeshflip/keshflip-go/pkg/metrics"
)

var _ messaging.Publisher = (*Publisher)(nil)

// Publisher writes envelopes to one topic, keyed so that updates for the
// same deposit or withdrawal stay on one partition.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}}
}

func (p *Publisher) Publish(ctx context.Context, env messaging.Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := kafka.Message{
		Key:     []byte(env.Key),
		Value:   value,
		Headers: correlationHeaders(ctx),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.KafkaMessagesPublished.WithLabelValues(p.writer.Topic, "error").Inc()
		slog.ErrorContext(ctx, "Failed to publish message",
			"topic", p.writer.Topic, "key", env.Key, slog.Any("error", err))
		return fmt.Errorf("publish to %s: %w", p.writer.Topic, err)
	}

	metrics.KafkaMessagesPublished.WithLabelValues(p.writer.Topic, "success").Inc()
	slog.DebugContext(ctx, "Message published",
		"topic", p.writer.Topic, "key", env.Key, "event_id", env.EventID, "type", env.Type)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
