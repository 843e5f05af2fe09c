package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/thechainkeshflip/keshflip-go/internal/messaging"
)

var _ messaging.DLQPublisher = (*DLQPublisher)(nil)

// DLQPublisher writes failed messages to a dead letter topic with the
// failure reason in the headers.
type DLQPublisher struct {
	writer *kafka.Writer
}

func NewDLQPublisher(brokers []string, dlqTopic string) *DLQPublisher {
	return &DLQPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        dlqTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}}
}

func (p *DLQPublisher) PublishToDLQ(ctx context.Context, key, value []byte, err error) error {
	headers := append(correlationHeaders(ctx),
		kafka.Header{Key: "error", Value: []byte(err.Error())},
		kafka.Header{Key: "failed_at", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
	)

	if writeErr := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value, Headers: headers}); writeErr != nil {
		slog.ErrorContext(ctx, "Failed to publish to DLQ",
			"topic", p.writer.Topic, "key", string(key), slog.Any("error", writeErr), "original_error", err.Error())
		return writeErr
	}

	slog.WarnContext(ctx, "Message sent to DLQ",
		"topic", p.writer.Topic, "key", string(key), slog.Any("error", err))
	return nil
}

func (p *DLQPublisher) Close() error {
	return p.writer.Close()
}
