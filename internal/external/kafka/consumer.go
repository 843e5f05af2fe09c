package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/thechainkeshflip/keshflip-go/internal/messaging"
)

const (
	commitTimeout      = 5 * time.Second
	redeliveryDelay    = time.Second
	maxRedeliveryDelay = 30 * time.Second
)

var _ messaging.Worker = (*Consumer)(nil)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

// Consumer reads one topic as part of a consumer group and commits a message
// only after the handler accepted it.
type Consumer struct {
	reader   messageReader
	delay    time.Duration
	maxDelay time.Duration
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	}), redeliveryDelay, maxRedeliveryDelay)
}

func newConsumer(reader messageReader, delay, maxDelay time.Duration) *Consumer {
	return &Consumer{reader: reader, delay: delay, maxDelay: maxDelay}
}

// Start blocks until ctx is cancelled or fetching fails.
//
// Offsets are committed per partition, so moving past a failed message would
// commit it together with the next one. A failed message is therefore handed
// to the handler again, with backoff, until it succeeds or ctx is cancelled;
// on cancellation it stays uncommitted and is redelivered after a restart.
func (c *Consumer) Start(ctx context.Context, handler messaging.MessageHandler) error {
	cfg := c.reader.Config()
	slog.InfoContext(ctx, "Consumer started", "topic", cfg.Topic, "group_id", cfg.GroupID)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				slog.InfoContext(ctx, "Consumer stopped", "topic", cfg.Topic)
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		msgCtx := contextFromMessage(ctx, msg)
		slog.DebugContext(msgCtx, "Message received",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))

		if err := c.handle(msgCtx, handler, msg); err != nil {
			slog.InfoContext(ctx, "Consumer stopped, message left uncommitted",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
			return nil
		}

		if err := c.commit(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

// handle returns nil once handler accepts msg, or ctx.Err() when ctx is
// cancelled first.
func (c *Consumer) handle(ctx context.Context, handler messaging.MessageHandler, msg kafka.Message) error {
	delay := c.delay
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg.Key, msg.Value)
		if err == nil {
			return nil
		}

		slog.ErrorContext(ctx, "Handler error, redelivering message",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset,
			"attempt", attempt, "backoff", delay, slog.Any("error", err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, c.maxDelay)
	}
}

// commit survives consumer shutdown so a handled message is not redelivered.
func (c *Consumer) commit(ctx context.Context, msg kafka.Message) error {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Message committed",
		"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
