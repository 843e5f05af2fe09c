package messaging

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/thechainkeshflip/keshflip-go/pkg/metrics"
)

const dlqPublishTimeout = 5 * time.Second

// RetryConfig configures WithRetry.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Retryable reports whether an error is worth another attempt. Nil
	// retries everything.
	Retryable func(error) bool
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// ErrMaxRetriesExceeded is joined with the last handler error.
var ErrMaxRetriesExceeded = errors.New("max retries exceeded")

// WithRetry retries handler with exponential backoff plus up to 100ms jitter.
func WithRetry(handler MessageHandler, cfg RetryConfig) MessageHandler {
	attempts := max(cfg.MaxAttempts, 1)

	return func(ctx context.Context, key, value []byte) error {
		backoff := cfg.InitialBackoff

		var lastErr error
		for attempt := 0; attempt < attempts; attempt++ {
			lastErr = handler(ctx, key, value)
			if lastErr == nil {
				return nil
			}
			if cfg.Retryable != nil && !cfg.Retryable(lastErr) {
				return lastErr
			}

			if attempt < attempts-1 {
				sleep := backoff + time.Duration(rand.Intn(100))*time.Millisecond
				if cfg.MaxBackoff > 0 && sleep > cfg.MaxBackoff {
					sleep = cfg.MaxBackoff
				}

				slog.WarnContext(ctx, "Handler failed, retrying",
					"key", string(key), "attempt", attempt+1, "backoff", sleep, slog.Any("error", lastErr))

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(sleep):
				}
				backoff *= 2
			}
		}

		return errors.Join(ErrMaxRetriesExceeded, lastErr)
	}
}

// DLQPublisher publishes failed messages to a dead letter queue.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, key, value []byte, err error) error
}

// WithDLQ moves messages that still fail to the DLQ and reports success so
// the consumer commits the offset. A failed DLQ write returns the original
// error joined with the DLQ error; the consumer then hands the same message
// back instead of moving on.
func WithDLQ(handler MessageHandler, dlq DLQPublisher) MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		err := handler(ctx, key, value)
		if err == nil {
			return nil
		}

		// The consumer context may already be cancelled during shutdown.
		dlqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dlqPublishTimeout)
		defer cancel()

		if dlqErr := dlq.PublishToDLQ(dlqCtx, key, value, err); dlqErr != nil {
			return errors.Join(err, dlqErr)
		}
		return nil
	}
}

// WithMetrics records processing duration and outcome per topic and group.
func WithMetrics(handler MessageHandler, topic, group string) MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		start := time.Now()
		err := handler(ctx, key, value)

		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.KafkaProcessingDuration.WithLabelValues(topic, group, status).Observe(time.Since(start).Seconds())
		metrics.KafkaMessagesProcessed.WithLabelValues(topic, group, status).Inc()
		return err
	}
}
