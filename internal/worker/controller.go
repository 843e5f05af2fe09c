package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/thechainkeshflip/keshflip-go/internal/messaging"
	"github.com/thechainkeshflip/keshflip-go/pkg/webhook"
)

// Controller turns forwarded webhook envelopes back into events and runs the
// processor's handlers on them. Signatures were checked by the receiver, so
// the processor runs with validation off.
type Controller struct {
	processor *webhook.Processor
}

func NewController(p *webhook.Processor) *Controller {
	return &Controller{processor: p}
}

// HandleMessage implements messaging.MessageHandler.
func (c *Controller) HandleMessage(ctx context.Context, key, value []byte) error {
	env, err := messaging.DecodeEnvelope(value)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode envelope", "key", string(key), slog.Any("error", err))
		return err
	}

	slog.DebugContext(ctx, "Processing webhook message",
		"event_id", env.EventID, "key", env.Key, "type", env.Type)

	event, err := c.processor.Process(ctx, env.Payload, "", false)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to process webhook message",
			"event_id", env.EventID, "type", env.Type, slog.Any("error", err))
		return fmt.Errorf("process %s: %w", env.EventID, err)
	}

	slog.InfoContext(ctx, "Webhook message processed", "event_id", env.EventID, "event", event.Type)
	return nil
}

// Retryable reports whether another attempt could succeed. Malformed
// envelopes and payloads go straight to the DLQ.
func Retryable(err error) bool {
	return !errors.Is(err, messaging.ErrInvalidEnvelope) && !errors.Is(err, webhook.ErrInvalidPayload)
}
