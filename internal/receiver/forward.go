package receiver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/thechainkeshflip/keshflip-go/internal/archive"
	"github.com/thechainkeshflip/keshflip-go/internal/messaging"
	"github.com/thechainkeshflip/keshflip-go/pkg/webhook"
)

// ForwardHandler publishes verified events for the worker. Events are keyed by
// deposit or withdrawal id so updates to one resource stay ordered.
func ForwardHandler(pub messaging.Publisher) webhook.Handler {
	return func(ctx context.Context, event webhook.Event) error {
		raw, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}

		key := archive.ResourceID(event)
		if key == "" {
			key = event.Type
		}

		env, err := messaging.NewEnvelope(key, event.Type, raw)
		if err != nil {
			return fmt.Errorf("create envelope: %w", err)
		}
		if err := pub.Publish(ctx, env); err != nil {
			return fmt.Errorf("forward %s: %w", event.Type, err)
		}
		return nil
	}
}
