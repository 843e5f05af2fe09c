package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/thechainkeshflip/keshflip-go/pkg/correlation"
)

func correlationHeaders(ctx context.Context) []kafka.Header {
	id := correlation.FromContext(ctx)
	if id == "" {
		return nil
	}
	return []kafka.Header{{Key: correlation.HeaderName, Value: []byte(id)}}
}

// contextFromMessage restores the correlation id carried by msg, generating
// one when the producer did not set it.
func contextFromMessage(ctx context.Context, msg kafka.Message) context.Context {
	for _, h := range msg.Headers {
		if h.Key == correlation.HeaderName && len(h.Value) > 0 {
			return correlation.WithID(ctx, string(h.Value))
		}
	}
	ctx, _ = correlation.Ensure(ctx)
	return ctx
}
