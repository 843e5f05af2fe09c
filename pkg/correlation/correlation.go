// Package correlation carries a correlation id through HTTP requests, Kafka
// messages and log records.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

// HeaderName is used both as the HTTP header and the Kafka header key.
const HeaderName = "X-Correlation-ID"

type contextKey struct{}

// FromContext returns the correlation id or "".
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// NewID returns a random UUID.
func NewID() string {
	return uuid.NewString()
}

// Ensure returns ctx unchanged when it already carries an id, otherwise a
// child context with a fresh one.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := NewID()
	return WithID(ctx, id), id
}
