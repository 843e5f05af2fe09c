// Package messaging defines the broker-agnostic contracts used to forward
// verified webhooks from the receiver to the worker.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidEnvelope = errors.New("invalid envelope")

// Envelope wraps a verified webhook payload for transport.
type Envelope struct {
	EventID   string          `json:"event_id"`
	Key       string          `json:"key"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEnvelope wraps raw without re-encoding it, so the worker sees the exact
// bytes the receiver verified.
func NewEnvelope(key, msgType string, raw []byte) (Envelope, error) {
	if !json.Valid(raw) {
		return Envelope{}, fmt.Errorf("%w: payload is not valid JSON", ErrInvalidEnvelope)
	}

	return Envelope{
		EventID:   uuid.NewString(),
		Key:       key,
		Type:      msgType,
		Payload:   append(json.RawMessage(nil), raw...),
		Timestamp: time.Now().UTC(),
	}, nil
}

// DecodeEnvelope parses a message value produced by a Publisher.
func DecodeEnvelope(value []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if env.Type == "" || len(env.Payload) == 0 {
		return Envelope{}, fmt.Errorf("%w: missing type or payload", ErrInvalidEnvelope)
	}
	return env, nil
}

//go:generate mockgen -source types.go -destination mock_types.go -package messaging

// Publisher sends messages to a message broker.
type Publisher interface {
	Publish(ctx context.Context, envelope Envelope) error
	Close() error
}

// MessageHandler processes a single message.
type MessageHandler func(ctx context.Context, key, value []byte) error

// Worker consumes messages from a message broker.
type Worker interface {
	Start(ctx context.Context, handler MessageHandler) error
	Close() error
}
