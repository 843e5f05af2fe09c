package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Event types emitted by the KeshPay API.
const (
	EventCryptoDepositUpdated      = "crypto.deposit.updated"
	EventCryptoWithdrawalCompleted = "crypto.withdrawal.completed"
	EventFiatDepositUpdated        = "fiat.deposit.updated"
)

// Event is a parsed webhook envelope. It is built fresh for every delivery;
// handlers receive it by value and must not modify Data. Numbers in Data are
// json.Number so they re-encode exactly as received.
type Event struct {
	Type      string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// String returns Data[key] when it holds a string, and "" otherwise.
func (e Event) String(key string) string {
	s, _ := e.Data[key].(string)
	return s
}

// envelope mirrors Event with pointer fields so absent keys can be told apart
// from empty values.
type envelope struct {
	Event     *string        `json:"event"`
	Timestamp *string        `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// ParseEvent decodes a raw payload into an Event. It does not verify the
// signature.
func ParseEvent(payload []byte) (Event, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var env envelope
	if err := dec.Decode(&env); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Event{}, fmt.Errorf("%w: trailing data after JSON object", ErrInvalidPayload)
	}

	switch {
	case env.Event == nil:
		return Event{}, fmt.Errorf("%w: missing field %q", ErrInvalidPayload, "event")
	case env.Timestamp == nil:
		return Event{}, fmt.Errorf("%w: missing field %q", ErrInvalidPayload, "timestamp")
	case env.Data == nil:
		return Event{}, fmt.Errorf("%w: missing field %q", ErrInvalidPayload, "data")
	}

	return Event{
		Type:      *env.Event,
		Timestamp: *env.Timestamp,
		Data:      env.Data,
	}, nil
}
