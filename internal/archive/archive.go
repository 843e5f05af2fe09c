// Package archive persists verified webhook events.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/thechainkeshflip/keshflip-go/pkg/metrics"
	"github.com/thechainkeshflip/keshflip-go/pkg/webhook"
)

var (
	// ErrDuplicate is returned by a Sink that already holds the record.
	ErrDuplicate = errors.New("event already archived")
	ErrNotFound  = errors.New("event not found")
)

// recordNamespace seeds the name-based record ids.
var recordNamespace = uuid.MustParse("5b0e7c61-2f7a-4c59-9a43-6f0d1f8f3b2e")

// Record is the stored form of a webhook event.
type Record struct {
	ID         string
	EventType  string
	ResourceID string
	Timestamp  string
	Data       json.RawMessage
	ReceivedAt time.Time
}

// NewRecord builds a record whose ID depends only on the event content, so a
// redelivered webhook maps to the same ID.
func NewRecord(event webhook.Event) (Record, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return Record{}, fmt.Errorf("marshal event data: %w", err)
	}

	name := event.Type + "|" + event.Timestamp + "|" + string(data)
	return Record{
		ID:         uuid.NewSHA1(recordNamespace, []byte(name)).String(),
		EventType:  event.Type,
		ResourceID: ResourceID(event),
		Timestamp:  event.Timestamp,
		Data:       data,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// ResourceID returns the deposit or withdrawal id the event refers to, or "".
func ResourceID(event webhook.Event) string {
	for _, key := range []string{"depositId", "withdrawalId"} {
		if id := event.String(key); id != "" {
			return id
		}
	}
	return ""
}

//go:generate mockgen -source archive.go -destination mock_sink.go -package archive

// Sink stores records. Implementations return ErrDuplicate for a record ID
// they already hold.
type Sink interface {
	Store(ctx context.Context, record Record) error
}

// Handler adapts sink into a webhook handler. Duplicates are treated as
// success.
func Handler(sink Sink) webhook.Handler {
	return func(ctx context.Context, event webhook.Event) error {
		record, err := NewRecord(event)
		if err != nil {
			return err
		}

		err = sink.Store(ctx, record)
		if errors.Is(err, ErrDuplicate) {
			slog.InfoContext(ctx, "Event already archived", "event", event.Type, "record_id", record.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("archive %s: %w", event.Type, err)
		}

		slog.InfoContext(ctx, "Event archived",
			"event", event.Type, "record_id", record.ID, "resource_id", record.ResourceID)
		return nil
	}
}

type instrumented struct {
	sink    Sink
	backend string
}

// Instrument counts Store outcomes per backend.
func Instrument(sink Sink, backend string) Sink {
	return &instrumented{sink: sink, backend: backend}
}

func (s *instrumented) Store(ctx context.Context, record Record) error {
	err := s.sink.Store(ctx, record)

	status := "stored"
	switch {
	case errors.Is(err, ErrDuplicate):
		status = "duplicate"
	case err != nil:
		status = "error"
	}
	metrics.ArchivedEvents.WithLabelValues(s.backend, status).Inc()
	return err
}

// LogSink only logs records. It backs ARCHIVE_BACKEND=none.
type LogSink struct{}

func (LogSink) Store(ctx context.Context, record Record) error {
	slog.InfoContext(ctx, "Webhook event",
		"record_id", record.ID,
		"event", record.EventType,
		"resource_id", record.ResourceID,
		"timestamp", record.Timestamp,
		"data", record.Data)
	return nil
}
