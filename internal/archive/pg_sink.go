package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/thechainkeshflip/keshflip-go/pkg/postgres"
)

const eventsTable = "webhook_events"

var _ Sink = (*PgSink)(nil)

// PgSink stores records in the webhook_events table.
type PgSink struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

func NewPgSink(db postgres.Executor, builder squirrel.StatementBuilderType) *PgSink {
	return &PgSink{db: db, builder: builder}
}

func (s *PgSink) Store(ctx context.Context, record Record) error {
	query, args, err := s.builder.Insert(eventsTable).
		Columns("id", "event_type", "resource_id", "event_ts", "data", "received_at").
		Values(record.ID, record.EventType, record.ResourceID, record.Timestamp, record.Data, record.ReceivedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	_, err = s.db.Exec(ctx, query, args...)
	if postgres.IsPgErrorUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert webhook event: %w", err)
	}
	return nil
}

// Get loads one record by ID.
func (s *PgSink) Get(ctx context.Context, id string) (Record, error) {
	query, args, err := s.builder.Select("id", "event_type", "resource_id", "event_ts", "data", "received_at").
		From(eventsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return Record{}, fmt.Errorf("build select query: %w", err)
	}

	var r Record
	err = s.db.QueryRow(ctx, query, args...).Scan(&r.ID, &r.EventType, &r.ResourceID, &r.Timestamp, &r.Data, &r.ReceivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("select webhook event: %w", err)
	}
	return r, nil
}
