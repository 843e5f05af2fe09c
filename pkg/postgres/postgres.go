// Package postgres wraps a pgx pool together with a squirrel builder.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxPoolSize  = 4
	defaultConnAttempts = 10
	defaultConnTimeout  = time.Second
)

// Executor is the subset of pgx shared by pools, transactions and pgxmock.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Postgres struct {
	maxPoolSize  int
	connAttempts int
	connTimeout  time.Duration

	Builder squirrel.StatementBuilderType
	Pool    *pgxpool.Pool
}

type Option func(*Postgres)

func MaxPoolSize(size int) Option {
	return func(p *Postgres) {
		if size > 0 {
			p.maxPoolSize = size
		}
	}
}

func ConnAttempts(attempts int) Option {
	return func(p *Postgres) {
		if attempts > 0 {
			p.connAttempts = attempts
		}
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(p *Postgres) {
		if timeout > 0 {
			p.connTimeout = timeout
		}
	}
}

// New connects and pings, retrying while the database starts up.
func New(ctx context.Context, url string, opts ...Option) (*Postgres, error) {
	pg := &Postgres{
		maxPoolSize:  defaultMaxPoolSize,
		connAttempts: defaultConnAttempts,
		connTimeout:  defaultConnTimeout,
		Builder:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	for _, opt := range opts {
		opt(pg)
	}

	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	poolConfig.MaxConns = int32(pg.maxPoolSize)

	pg.Pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err = pg.Pool.Ping(ctx)
		if err == nil {
			return pg, nil
		}
		if attempt >= pg.connAttempts {
			break
		}

		slog.WarnContext(ctx, "Postgres is trying to connect", "attempts_left", pg.connAttempts-attempt, slog.Any("error", err))

		select {
		case <-ctx.Done():
			pg.Pool.Close()
			return nil, ctx.Err()
		case <-time.After(pg.connTimeout):
		}
	}

	pg.Pool.Close()
	return nil, fmt.Errorf("postgres: connect after %d attempts: %w", pg.connAttempts, err)
}

func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}

// TxBeginner is satisfied by *pgxpool.Pool and pgxmock pools.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// InTransaction runs fn inside a transaction on db, committing when fn
// returns nil and rolling back otherwise.
func InTransaction(ctx context.Context, db TxBeginner, fn func(tx Executor) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// IsPgErrorUniqueViolation reports a 23505 error.
func IsPgErrorUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
