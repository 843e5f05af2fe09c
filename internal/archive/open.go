package archive

import (
	"context"
	"fmt"

	"github.com/thechainkeshflip/keshflip-go/config"
	"github.com/thechainkeshflip/keshflip-go/pkg/health"
	"github.com/thechainkeshflip/keshflip-go/pkg/postgres"
)

// Backend is an opened archive together with its readiness check.
type Backend struct {
	Sink Sink
	// Checker is nil when the backend has nothing to probe.
	Checker health.Checker
	close   func()
}

func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open connects the backend selected by cfg.ArchiveBackend. The postgres
// backend migrates the schema before connecting.
func Open(ctx context.Context, cfg config.ArchiveConfig) (*Backend, error) {
	switch cfg.ArchiveBackend {
	case config.ArchivePostgres:
		if err := ApplyMigrations(cfg.PgURL); err != nil {
			return nil, fmt.Errorf("archive migrations: %w", err)
		}
		pg, err := postgres.New(ctx, cfg.PgURL, postgres.MaxPoolSize(cfg.PgPoolMax))
		if err != nil {
			return nil, err
		}
		return &Backend{
			Sink:    Instrument(NewPgSink(pg.Pool, pg.Builder), config.ArchivePostgres),
			Checker: health.NewPostgresChecker(pg.Pool),
			close:   pg.Close,
		}, nil

	case config.ArchiveOpenSearch:
		client, err := NewOpenSearchClient(cfg.OpensearchURLs)
		if err != nil {
			return nil, err
		}
		sink, err := NewOpenSearchSink(ctx, client, cfg.OpensearchIndex)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Sink:    Instrument(sink, config.ArchiveOpenSearch),
			Checker: health.NewOpenSearchChecker(client),
		}, nil

	case config.ArchiveNone:
		return &Backend{Sink: Instrument(LogSink{}, config.ArchiveNone)}, nil

	default:
		return nil, fmt.Errorf("%w: unknown ARCHIVE_BACKEND %q", config.ErrInvalidConfig, cfg.ArchiveBackend)
	}
}
