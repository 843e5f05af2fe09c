//go:build integration

package testinfra

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Suite holds the containers used by the worker end-to-end tests.
type Suite struct {
	Postgres *PostgresContainer
	Kafka    *KafkaContainer
}

// NewSuite starts Postgres and Kafka concurrently.
func NewSuite(ctx context.Context) (*Suite, error) {
	s := &Suite{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pg, err := NewPostgres(gctx)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		s.Postgres = pg
		return nil
	})
	g.Go(func() error {
		k, err := NewKafka(gctx)
		if err != nil {
			return fmt.Errorf("kafka: %w", err)
		}
		s.Kafka = k
		return nil
	})

	if err := g.Wait(); err != nil {
		s.Cleanup(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Suite) Cleanup(ctx context.Context) {
	if s.Postgres != nil {
		s.Postgres.Cleanup(ctx)
	}
	if s.Kafka != nil {
		s.Kafka.Cleanup(ctx)
	}
}
