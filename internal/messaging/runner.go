package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// Runner runs several workers with the same handler.
type Runner struct {
	workers []Worker
	handler MessageHandler
}

func NewRunner(workers []Worker, handler MessageHandler) *Runner {
	return &Runner{workers: workers, handler: handler}
}

// Start blocks until ctx is cancelled or any worker fails; the other workers
// are then cancelled too. Every worker is closed before Start returns.
func (r *Runner) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i, w := range r.workers {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.ErrorContext(ctx, "Worker panic recovered",
						"worker_idx", i, "panic", rec, "stack", string(debug.Stack()))
					err = fmt.Errorf("worker %d panicked: %v", i, rec)
				}
				if closeErr := w.Close(); closeErr != nil {
					slog.ErrorContext(ctx, "Failed to close worker", "worker_idx", i, slog.Any("error", closeErr))
				}
			}()
			return w.Start(ctx, r.handler)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
