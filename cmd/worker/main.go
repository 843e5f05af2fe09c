package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/thechainkeshflip/keshflip-go/config"
	"github.com/thechainkeshflip/keshflip-go/internal/worker"
	"github.com/thechainkeshflip/keshflip-go/pkg/logger"
)

func main() {
	cfg, err := config.NewWorker()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	logger.Setup(logger.Options{
		Level:   cfg.LogLevel,
		Console: cfg.Console(),
		Service: "keshflip-worker",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := worker.Run(ctx, cfg); err != nil {
		slog.Error("Worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
