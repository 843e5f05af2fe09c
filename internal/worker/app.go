// Package worker consumes forwarded KeshPay webhooks from Kafka and archives
// them.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/thechainkeshflip/keshflip-go/config"
	"github.com/thechainkeshflip/keshflip-go/internal/archive"
	"github.com/thechainkeshflip/keshflip-go/internal/external/kafka"
	"github.com/thechainkeshflip/keshflip-go/internal/messaging"
	"github.com/thechainkeshflip/keshflip-go/internal/server"
	"github.com/thechainkeshflip/keshflip-go/pkg/health"
	"github.com/thechainkeshflip/keshflip-go/pkg/logger"
	"github.com/thechainkeshflip/keshflip-go/pkg/metrics"
	"github.com/thechainkeshflip/keshflip-go/pkg/webhook"
)

// NewProcessor registers handler for every configured event type. The worker
// never verifies signatures, so the secret is a throwaway.
func NewProcessor(events []string, handler webhook.Handler) (*webhook.Processor, error) {
	p, err := webhook.NewProcessor(uuid.NewString())
	if err != nil {
		return nil, err
	}
	for _, eventType := range events {
		p.RegisterHandler(eventType, handler)
	}
	return p, nil
}

// NewMessageHandler wraps the controller with retry, dead-lettering and
// metrics, innermost first.
func NewMessageHandler(cfg config.WorkerConfig, c *Controller, dlq messaging.DLQPublisher) messaging.MessageHandler {
	retryCfg := messaging.RetryConfig{
		MaxAttempts:    cfg.RetryAttempts,
		InitialBackoff: cfg.RetryBaseDelay,
		MaxBackoff:     cfg.RetryMaxDelay,
		Retryable:      Retryable,
	}

	handler := messaging.WithRetry(c.HandleMessage, retryCfg)
	handler = messaging.WithDLQ(handler, dlq)
	return messaging.WithMetrics(handler, cfg.KafkaWebhookTopic, cfg.KafkaConsumerGroup)
}

// Run consumes until ctx is cancelled. An admin server exposes health and
// metrics on cfg.AdminPort.
func Run(ctx context.Context, cfg config.WorkerConfig) error {
	backend, err := archive.Open(ctx, cfg.ArchiveConfig)
	if err != nil {
		return fmt.Errorf("worker - open archive: %w", err)
	}
	defer backend.Close()

	processor, err := NewProcessor(cfg.WebhookEvents, archive.Handler(backend.Sink))
	if err != nil {
		return fmt.Errorf("worker - webhook processor: %w", err)
	}

	dlq := kafka.NewDLQPublisher(cfg.KafkaBrokers, cfg.KafkaDLQTopic)
	defer func() { _ = dlq.Close() }()

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaWebhookTopic, cfg.KafkaConsumerGroup)
	runner := messaging.NewRunner(
		[]messaging.Worker{consumer},
		NewMessageHandler(cfg, NewController(processor), dlq),
	)

	healthRegistry := health.NewRegistry(health.NewKafkaChecker(cfg.KafkaBrokers, cfg.KafkaWebhookTopic))
	if backend.Checker != nil {
		healthRegistry.Register(backend.Checker)
	}

	gin.SetMode(gin.ReleaseMode)
	admin := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AdminPort),
		Handler:           adminEngine(healthRegistry),
		ReadHeaderTimeout: health.DefaultTimeout,
	}

	slog.Info("Starting webhook consumer",
		"topic", cfg.KafkaWebhookTopic, "group", cfg.KafkaConsumerGroup, "dlq", cfg.KafkaDLQTopic)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Start(gctx)
	})
	g.Go(func() error {
		return server.Run(gctx, admin, cfg.ShutdownTimeout)
	})
	return g.Wait()
}

func adminEngine(healthRegistry *health.Registry) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), logger.CorrelationMiddleware())

	health.Mount(engine, healthRegistry, health.DefaultTimeout)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	return engine
}
