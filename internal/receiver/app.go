// Package receiver runs the HTTP service that accepts KeshPay webhooks.
package receiver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thechainkeshflip/keshflip-go/config"
	"github.com/thechainkeshflip/keshflip-go/internal/archive"
	"github.com/thechainkeshflip/keshflip-go/internal/external/kafka"
	"github.com/thechainkeshflip/keshflip-go/internal/server"
	"github.com/thechainkeshflip/keshflip-go/pkg/health"
	"github.com/thechainkeshflip/keshflip-go/pkg/webhook"
)

// NewProcessor builds the processor for cfg and registers handler for every
// configured event type.
func NewProcessor(cfg config.ReceiverConfig, handler webhook.Handler) (*webhook.Processor, error) {
	var opts []webhook.Option
	if cfg.AllowMissingSignature {
		opts = append(opts, webhook.AllowMissingSignature())
	}

	p, err := webhook.NewProcessor(cfg.Secret(), opts...)
	if err != nil {
		return nil, err
	}
	for _, eventType := range cfg.WebhookEvents {
		p.RegisterHandler(eventType, handler)
	}
	return p, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg config.ReceiverConfig) error {
	healthRegistry := health.NewRegistry()

	var handler webhook.Handler
	switch cfg.WebhookMode {
	case config.WebhookModeKafka:
		slog.Info("Webhook mode: kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaWebhookTopic)
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaWebhookTopic)
		defer func() { _ = publisher.Close() }()

		handler = ForwardHandler(publisher)
		healthRegistry.Register(health.NewKafkaChecker(cfg.KafkaBrokers, cfg.KafkaWebhookTopic))

	default:
		slog.Info("Webhook mode: sync", "archive", cfg.ArchiveBackend)
		backend, err := archive.Open(ctx, cfg.ArchiveConfig)
		if err != nil {
			return fmt.Errorf("receiver - open archive: %w", err)
		}
		defer backend.Close()

		handler = archive.Handler(backend.Sink)
		if backend.Checker != nil {
			healthRegistry.Register(backend.Checker)
		}
	}

	processor, err := NewProcessor(cfg, handler)
	if err != nil {
		return fmt.Errorf("receiver - webhook processor: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(NewWebhookHandler(processor, cfg.MaxBodyBytes), healthRegistry)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.Engine(),
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return server.Run(ctx, srv, cfg.ShutdownTimeout)
}
