//go:build integration

package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thechainkeshflip/keshflip-go/config"
	"github.com/thechainkeshflip/keshflip-go/internal/external/kafka"
	"github.com/thechainkeshflip/keshflip-go/internal/receiver"
	"github.com/thechainkeshflip/keshflip-go/internal/testinfra"
	"github.com/thechainkeshflip/keshflip-go/internal/worker"
	"github.com/thechainkeshflip/keshflip-go/pkg/webhook"
)

func TestWorker_ForwardedEventIsArchived(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	suite, err := testinfra.NewSuite(ctx)
	require.NoError(t, err)
	defer suite.Cleanup(context.Background())

	cfg := config.WorkerConfig{
		ArchiveConfig: config.ArchiveConfig{
			ArchiveBackend: config.ArchivePostgres,
			PgURL:          suite.Postgres.DSN,
			PgPoolMax:      2,
		},
		KafkaConfig: config.KafkaConfig{
			KafkaBrokers:      suite.Kafka.Brokers,
			KafkaWebhookTopic: suite.Kafka.WebhookTopic,
		},
		ShutdownTimeout:    5 * time.Second,
		KafkaConsumerGroup: suite.Kafka.Group,
		KafkaDLQTopic:      suite.Kafka.DLQTopic,
		RetryAttempts:      2,
		RetryBaseDelay:     10 * time.Millisecond,
		RetryMaxDelay:      50 * time.Millisecond,
		WebhookEvents:      []string{webhook.EventCryptoDepositUpdated},
	}

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- worker.Run(runCtx, cfg) }()

	publisher := kafka.NewPublisher(suite.Kafka.Brokers, suite.Kafka.WebhookTopic)
	defer func() { _ = publisher.Close() }()

	forward := receiver.ForwardHandler(publisher)
	event := webhook.Event{
		Type:      webhook.EventCryptoDepositUpdated,
		Timestamp: "2025-01-01T00:00:00Z",
		Data:      map[string]any{"depositId": "d-42", "status": "CONFIRMED"},
	}
	require.NoError(t, forward(ctx, event))
	require.NoError(t, forward(ctx, event))

	assert.Eventually(t, func() bool {
		var count int
		err := suite.Postgres.Pool.Pool.QueryRow(ctx,
			"SELECT count(*) FROM webhook_events WHERE resource_id = $1", "d-42").Scan(&count)
		return err == nil && count == 1
	}, time.Minute, 500*time.Millisecond)

	stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("worker did not stop")
	}
}
