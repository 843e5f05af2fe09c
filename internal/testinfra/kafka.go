//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type KafkaContainer struct {
	Container    *kafka.KafkaContainer
	Brokers      []string
	WebhookTopic string
	DLQTopic     string
	Group        string
}

// NewKafka starts a single-node broker and creates uniquely named topics so
// tests never share offsets.
func NewKafka(ctx context.Context) (*KafkaContainer, error) {
	container, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		kafka.WithClusterID("keshflip-test"),
	)
	if err != nil {
		return nil, fmt.Errorf("start kafka container: %w", err)
	}

	brokers, err := container.Brokers(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("get brokers: %w", err)
	}

	suffix := uuid.NewString()[:8]
	kc := &KafkaContainer{
		Container:    container,
		Brokers:      brokers,
		WebhookTopic: "test-webhooks-" + suffix,
		DLQTopic:     "test-webhooks-dlq-" + suffix,
		Group:        "test-group-" + suffix,
	}

	for _, topic := range []string{kc.WebhookTopic, kc.DLQTopic} {
		if err := createTopic(ctx, container, topic, 3); err != nil {
			_ = container.Terminate(ctx)
			return nil, fmt.Errorf("create topic %s: %w", topic, err)
		}
	}
	return kc, nil
}

func createTopic(ctx context.Context, c *kafka.KafkaContainer, topic string, partitions int) error {
	// The broker accepts connections before it accepts admin requests.
	const attempts = 20

	var lastErr error
	for i := 0; i < attempts; i++ {
		exitCode, reader, err := c.Exec(ctx, []string{
			"kafka-topics",
			"--bootstrap-server", "localhost:9092",
			"--create",
			"--if-not-exists",
			"--topic", topic,
			"--partitions", fmt.Sprintf("%d", partitions),
			"--replication-factor", "1",
		})
		if err == nil && exitCode == 0 {
			return nil
		}

		var out string
		if reader != nil {
			b, _ := io.ReadAll(reader)
			out = strings.TrimSpace(string(b))
		}
		if err != nil {
			lastErr = fmt.Errorf("exec kafka-topics: %w; output=%q", err, out)
		} else {
			lastErr = fmt.Errorf("kafka-topics exit=%d; output=%q", exitCode, out)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
	return lastErr
}

func (c *KafkaContainer) Cleanup(ctx context.Context) {
	if c.Container != nil {
		_ = c.Container.Terminate(ctx)
	}
}
