package health

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaChecker dials the brokers and checks that the webhook topic exists.
type KafkaChecker struct {
	brokers []string
	topic   string
}

// NewKafkaChecker returns a checker. topic may be empty to only test
// connectivity.
func NewKafkaChecker(brokers []string, topic string) *KafkaChecker {
	return &KafkaChecker{brokers: brokers, topic: topic}
}

func (c *KafkaChecker) Name() string { return "kafka" }

func (c *KafkaChecker) Check(ctx context.Context) Result {
	var lastErr error
	for _, broker := range c.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}

		if c.topic != "" {
			_, err = conn.ReadPartitions(c.topic)
		}
		_ = conn.Close()
		if err != nil {
			return down(fmt.Errorf("topic %s: %w", c.topic, err))
		}
		return up()
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no brokers configured")
	}
	return Result{Status: StatusDown, Message: "all brokers unreachable: " + lastErr.Error()}
}
