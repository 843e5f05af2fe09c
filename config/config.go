package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/thechainkeshflip/keshflip-go/pkg/keshflip"
)

const (
	WebhookModeSync  = "sync"
	WebhookModeKafka = "kafka"

	ArchivePostgres   = "postgres"
	ArchiveOpenSearch = "opensearch"
	ArchiveNone       = "none"
)

var ErrInvalidConfig = errors.New("invalid config")

// ClientConfig configures the API client used by tools and examples.
type ClientConfig struct {
	APIKey         string        `env:"KESHFLIP_API_KEY,required,notEmpty"`
	APISecret      string        `env:"KESHFLIP_API_SECRET,required,notEmpty"`
	BaseURL        string        `env:"KESHFLIP_BASE_URL" envDefault:"https://api.keshpay.com"`
	PartnerID      string        `env:"KESHFLIP_PARTNER_ID"`
	WebhookSecret  string        `env:"KESHFLIP_WEBHOOK_SECRET"`
	Timeout        time.Duration `env:"KESHFLIP_TIMEOUT" envDefault:"30s"`
	RetryAttempts  int           `env:"KESHFLIP_RETRY_ATTEMPTS" envDefault:"1"`
	RetryBaseDelay time.Duration `env:"KESHFLIP_RETRY_BASE_DELAY" envDefault:"100ms"`
	RetryMaxDelay  time.Duration `env:"KESHFLIP_RETRY_MAX_DELAY" envDefault:"5s"`
}

// SDK converts c into a client configuration.
func (c ClientConfig) SDK() keshflip.Config {
	return keshflip.Config{
		APIKey:         c.APIKey,
		APISecret:      c.APISecret,
		BaseURL:        c.BaseURL,
		PartnerID:      c.PartnerID,
		WebhookSecret:  c.WebhookSecret,
		Timeout:        c.Timeout,
		RetryAttempts:  c.RetryAttempts,
		RetryBaseDelay: c.RetryBaseDelay,
		RetryMaxDelay:  c.RetryMaxDelay,
	}
}

type LogConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Console reports whether text output was requested.
func (c LogConfig) Console() bool { return c.LogFormat == "console" }

type ArchiveConfig struct {
	ArchiveBackend string `env:"ARCHIVE_BACKEND" envDefault:"postgres"`

	PgURL     string `env:"PG_URL"`
	PgPoolMax int    `env:"PG_POOL_MAX" envDefault:"10"`

	OpensearchURLs  []string `env:"OPENSEARCH_URLS" envSeparator:","`
	OpensearchIndex string   `env:"OPENSEARCH_INDEX" envDefault:"keshpay-webhook-events"`
}

func (c ArchiveConfig) validate() error {
	switch c.ArchiveBackend {
	case ArchivePostgres:
		if c.PgURL == "" {
			return fmt.Errorf("%w: PG_URL is required for the postgres archive", ErrInvalidConfig)
		}
	case ArchiveOpenSearch:
		if len(c.OpensearchURLs) == 0 {
			return fmt.Errorf("%w: OPENSEARCH_URLS is required for the opensearch archive", ErrInvalidConfig)
		}
	case ArchiveNone:
	default:
		return fmt.Errorf("%w: unknown ARCHIVE_BACKEND %q", ErrInvalidConfig, c.ArchiveBackend)
	}
	return nil
}

type KafkaConfig struct {
	KafkaBrokers      []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaWebhookTopic string   `env:"KAFKA_WEBHOOK_TOPIC" envDefault:"keshpay.webhooks"`
}

// ReceiverConfig configures cmd/receiver.
type ReceiverConfig struct {
	LogConfig
	ArchiveConfig
	KafkaConfig

	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxBodyBytes    int64         `env:"WEBHOOK_MAX_BODY_BYTES" envDefault:"1048576"`

	// WebhookSecret falls back to APISecret, matching the client.
	WebhookSecret string `env:"KESHFLIP_WEBHOOK_SECRET"`
	APISecret     string `env:"KESHFLIP_API_SECRET"`

	// WebhookMode is "sync" (archive inline) or "kafka" (forward to the worker).
	WebhookMode   string   `env:"WEBHOOK_MODE" envDefault:"sync"`
	WebhookEvents []string `env:"WEBHOOK_EVENTS" envSeparator:"," envDefault:"crypto.deposit.updated,crypto.withdrawal.completed,fiat.deposit.updated"`
	// AllowMissingSignature accepts deliveries without X-Signature.
	AllowMissingSignature bool `env:"WEBHOOK_ALLOW_MISSING_SIGNATURE" envDefault:"false"`
}

// Secret returns the key used to verify inbound webhooks.
func (c ReceiverConfig) Secret() string {
	if c.WebhookSecret != "" {
		return c.WebhookSecret
	}
	return c.APISecret
}

func (c ReceiverConfig) Validate() error {
	if c.Secret() == "" {
		return fmt.Errorf("%w: KESHFLIP_WEBHOOK_SECRET or KESHFLIP_API_SECRET is required", ErrInvalidConfig)
	}
	if len(c.WebhookEvents) == 0 {
		return fmt.Errorf("%w: WEBHOOK_EVENTS is empty", ErrInvalidConfig)
	}

	switch c.WebhookMode {
	case WebhookModeSync:
		return c.ArchiveConfig.validate()
	case WebhookModeKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("%w: KAFKA_BROKERS is required in kafka mode", ErrInvalidConfig)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown WEBHOOK_MODE %q", ErrInvalidConfig, c.WebhookMode)
	}
}

// WorkerConfig configures cmd/worker.
type WorkerConfig struct {
	LogConfig
	ArchiveConfig
	KafkaConfig

	AdminPort       int           `env:"ADMIN_PORT" envDefault:"8081"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	KafkaConsumerGroup string `env:"KAFKA_CONSUMER_GROUP" envDefault:"keshflip-webhook-worker"`
	KafkaDLQTopic      string `env:"KAFKA_DLQ_TOPIC" envDefault:"keshpay.webhooks.dlq"`

	RetryAttempts  int           `env:"WORKER_RETRY_ATTEMPTS" envDefault:"3"`
	RetryBaseDelay time.Duration `env:"WORKER_RETRY_BASE_DELAY" envDefault:"200ms"`
	RetryMaxDelay  time.Duration `env:"WORKER_RETRY_MAX_DELAY" envDefault:"5s"`

	WebhookEvents []string `env:"WEBHOOK_EVENTS" envSeparator:"," envDefault:"crypto.deposit.updated,crypto.withdrawal.completed,fiat.deposit.updated"`
}

func (c WorkerConfig) Validate() error {
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("%w: KAFKA_BROKERS is required", ErrInvalidConfig)
	}
	if c.KafkaWebhookTopic == "" || c.KafkaDLQTopic == "" {
		return fmt.Errorf("%w: KAFKA_WEBHOOK_TOPIC and KAFKA_DLQ_TOPIC are required", ErrInvalidConfig)
	}
	if c.KafkaWebhookTopic == c.KafkaDLQTopic {
		return fmt.Errorf("%w: DLQ topic must differ from the webhook topic", ErrInvalidConfig)
	}
	if slices.Contains(c.WebhookEvents, "") {
		return fmt.Errorf("%w: WEBHOOK_EVENTS contains an empty name", ErrInvalidConfig)
	}
	return c.ArchiveConfig.validate()
}

func NewClient() (ClientConfig, error) {
	return env.ParseAs[ClientConfig]()
}

func NewReceiver() (ReceiverConfig, error) {
	c, err := env.ParseAs[ReceiverConfig]()
	if err != nil {
		return ReceiverConfig{}, err
	}
	if err := c.Validate(); err != nil {
		return ReceiverConfig{}, err
	}
	return c, nil
}

func NewWorker() (WorkerConfig, error) {
	c, err := env.ParseAs[WorkerConfig]()
	if err != nil {
		return WorkerConfig{}, err
	}
	if err := c.Validate(); err != nil {
		return WorkerConfig{}, err
	}
	return c, nil
}
