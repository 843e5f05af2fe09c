package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Webhook outcomes.
const (
	OutcomeProcessed      = "processed"
	OutcomeUnhandled      = "unhandled"
	OutcomeRejected       = "rejected"
	OutcomeInvalidPayload = "invalid_payload"
	OutcomeHandlerFailed  = "handler_failed"
)

var (
	WebhooksReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "received_total",
			Help:      "Inbound webhooks by event type and outcome",
		},
		[]string{"event", "outcome"},
	)

	WebhookHandlingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "handling_duration_seconds",
			Help:      "Time spent verifying and dispatching a webhook",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"outcome"},
	)

	ArchivedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "events_total",
			Help:      "Events written to the archive by backend and status",
		},
		[]string{"backend", "status"},
	)
)

func init() {
	Registry.MustRegister(WebhooksReceived, WebhookHandlingDuration, ArchivedEvents)
}

// ObserveWebhook records one webhook delivery. event is "" when the payload
// could not be parsed.
func ObserveWebhook(event, outcome string, took time.Duration) {
	if event == "" {
		event = "unknown"
	}
	WebhooksReceived.WithLabelValues(event, outcome).Inc()
	WebhookHandlingDuration.WithLabelValues(outcome).Observe(took.Seconds())
}
