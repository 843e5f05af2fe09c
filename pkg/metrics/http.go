package metrics

import "github.com/prometheus/client_golang/prometheus"

// RouteUnmatched labels requests that hit no registered route, such as
// scanners probing the receiver.
const RouteUnmatched = "unmatched"

var (
	// Webhook deliveries are small and answered inline, so the buckets stop
	// at the sender's typical 10s delivery timeout.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time to answer a receiver or admin request, by matched route.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 10},
		},
		[]string{"route", "method", "code"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Receiver and admin requests answered, by matched route and status code.",
		},
		[]string{"route", "method", "code"},
	)

	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being served.",
		},
	)
)

func init() {
	Registry.MustRegister(HTTPRequestDuration, HTTPRequestsTotal, HTTPRequestsInFlight)
}
