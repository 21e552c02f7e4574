package metrics

import "github.com/prometheus/client_golang/prometheus"

// Webhook outcomes
const (
	OutcomeProcessed    = "processed"
	OutcomeDuplicate    = "duplicate"
	OutcomeFailed       = "failed"
	OutcomeRejected     = "rejected"
	OutcomeInvalid      = "invalid"
	OutcomeUnconfigured = "unconfigured"
)

// TopicUnsupported labels deliveries rejected before their topic is known to be valid
const TopicUnsupported = "unsupported"

var (
	WebhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "deliveries_total",
			Help:      "Webhook deliveries by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	LineItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "line_items_total",
			Help:      "Processed order line items by result",
		},
		[]string{"result"},
	)

	LearnWorldsRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "learnworlds",
			Name:      "request_duration_seconds",
			Help:      "LearnWorlds API latency in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"operation", "status_code"},
	)
)

func init() {
	Registry.MustRegister(WebhooksTotal, LineItemsTotal, LearnWorldsRequestDuration)
}
