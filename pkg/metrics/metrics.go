// Package metrics provides Prometheus metrics for recipeclaw.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipeclaw"

var (
	// InteractionsTotal counts routed interactions by outcome kind and HTTP status.
	InteractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_total",
			Help:      "Total number of interactions routed",
		},
		[]string{"kind", "status"},
	)

	// ExtractionStates counts retry engine state transitions.
	ExtractionStates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_states_total",
			Help:      "Retry engine state transitions",
		},
		[]string{"state"},
	)

	// ExtractionDuration measures a full extraction including retries.
	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Duration of recipe extraction in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90, 120},
		},
	)

	// FragmentsTotal counts delivered follow-up fragments by result.
	FragmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "followup_fragments_total",
			Help:      "Follow-up fragments posted",
		},
		[]string{"result"},
	)

	// FollowupsTotal counts deferred-phase terminal outcomes.
	FollowupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "followups_total",
			Help:      "Deferred follow-up outcomes",
		},
		[]string{"outcome"},
	)

	// QueuePublishTotal counts continuation publishes by status.
	QueuePublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_publish_total",
			Help:      "Continuations published to the work queue",
		},
		[]string{"status"},
	)
)

func RecordInteraction(kind, status string) {
	InteractionsTotal.WithLabelValues(kind, status).Inc()
}

func RecordExtractionState(state string) {
	ExtractionStates.WithLabelValues(state).Inc()
}

func RecordExtractionDuration(seconds float64) {
	ExtractionDuration.Observe(seconds)
}

func RecordFragment(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	FragmentsTotal.WithLabelValues(result).Inc()
}

func RecordFollowup(outcome string) {
	FollowupsTotal.WithLabelValues(outcome).Inc()
}

func RecordPublish(status string) {
	QueuePublishTotal.WithLabelValues(status).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
