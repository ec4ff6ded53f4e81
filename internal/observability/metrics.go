package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the journal service.
// Metrics are registered with the default registry via promauto, so NewMetrics
// must be called once per namespace. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// ManuscriptsCreated counts manuscripts submitted.
	ManuscriptsCreated prometheus.Counter

	// ManuscriptsDeleted counts manuscripts removed.
	ManuscriptsDeleted prometheus.Counter

	// Transitions counts applied workflow transitions, labeled by from, action and to.
	Transitions *prometheus.CounterVec

	// TransitionsRejected counts actions refused by the workflow, labeled by reason
	// (invalid_state, invalid_action, not_found).
	TransitionsRejected *prometheus.CounterVec

	// UpdateStateDuration observes the latency of the locked read-dispatch-write cycle.
	UpdateStateDuration prometheus.Histogram

	// HTTPRequests counts HTTP requests, labeled by route pattern, method and status.
	HTTPRequests *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP request latency, labeled by route pattern and method.
	HTTPRequestDuration *prometheus.HistogramVec

	// OutboxPublished counts outbox events delivered to the broker, labeled by event type.
	OutboxPublished *prometheus.CounterVec

	// OutboxFailed counts failed publish attempts, labeled by event type.
	OutboxFailed *prometheus.CounterVec

	// OutboxDead counts events given up on after max retries.
	OutboxDead prometheus.Counter

	// RefereeFeedMessages counts consumed referee responses, labeled by decision and outcome.
	RefereeFeedMessages *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ManuscriptsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manuscripts_created_total",
			Help:      "Total number of manuscripts submitted",
		}),
		ManuscriptsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manuscripts_deleted_total",
			Help:      "Total number of manuscripts deleted",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Total number of manuscript state transitions applied",
		}, []string{"from", "action", "to"}),
		TransitionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "transitions_rejected_total",
			Help:      "Total number of manuscript actions rejected",
		}, []string{"reason"}),
		UpdateStateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "update_state_duration_seconds",
			Help:      "Duration of locked manuscript state updates",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		OutboxPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_published_total",
			Help:      "Total number of outbox events published",
		}, []string{"event_type"}),
		OutboxFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_failed_total",
			Help:      "Total number of failed outbox publish attempts",
		}, []string{"event_type"}),
		OutboxDead: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_dead_total",
			Help:      "Total number of outbox events marked dead after max retries",
		}),
		RefereeFeedMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "referee_feed",
			Name:      "messages_total",
			Help:      "Total number of referee responses consumed",
		}, []string{"decision", "outcome"}),
	}
}

// RecordManuscriptCreated records a new submission.
func (m *Metrics) RecordManuscriptCreated() {
	if m == nil {
		return
	}
	m.ManuscriptsCreated.Inc()
}

// RecordManuscriptDeleted records a deletion.
func (m *Metrics) RecordManuscriptDeleted() {
	if m == nil {
		return
	}
	m.ManuscriptsDeleted.Inc()
}

// RecordTransition records an applied transition and its latency.
func (m *Metrics) RecordTransition(from, action, to string, d time.Duration) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, action, to).Inc()
	m.UpdateStateDuration.Observe(d.Seconds())
}

// RecordTransitionRejected records a refused action.
func (m *Metrics) RecordTransitionRejected(reason string) {
	if m == nil {
		return
	}
	m.TransitionsRejected.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// RecordOutboxPublished records a delivered event.
func (m *Metrics) RecordOutboxPublished(eventType string) {
	if m == nil {
		return
	}
	m.OutboxPublished.WithLabelValues(eventType).Inc()
}

// RecordOutboxFailed records a failed publish attempt; dead marks the final one.
func (m *Metrics) RecordOutboxFailed(eventType string, dead bool) {
	if m == nil {
		return
	}
	m.OutboxFailed.WithLabelValues(eventType).Inc()
	if dead {
		m.OutboxDead.Inc()
	}
}

// RecordRefereeFeedMessage records a consumed referee response.
func (m *Metrics) RecordRefereeFeedMessage(decision, outcome string) {
	if m == nil {
		return
	}
	m.RefereeFeedMessages.WithLabelValues(decision, outcome).Inc()
}
