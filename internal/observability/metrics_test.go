package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// promauto registers metrics globally, so each test uses its own namespace.

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_journal_new")

	assert.NotNil(t, m.ManuscriptsCreated)
	assert.NotNil(t, m.ManuscriptsDeleted)
	assert.NotNil(t, m.Transitions)
	assert.NotNil(t, m.TransitionsRejected)
	assert.NotNil(t, m.UpdateStateDuration)
	assert.NotNil(t, m.HTTPRequests)
	assert.NotNil(t, m.OutboxPublished)
	assert.NotNil(t, m.RefereeFeedMessages)
}

func TestRecordManuscriptLifecycle(t *testing.T) {
	m := NewMetrics("test_journal_lifecycle")

	m.RecordManuscriptCreated()
	m.RecordManuscriptCreated()
	m.RecordManuscriptDeleted()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ManuscriptsCreated))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ManuscriptsDeleted))
}

func TestRecordTransition(t *testing.T) {
	m := NewMetrics("test_journal_transition")

	m.RecordTransition("SUB", "ARF", "REV", 3*time.Millisecond)
	m.RecordTransition("SUB", "ARF", "REV", 5*time.Millisecond)
	m.RecordTransition("REV", "ACC", "CED", time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Transitions.WithLabelValues("SUB", "ARF", "REV")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Transitions.WithLabelValues("REV", "ACC", "CED")))

	count, err := getHistogramSampleCount(m.UpdateStateDuration)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestRecordTransitionRejected(t *testing.T) {
	m := NewMetrics("test_journal_rejected")

	m.RecordTransitionRejected("invalid_action")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.TransitionsRejected.WithLabelValues("invalid_action")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.TransitionsRejected.WithLabelValues("invalid_state")))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetrics("test_journal_http")

	m.RecordHTTPRequest("/manuscripts/{title}", "GET", 404, 2*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/manuscripts/{title}", "GET", "404")))
}

func TestRecordOutbox(t *testing.T) {
	m := NewMetrics("test_journal_outbox")

	m.RecordOutboxPublished("manuscript.created")
	m.RecordOutboxFailed("manuscript.created", false)
	m.RecordOutboxFailed("manuscript.created", true)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxPublished.WithLabelValues("manuscript.created")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.OutboxFailed.WithLabelValues("manuscript.created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxDead))
}

func TestRecordRefereeFeedMessage(t *testing.T) {
	m := NewMetrics("test_journal_referee_feed")

	m.RecordRefereeFeedMessage("declined", "applied")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RefereeFeedMessages.WithLabelValues("declined", "applied")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordManuscriptCreated()
		m.RecordManuscriptDeleted()
		m.RecordTransition("SUB", "REJ", "REJ", time.Millisecond)
		m.RecordTransitionRejected("invalid_state")
		m.RecordHTTPRequest("/hello", "GET", 200, time.Millisecond)
		m.RecordOutboxPublished("manuscript.created")
		m.RecordOutboxFailed("manuscript.created", true)
		m.RecordRefereeFeedMessage("accepted", "ignored")
	})
}

func getHistogramSampleCount(h prometheus.Histogram) (uint64, error) {
	ch := make(chan prometheus.Metric, 1)
	h.Collect(ch)
	close(ch)

	metric := <-ch
	var out dto.Metric
	if err := metric.Write(&out); err != nil {
		return 0, err
	}
	return out.GetHistogram().GetSampleCount(), nil
}
