package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_Singleton(t *testing.T) {
	m1 := NewMetrics()
	m2 := NewMetrics()
	assert.Same(t, m1, m2)
}

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	before := testutil.ToFloat64(m.ActionsTotal.WithLabelValues("evaluate", "success"))
	m.ObserveAction("evaluate", "success", 250*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(m.ActionsTotal.WithLabelValues("evaluate", "success")))

	before = testutil.ToFloat64(m.CompletionAttempts.WithLabelValues("coach", "transient"))
	m.CompletionAttempt("coach", "transient")
	assert.Equal(t, before+1, testutil.ToFloat64(m.CompletionAttempts.WithLabelValues("coach", "transient")))

	before = testutil.ToFloat64(m.PhaseTransitions.WithLabelValues("completed", "evaluated"))
	m.PhaseTransition("completed", "evaluated")
	assert.Equal(t, before+1, testutil.ToFloat64(m.PhaseTransitions.WithLabelValues("completed", "evaluated")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAction("start_interview", "success", time.Second)
		m.CompletionAttempt("interviewer", "success")
		m.PhaseTransition("init", "in_progress")
	})
}
