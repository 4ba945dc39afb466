// Package metrics holds the Prometheus collectors for interview orchestration.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the orchestrator and completion calls.
type Metrics struct {
	ActionsTotal       *prometheus.CounterVec
	ActionDuration     *prometheus.HistogramVec
	CompletionAttempts *prometheus.CounterVec
	PhaseTransitions   *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors once per process.
//
// Metrics:
//   - interview_actions_total{action,outcome}
//   - interview_action_duration_seconds{action}
//   - interview_completion_attempts_total{role,outcome}
//   - interview_phase_transitions_total{from,to}
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			ActionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "interview_actions_total",
					Help: "Total number of orchestrator actions by outcome",
				},
				[]string{"action", "outcome"},
			),
			ActionDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "interview_action_duration_seconds",
					Help:    "Duration of orchestrator actions in seconds",
					Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
				},
				[]string{"action"},
			),
			CompletionAttempts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "interview_completion_attempts_total",
					Help: "Total number of completion service attempts by role and outcome",
				},
				[]string{"role", "outcome"}, // outcome: success, transient, fatal
			),
			PhaseTransitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "interview_phase_transitions_total",
					Help: "Total number of committed phase transitions",
				},
				[]string{"from", "to"},
			),
		}
	})
	return globalMetrics
}

// ObserveAction records the outcome and latency of an action.
func (m *Metrics) ObserveAction(action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(action, outcome).Inc()
	m.ActionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// CompletionAttempt records one call to the completion service.
func (m *Metrics) CompletionAttempt(role, outcome string) {
	if m == nil {
		return
	}
	m.CompletionAttempts.WithLabelValues(role, outcome).Inc()
}

// PhaseTransition records a committed phase change.
func (m *Metrics) PhaseTransition(from, to string) {
	if m == nil {
		return
	}
	m.PhaseTransitions.WithLabelValues(from, to).Inc()
}
