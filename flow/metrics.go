package flow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric outcome constants.
const (
	outcomeComplete = "complete"
	outcomePaused   = "paused"
	outcomeSuccess  = "success"
	outcomeError    = "error"
)

// Operation labels.
const (
	operationStart  = "start"
	operationResume = "resume"
)

var (
	// executionsTotal counts Start and Resume calls by flow, operation and outcome.
	executionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flow_executions_total",
		Help: "Total number of flow executions by flow, operation (start or resume) and outcome (complete, paused or error)",
	}, []string{"flow", "operation", "outcome"})

	executionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flow_execution_duration_seconds",
		Help:    "Duration of flow executions by flow, operation and outcome",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"flow", "operation", "outcome"})

	// stateVisitsTotal counts handler invocations by flow, state, kind and outcome (success/error).
	stateVisitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flow_state_visits_total",
		Help: "Total number of state visits by flow, state, kind and outcome (success or error)",
	}, []string{"flow", "state", "kind", "outcome"})

	stateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flow_state_duration_seconds",
		Help:    "Duration of state handlers by flow, state and kind",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"flow", "state", "kind"})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flow_transitions_total",
		Help: "Total number of transitions taken by flow, from state and to state",
	}, []string{"flow", "from", "to"})
)

func sanitizeFlow(name string) string {
	if name == "" {
		return "unnamed"
	}

	return name
}

func executionOutcome(complete bool, err error) string {
	switch {
	case err != nil:
		return outcomeError
	case complete:
		return outcomeComplete
	default:
		return outcomePaused
	}
}
