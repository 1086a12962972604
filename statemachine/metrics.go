package statemachine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric outcome constants.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// Metric definitions with appropriate labels.
var (
	// stateVisitsTotal tracks handler calls by workflow, state and outcome (success/error).
	stateVisitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_state_visits_total",
		Help: "Total number of state visits by workflow, state, and outcome (success or error)",
	}, []string{"workflow", "state", "outcome"})

	// transitionTotal tracks resolved transitions.
	transitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_transitions_total",
		Help: "Total number of state transitions by workflow, from_state, and to_state",
	}, []string{"workflow", "from_state", "to_state"})

	// exceptionsTotal tracks redirections to the exception handler.
	exceptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_exceptions_total",
		Help: "Total number of errors redirected to the exception handler by workflow and failing state",
	}, []string{"workflow", "state"})

	// runsCancelledTotal tracks runs stopped by context cancellation.
	runsCancelledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_runs_cancelled_total",
		Help: "Total number of workflow runs cancelled by workflow and state",
	}, []string{"workflow", "state"})

	// executionDuration tracks end-to-end run time.
	executionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "statemachine_execution_duration_seconds",
		Help:    "Duration of workflow runs by workflow and outcome",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"workflow", "outcome"})

	// stateDuration tracks individual handler execution time.
	stateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "statemachine_state_duration_seconds",
		Help:    "Duration of state handler execution by workflow and state",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"workflow", "state"})

	// pathLength tracks how many states a run visited.
	pathLength = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "statemachine_path_length",
		Help:    "Number of states visited per workflow run by workflow and outcome",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"workflow", "outcome"})

	// acceptanceTotal tracks log verifications.
	acceptanceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_acceptance_total",
		Help: "Total number of execution log verifications by workflow and outcome",
	}, []string{"workflow", "outcome"})
)

func outcomeOf(err error) string {
	if err != nil {
		return outcomeError
	}

	return outcomeSuccess
}

func sanitizeWorkflow(name string) string {
	if name == "" {
		return "unknown"
	}

	return name
}
