package testing

import (
	"errors"
	"testing"

	"github.com/amp-labs/flowfsm/statemachine"
	"github.com/stretchr/testify/require"
)

var errScenarioFailure = errors.New("scenario failure")

// TestScenario represents a complete test scenario for a workflow.
type TestScenario struct {
	Name         string
	Declarations []statemachine.StateDeclaration
	Handlers     statemachine.Handlers
	Args         map[string]any
	Expect       []Matcher
	// WantErr is matched with errors.Is. A nil WantErr expects a successful
	// run whose log replays against the graph.
	WantErr error
}

// RunScenario executes a test scenario and validates results.
func RunScenario(t *testing.T, scenario TestScenario) {
	t.Helper()
	t.Run(scenario.Name, func(t *testing.T) {
		engine := NewTestEngineFromDeclarations(t, scenario.Declarations, scenario.Handlers)

		_, err := engine.Run(t.Context(), scenario.Args)
		if scenario.WantErr != nil {
			require.ErrorIs(t, err, scenario.WantErr)
		} else {
			require.NoError(t, err)
			engine.AssertAccepted(t.Context())
		}

		engine.Expect(scenario.Expect...)
	})
}

// LinearWorkflowScenario creates a scenario for testing linear workflows.
func LinearWorkflowScenario() TestScenario {
	return TestScenario{
		Name:         "Linear Workflow",
		Declarations: CommonTestGraphs.Linear(),
		Handlers: statemachine.Handlers{
			"middle": statemachine.Noop,
			"end":    statemachine.Noop,
		},
		Expect: []Matcher{
			TransitionWasTaken("start", "middle"),
			TransitionWasTaken("middle", "end"),
			EndedIn("end"),
			ExecutionCompleted(),
		},
	}
}

// BranchingWorkflowScenario creates a scenario for testing branching logic.
func BranchingWorkflowScenario(answer bool) TestScenario {
	target := "failure"
	if answer {
		target = "success"
	}

	return TestScenario{
		Name:         "Branching Workflow",
		Declarations: CommonTestGraphs.Branching(),
		Handlers: statemachine.Handlers{
			"check":   statemachine.Returning(answer),
			"success": statemachine.Noop,
			"failure": statemachine.Noop,
		},
		Expect: []Matcher{
			Returned("check", answer),
			EndedIn(target),
		},
	}
}

// ErrorRecoveryScenario creates a scenario for testing error recovery.
func ErrorRecoveryScenario() TestScenario {
	return TestScenario{
		Name:         "Error Recovery",
		Declarations: CommonTestGraphs.Exception(),
		Handlers: statemachine.Handlers{
			"risky":                     Failing(errScenarioFailure),
			statemachine.ExceptionState: statemachine.Returning("recover"),
			"recover":                   statemachine.Noop,
			"finish":                    statemachine.Noop,
		},
		Expect: []Matcher{
			TransitionWasTaken("risky", statemachine.ExceptionState),
			TransitionWasTaken(statemachine.ExceptionState, "recover"),
			EndedIn("finish"),
		},
	}
}

// RetryScenario creates a scenario for testing retry loops.
func RetryScenario(attempts int) TestScenario {
	return TestScenario{
		Name:         "Retry Logic",
		Declarations: CommonTestGraphs.Loop(attempts),
		Handlers: statemachine.Handlers{
			"retry":    Counter(),
			"complete": statemachine.Noop,
		},
		Expect: []Matcher{
			VisitCount("retry", attempts),
			Returned("retry", attempts),
			EndedIn("complete"),
		},
	}
}
