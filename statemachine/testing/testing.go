// Package testing provides testing utilities for state machine workflows.
//
//nolint:varnamelen // Short names idiomatic
package testing

import (
	"context"
	"testing"
	"time"

	"github.com/amp-labs/flowfsm/statemachine"
	"github.com/stretchr/testify/require"
)

// TestEngine wraps Engine with testing utilities. Every dispatched state is
// recorded in an execution trace, including states without a handler and
// calls of the exception handler.
type TestEngine struct {
	*statemachine.Engine

	t          *testing.T
	tracer     *tracingTable
	log        statemachine.Log
	err        error
	assertions []Assertion
}

// TraceEntry records a single step in execution.
type TraceEntry struct {
	Timestamp time.Time
	State     string
	Return    any
	Duration  time.Duration
	Error     error
}

// Assertion represents a test assertion.
type Assertion struct {
	Name   string
	Passed bool
	Error  error
}

// NewTestEngine creates a test engine for a graph and a handler table.
func NewTestEngine(
	t *testing.T,
	graph *statemachine.Graph,
	table statemachine.HandlerTable,
	opts ...statemachine.EngineOption,
) *TestEngine {
	t.Helper()

	tracer := &tracingTable{inner: table}

	engine, err := statemachine.NewEngine(graph, tracer, opts...)
	require.NoError(t, err, "failed to create engine")

	return &TestEngine{
		Engine: engine,
		t:      t,
		tracer: tracer,
	}
}

// NewTestEngineFromDeclarations builds the graph from declarations first.
func NewTestEngineFromDeclarations(
	t *testing.T,
	decls []statemachine.StateDeclaration,
	table statemachine.HandlerTable,
	opts ...statemachine.EngineOption,
) *TestEngine {
	t.Helper()

	graph, err := statemachine.NewGraph(decls)
	require.NoError(t, err, "failed to build graph")

	return NewTestEngine(t, graph, table, opts...)
}

// Run executes the workflow with logging enabled and records the trace.
// The error is returned and also kept for matchers.
func (te *TestEngine) Run(ctx context.Context, args map[string]any) (statemachine.Log, error) {
	te.t.Helper()

	te.tracer.reset()

	te.log, te.err = te.Engine.Run(ctx, args, true)

	return te.log, te.err
}

// RunLog returns the log captured by the last Run.
func (te *TestEngine) RunLog() statemachine.Log {
	return te.log
}

// Err returns the error of the last Run.
func (te *TestEngine) Err() error {
	return te.err
}

// Trace returns the execution trace for inspection.
func (te *TestEngine) Trace() []TraceEntry {
	return te.tracer.trace
}

// Assertions returns all assertions made.
func (te *TestEngine) Assertions() []Assertion {
	return te.assertions
}

// Expect checks every matcher against the last run and fails the test on the
// first mismatch.
func (te *TestEngine) Expect(matchers ...Matcher) {
	te.t.Helper()

	for _, matcher := range matchers {
		matched, err := matcher.Match(te)

		te.assertions = append(te.assertions, Assertion{
			Name:   matcher.Description(),
			Passed: matched,
			Error:  err,
		})

		require.True(te.t, matched, "%s: %v", matcher.Description(), err)
	}
}

// AssertStateVisited checks if a state was visited during execution.
func (te *TestEngine) AssertStateVisited(stateName string) {
	te.t.Helper()
	te.Expect(StateWasVisited(stateName))
}

// AssertTransitionTaken checks if a specific transition occurred.
func (te *TestEngine) AssertTransitionTaken(from, to string) {
	te.t.Helper()
	te.Expect(TransitionWasTaken(from, to))
}

// AssertFinalState checks the run ended in the expected state.
func (te *TestEngine) AssertFinalState(expected string) {
	te.t.Helper()
	te.Expect(EndedIn(expected))
}

// AssertVisitCount checks how many times a state was dispatched.
func (te *TestEngine) AssertVisitCount(stateName string, expected int) {
	te.t.Helper()
	te.Expect(VisitCount(stateName, expected))
}

// AssertAccepted replays the captured log against the graph.
func (te *TestEngine) AssertAccepted(ctx context.Context) {
	te.t.Helper()

	ok, err := te.Acceptance(ctx, te.log, false)

	te.assertions = append(te.assertions, Assertion{
		Name:   "captured log replays against the graph",
		Passed: ok,
		Error:  err,
	})

	require.NoError(te.t, err)
	require.True(te.t, ok)
}

// AssertExecutionTime checks the total time spent in handlers.
func (te *TestEngine) AssertExecutionTime(maxDuration time.Duration) {
	te.t.Helper()
	te.Expect(ExecutionTookLessThan(maxDuration))
}

// tracingTable decorates a handler table and records every dispatch.
type tracingTable struct {
	inner statemachine.HandlerTable
	trace []TraceEntry
	open  bool
}

func (tt *tracingTable) reset() {
	tt.trace = nil
	tt.open = false
}

func (tt *tracingTable) begin(state string) {
	tt.trace = append(tt.trace, TraceEntry{
		Timestamp: time.Now(),
		State:     state,
	})
	tt.open = true
}

func (tt *tracingTable) end(condition any, err error) {
	if !tt.open || len(tt.trace) == 0 {
		return
	}

	last := &tt.trace[len(tt.trace)-1]
	last.Duration = time.Since(last.Timestamp)
	last.Return = condition
	last.Error = err
	tt.open = false
}

func (tt *tracingTable) HandlerFor(name string) (statemachine.Handler, bool) {
	if tt.inner == nil {
		return nil, false
	}

	handler, ok := tt.inner.HandlerFor(name)
	if !ok {
		return nil, false
	}

	return func(ctx context.Context, wf *statemachine.Context) (any, error) {
		// The exception handler is called without dispatch hooks.
		if !tt.open || tt.trace[len(tt.trace)-1].State != name {
			tt.begin(name)
		}

		condition, err := handler(ctx, wf)
		tt.end(condition, err)

		return condition, err
	}, true
}

func (tt *tracingTable) BeforeDispatch(ctx context.Context, state string) error {
	tt.begin(state)

	if hook, ok := tt.inner.(statemachine.BeforeDispatcher); ok {
		if err := hook.BeforeDispatch(ctx, state); err != nil {
			tt.end(nil, err)

			return err
		}
	}

	return nil
}

func (tt *tracingTable) AfterDispatch(ctx context.Context, state string) error {
	if hook, ok := tt.inner.(statemachine.AfterDispatcher); ok {
		if err := hook.AfterDispatch(ctx, state); err != nil {
			if len(tt.trace) > 0 {
				tt.trace[len(tt.trace)-1].Error = err
			}

			return err
		}
	}

	// States without a handler are closed here.
	tt.end(nil, nil)

	return nil
}
