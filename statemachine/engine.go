package statemachine

import (
	"context"
	"fmt"
	"io"
	"maps"
	"sync"
	"time"

	"github.com/amp-labs/flowfsm/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/atomic"
)

// Engine runs a workflow graph against a handler table. The graph may be
// shared between engines; the cursor and the log belong to one engine and a
// single run at a time.
type Engine struct {
	graph *Graph
	table HandlerTable

	name               string
	logger             Logger
	output             io.Writer
	enableCancellation bool
	maxSteps           int

	running *atomic.Bool

	mu      sync.RWMutex
	current *State
	log     Log
	args    map[string]any
	runID   string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithWorkflowName sets the name used in logs, metrics and traces.
func WithWorkflowName(name string) EngineOption {
	return func(e *Engine) {
		e.name = name
	}
}

// WithLogger sets the logger for workflow execution.
func WithLogger(logger Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithOutput sets the sink for verbose acceptance output.
func WithOutput(w io.Writer) EngineOption {
	return func(e *Engine) {
		if w != nil {
			e.output = w
		}
	}
}

// WithCancellation makes the run loop stop when the context is done.
// Cancellation is checked between steps, never inside a handler.
func WithCancellation(enabled bool) EngineOption {
	return func(e *Engine) {
		e.enableCancellation = enabled
	}
}

// WithMaxSteps bounds the number of handler calls per run. Zero means no limit.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		e.maxSteps = max(n, 0)
	}
}

// NewEngine binds a handler table to a graph. Every state that requires a
// handler must have one; all missing names are reported together.
func NewEngine(graph *Graph, table HandlerTable, opts ...EngineOption) (*Engine, error) {
	if graph == nil {
		return nil, fmt.Errorf("%w: graph is nil", ErrInvalidState)
	}

	if table == nil {
		table = Handlers{}
	}

	var (
		missing []string
		errs    errors.Collection
	)

	for _, state := range graph.states {
		if !state.role.requiresHandler() {
			continue
		}

		if _, ok := table.HandlerFor(state.name); !ok {
			missing = append(missing, state.name)
			errs.Add(fmt.Errorf("%w: handler for state %s", errors.ErrNotImplemented, state.name))
		}
	}

	if len(missing) > 0 {
		return nil, &MissingHandlersError{
			Names: missing,
			Err:   errs.GetError(),
		}
	}

	engine := &Engine{
		graph:   graph,
		table:   table,
		logger:  NopLogger{},
		output:  io.Discard,
		running: atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine, nil
}

// Graph returns the graph the engine runs.
func (e *Engine) Graph() *Graph {
	return e.graph
}

// Name returns the workflow name.
func (e *Engine) Name() string {
	return e.name
}

// CurrentState returns the name of the state the cursor points at, or an
// empty string before the first run.
func (e *Engine) CurrentState() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.current == nil {
		return ""
	}

	return e.current.name
}

// Log returns a copy of the log captured by the last run.
func (e *Engine) Log() Log {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.log.Clone()
}

// Args returns a copy of the arguments of the last run.
func (e *Engine) Args() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return maps.Clone(e.args)
}

// RunID returns the identifier of the last run.
func (e *Engine) RunID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.runID
}

// reset puts the engine back to the initial state with an empty log.
func (e *Engine) reset(args map[string]any) (*Context, error) {
	initial, err := e.graph.Initial()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()

	e.mu.Lock()
	e.current = initial
	e.log = nil
	e.args = maps.Clone(args)
	e.runID = runID
	e.mu.Unlock()

	wf := newRunContext(e.name, runID, args)
	wf.CurrentState = initial.name

	return wf, nil
}

func (e *Engine) moveTo(wf *Context, state *State) {
	e.mu.Lock()
	e.current = state
	e.mu.Unlock()

	wf.CurrentState = state.name
}

func (e *Engine) record(entry LogEntry) {
	e.mu.Lock()
	e.log = append(e.log, entry)
	e.mu.Unlock()
}

// Run executes the workflow from the initial state until a final state has
// been handled. Every call starts from a clean slate. When enableLog is true
// the captured log is returned; otherwise the returned log is nil.
func (e *Engine) Run(ctx context.Context, args map[string]any, enableLog bool) (_ Log, err error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer e.running.Store(false)

	wf, err := e.reset(args)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, workflowContextKey, wf)
	ctx, span := startRunSpan(ctx, wf)
	start := time.Now()

	defer func() {
		workflow := sanitizeWorkflow(e.name)
		outcome := outcomeOf(err)

		executionDuration.WithLabelValues(workflow, outcome).Observe(time.Since(start).Seconds())
		pathLength.WithLabelValues(workflow, outcome).Observe(float64(wf.Step))
		span.SetAttributes(attribute.Int("steps", wf.Step))
		finishSpan(span, err)
		e.logger.RunCompleted(ctx, e.name, wf.Step, time.Since(start), err)
	}()

	e.logger.RunStarted(ctx, e.name, args)

	err = e.loop(ctx, wf, enableLog)
	if err != nil {
		return nil, err
	}

	if !enableLog {
		return nil, nil
	}

	return e.Log(), nil
}

func (e *Engine) loop(ctx context.Context, wf *Context, enableLog bool) error {
	e.mu.RLock()
	state := e.current
	e.mu.RUnlock()

	for {
		if e.enableCancellation {
			select {
			case <-ctx.Done():
				runsCancelledTotal.WithLabelValues(sanitizeWorkflow(e.name), state.name).Inc()

				return WrapStateError(state.name, ctx.Err())
			default:
			}
		}

		if e.maxSteps > 0 && wf.Step >= e.maxSteps {
			return WrapStateError(state.name, fmt.Errorf("%w (%d)", ErrMaxStepsExceeded, e.maxSteps))
		}

		condition, err := e.step(ctx, wf, state)
		if err == nil {
			if enableLog {
				e.record(LogEntry{Name: state.name, Return: condition})
			}

			if state.IsFinal() {
				return nil
			}

			var next *State

			next, err = e.graph.ResolveNext(state.name, condition)
			if err == nil {
				e.logger.TransitionExecuted(ctx, state.name, next.name, condition)
				transitionTotal.WithLabelValues(sanitizeWorkflow(e.name), state.name, next.name).Inc()
				e.moveTo(wf, next)
				state = next

				continue
			}

			if enableLog {
				e.markFailed(err)
			}
		} else if enableLog {
			e.record(LogEntry{Name: state.name, Error: err.Error()})
		}

		next, redirectErr := e.redirect(ctx, wf, state, err, enableLog)
		if redirectErr != nil {
			return redirectErr
		}

		e.moveTo(wf, next)
		state = next
	}
}

// markFailed attaches err to the last log entry.
func (e *Engine) markFailed(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.log) > 0 {
		e.log[len(e.log)-1].Error = err.Error()
	}
}

// step calls the dispatch hooks and the handler of one state.
func (e *Engine) step(ctx context.Context, wf *Context, state *State) (condition any, err error) {
	wf.Step++
	wf.CurrentState = state.name

	stateCtx, span := startStateSpan(ctx, state.name, wf)
	e.logger.StateEntered(stateCtx, state.name)

	start := time.Now()

	defer func() {
		elapsed := time.Since(start)
		workflow := sanitizeWorkflow(e.name)

		stateVisitsTotal.WithLabelValues(workflow, state.name, outcomeOf(err)).Inc()
		stateDuration.WithLabelValues(workflow, state.name).Observe(elapsed.Seconds())
		span.SetAttributes(attribute.Int64("duration_ms", elapsed.Milliseconds()))
		finishSpan(span, err)
		e.logger.StateExited(stateCtx, state.name, condition, elapsed, err)
	}()

	return e.dispatch(stateCtx, wf, state.name)
}

func (e *Engine) dispatch(ctx context.Context, wf *Context, name string) (any, error) {
	if hook, ok := e.table.(BeforeDispatcher); ok {
		if err := hook.BeforeDispatch(ctx, name); err != nil {
			return nil, fmt.Errorf("before dispatch: %w", err)
		}
	}

	var condition any

	if handler, ok := e.table.HandlerFor(name); ok {
		var err error

		condition, err = handler(ctx, wf)
		if err != nil {
			return nil, err
		}
	}

	if hook, ok := e.table.(AfterDispatcher); ok {
		if err := hook.AfterDispatch(ctx, name); err != nil {
			return nil, fmt.Errorf("after dispatch: %w", err)
		}
	}

	return condition, nil
}

// redirect hands a failure to the exception handler and resolves where the
// run continues. Without an exception handler, or if the handler or the
// resolution fails, the error ends the run.
func (e *Engine) redirect(
	ctx context.Context,
	wf *Context,
	failed *State,
	cause error,
	enableLog bool,
) (*State, error) {
	handler, ok := e.table.HandlerFor(ExceptionState)
	if !ok || failed.name == ExceptionState {
		return nil, WrapStateError(failed.name, cause)
	}

	e.logger.ExceptionRedirected(ctx, failed.name, cause)
	exceptionsTotal.WithLabelValues(sanitizeWorkflow(e.name), failed.name).Inc()

	wf.Step++
	wf.cause = cause
	wf.CurrentState = ExceptionState

	stateCtx, span := startStateSpan(ctx, ExceptionState, wf)
	span.SetAttributes(attribute.String("failed_state", failed.name))

	condition, err := handler(stateCtx, wf)
	wf.cause = nil

	finishSpan(span, err)

	if err != nil {
		return nil, WrapStateError(ExceptionState, err)
	}

	if enableLog {
		e.record(LogEntry{Name: ExceptionState, Return: condition})
	}

	next, err := e.graph.ResolveNext(ExceptionState, condition)
	if err != nil {
		return nil, WrapStateError(ExceptionState, err)
	}

	e.logger.TransitionExecuted(ctx, ExceptionState, next.name, condition)
	transitionTotal.WithLabelValues(sanitizeWorkflow(e.name), ExceptionState, next.name).Inc()

	return next, nil
}

// Acceptance replays a captured log against the graph without calling any
// handler. With verbose set, every verified transition is written to the
// engine output.
func (e *Engine) Acceptance(ctx context.Context, log Log, verbose bool) (bool, error) {
	var out io.Writer
	if verbose {
		out = e.output
	}

	err := Verify(ctx, e.graph, log, VerifyOptions{
		Workflow: e.name,
		Output:   out,
	})
	if err != nil {
		return false, err
	}

	return true, nil
}
