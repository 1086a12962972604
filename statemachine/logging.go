package statemachine

import (
	"context"
	"log/slog"
	"time"
)

// Logger provides logging hooks for workflow execution.
type Logger interface {
	RunStarted(ctx context.Context, workflow string, args map[string]any)
	StateEntered(ctx context.Context, state string)
	StateExited(ctx context.Context, state string, condition any, duration time.Duration, err error)
	TransitionExecuted(ctx context.Context, from, to string, condition any)
	ExceptionRedirected(ctx context.Context, state string, err error)
	RunCompleted(ctx context.Context, workflow string, steps int, duration time.Duration, err error)
}

// ObservabilityLabels contains contextual labels for observability.
type ObservabilityLabels struct {
	WorkflowName string
	RunID        string
	CurrentState string
	Step         int
}

// GetObservabilityLabels extracts observability labels from the context.
// Returns an empty ObservabilityLabels struct if no run is in progress.
func GetObservabilityLabels(ctx context.Context) ObservabilityLabels {
	wf, ok := ctx.Value(workflowContextKey).(*Context)
	if !ok || wf == nil {
		return ObservabilityLabels{}
	}

	return ObservabilityLabels{
		WorkflowName: wf.WorkflowName,
		RunID:        wf.RunID,
		CurrentState: wf.CurrentState,
		Step:         wf.Step,
	}
}

// DefaultLogger implements Logger using slog.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a logger writing to slog.Default().
func NewDefaultLogger() *DefaultLogger {
	return NewSlogLogger(slog.Default())
}

// NewSlogLogger creates a logger writing to the given slog logger.
func NewSlogLogger(logger *slog.Logger) *DefaultLogger {
	if logger == nil {
		logger = slog.Default()
	}

	return &DefaultLogger{
		logger: logger,
	}
}

func runFields(ctx context.Context, fields ...any) []any {
	labels := GetObservabilityLabels(ctx)
	if labels.RunID == "" {
		return fields
	}

	return append(fields,
		"workflow", labels.WorkflowName,
		"run_id", labels.RunID,
		"step", labels.Step,
	)
}

func (l *DefaultLogger) RunStarted(ctx context.Context, workflow string, args map[string]any) {
	argKeys := make([]string, 0, len(args))
	for k := range args {
		argKeys = append(argKeys, k)
	}

	l.logger.InfoContext(ctx, "Workflow started", runFields(ctx,
		"workflow_name", workflow,
		"arg_keys", argKeys,
	)...)
}

func (l *DefaultLogger) StateEntered(ctx context.Context, state string) {
	l.logger.DebugContext(ctx, "State entered", runFields(ctx, "state", state)...)
}

func (l *DefaultLogger) StateExited(
	ctx context.Context,
	state string,
	condition any,
	duration time.Duration,
	err error,
) {
	fields := runFields(ctx,
		"state", state,
		"duration_ms", duration.Milliseconds(),
	)

	if err != nil {
		l.logger.ErrorContext(ctx, "State exited with error", append(fields, "error", err)...)
	} else {
		l.logger.InfoContext(ctx, "State exited", append(fields, "return", FormatCondition(condition))...)
	}
}

func (l *DefaultLogger) TransitionExecuted(ctx context.Context, from, to string, condition any) {
	l.logger.InfoContext(ctx, "Transition executed", runFields(ctx,
		"from", from,
		"to", to,
		"condition", FormatCondition(condition),
	)...)
}

func (l *DefaultLogger) ExceptionRedirected(ctx context.Context, state string, err error) {
	l.logger.WarnContext(ctx, "Redirecting to exception handler", runFields(ctx,
		"state", state,
		"error", err,
	)...)
}

func (l *DefaultLogger) RunCompleted(
	ctx context.Context,
	workflow string,
	steps int,
	duration time.Duration,
	err error,
) {
	fields := runFields(ctx,
		"workflow_name", workflow,
		"steps", steps,
		"duration_ms", duration.Milliseconds(),
	)

	if err != nil {
		l.logger.ErrorContext(ctx, "Workflow failed", append(fields, "error", err)...)
	} else {
		l.logger.InfoContext(ctx, "Workflow completed", fields...)
	}
}

// NopLogger discards every event.
type NopLogger struct{}

func (NopLogger) RunStarted(context.Context, string, map[string]any) {}
func (NopLogger) StateEntered(context.Context, string) {}
func (NopLogger) StateExited(context.Context, string, any, time.Duration, error) {}
func (NopLogger) TransitionExecuted(context.Context, string, string, any) {}
func (NopLogger) ExceptionRedirected(context.Context, string, error) {}
func (NopLogger) RunCompleted(context.Context, string, int, time.Duration, error) {}
