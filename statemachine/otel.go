package statemachine

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "statemachine"

// startRunSpan creates the root span of a workflow run.
// Uses the global tracer initialized by github.com/amp-labs/flowfsm/telemetry.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startRunSpan(ctx context.Context, wf *Context) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "statemachine.run")
	addContextAttributes(span, wf)
	logSpanDebug(ctx, "started", "statemachine.run", span)

	return ctx, span
}

// startStateSpan creates a child span for one handler call.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startStateSpan(ctx context.Context, stateName string, wf *Context) (context.Context, trace.Span) {
	spanName := "state." + stateName
	ctx, span := otel.Tracer(tracerName).Start(ctx, spanName)
	addContextAttributes(span, wf)
	span.SetAttributes(
		attribute.String("state", stateName),
		attribute.Int("step", wf.Step),
	)
	logSpanDebug(ctx, "started", spanName, span)

	return ctx, span
}

// startAcceptanceSpan creates the span of a log verification.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startAcceptanceSpan(ctx context.Context, workflow string, entries int) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "statemachine.acceptance")
	span.SetAttributes(
		attribute.String("workflow", workflow),
		attribute.Int("log_entries", entries),
	)
	logSpanDebug(ctx, "started", "statemachine.acceptance", span)

	return ctx, span
}

// addContextAttributes adds run metadata to span.
func addContextAttributes(span trace.Span, wf *Context) {
	span.SetAttributes(
		attribute.String("workflow", wf.WorkflowName),
		attribute.String("run_id", wf.RunID),
	)
}

// finishSpan records the outcome of a span and ends it.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "completed")
	}

	span.End()
}

// logSpanDebug logs span creation when FLOWFSM_DEBUG is set.
func logSpanDebug(ctx context.Context, phase string, spanName string, span trace.Span) {
	if !isDebugMode() {
		return
	}

	spanCtx := span.SpanContext()
	slog.InfoContext(ctx, "OTEL Span "+phase,
		"span_name", spanName,
		"trace_id", spanCtx.TraceID().String(),
		"span_id", spanCtx.SpanID().String(),
	)
}

// isDebugMode checks if FLOWFSM_DEBUG mode is enabled.
func isDebugMode() bool {
	return strings.EqualFold(os.Getenv("FLOWFSM_DEBUG"), "1") ||
		strings.EqualFold(os.Getenv("FLOWFSM_DEBUG"), "true")
}
