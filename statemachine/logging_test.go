package statemachine

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any

	for line := range bytes.Lines(buf.Bytes()) {
		var record map[string]any
		require.NoError(t, json.Unmarshal(line, &record))

		records = append(records, record)
	}

	return records
}

func TestDefaultLoggerRecordsRun(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	graph := mustGraph(t, exceptionDecls()...)
	engine := mustEngine(t, graph, Handlers{
		"risky":        func(context.Context, *Context) (any, error) { return nil, errRisky },
		ExceptionState: Returning("recover"),
		"recover":      Noop,
		"finish":       Noop,
	}, WithWorkflowName("logged"), WithLogger(logger))

	_, err := engine.Run(t.Context(), map[string]any{"user": "ada"}, false)
	require.NoError(t, err)

	records := decodeRecords(t, &buf)
	require.NotEmpty(t, records)

	messages := make([]string, 0, len(records))
	for _, record := range records {
		messages = append(messages, record["msg"].(string)) //nolint:forcetypeassert

		assert.Equal(t, engine.RunID(), record["run_id"])
		assert.Equal(t, "logged", record["workflow"])
	}

	assert.Equal(t, "Workflow started", messages[0])
	assert.Equal(t, "Workflow completed", messages[len(messages)-1])
	assert.Contains(t, messages, "State exited with error")
	assert.Contains(t, messages, "Redirecting to exception handler")

	for _, record := range records {
		if record["msg"] == "Transition executed" && record["from"] == ExceptionState {
			assert.Equal(t, "recover", record["to"])
			assert.Equal(t, "recover", record["condition"])
		}
	}
}

func TestDefaultLoggerRecordsFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	graph := mustGraph(t, linearDecls()...)
	engine := mustEngine(t, graph, Handlers{
		"second": func(context.Context, *Context) (any, error) { return nil, errRisky },
		"finish": Noop,
	}, WithLogger(logger))

	_, err := engine.Run(t.Context(), nil, false)
	require.ErrorIs(t, err, errRisky)

	records := decodeRecords(t, &buf)
	last := records[len(records)-1]
	assert.Equal(t, "Workflow failed", last["msg"])
	assert.Equal(t, "ERROR", last["level"])
	assert.Contains(t, last["error"], "risky business")
}

func TestGetObservabilityLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ObservabilityLabels{}, GetObservabilityLabels(t.Context()))

	var labels ObservabilityLabels

	graph := mustGraph(t, linearDecls()...)
	engine := mustEngine(t, graph, Handlers{
		"second": func(ctx context.Context, _ *Context) (any, error) {
			labels = GetObservabilityLabels(ctx)

			return nil, nil //nolint:nilnil
		},
		"finish": Noop,
	}, WithWorkflowName("labels"))

	_, err := engine.Run(t.Context(), nil, false)
	require.NoError(t, err)
	assert.Equal(t, ObservabilityLabels{
		WorkflowName: "labels",
		RunID:        engine.RunID(),
		CurrentState: "second",
		Step:         2,
	}, labels)
}

func TestContextArgs(t *testing.T) {
	t.Parallel()

	args := map[string]any{"name": "ada", "admin": true, "count": int64(3), "ratio": 0.5}
	wf := newRunContext("args", "run", args)
	args["name"] = "changed"

	name, ok := wf.GetString("name")
	assert.True(t, ok)
	assert.Equal(t, "ada", name)

	admin, ok := wf.GetBool("admin")
	assert.True(t, ok)
	assert.True(t, admin)

	count, ok := wf.GetInt("count")
	assert.True(t, ok)
	assert.Equal(t, 3, count)

	_, ok = wf.GetInt("ratio")
	assert.False(t, ok)

	_, ok = wf.GetString("missing")
	assert.False(t, ok)

	copied := wf.Args()
	copied["name"] = "other"
	name, _ = wf.GetString("name")
	assert.Equal(t, "ada", name)
	assert.NoError(t, wf.Cause())
}
