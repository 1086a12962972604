package visualizer

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/amp-labs/flowfsm/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGraph(t *testing.T) *statemachine.Graph {
	t.Helper()

	graph, err := statemachine.NewGraph([]statemachine.StateDeclaration{
		statemachine.NewStateDeclaration("start", statemachine.RoleInitial, nil, nil),
		statemachine.NewStateDeclaration("check", statemachine.RoleNormal,
			[]statemachine.TransitionDeclaration{statemachine.From("start")}, []string{"approve", "reject"}),
		statemachine.NewStateDeclaration("approve", statemachine.RoleNormal,
			[]statemachine.TransitionDeclaration{statemachine.When("check", true)}, []string{"finish"}),
		statemachine.NewStateDeclaration("reject", statemachine.RoleNormal,
			[]statemachine.TransitionDeclaration{
				statemachine.When("check", false),
				statemachine.When(statemachine.ExceptionState, "reject"),
			}, []string{"finish"}),
		statemachine.NewStateDeclaration(statemachine.ExceptionState, statemachine.RoleException, nil, nil),
		statemachine.NewStateDeclaration("finish", statemachine.RoleFinal,
			[]statemachine.TransitionDeclaration{statemachine.From("approve"), statemachine.From("reject")},
			[]string{}),
	})
	require.NoError(t, err)

	return graph
}

func TestGenerateMermaid(t *testing.T) {
	t.Parallel()

	result, err := GenerateMermaid(testGraph(t))
	require.NoError(t, err)

	for _, want := range []string{
		"```mermaid",
		"stateDiagram-v2",
		"direction LR",
		"[*] --> start",
		"start --> check\n",
		"check --> approve: TRUE",
		"check --> reject: FALSE",
		"exception --> reject: reject",
		"finish --> [*]",
		"class finish finalState",
		"class exception exceptionState",
	} {
		assert.Contains(t, result, want, "diagram should contain %q", want)
	}
}

func TestGenerateMermaidWithOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions().
		WithShowConditions(false).
		WithDirection("TB").
		WithHighlightPath([]string{"start", "check", "approve"})

	result, err := GenerateMermaidWithOptions(testGraph(t), opts)
	require.NoError(t, err)

	assert.Contains(t, result, "direction TD")
	assert.Contains(t, result, "check --> approve\n")
	assert.NotContains(t, result, ": TRUE")
	assert.Contains(t, result, "class approve highlighted")
	assert.NotContains(t, result, "class reject highlighted")
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	_, err := GenerateMermaid(nil)
	require.ErrorIs(t, err, ErrGraphNil)

	_, err = GenerateDOT(nil)
	require.ErrorIs(t, err, ErrGraphNil)

	noInitial, err := statemachine.NewGraph([]statemachine.StateDeclaration{
		statemachine.NewStateDeclaration("work", statemachine.RoleNormal,
			[]statemachine.TransitionDeclaration{statemachine.From("finish")}, []string{"finish"}),
		statemachine.NewStateDeclaration("finish", statemachine.RoleFinal,
			[]statemachine.TransitionDeclaration{statemachine.From("work")}, []string{}),
	})
	require.NoError(t, err)

	_, err = GenerateMermaid(noInitial)
	require.ErrorIs(t, err, statemachine.ErrNoInitialState)

	_, err = GenerateDOT(noInitial)
	require.ErrorIs(t, err, statemachine.ErrNoInitialState)
}

func TestGenerateDOT(t *testing.T) {
	t.Parallel()

	result, err := GenerateDOT(testGraph(t))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result, "digraph finite_state_machine {\n"))

	for _, want := range []string{
		"rankdir=LR;",
		`size="12"`,
		"node [shape = doublecircle]; start;",
		"node [shape = circle];",
		`start -> check [ label = "check" ];`,
		`check -> approve [ label = "IF TRUE THEN approve" ];`,
		`exception -> reject [ label = "IF reject THEN reject" ];`,
		`reject -> finish [ label = "finish" ];`,
	} {
		assert.Contains(t, result, want, "document should contain %q", want)
	}

	result, err = GenerateDOTWithOptions(testGraph(t), Options{
		Direction:     "TD",
		HighlightPath: []string{"check"},
	})
	require.NoError(t, err)
	assert.Contains(t, result, "rankdir=TB;")
	assert.Contains(t, result, `check -> approve [ label = "approve" ];`)
	assert.Contains(t, result, `check [style = filled, fillcolor = "#fff9c4"];`)
}

func TestQuoteID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "simple_loop", quoteID("simple_loop"))
	assert.Equal(t, "state2", quoteID("state2"))
	assert.Equal(t, `"2state"`, quoteID("2state"))
	assert.Equal(t, `"has space"`, quoteID("has space"))
	assert.Equal(t, `""`, quoteID(""))
	assert.Equal(t, "nodes", quoteID("nodes"))

	for _, keyword := range []string{"node", "edge", "graph", "digraph", "subgraph", "strict", "Node", "STRICT"} {
		assert.Equal(t, strconv.Quote(keyword), quoteID(keyword))
	}
}

func TestGenerateDOTQuotesKeywordStates(t *testing.T) {
	t.Parallel()

	graph, err := statemachine.NewGraph([]statemachine.StateDeclaration{
		statemachine.NewStateDeclaration("graph", statemachine.RoleInitial, nil, nil),
		statemachine.NewStateDeclaration("node", statemachine.RoleNormal,
			[]statemachine.TransitionDeclaration{statemachine.From("graph")}, []string{"edge"}),
		statemachine.NewStateDeclaration("edge", statemachine.RoleFinal,
			[]statemachine.TransitionDeclaration{statemachine.From("node")}, []string{}),
	})
	require.NoError(t, err)

	result, err := GenerateDOT(graph)
	require.NoError(t, err)
	assert.Contains(t, result, `node [shape = doublecircle]; "graph";`)
	assert.Contains(t, result, `"graph" -> "node" [ label = "node" ];`)
	assert.Contains(t, result, `"node" -> "edge" [ label = "edge" ];`)
}

func TestImageFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "png", ImageFormat("workflow.png"))
	assert.Equal(t, "svg", ImageFormat("out/workflow.SVG"))
	assert.Equal(t, "jpg", ImageFormat("workflow.jpeg"))
	assert.Equal(t, "png", ImageFormat("workflow"))
	assert.Equal(t, "png", ImageFormat("workflow.txt"))
}

func TestRenderRendererNotFound(t *testing.T) {
	t.Parallel()

	r := Renderer{Binary: "flowfsm-no-such-renderer"}

	err := r.Render(t.Context(), testGraph(t), filepath.Join(t.TempDir(), "out.png"))
	require.ErrorIs(t, err, ErrRendererNotFound)
}

// writeScript creates an executable shell script standing in for dot.
func writeScript(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	path := filepath.Join(t.TempDir(), "fake-dot")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o700)) //nolint:gosec

	return path
}

func TestRenderWithFakeRenderer(t *testing.T) {
	t.Parallel()

	// Arguments are -T<format> -o <path>; the document arrives on stdin.
	script := writeScript(t, `echo "$1" > "$3.format"; cat > "$3"`)
	out := filepath.Join(t.TempDir(), "nested", "graph.svg")

	r := Renderer{Binary: script, Options: DefaultOptions()}
	require.NoError(t, r.Render(t.Context(), testGraph(t), out))

	doc, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "digraph finite_state_machine")

	format, err := os.ReadFile(out + ".format")
	require.NoError(t, err)
	assert.Equal(t, "-Tsvg\n", string(format))
}

func TestRenderFailure(t *testing.T) {
	t.Parallel()

	script := writeScript(t, `echo "syntax error" >&2; exit 3`)

	r := Renderer{Binary: script}
	err := r.Render(t.Context(), testGraph(t), filepath.Join(t.TempDir(), "graph.png"))
	require.ErrorIs(t, err, ErrRenderFailed)
	assert.Contains(t, err.Error(), "status 3")
	assert.Contains(t, err.Error(), "syntax error")
}
