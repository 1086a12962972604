package statemachine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGraph(t *testing.T, decls ...StateDeclaration) *Graph {
	t.Helper()

	graph, err := NewGraph(decls)
	require.NoError(t, err)

	return graph
}

func linearDecls() []StateDeclaration {
	return []StateDeclaration{
		NewStateDeclaration("start", RoleInitial, nil, nil),
		NewStateDeclaration("second", RoleNormal, []TransitionDeclaration{From("start")}, []string{"finish"}),
		NewStateDeclaration("finish", RoleFinal, []TransitionDeclaration{From("second")}, []string{}),
	}
}

// branchDecls declares A with an unconditional edge to B and an edge to C when
// A returns true. conditionalFirst controls which of B and C is declared first.
func branchDecls(conditionalFirst bool) []StateDeclaration {
	b := NewStateDeclaration("B", RoleNormal, []TransitionDeclaration{From("A")}, []string{"finish"})
	c := NewStateDeclaration("C", RoleNormal, []TransitionDeclaration{When("A", true)}, []string{"finish"})

	decls := []StateDeclaration{
		NewStateDeclaration("start", RoleInitial, nil, nil),
		NewStateDeclaration("A", RoleNormal, []TransitionDeclaration{From("start")}, []string{"B", "C"}),
	}

	if conditionalFirst {
		decls = append(decls, c, b)
	} else {
		decls = append(decls, b, c)
	}

	return append(decls,
		NewStateDeclaration("finish", RoleFinal, []TransitionDeclaration{From("B"), From("C")}, []string{}),
	)
}

func TestNewGraph(t *testing.T) {
	t.Parallel()

	graph := mustGraph(t, linearDecls()...)

	assert.Equal(t, 3, graph.Len())
	assert.True(t, graph.Has("second"))
	assert.False(t, graph.Has("missing"))
	assert.Equal(t, 1, graph.Index("second"))
	assert.Equal(t, -1, graph.Index("missing"))

	initial, err := graph.Initial()
	require.NoError(t, err)
	assert.Equal(t, "start", initial.Name())
	assert.True(t, initial.IsInitial())

	finish, err := graph.State("finish")
	require.NoError(t, err)
	assert.True(t, finish.IsFinal())
	assert.Equal(t, RoleFinal, finish.Role())

	_, err = graph.State("missing")
	require.ErrorIs(t, err, ErrStateNotFound)

	second, err := graph.State("second")
	require.NoError(t, err)
	assert.Equal(t, []string{"finish"}, second.TransitionsTo())
	require.Len(t, second.Transitions(), 1)
	assert.Equal(t, "start", second.Transitions()[0].Source())
	assert.Equal(t, "second", second.Transitions()[0].Target())
	assert.False(t, second.Transitions()[0].HasCondition())
}

func TestNewGraphValidation(t *testing.T) {
	t.Parallel()

	start := NewStateDeclaration("start", RoleInitial, nil, nil)
	finish := NewStateDeclaration("finish", RoleFinal, []TransitionDeclaration{From("start")}, []string{})

	tests := []struct {
		name   string
		decls  []StateDeclaration
		state  string
		reason string
	}{
		{
			name:   "missing name",
			decls:  []StateDeclaration{start, {Role: RoleNormal}, finish},
			reason: "key name missing",
		},
		{
			name:   "missing role",
			decls:  []StateDeclaration{start, {Name: "x"}, finish},
			state:  "x",
			reason: "key type missing",
		},
		{
			name:   "unknown role",
			decls:  []StateDeclaration{start, {Name: "x", Role: "middle"}, finish},
			state:  "x",
			reason: `the type specified is invalid: "middle"`,
		},
		{
			name: "missing transitions_from",
			decls: []StateDeclaration{
				start,
				StateDeclaration{Name: "x", Role: RoleNormal}.WithTransitionsTo([]any{"finish"}),
				finish,
			},
			state:  "x",
			reason: "key transitions_from missing",
		},
		{
			name: "missing transitions_to",
			decls: []StateDeclaration{
				start,
				StateDeclaration{Name: "x", Role: RoleNormal}.WithTransitionsFrom([]any{"start"}),
				finish,
			},
			state:  "x",
			reason: "key transitions_to missing",
		},
		{
			name: "transitions_from is not a list",
			decls: []StateDeclaration{
				start,
				StateDeclaration{Name: "x", Role: RoleNormal}.WithTransitionsFrom("start").WithTransitionsTo([]any{}),
				finish,
			},
			state:  "x",
			reason: "key transitions_from is not a list",
		},
		{
			name: "transitions_to is not a list",
			decls: []StateDeclaration{
				start,
				StateDeclaration{Name: "x", Role: RoleNormal}.WithTransitionsFrom([]any{}).WithTransitionsTo("invalid"),
				finish,
			},
			state:  "x",
			reason: "key transitions_to is not a list",
		},
		{
			name: "empty transitions",
			decls: []StateDeclaration{
				start,
				StateDeclaration{Name: "x", Role: RoleNormal}.WithTransitionsFrom([]any{}).WithTransitionsTo([]any{}),
				finish,
			},
			state:  "x",
			reason: "no transitions available",
		},
		{
			name: "empty source name",
			decls: []StateDeclaration{
				start,
				StateDeclaration{Name: "x", Role: RoleNormal}.WithTransitionsFrom([]any{"start", ""}).WithTransitionsTo([]any{}),
				finish,
			},
			state:  "x",
			reason: "transition source missing",
		},
		{
			name: "empty status in conditional entry",
			decls: []StateDeclaration{
				start,
				StateDeclaration{Name: "x", Role: RoleNormal}.
					WithTransitionsFrom([]any{map[string]any{"status": "", "result": true}}).
					WithTransitionsTo([]any{}),
				finish,
			},
			state:  "x",
			reason: "transition source missing",
		},
		{
			name: "unknown source",
			decls: []StateDeclaration{
				start,
				NewStateDeclaration("x", RoleNormal, []TransitionDeclaration{From("nowhere")}, []string{}),
				finish,
			},
			state:  "x",
			reason: `transition source "nowhere" is not a declared state`,
		},
		{
			name: "malformed entry",
			decls: []StateDeclaration{
				start,
				StateDeclaration{Name: "x", Role: RoleNormal}.WithTransitionsFrom([]any{42}).WithTransitionsTo([]any{}),
				finish,
			},
			state:  "x",
			reason: "invalid transition entry: 42 (int)",
		},
		{
			name:   "duplicate name",
			decls:  []StateDeclaration{start, finish, finish},
			state:  "finish",
			reason: "duplicate state name",
		},
		{
			name: "two initial states",
			decls: []StateDeclaration{
				start,
				NewStateDeclaration("other", RoleInitial, nil, nil),
				finish,
			},
			state:  "other",
			reason: "more than one initial state (already have start)",
		},
		{
			name:   "no final state",
			decls:  []StateDeclaration{start},
			reason: "at least one final state is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewGraph(tt.decls)
			require.ErrorIs(t, err, ErrInvalidState)

			var stateErr *InvalidStateError
			require.ErrorAs(t, err, &stateErr)
			assert.Equal(t, tt.state, stateErr.State)
			assert.Equal(t, tt.reason, stateErr.Reason)
		})
	}
}

func TestNewGraphAcceptsEmptyTransitionsTo(t *testing.T) {
	t.Parallel()

	graph := mustGraph(t,
		NewStateDeclaration("start", RoleInitial, nil, nil),
		StateDeclaration{Name: "mid", Role: RoleNormal}.WithTransitionsFrom([]any{"start"}).WithTransitionsTo([]any{}),
		StateDeclaration{Name: "finish", Role: RoleFinal}.WithTransitionsFrom([]any{"mid"}).WithTransitionsTo([]any{}),
	)

	mid, err := graph.State("mid")
	require.NoError(t, err)
	assert.Empty(t, mid.TransitionsTo())

	next, err := graph.ResolveNext("mid", nil)
	require.NoError(t, err)
	assert.Equal(t, "finish", next.Name())
}

func TestNewGraphWithoutInitialState(t *testing.T) {
	t.Parallel()

	graph, err := NewGraph([]StateDeclaration{
		NewStateDeclaration("loop", RoleNormal, []TransitionDeclaration{From("loop")}, []string{"finish"}),
		NewStateDeclaration("finish", RoleFinal, []TransitionDeclaration{From("loop")}, []string{}),
	})
	require.NoError(t, err)

	_, err = graph.Initial()
	require.ErrorIs(t, err, ErrNoInitialState)
}

func TestExceptionRoleIgnoresTransitions(t *testing.T) {
	t.Parallel()

	graph := mustGraph(t,
		NewStateDeclaration("start", RoleInitial, nil, nil),
		StateDeclaration{Name: ExceptionState, Role: RoleException}.WithTransitionsFrom("ignored"),
		NewStateDeclaration("finish", RoleFinal, []TransitionDeclaration{From("start"), From(ExceptionState)}, []string{}),
	)

	state, err := graph.State(ExceptionState)
	require.NoError(t, err)
	assert.Empty(t, state.Transitions())

	next, err := graph.ResolveNext(ExceptionState, nil)
	require.NoError(t, err)
	assert.Equal(t, "finish", next.Name())
}

func TestResolveNextOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		conditionalFirst bool
		condition        any
		expected         string
	}{
		{"conditional declared first matches true", true, true, "C"},
		{"conditional declared first falls through on false", true, false, "B"},
		{"conditional declared first falls through on nil", true, nil, "B"},
		{"unconditional declared first wins on true", false, true, "B"},
		{"unconditional declared first wins on false", false, false, "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			graph := mustGraph(t, branchDecls(tt.conditionalFirst)...)

			next, err := graph.ResolveNext("A", tt.condition)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, next.Name())
		})
	}
}

func TestResolveNextIsDeterministic(t *testing.T) {
	t.Parallel()

	graph := mustGraph(t, branchDecls(true)...)

	first, err := graph.ResolveNext("A", true)
	require.NoError(t, err)

	for range 100 {
		next, err := graph.ResolveNext("A", true)
		require.NoError(t, err)
		assert.Same(t, first, next)
	}
}

func TestResolveNextNotFound(t *testing.T) {
	t.Parallel()

	graph := mustGraph(t,
		NewStateDeclaration("start", RoleInitial, nil, nil),
		NewStateDeclaration("finish", RoleFinal, []TransitionDeclaration{When("start", "done")}, []string{}),
	)

	_, err := graph.ResolveNext("start", "pending")
	require.ErrorIs(t, err, ErrTransitionNotFound)

	var notFound *NoTransitionFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "start", notFound.State)
	assert.Equal(t, "pending", notFound.Condition)
	assert.Contains(t, err.Error(), "return value [pending] x state_source [start] → state_target [MISSING]")

	_, err = graph.ResolveNext("finish", nil)
	require.ErrorIs(t, err, ErrTransitionNotFound)
}

func TestEdges(t *testing.T) {
	t.Parallel()

	graph := mustGraph(t,
		NewStateDeclaration("start", RoleInitial, nil, nil),
		NewStateDeclaration("check", RoleNormal, []TransitionDeclaration{From("start")}, []string{"yes", "no"}),
		NewStateDeclaration("yes", RoleNormal, []TransitionDeclaration{When("check", true)}, []string{"finish"}),
		NewStateDeclaration("no", RoleNormal, []TransitionDeclaration{When("check", false)}, []string{"finish"}),
		NewStateDeclaration("finish", RoleFinal, []TransitionDeclaration{
			When("yes", "ok"), When("no", 3), When("no", nil),
		}, []string{}),
	)

	assert.Equal(t, []Edge{
		{From: "start", To: "check", Label: "check"},
		{From: "check", To: "yes", Label: "IF TRUE THEN yes", Conditional: true, Condition: true},
		{From: "check", To: "no", Label: "IF FALSE THEN no", Conditional: true, Condition: false},
		{From: "yes", To: "finish", Label: "IF ok THEN finish", Conditional: true, Condition: "ok"},
		{From: "no", To: "finish", Label: "IF 3 THEN finish", Conditional: true, Condition: 3},
		{From: "no", To: "finish", Label: "IF NULL THEN finish", Conditional: true, Condition: nil},
	}, graph.Edges())
}

func TestAmbiguities(t *testing.T) {
	t.Parallel()

	decls := []StateDeclaration{
		NewStateDeclaration("start", RoleInitial, nil, nil),
		NewStateDeclaration("B", RoleNormal, []TransitionDeclaration{From("start")}, []string{"finish"}),
		NewStateDeclaration("C", RoleNormal, []TransitionDeclaration{From("start"), When("B", 1)}, []string{"finish"}),
		NewStateDeclaration("finish", RoleFinal, []TransitionDeclaration{When("B", int64(1)), From("C")}, []string{}),
	}

	graph, err := NewGraph(decls)
	require.NoError(t, err)

	amb := graph.Ambiguities()
	require.Len(t, amb, 2)
	assert.Equal(t, "start", amb[0].Source)
	assert.Equal(t, "B", amb[0].First)
	assert.Equal(t, "C", amb[0].Second)
	assert.Equal(t, "any condition", amb[0].Condition)
	assert.Equal(t, "B", amb[1].Source)
	assert.Equal(t, "1", amb[1].Condition)

	_, err = NewGraph(decls, WithStrictTransitions())
	require.ErrorIs(t, err, ErrAmbiguousTransition)

	var ambErr *AmbiguousTransitionError
	require.True(t, errors.As(err, &ambErr))
	assert.Equal(t, "start", ambErr.Source)
}

func TestStrictAllowsConditionalBesideUnconditional(t *testing.T) {
	t.Parallel()

	_, err := NewGraph(branchDecls(true), WithStrictTransitions())
	require.NoError(t, err)
}

func TestConditionsEqual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		declared any
		actual   any
		expected bool
	}{
		{"nil and nil", nil, nil, true},
		{"nil and false", nil, false, false},
		{"false and nil", false, nil, false},
		{"true and true", true, true, true},
		{"true and 1", true, 1, false},
		{"1 and true", 1, true, false},
		{"string and string", "done", "done", true},
		{"string and other string", "done", "Done", false},
		{"string and int", "1", 1, false},
		{"int and int64", 3, int64(3), true},
		{"int and uint8", 3, uint8(3), true},
		{"negative int and uint", -1, uint(1), false},
		{"int and float", 3, 3.0, true},
		{"float and float32", 0.5, float32(0.5), true},
		{"int and different int", 3, 4, false},
		{"slices never equal", []int{1}, []int{1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, ConditionsEqual(tt.declared, tt.actual))
		})
	}
}

func TestFormatCondition(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "TRUE", FormatCondition(true))
	assert.Equal(t, "FALSE", FormatCondition(false))
	assert.Equal(t, "NULL", FormatCondition(nil))
	assert.Equal(t, "42", FormatCondition(42))
	assert.Equal(t, "has_more", FormatCondition("has_more"))
}

func TestParseTransitionEntry(t *testing.T) {
	t.Parallel()

	entry, err := parseTransitionEntry(map[string]any{"status": "check", "result": false})
	require.NoError(t, err)
	assert.Equal(t, When("check", false), entry)

	entry, err = parseTransitionEntry(map[any]any{"status": "check", "result": "x"})
	require.NoError(t, err)
	assert.Equal(t, When("check", "x"), entry)

	entry, err = parseTransitionEntry("start")
	require.NoError(t, err)
	assert.Equal(t, From("start"), entry)

	_, err = parseTransitionEntry(map[string]any{"result": true})
	require.ErrorIs(t, err, ErrInvalidTransitionEntry)
}
