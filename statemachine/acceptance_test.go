package statemachine

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func branchHandlers(answer bool) Handlers {
	return Handlers{
		"A":      Returning(answer),
		"B":      Noop,
		"C":      Noop,
		"finish": Noop,
	}
}

func TestAcceptanceRoundTrip(t *testing.T) {
	t.Parallel()

	for _, answer := range []bool{true, false} {
		graph := mustGraph(t, branchDecls(true)...)
		engine := mustEngine(t, graph, branchHandlers(answer))

		log, err := engine.Run(t.Context(), nil, true)
		require.NoError(t, err)

		ok, err := engine.Acceptance(t.Context(), log, false)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestAcceptanceDetectsEditedCondition(t *testing.T) {
	t.Parallel()

	graph := mustGraph(t, branchDecls(true)...)
	engine := mustEngine(t, graph, branchHandlers(true))

	log, err := engine.Run(t.Context(), nil, true)
	require.NoError(t, err)
	require.Equal(t, []string{"start", "A", "C", "finish"}, log.Names())

	// The edge into C now fires on false instead of true.
	edited := mustGraph(t,
		NewStateDeclaration("start", RoleInitial, nil, nil),
		NewStateDeclaration("A", RoleNormal, []TransitionDeclaration{From("start")}, []string{"B", "C"}),
		NewStateDeclaration("C", RoleNormal, []TransitionDeclaration{When("A", false)}, []string{"finish"}),
		NewStateDeclaration("B", RoleNormal, []TransitionDeclaration{From("A")}, []string{"finish"}),
		NewStateDeclaration("finish", RoleFinal, []TransitionDeclaration{From("B"), From("C")}, []string{}),
	)
	editedEngine := mustEngine(t, edited, branchHandlers(true))

	ok, err := editedEngine.Acceptance(t.Context(), log, false)
	require.ErrorIs(t, err, ErrAcceptanceMismatch)
	assert.False(t, ok)

	var mismatch *AcceptanceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Index)
	assert.Equal(t, "A", mismatch.From)
	assert.Equal(t, "C", mismatch.Expected)
	assert.Equal(t, "B", mismatch.Actual)
	assert.Equal(t, true, mismatch.Condition)
	assert.Equal(t,
		"invalid transition. Last transition: δ: (C × Z[1] → Z[2]) = [true] x [A] → [C]. Given: B",
		err.Error())
}

func TestVerify(t *testing.T) {
	t.Parallel()

	graph := mustGraph(t, exceptionDecls()...)

	tests := []struct {
		name    string
		log     Log
		wantErr error
		index   int
	}{
		{
			name:    "empty log",
			log:     nil,
			wantErr: ErrInsufficientLog,
		},
		{
			name:    "single entry",
			log:     Log{{Name: "start"}},
			wantErr: ErrInsufficientLog,
		},
		{
			name: "valid path",
			log:  Log{{Name: "start"}, {Name: "risky"}, {Name: "finish"}},
		},
		{
			name: "valid redirect",
			log: Log{
				{Name: "start"},
				{Name: "risky", Error: "boom"},
				{Name: ExceptionState, Return: "recover"},
				{Name: "recover"},
				{Name: "finish"},
			},
		},
		{
			name:    "error not followed by exception",
			log:     Log{{Name: "start"}, {Name: "risky", Error: "boom"}, {Name: "finish"}},
			wantErr: ErrAcceptanceMismatch,
			index:   1,
		},
		{
			name:    "wrong target",
			log:     Log{{Name: "start"}, {Name: "recover"}},
			wantErr: ErrAcceptanceMismatch,
			index:   0,
		},
		{
			name:    "no transition for condition",
			log: Log{
				{Name: "start"},
				{Name: "risky", Error: "boom"},
				{Name: ExceptionState, Return: "retry"},
				{Name: "recover"},
			},
			wantErr: ErrTransitionNotFound,
			index:   2,
		},
		{
			name:    "unknown state",
			log:     Log{{Name: "ghost"}, {Name: "finish"}},
			wantErr: ErrAcceptanceMismatch,
			index:   0,
		},
		{
			name: "entries after a final state are not resolved",
			log:  Log{{Name: "start"}, {Name: "risky"}, {Name: "finish"}, {Name: "start"}, {Name: "risky"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Verify(t.Context(), graph, tt.log, VerifyOptions{Workflow: "verify"})
			if tt.wantErr == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.wantErr)

			var mismatch *AcceptanceMismatchError
			if tt.wantErr != ErrInsufficientLog { //nolint:errorlint // Comparing sentinels
				require.ErrorAs(t, err, &mismatch)
				assert.Equal(t, tt.index, mismatch.Index)
			}
		})
	}
}

func TestVerifyCancelled(t *testing.T) {
	t.Parallel()

	graph := mustGraph(t, linearDecls()...)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := Verify(ctx, graph, Log{{Name: "start"}, {Name: "second"}}, VerifyOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestVerifyWritesTransitions(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	graph := mustGraph(t, loopDecls(2)...)
	log := Log{
		{Name: "start"},
		{Name: "prepare"},
		{Name: "process", Return: 1},
		{Name: "process", Return: 2},
		{Name: "finish"},
	}

	require.NoError(t, Verify(t.Context(), graph, log, VerifyOptions{Output: &out}))
	assert.Equal(t,
		"δ: (C × Z[0] → Z[1]) = [NULL] x [start] → [prepare]\n"+
			"δ: (C × Z[1] → Z[3]) = [NULL] x [prepare] → [process]\n"+
			"δ: (C × Z[3] → Z[3]) = [1] x [process] → [process]\n"+
			"δ: (C × Z[3] → Z[2]) = [2] x [process] → [finish]\n",
		out.String())
}
