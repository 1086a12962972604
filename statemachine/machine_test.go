package statemachine

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoopMachine(t *testing.T, opts ...MachineOption) *Machine {
	t.Helper()

	config, err := LoadConfigFromBytes([]byte(loopYAML))
	require.NoError(t, err)

	factory := NewImplementationFactory()
	factory.Register("simple_loop", loopImplementation)

	machine, err := NewMachineFromConfig(config, factory, opts...)
	require.NoError(t, err)

	return machine
}

func TestMachineRunAndAccept(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	machine := newLoopMachine(t, WithEngineOptions(WithOutput(&out)))
	assert.Equal(t, "simple_loop", machine.Config().Class.Name)
	assert.Equal(t, "simple_loop", machine.Engine().Name())
	assert.Equal(t, 4, machine.Graph().Len())

	log, err := machine.Run(t.Context(), nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "prepare", "process", "process", "process", "finish"}, log.Names())

	ok, err := machine.Acceptance(t.Context(), log, true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, bytes.Count(out.Bytes(), []byte("\n")))
}

func TestMachineLogFiles(t *testing.T) {
	t.Parallel()

	machine := newLoopMachine(t)

	log, err := machine.Run(t.Context(), nil, true)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "run.json.zst")
	require.NoError(t, machine.SaveLog(path, log))

	ok, stale, err := machine.AcceptFile(t.Context(), path, false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, stale)

	// A log recorded against another graph still replays but is reported stale.
	other := newLoopMachine(t, WithGraphOptions())
	doc, err := LoadLog(path)
	require.NoError(t, err)

	doc.Fingerprint = "0000000000000000"
	stalePath := filepath.Join(t.TempDir(), "stale.yaml")
	require.NoError(t, SaveLog(stalePath, doc))

	ok, stale, err = other.AcceptFile(t.Context(), stalePath, false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, stale)
}

func TestNewMachineErrors(t *testing.T) {
	t.Parallel()

	config, err := LoadConfigFromBytes([]byte(loopYAML))
	require.NoError(t, err)

	_, err = NewMachineFromConfig(config, nil)
	require.ErrorIs(t, err, ErrUnknownImplementation)

	factory := NewImplementationFactory()
	factory.Register("simple_loop", func(map[string]any) (HandlerTable, error) {
		return Handlers{"finish": Noop}, nil
	})

	_, err = NewMachineFromConfig(config, factory)
	require.ErrorIs(t, err, ErrMissingHandlers)

	_, err = NewMachine(filepath.Join(t.TempDir(), "missing.yaml"), factory)
	require.Error(t, err)

	_, err = NewMachineFromConfig(&Config{}, factory)
	require.ErrorIs(t, err, ErrConfigStatesRequired)
}
