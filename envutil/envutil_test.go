package envutil

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRequired = errors.New("required")

//nolint:paralleltest // Tests modify the environment
func TestString(t *testing.T) {
	t.Setenv("FLOWFSM_TEST_RENDERER", "neato")

	val, err := String("FLOWFSM_TEST_RENDERER", Default("dot")).Value()
	require.NoError(t, err)
	assert.Equal(t, "neato", val)

	val, err = String("FLOWFSM_TEST_UNSET", Default("dot")).Value()
	require.NoError(t, err)
	assert.Equal(t, "dot", val)

	_, err = String("FLOWFSM_TEST_UNSET").Value()
	require.ErrorIs(t, err, ErrEnvVarMissing)

	_, err = String("FLOWFSM_TEST_UNSET", IfMissing[string](errRequired)).Value()
	require.ErrorIs(t, err, errRequired)

	t.Setenv("FLOWFSM_TEST_EMPTY", "")
	assert.False(t, String("FLOWFSM_TEST_EMPTY").HasValue())
}

//nolint:paralleltest // Tests modify the environment
func TestTypedReaders(t *testing.T) {
	t.Setenv("FLOWFSM_TEST_BOOL", "true")
	t.Setenv("FLOWFSM_TEST_INT", " 42 ")
	t.Setenv("FLOWFSM_TEST_DURATION", "1m30s")
	t.Setenv("FLOWFSM_TEST_LEVEL", "WARN")

	b, err := Bool("FLOWFSM_TEST_BOOL").Value()
	require.NoError(t, err)
	assert.True(t, b)

	i, err := Int("FLOWFSM_TEST_INT", Validate(Positive)).Value()
	require.NoError(t, err)
	assert.Equal(t, 42, i)

	d, err := Duration("FLOWFSM_TEST_DURATION").Value()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	level, err := SlogLevel("FLOWFSM_TEST_LEVEL", Default(slog.LevelInfo)).Value()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

//nolint:paralleltest // Tests modify the environment
func TestReaderErrors(t *testing.T) {
	t.Setenv("FLOWFSM_TEST_BOOL", "maybe")
	t.Setenv("FLOWFSM_TEST_INT", "-1")
	t.Setenv("FLOWFSM_TEST_LEVEL", "loud")

	rdr := Bool("FLOWFSM_TEST_BOOL", Default(true))
	assert.True(t, rdr.HasError())

	_, err := rdr.Value()
	require.ErrorIs(t, err, ErrBadEnvVar)
	assert.False(t, rdr.ValueOrElse(false))

	_, err = Int("FLOWFSM_TEST_INT", Validate(Positive)).Value()
	require.ErrorIs(t, err, ErrBadEnvVar)

	n, err := Int("FLOWFSM_TEST_INT", Validate(NonNegative)).Value()
	require.Error(t, err)
	assert.Equal(t, -1, n)

	_, err = SlogLevel("FLOWFSM_TEST_LEVEL").Value()
	require.ErrorIs(t, err, ErrInvalidLevel)
}

func TestMapUnset(t *testing.T) {
	t.Parallel()

	rdr := Map(Reader[string]{key: "K", present: true, value: "none"}, func(v string) (int, error) {
		if v == "none" {
			return 0, errUnsetValue
		}

		return len(v), nil
	})

	assert.False(t, rdr.HasValue())
	assert.Equal(t, "K=<not set>", rdr.String())
	assert.Equal(t, 7, rdr.ValueOrElse(7))
}

func TestReaderString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "K=3", Reader[int]{key: "K", present: true, value: 3}.String())
	assert.Equal(t, "K=<error: required>", Reader[int]{key: "K", err: errRequired}.String())
	assert.Equal(t, "K", Reader[int]{key: "K"}.Key())
}
