package visualizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// command is a thin exec.Cmd wrapper for the external renderer.
type command struct {
	cmd      *exec.Cmd
	finished []func()
}

func newCommand(ctx context.Context, name string, args ...string) *command {
	c := exec.CommandContext(ctx, name, args...)
	c.Env = os.Environ()

	return &command{
		cmd: c,
	}
}

func (c *command) SetStdinBytes(input []byte) *command {
	c.cmd.Stdin = bytes.NewReader(input)

	return c
}

func (c *command) SetStderrObserver(f func([]byte)) *command {
	var buf bytes.Buffer

	c.cmd.Stderr = &buf
	c.finished = append(c.finished, func() {
		f(buf.Bytes())
	})

	return c
}

type exitStatus interface {
	ExitStatus() int
}

func status(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	if e, ok := err.(exitStatus); ok { //nolint:errorlint
		return e.ExitStatus(), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return 1, err
}

// Run executes the command and reports its exit code. A non-zero exit is not
// an error by itself; err is set only when the process could not run.
func (c *command) Run() (int, error) {
	slog.Debug("run cmd", "cmd", strings.Join(c.cmd.Args, " "))

	err := c.cmd.Run()

	st, err := status(err)

	for _, f := range c.finished {
		f()
	}

	if err != nil {
		return st, fmt.Errorf("%s: %w", c.cmd.Path, err)
	}

	return st, nil
}
