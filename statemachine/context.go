package statemachine

import (
	"maps"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// workflowContextKey is the key used to store the run context in Go context.
const workflowContextKey contextKey = "workflow_context"

// Context is the view of a run handed to every handler. The engine owns it;
// handlers read the input arguments and, inside the exception handler, the
// error being handled.
type Context struct {
	WorkflowName string
	RunID        string
	CurrentState string
	Step         int

	args  map[string]any
	cause error
}

func newRunContext(workflow, runID string, args map[string]any) *Context {
	copied := make(map[string]any, len(args))
	maps.Copy(copied, args)

	return &Context{
		WorkflowName: workflow,
		RunID:        runID,
		args:         copied,
	}
}

// Args returns a copy of the run input arguments.
func (c *Context) Args() map[string]any {
	return maps.Clone(c.args)
}

// Arg retrieves one input argument.
func (c *Context) Arg(key string) (any, bool) {
	val, ok := c.args[key]

	return val, ok
}

// GetString retrieves a string argument.
func (c *Context) GetString(key string) (string, bool) {
	val, ok := c.Arg(key)
	if !ok {
		return "", false
	}

	str, ok := val.(string)

	return str, ok
}

// GetBool retrieves a boolean argument.
func (c *Context) GetBool(key string) (bool, bool) {
	val, ok := c.Arg(key)
	if !ok {
		return false, false
	}

	b, ok := val.(bool)

	return b, ok
}

// GetInt retrieves an integer argument.
func (c *Context) GetInt(key string) (int, bool) {
	val, ok := c.Arg(key)
	if !ok {
		return 0, false
	}

	switch i := val.(type) {
	case int:
		return i, true
	case int64:
		return int(i), true
	case int32:
		return int(i), true
	case uint64:
		return int(i), true //nolint:gosec // Argument values are small counters
	default:
		return 0, false
	}
}

// Cause returns the error being handled. It is only set while the exception
// handler runs.
func (c *Context) Cause() error {
	return c.cause
}
