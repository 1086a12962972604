package statemachine

import (
	"context"
	"slices"
)

// Handler is the procedure an implementation supplies for one state. The
// returned value is the condition used to resolve the next state; nil is the
// null condition.
type Handler func(ctx context.Context, wf *Context) (any, error)

// HandlerTable resolves state names to handlers.
type HandlerTable interface {
	HandlerFor(name string) (Handler, bool)
}

// BeforeDispatcher is implemented by tables that want a hook before every handler call.
type BeforeDispatcher interface {
	BeforeDispatch(ctx context.Context, state string) error
}

// AfterDispatcher is implemented by tables that want a hook after every handler call.
type AfterDispatcher interface {
	AfterDispatch(ctx context.Context, state string) error
}

// Handlers is a HandlerTable backed by a map.
type Handlers map[string]Handler

// HandlerFor implements HandlerTable.
func (h Handlers) HandlerFor(name string) (Handler, bool) {
	handler, ok := h[name]
	if !ok || handler == nil {
		return nil, false
	}

	return handler, true
}

// Names returns the registered state names in sorted order.
func (h Handlers) Names() []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Noop is a handler that does nothing and returns the null condition.
func Noop(context.Context, *Context) (any, error) {
	return nil, nil //nolint:nilnil // Null condition
}

// Returning is a handler that always returns the given condition.
func Returning(condition any) Handler {
	return func(context.Context, *Context) (any, error) {
		return condition, nil
	}
}

// HookedTable decorates a HandlerTable with dispatch hooks given as functions.
type HookedTable struct {
	HandlerTable

	Before func(ctx context.Context, state string) error
	After  func(ctx context.Context, state string) error
}

// BeforeDispatch implements BeforeDispatcher.
func (t *HookedTable) BeforeDispatch(ctx context.Context, state string) error {
	if t.Before == nil {
		return nil
	}

	return t.Before(ctx, state)
}

// AfterDispatch implements AfterDispatcher.
func (t *HookedTable) AfterDispatch(ctx context.Context, state string) error {
	if t.After == nil {
		return nil
	}

	return t.After(ctx, state)
}
