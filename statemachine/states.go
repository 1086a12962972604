package statemachine

import (
	"reflect"
	"slices"
)

const (
	keyTransitionsFrom = "transitions_from"
	keyTransitionsTo   = "transitions_to"
)

// State is a named node of the workflow graph. It owns the transitions that
// lead into it.
type State struct {
	name          string
	role          Role
	transitions   []Transition
	transitionsTo []string
}

// Name returns the unique name of the state.
func (s *State) Name() string {
	return s.name
}

// Role returns the role of the state.
func (s *State) Role() Role {
	return s.role
}

// IsInitial reports whether this is the initial state.
func (s *State) IsInitial() bool {
	return s.role == RoleInitial
}

// IsFinal reports whether reaching this state ends the run.
func (s *State) IsFinal() bool {
	return s.role == RoleFinal
}

// Transitions returns a copy of the transitions leading into this state, in
// declaration order.
func (s *State) Transitions() []Transition {
	return slices.Clone(s.transitions)
}

// TransitionsTo returns the declared transitions_to names.
func (s *State) TransitionsTo() []string {
	return slices.Clone(s.transitionsTo)
}

// newState validates a declaration and resolves its transitions. The known
// function reports whether a name is a declared state.
func newState(decl StateDeclaration, known func(string) bool) (*State, error) {
	if decl.Name == "" {
		return nil, invalidState("", "key name missing")
	}

	if decl.Role == "" {
		return nil, invalidState(decl.Name, "key type missing")
	}

	if !decl.Role.Valid() {
		return nil, invalidState(decl.Name, "the type specified is invalid: %q", decl.Role)
	}

	state := &State{
		name: decl.Name,
		role: decl.Role,
	}

	if !decl.Role.requiresTransitions() {
		return state, nil
	}

	from, err := requireList(decl.Name, keyTransitionsFrom, decl.TransitionsFrom, decl.hasTransitionsFrom)
	if err != nil {
		return nil, err
	}

	to, err := requireList(decl.Name, keyTransitionsTo, decl.TransitionsTo, decl.hasTransitionsTo)
	if err != nil {
		return nil, err
	}

	for _, raw := range from {
		entry, err := parseTransitionEntry(raw)
		if err != nil {
			return nil, invalidState(decl.Name, "%v", err)
		}

		if entry.Status == "" {
			return nil, invalidState(decl.Name, "transition source missing")
		}

		if entry.Status != ExceptionState && !known(entry.Status) {
			return nil, invalidState(decl.Name, "transition source %q is not a declared state", entry.Status)
		}

		state.transitions = append(state.transitions, newTransition(decl.Name, entry))
	}

	if len(state.transitions) == 0 {
		return nil, invalidState(decl.Name, "no transitions available")
	}

	for _, raw := range to {
		if name, ok := raw.(string); ok {
			state.transitionsTo = append(state.transitionsTo, name)
		}
	}

	return state, nil
}

// requireList checks that a transitions key is present and holds a sequence.
// An empty transitions_to is valid, final states declare []. An empty
// transitions_from is reported by the transition count.
func requireList(state, key string, value any, present bool) ([]any, error) {
	if !present || value == nil {
		return nil, invalidState(state, "key %s missing", key)
	}

	switch list := value.(type) {
	case []any:
		return list, nil
	case []string:
		out := make([]any, len(list))
		for i, v := range list {
			out[i] = v
		}

		return out, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, invalidState(state, "key %s is not a list", key)
	}

	out := make([]any, rv.Len())
	for i := range rv.Len() {
		out[i] = rv.Index(i).Interface()
	}

	return out, nil
}
