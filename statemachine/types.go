package statemachine

import "fmt"

// Role tags a state with its place in the workflow.
type Role string

const (
	RoleInitial   Role = "initial"
	RoleNormal    Role = "normal"
	RoleFinal     Role = "final"
	RoleException Role = "exception"
)

// ExceptionState is the reserved handler and transition source name used for
// error redirection.
const ExceptionState = "exception"

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleInitial, RoleNormal, RoleFinal, RoleException:
		return true
	default:
		return false
	}
}

// requiresTransitions reports whether states of this role must declare
// transitions_from and transitions_to.
func (r Role) requiresTransitions() bool {
	return r != RoleInitial && r != RoleException
}

// requiresHandler reports whether states of this role must have a handler.
func (r Role) requiresHandler() bool {
	return r.requiresTransitions()
}

// StateDeclaration is the deserialized form of one entry in the states section.
// TransitionsFrom and TransitionsTo are kept as raw values so that the graph
// can report malformed containers the way the configuration declared them.
type StateDeclaration struct {
	Name            string
	Role            Role
	TransitionsFrom any
	TransitionsTo   any

	hasTransitionsFrom bool
	hasTransitionsTo   bool
}

// NewStateDeclaration declares a state with both transition lists present.
func NewStateDeclaration(name string, role Role, from []TransitionDeclaration, to []string) StateDeclaration {
	decl := StateDeclaration{
		Name: name,
		Role: role,
	}

	if role.requiresTransitions() {
		entries := make([]any, 0, len(from))
		for _, f := range from {
			entries = append(entries, f)
		}

		targets := make([]any, 0, len(to))
		for _, t := range to {
			targets = append(targets, t)
		}

		decl = decl.WithTransitionsFrom(entries).WithTransitionsTo(targets)
	}

	return decl
}

// WithTransitionsFrom sets the raw transitions_from value.
func (d StateDeclaration) WithTransitionsFrom(v any) StateDeclaration {
	d.TransitionsFrom = v
	d.hasTransitionsFrom = true

	return d
}

// WithTransitionsTo sets the raw transitions_to value.
func (d StateDeclaration) WithTransitionsTo(v any) StateDeclaration {
	d.TransitionsTo = v
	d.hasTransitionsTo = true

	return d
}

// TransitionDeclaration is one transitions_from entry: a bare source name, or a
// source name plus the result its handler must return.
type TransitionDeclaration struct {
	Status       string
	Result       any
	HasCondition bool
}

// From declares an unconditional transition from the named state.
func From(status string) TransitionDeclaration {
	return TransitionDeclaration{Status: status}
}

// When declares a transition that fires only when the handler for status returns result.
func When(status string, result any) TransitionDeclaration {
	return TransitionDeclaration{
		Status:       status,
		Result:       result,
		HasCondition: true,
	}
}

func (d TransitionDeclaration) String() string {
	if !d.HasCondition {
		return d.Status
	}

	return fmt.Sprintf("%s[%s]", d.Status, FormatCondition(d.Result))
}
