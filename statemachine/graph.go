package statemachine

import (
	"fmt"
	"slices"
)

// Graph holds every State of a workflow in declaration order. It is built once
// and is read-only afterwards, so it can be shared by any number of engines.
type Graph struct {
	states []*State
	index  map[string]int
	strict bool
}

// GraphOption configures graph construction.
type GraphOption func(*Graph)

// WithStrictTransitions rejects graphs in which two transitions from the same
// source can match the same condition. By default the first declared
// transition silently wins.
func WithStrictTransitions() GraphOption {
	return func(g *Graph) {
		g.strict = true
	}
}

// NewGraph builds and validates the states of a workflow. A missing initial
// state is not reported here; it is detected when a run starts.
func NewGraph(decls []StateDeclaration, opts ...GraphOption) (*Graph, error) {
	graph := &Graph{
		states: make([]*State, 0, len(decls)),
		index:  make(map[string]int, len(decls)),
	}

	for _, opt := range opts {
		opt(graph)
	}

	declared := make(map[string]bool, len(decls))
	for _, decl := range decls {
		if decl.Name != "" {
			declared[decl.Name] = true
		}
	}

	known := func(name string) bool {
		return declared[name]
	}

	var initial string

	hasFinal := false

	for _, decl := range decls {
		state, err := newState(decl, known)
		if err != nil {
			return nil, err
		}

		if _, dup := graph.index[state.name]; dup {
			return nil, invalidState(state.name, "duplicate state name")
		}

		switch state.role { //nolint:exhaustive // Only initial and final states are counted
		case RoleInitial:
			if initial != "" {
				return nil, invalidState(state.name, "more than one initial state (already have %s)", initial)
			}

			initial = state.name
		case RoleFinal:
			hasFinal = true
		}

		graph.index[state.name] = len(graph.states)
		graph.states = append(graph.states, state)
	}

	if !hasFinal {
		return nil, invalidState("", "at least one final state is required")
	}

	if graph.strict {
		if err := graph.checkAmbiguity(); err != nil {
			return nil, err
		}
	}

	return graph, nil
}

// States returns the states in declaration order.
func (g *Graph) States() []*State {
	return slices.Clone(g.states)
}

// Len returns the number of states.
func (g *Graph) Len() int {
	return len(g.states)
}

// State looks up a state by name.
func (g *Graph) State(name string) (*State, error) {
	i, ok := g.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStateNotFound, name)
	}

	return g.states[i], nil
}

// Has reports whether a state with the given name is declared.
func (g *Graph) Has(name string) bool {
	_, ok := g.index[name]

	return ok
}

// Index returns the declaration position of a state, or -1 if it is unknown.
func (g *Graph) Index(name string) int {
	i, ok := g.index[name]
	if !ok {
		return -1
	}

	return i
}

// Initial returns the initial state.
func (g *Graph) Initial() (*State, error) {
	for _, state := range g.states {
		if state.role == RoleInitial {
			return state, nil
		}
	}

	return nil, ErrNoInitialState
}

// Transitions enumerates every transition of the graph in matching order.
func (g *Graph) Transitions() []Transition {
	var out []Transition

	for _, state := range g.states {
		out = append(out, state.transitions...)
	}

	return out
}

// ResolveNext returns the state reached from current when its handler
// returned condition. States are scanned in declaration order and their
// transitions in declaration order; the first match wins.
func (g *Graph) ResolveNext(current string, condition any) (*State, error) {
	for _, state := range g.states {
		for _, transition := range state.transitions {
			if transition.Matches(current, condition) {
				return state, nil
			}
		}
	}

	return nil, &NoTransitionFoundError{
		State:     current,
		Condition: condition,
	}
}

// Edge is a derived, render-ready view of one transition.
type Edge struct {
	From        string
	To          string
	Label       string
	Conditional bool
	Condition   any
}

// Edges derives the edge list used by graph exporters.
func (g *Graph) Edges() []Edge {
	var edges []Edge

	for _, state := range g.states {
		for _, transition := range state.transitions {
			edges = append(edges, Edge{
				From:        transition.source,
				To:          transition.target,
				Label:       transition.Label(),
				Conditional: transition.hasCondition,
				Condition:   transition.condition,
			})
		}
	}

	return edges
}

// Ambiguities lists every pair of transitions that break the one-match rule:
// two unconditional transitions from the same source, or two transitions from
// the same source with equal conditions.
func (g *Graph) Ambiguities() []*AmbiguousTransitionError {
	var (
		out  []*AmbiguousTransitionError
		seen []Transition
	)

	for _, transition := range g.Transitions() {
		for _, prev := range seen {
			if prev.source != transition.source || prev.hasCondition != transition.hasCondition {
				continue
			}

			if prev.hasCondition && !ConditionsEqual(prev.condition, transition.condition) {
				continue
			}

			cond := "any condition"
			if transition.hasCondition {
				cond = FormatCondition(transition.condition)
			}

			out = append(out, &AmbiguousTransitionError{
				Source:    transition.source,
				Condition: cond,
				First:     prev.target,
				Second:    transition.target,
			})
		}

		seen = append(seen, transition)
	}

	return out
}

func (g *Graph) checkAmbiguity() error {
	if amb := g.Ambiguities(); len(amb) > 0 {
		return amb[0]
	}

	return nil
}
