package statemachine

// Builder provides a fluent API for constructing workflows in code. States
// are declared in call order, which is also the order transitions are matched
// in. The transitions_to list of every state is derived from the declared
// transitions.
type Builder struct {
	name       string
	decls      []StateDeclaration
	handlers   Handlers
	graphOpts  []GraphOption
	engineOpts []EngineOption
}

// NewBuilder creates a new workflow builder.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:     name,
		handlers: make(Handlers),
	}
}

// Initial declares the initial state. The handler may be nil.
func (b *Builder) Initial(name string, handler Handler) *Builder {
	return b.add(StateDeclaration{Name: name, Role: RoleInitial}, handler)
}

// State declares a normal state reached through the given transitions.
func (b *Builder) State(name string, handler Handler, from ...TransitionDeclaration) *Builder {
	return b.addWithTransitions(name, RoleNormal, handler, from)
}

// Final declares a final state reached through the given transitions.
func (b *Builder) Final(name string, handler Handler, from ...TransitionDeclaration) *Builder {
	return b.addWithTransitions(name, RoleFinal, handler, from)
}

// Exception declares the exception state and its handler. Transitions out of
// it are declared on their targets with From(ExceptionState) or
// When(ExceptionState, result).
func (b *Builder) Exception(handler Handler) *Builder {
	return b.add(StateDeclaration{Name: ExceptionState, Role: RoleException}, handler)
}

// WithGraphOptions adds options used when the graph is built.
func (b *Builder) WithGraphOptions(opts ...GraphOption) *Builder {
	b.graphOpts = append(b.graphOpts, opts...)

	return b
}

// WithEngineOptions adds options used when the engine is built.
func (b *Builder) WithEngineOptions(opts ...EngineOption) *Builder {
	b.engineOpts = append(b.engineOpts, opts...)

	return b
}

func (b *Builder) addWithTransitions(name string, role Role, handler Handler, from []TransitionDeclaration) *Builder {
	entries := make([]any, 0, len(from))
	for _, f := range from {
		entries = append(entries, f)
	}

	decl := StateDeclaration{Name: name, Role: role}.WithTransitionsFrom(entries)

	return b.add(decl, handler)
}

func (b *Builder) add(decl StateDeclaration, handler Handler) *Builder {
	b.decls = append(b.decls, decl)

	if handler != nil {
		b.handlers[decl.Name] = handler
	}

	return b
}

// Declarations returns the declared states with derived transitions_to lists.
func (b *Builder) Declarations() []StateDeclaration {
	targets := make(map[string][]any)

	for _, decl := range b.decls {
		entries, _ := decl.TransitionsFrom.([]any)
		for _, raw := range entries {
			if from, ok := raw.(TransitionDeclaration); ok {
				targets[from.Status] = append(targets[from.Status], decl.Name)
			}
		}
	}

	out := make([]StateDeclaration, 0, len(b.decls))

	for _, decl := range b.decls {
		if decl.Role.requiresTransitions() {
			to := targets[decl.Name]
			if to == nil {
				to = []any{}
			}

			decl = decl.WithTransitionsTo(to)
		}

		out = append(out, decl)
	}

	return out
}

// Handlers returns the handlers registered so far.
func (b *Builder) Handlers() Handlers {
	return b.handlers
}

// Graph builds the declared graph.
func (b *Builder) Graph() (*Graph, error) {
	return NewGraph(b.Declarations(), b.graphOpts...)
}

// Build constructs the engine.
func (b *Builder) Build() (*Engine, error) {
	graph, err := b.Graph()
	if err != nil {
		return nil, err
	}

	opts := append([]EngineOption{WithWorkflowName(b.name)}, b.engineOpts...)

	return NewEngine(graph, b.handlers, opts...)
}
