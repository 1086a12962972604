package statemachine

import (
	"context"
	"fmt"
)

// Machine ties a workflow configuration to the implementation its class
// names: it builds the graph, instantiates the handlers and owns the engine.
type Machine struct {
	config *Config
	engine *Engine
}

type machineOptions struct {
	graphOpts  []GraphOption
	engineOpts []EngineOption
}

// MachineOption configures a Machine.
type MachineOption func(*machineOptions)

// WithGraphOptions passes options to graph construction.
func WithGraphOptions(opts ...GraphOption) MachineOption {
	return func(o *machineOptions) {
		o.graphOpts = append(o.graphOpts, opts...)
	}
}

// WithEngineOptions passes options to engine construction.
func WithEngineOptions(opts ...EngineOption) MachineOption {
	return func(o *machineOptions) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// NewMachine loads a configuration by path or name (see LoadConfig) and
// builds a machine from it.
func NewMachine(pathOrName string, factory *ImplementationFactory, opts ...MachineOption) (*Machine, error) {
	config, err := LoadConfig(pathOrName)
	if err != nil {
		return nil, err
	}

	return NewMachineFromConfig(config, factory, opts...)
}

// NewMachineFromConfig builds a machine from an already loaded configuration.
func NewMachineFromConfig(config *Config, factory *ImplementationFactory, opts ...MachineOption) (*Machine, error) {
	var options machineOptions
	for _, opt := range opts {
		opt(&options)
	}

	err := config.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	graph, err := config.Graph(options.graphOpts...)
	if err != nil {
		return nil, err
	}

	if factory == nil {
		factory = NewImplementationFactory()
	}

	table, err := factory.Create(config.Class)
	if err != nil {
		return nil, err
	}

	engineOpts := append([]EngineOption{WithWorkflowName(config.Class.Name)}, options.engineOpts...)

	engine, err := NewEngine(graph, table, engineOpts...)
	if err != nil {
		return nil, err
	}

	return &Machine{
		config: config,
		engine: engine,
	}, nil
}

// Config returns the configuration the machine was built from.
func (m *Machine) Config() *Config {
	return m.config
}

// Graph returns the workflow graph.
func (m *Machine) Graph() *Graph {
	return m.engine.graph
}

// Engine returns the underlying engine.
func (m *Machine) Engine() *Engine {
	return m.engine
}

// Run executes the workflow. See Engine.Run.
func (m *Machine) Run(ctx context.Context, args map[string]any, enableLog bool) (Log, error) {
	return m.engine.Run(ctx, args, enableLog)
}

// Acceptance replays a captured log. See Engine.Acceptance.
func (m *Machine) Acceptance(ctx context.Context, log Log, verbose bool) (bool, error) {
	return m.engine.Acceptance(ctx, log, verbose)
}

// SaveLog writes a captured log together with the graph fingerprint.
func (m *Machine) SaveLog(path string, log Log) error {
	return SaveLog(path, NewLogDocument(m.engine.name, m.engine.graph, log))
}

// AcceptFile loads a log file and replays it. The second return value
// reports whether the log was recorded against a graph with a different
// fingerprint.
func (m *Machine) AcceptFile(ctx context.Context, path string, verbose bool) (bool, bool, error) {
	doc, err := LoadLog(path)
	if err != nil {
		return false, false, err
	}

	stale := doc.Fingerprint != "" && doc.Fingerprint != m.engine.graph.Fingerprint()

	ok, err := m.engine.Acceptance(ctx, doc.Entries, verbose)

	return ok, stale, err
}
