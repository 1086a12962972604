package statemachine

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigLoader is an interface for loading configurations by name.
// Applications can implement this to provide embedded or custom config loading.
type ConfigLoader interface {
	LoadByName(name string) ([]byte, error)
	ListAvailable() []string
}

var (
	// defaultConfigLoader is the global config loader used by LoadConfig.
	// Applications can set this to provide embedded configs.
	defaultConfigLoader ConfigLoader //nolint:gochecknoglobals
)

// SetConfigLoader sets the default config loader for name-based loading.
// This allows applications to provide embedded configs or custom loading logic.
func SetConfigLoader(loader ConfigLoader) {
	defaultConfigLoader = loader
}

// Config is the deserialized workflow file: the implementation to instantiate
// and the declared states.
type Config struct {
	Class  ClassConfig  `json:"class"  yaml:"class"`
	States StateConfigs `json:"states" yaml:"states"`
}

// ClassConfig names the workflow implementation and its constructor arguments.
type ClassConfig struct {
	Name string         `json:"name"           yaml:"name"`
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty"`
}

// StateConfig is a single state entry of the states section.
type StateConfig struct {
	Name            string
	Type            string
	TransitionsFrom any
	TransitionsTo   any

	hasTransitionsFrom bool
	hasTransitionsTo   bool
}

// StateConfigs keeps the states section in declaration order. It accepts both
// a mapping keyed by state name and a list of entries with a name key.
type StateConfigs []StateConfig

// UnmarshalYAML decodes the states section preserving the order of its keys.
func (s *StateConfigs) UnmarshalYAML(node *yaml.Node) error {
	var out StateConfigs

	switch node.Kind { //nolint:exhaustive // Other node kinds are rejected below
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			var name string
			if err := node.Content[i].Decode(&name); err != nil {
				return fmt.Errorf("line %d: state name: %w", node.Content[i].Line, err)
			}

			state, err := decodeStateConfig(name, node.Content[i+1])
			if err != nil {
				return err
			}

			out = append(out, state)
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			state, err := decodeStateConfig("", item)
			if err != nil {
				return err
			}

			out = append(out, state)
		}
	default:
		return fmt.Errorf("line %d: states must be a mapping or a list", node.Line)
	}

	*s = out

	return nil
}

func decodeStateConfig(name string, node *yaml.Node) (StateConfig, error) {
	state := StateConfig{Name: name}

	if node.Kind != yaml.MappingNode {
		// An empty entry such as "start:" still declares the state.
		return state, nil
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]

		var err error

		switch key {
		case "name":
			err = value.Decode(&state.Name)
		case "type":
			err = value.Decode(&state.Type)
		case keyTransitionsFrom:
			state.hasTransitionsFrom = true
			err = value.Decode(&state.TransitionsFrom)
		case keyTransitionsTo:
			state.hasTransitionsTo = true
			err = value.Decode(&state.TransitionsTo)
		}

		if err != nil {
			return StateConfig{}, fmt.Errorf("line %d: state %s key %s: %w", value.Line, state.Name, key, err)
		}
	}

	return state, nil
}

// Declaration converts the entry into the form consumed by NewGraph.
func (s StateConfig) Declaration() StateDeclaration {
	decl := StateDeclaration{
		Name: s.Name,
		Role: Role(s.Type),
	}

	if s.hasTransitionsFrom {
		decl = decl.WithTransitionsFrom(s.TransitionsFrom)
	}

	if s.hasTransitionsTo {
		decl = decl.WithTransitionsTo(s.TransitionsTo)
	}

	return decl
}

// Declarations converts every state entry, in order.
func (c *Config) Declarations() []StateDeclaration {
	decls := make([]StateDeclaration, 0, len(c.States))
	for _, state := range c.States {
		decls = append(decls, state.Declaration())
	}

	return decls
}

// Graph builds the workflow graph declared by the configuration.
func (c *Config) Graph(opts ...GraphOption) (*Graph, error) {
	return NewGraph(c.Declarations(), opts...)
}

// Validate checks the parts of the configuration that do not depend on the
// graph. Structural state validation happens in NewGraph.
func (c *Config) Validate() error {
	if len(c.States) == 0 {
		return ErrConfigStatesRequired
	}

	return nil
}

// LoadConfig loads a workflow configuration by path or name.
// Supports two modes:
//   - Path mode: Pass a file path (containing '/', '\', or ending in '.yaml'/'.yml') to load from filesystem
//     Example: LoadConfig("examples/simple.yaml")
//   - Name mode: Pass a bare name to load via the registered ConfigLoader
//     Example: LoadConfig("simple_loop")
//
// For name mode to work, you must call SetConfigLoader() first with an implementation.
func LoadConfig(pathOrName string) (*Config, error) {
	var (
		data []byte
		err  error
	)

	lower := strings.ToLower(pathOrName)
	isPath := strings.Contains(pathOrName, "/") ||
		strings.Contains(pathOrName, `\`) ||
		strings.HasSuffix(lower, ".yaml") ||
		strings.HasSuffix(lower, ".yml")

	if isPath {
		data, err = os.ReadFile(pathOrName) //nolint:gosec // Intentional path-based loading
		if err != nil {
			return nil, fmt.Errorf("file %q doesn't exist or is unreadable: %w", pathOrName, err)
		}

		return LoadConfigFromBytes(data)
	}

	if defaultConfigLoader == nil {
		return nil, ErrNoConfigLoader
	}

	data, err = defaultConfigLoader.LoadByName(pathOrName)
	if err != nil {
		available := defaultConfigLoader.ListAvailable()

		return nil, fmt.Errorf("failed to load config %q (available: %v): %w", pathOrName, available, err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes loads a workflow configuration from YAML bytes.
// Text that is not UTF-8 is converted from its detected charset first.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config

	err := yaml.Unmarshal(toUTF8(data), &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigFromFS loads a configuration from an embedded filesystem.
func LoadConfigFromFS(fsys fs.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS: %w", err)
	}

	return LoadConfigFromBytes(data)
}
