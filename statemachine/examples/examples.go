// Package examples ships a set of embedded workflow configurations together
// with the implementations their class names refer to. The CLI and the tests
// use them as ready-made, deterministic workflows.
package examples

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/flowfsm/statemachine"
)

//go:embed workflows/*.yaml
var workflowFS embed.FS

const workflowDir = "workflows"

// ErrWorkflowNotFound is returned when no embedded workflow has the requested name.
var ErrWorkflowNotFound = errors.New("embedded workflow not found")

// Register adds every example implementation to the factory.
func Register(factory *statemachine.ImplementationFactory) {
	factory.Register("simple", newSimple)
	factory.Register("simple_loop", newSimpleLoop)
	factory.Register("if_conditions", newIfConditions)
	factory.Register("boolean_conditions", newBooleanConditions)
	factory.Register("exception", newException)
}

// Factory returns a new factory with the example implementations registered.
func Factory() *statemachine.ImplementationFactory {
	factory := statemachine.NewImplementationFactory()
	Register(factory)

	return factory
}

// ConfigLoader serves the embedded workflow files by name.
type ConfigLoader struct {
	fsys fs.FS
}

var _ statemachine.ConfigLoader = (*ConfigLoader)(nil)

// NewConfigLoader returns a loader over the embedded workflows.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{fsys: workflowFS}
}

// LoadByName returns the YAML of the named workflow.
func (l *ConfigLoader) LoadByName(name string) ([]byte, error) {
	data, err := fs.ReadFile(l.fsys, path.Join(workflowDir, name+".yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, name)
		}

		return nil, fmt.Errorf("failed to read workflow %s: %w", name, err)
	}

	return data, nil
}

// ListAvailable returns the embedded workflow names in natural order.
func (l *ConfigLoader) ListAvailable() []string {
	entries, err := fs.ReadDir(l.fsys, workflowDir)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name, ok := strings.CutSuffix(entry.Name(), ".yaml")
		if ok {
			names = append(names, name)
		}
	}

	natsort.Sort(names)

	return names
}

// Load parses the named embedded workflow.
func Load(name string) (*statemachine.Config, error) {
	data, err := NewConfigLoader().LoadByName(name)
	if err != nil {
		return nil, err
	}

	return statemachine.LoadConfigFromBytes(data)
}

// Install makes the embedded workflows loadable through statemachine.LoadConfig
// by bare name.
func Install() {
	statemachine.SetConfigLoader(NewConfigLoader())
}
