package statemachine

import (
	"fmt"
	"sync"

	"facette.io/natsort"
	"github.com/mitchellh/mapstructure"
)

// ImplementationBuilder instantiates a handler table from the class
// arguments of a workflow configuration.
type ImplementationBuilder func(args map[string]any) (HandlerTable, error)

// ImplementationFactory creates handler tables by class name.
// Applications register their workflow implementations to make them
// available to configuration files.
type ImplementationFactory struct {
	mu       sync.RWMutex
	builders map[string]ImplementationBuilder
}

// NewImplementationFactory creates an empty factory.
func NewImplementationFactory() *ImplementationFactory {
	return &ImplementationFactory{
		builders: make(map[string]ImplementationBuilder),
	}
}

// Register registers an implementation builder under a class name,
// replacing any previous registration.
func (f *ImplementationFactory) Register(class string, builder ImplementationBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.builders[class] = builder
}

// Has reports whether a class name is registered.
func (f *ImplementationFactory) Has(class string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	_, ok := f.builders[class]

	return ok
}

// Names returns the registered class names in natural order.
func (f *ImplementationFactory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.builders))
	for name := range f.builders {
		names = append(names, name)
	}

	natsort.Sort(names)

	return names
}

// Create instantiates the implementation named by the class configuration.
func (f *ImplementationFactory) Create(class ClassConfig) (HandlerTable, error) {
	if class.Name == "" {
		return nil, ErrConfigClassRequired
	}

	f.mu.RLock()
	builder, ok := f.builders[class.Name]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s (registered: %v)", ErrUnknownImplementation, class.Name, f.Names())
	}

	table, err := builder(class.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to create implementation %s: %w", class.Name, err)
	}

	if table == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilImplementation, class.Name)
	}

	return table, nil
}

// DecodeArgs decodes class arguments into a typed struct. Field names match
// mapstructure tags and values are converted leniently, so a YAML "3" fills
// an int field.
func DecodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to create args decoder: %w", err)
	}

	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("invalid class args: %w", err)
	}

	return nil
}
