package validator

import (
	"errors"
	"fmt"
	"maps"

	"github.com/amp-labs/flowfsm/statemachine"
)

var (
	// ErrStateNotFound is returned when a fix targets a state that doesn't exist.
	ErrStateNotFound = errors.New("state not found")
	// ErrStateAlreadyExists is returned when attempting to rename to an existing state name.
	ErrStateAlreadyExists = errors.New("state already exists")
	// ErrAlreadyFinalState is returned when attempting to mark a state as final that already is.
	ErrAlreadyFinalState = errors.New("already a final state")
)

// Fix represents an automatic fix for a validation issue. Fixes edit the
// configuration, not the graph built from it.
type Fix struct {
	Description string
	Apply       func(config *statemachine.Config) error
}

// RemoveUnreachableState creates a fix that removes a state together with
// every transitions_from entry and transitions_to name that refers to it.
func RemoveUnreachableState(stateName string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Remove unreachable state '%s'", stateName),
		Apply: func(config *statemachine.Config) error {
			newStates := make(statemachine.StateConfigs, 0, len(config.States))
			found := false

			for _, state := range config.States {
				if state.Name == stateName {
					found = true

					continue
				}

				state.TransitionsFrom = rewriteSources(state.TransitionsFrom, func(source string) (string, bool) {
					return source, source != stateName
				})
				state.TransitionsTo = rewriteNames(state.TransitionsTo, func(target string) (string, bool) {
					return target, target != stateName
				})

				newStates = append(newStates, state)
			}

			if !found {
				return fmt.Errorf("%w: '%s'", ErrStateNotFound, stateName)
			}

			config.States = newStates

			return nil
		},
	}
}

// RenameState creates a fix that renames a state and every reference to it.
func RenameState(oldName, newName string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Rename state from '%s' to '%s'", oldName, newName),
		Apply: func(config *statemachine.Config) error {
			index := -1

			for i, state := range config.States {
				if state.Name == newName {
					return fmt.Errorf("%w: '%s'", ErrStateAlreadyExists, newName)
				}

				if state.Name == oldName {
					index = i
				}
			}

			if index < 0 {
				return fmt.Errorf("%w: '%s'", ErrStateNotFound, oldName)
			}

			config.States[index].Name = newName

			rename := func(name string) (string, bool) {
				if name == oldName {
					return newName, true
				}

				return name, true
			}

			for i := range config.States {
				config.States[i].TransitionsFrom = rewriteSources(config.States[i].TransitionsFrom, rename)
				config.States[i].TransitionsTo = rewriteNames(config.States[i].TransitionsTo, rename)
			}

			return nil
		},
	}
}

// MarkAsFinalState creates a fix that turns a dead-end state into a final one.
func MarkAsFinalState(stateName string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Mark '%s' as a final state", stateName),
		Apply: func(config *statemachine.Config) error {
			for i, state := range config.States {
				if state.Name != stateName {
					continue
				}

				if state.Type == string(statemachine.RoleFinal) {
					return fmt.Errorf("%w: '%s'", ErrAlreadyFinalState, stateName)
				}

				config.States[i].Type = string(statemachine.RoleFinal)

				return nil
			}

			return fmt.Errorf("%w: '%s'", ErrStateNotFound, stateName)
		},
	}
}

// ApplyFixes applies a list of fixes to a config.
func ApplyFixes(config *statemachine.Config, fixes []*Fix) error {
	for _, fix := range fixes {
		if fix != nil && fix.Apply != nil {
			err := fix.Apply(config)
			if err != nil {
				return fmt.Errorf("failed to apply fix '%s': %w", fix.Description, err)
			}
		}
	}

	return nil
}

// rewriteSources maps the source of every transitions_from entry, dropping
// entries for which fn reports false. Values that are not lists are kept.
func rewriteSources(raw any, fn func(string) (string, bool)) any {
	list, ok := raw.([]any)
	if !ok {
		return raw
	}

	out := make([]any, 0, len(list))

	for _, entry := range list {
		switch e := entry.(type) {
		case string:
			if name, keep := fn(e); keep {
				out = append(out, name)
			}
		case map[string]any:
			status, _ := e["status"].(string)

			name, keep := fn(status)
			if !keep {
				continue
			}

			copied := maps.Clone(e)
			copied["status"] = name
			out = append(out, copied)
		default:
			out = append(out, entry)
		}
	}

	return out
}

// rewriteNames maps every name of a transitions_to list.
func rewriteNames(raw any, fn func(string) (string, bool)) any {
	list, ok := raw.([]any)
	if !ok {
		return raw
	}

	out := make([]any, 0, len(list))

	for _, entry := range list {
		name, isName := entry.(string)
		if !isName {
			out = append(out, entry)

			continue
		}

		if mapped, keep := fn(name); keep {
			out = append(out, mapped)
		}
	}

	return out
}
