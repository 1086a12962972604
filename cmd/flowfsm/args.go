package main

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// parseRunArgs turns repeated key=value flags into run arguments. Values are
// read as YAML scalars so items=3 is an int and has_gallery=true a bool.
func parseRunArgs(pairs []string) (map[string]any, error) {
	args := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			return nil, fmt.Errorf("%w: argument %q is not key=value", errUsage, pair)
		}

		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("%w: argument %q: %w", errUsage, key, err)
		}

		// An empty or quoted-only value decodes to nil; keep the text.
		if value == nil {
			value = raw
		}

		args[key] = value
	}

	return args, nil
}
