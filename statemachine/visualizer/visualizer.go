// Package visualizer renders workflow graphs as Mermaid state diagrams,
// Graphviz DOT documents and, through the dot binary, images.
//
//nolint:varnamelen // Short names idiomatic
package visualizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amp-labs/flowfsm/statemachine"
)

// Visualizer errors.
var (
	ErrGraphNil         = errors.New("graph cannot be nil")
	ErrRendererNotFound = errors.New("graph renderer not found")
	ErrRenderFailed     = errors.New("graph rendering failed")
)

// GenerateMermaid converts a graph to a Mermaid state diagram.
func GenerateMermaid(graph *statemachine.Graph) (string, error) {
	return GenerateMermaidWithOptions(graph, DefaultOptions())
}

// GenerateMermaidWithOptions generates a Mermaid diagram with custom options.
func GenerateMermaidWithOptions(graph *statemachine.Graph, opts Options) (string, error) {
	if graph == nil {
		return "", ErrGraphNil
	}

	initial, err := graph.Initial()
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	// Header
	sb.WriteString("```mermaid\n")
	fmt.Fprintf(&sb, "stateDiagram-v2\n    direction %s\n", opts.mermaidDirection())

	// Initial state marker
	fmt.Fprintf(&sb, "    [*] --> %s\n", initial.Name())

	for _, edge := range graph.Edges() {
		label := ""
		if opts.ShowConditions && edge.Conditional {
			label = ": " + statemachine.FormatCondition(edge.Condition)
		}

		fmt.Fprintf(&sb, "    %s --> %s%s\n", edge.From, edge.To, label)
	}

	highlightMap := opts.highlighted()

	for _, state := range graph.States() {
		if state.IsFinal() {
			fmt.Fprintf(&sb, "    %s --> [*]\n", state.Name())
		}

		switch {
		case highlightMap[state.Name()]:
			fmt.Fprintf(&sb, "    class %s highlighted\n", state.Name())
		case state.IsFinal():
			fmt.Fprintf(&sb, "    class %s finalState\n", state.Name())
		case state.Role() == statemachine.RoleException:
			fmt.Fprintf(&sb, "    class %s exceptionState\n", state.Name())
		}
	}

	sb.WriteString("\n")
	sb.WriteString("    classDef exceptionState fill:#ffebee,stroke:#c62828,stroke-width:2px\n")
	sb.WriteString("    classDef finalState fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px\n")
	sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")

	sb.WriteString("```\n")

	return sb.String(), nil
}
