package visualizer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/amp-labs/flowfsm/statemachine"
)

// GenerateDOT converts a graph to a Graphviz document: the initial state is
// drawn as a double circle, every other state as a circle, and each edge is
// labelled with its target or with its IF <condition> THEN <target> form.
func GenerateDOT(graph *statemachine.Graph) (string, error) {
	return GenerateDOTWithOptions(graph, DefaultOptions())
}

// GenerateDOTWithOptions generates a DOT document with custom options.
func GenerateDOTWithOptions(graph *statemachine.Graph, opts Options) (string, error) {
	if graph == nil {
		return "", ErrGraphNil
	}

	initial, err := graph.Initial()
	if err != nil {
		return "", err
	}

	edges := graph.Edges()

	var sb strings.Builder

	sb.WriteString("digraph finite_state_machine {\n")
	fmt.Fprintf(&sb, "    rankdir=%s;\n", opts.rankdir())
	fmt.Fprintf(&sb, "    size=\"%d\"\n\n", len(edges)*2) //nolint:mnd
	fmt.Fprintf(&sb, "    node [shape = doublecircle]; %s;\n", quoteID(initial.Name()))
	sb.WriteString("    node [shape = circle];\n\n")

	for _, state := range graph.States() {
		if opts.highlighted()[state.Name()] {
			fmt.Fprintf(&sb, "    %s [style = filled, fillcolor = \"#fff9c4\"];\n", quoteID(state.Name()))
		}
	}

	for _, edge := range edges {
		label := edge.To
		if opts.ShowConditions {
			label = edge.Label
		}

		fmt.Fprintf(&sb, "    %s -> %s [ label = %s ];\n", quoteID(edge.From), quoteID(edge.To), strconv.Quote(label))
	}

	sb.WriteString("}\n")

	return sb.String(), nil
}

// dotKeywords cannot be used as bare IDs; DOT matches them case-insensitively.
var dotKeywords = map[string]bool{ //nolint:gochecknoglobals
	"node": true, "edge": true, "graph": true, "digraph": true, "subgraph": true, "strict": true,
}

// quoteID leaves plain identifiers alone and quotes keywords and everything else.
func quoteID(id string) string {
	if id == "" {
		return `""`
	}

	if dotKeywords[strings.ToLower(id)] {
		return strconv.Quote(id)
	}

	for i, r := range id {
		isLetter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'

		if !isLetter && (!isDigit || i == 0) {
			return strconv.Quote(id)
		}
	}

	return id
}
