package statemachine

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// Fingerprint identifies the routing behavior of a graph: state names, roles
// and transitions in declaration order. Two graphs with the same fingerprint
// resolve every (state, condition) pair identically.
func (g *Graph) Fingerprint() string {
	var sb strings.Builder

	for _, state := range g.states {
		fmt.Fprintf(&sb, "%s|%s\n", state.name, state.role)

		for _, t := range state.transitions {
			if t.hasCondition {
				fmt.Fprintf(&sb, "\t%s|%T|%s\n", t.source, t.condition, exportCondition(t.condition))
			} else {
				fmt.Fprintf(&sb, "\t%s\n", t.source)
			}
		}
	}

	return fmt.Sprintf("%016x", xxh3.HashString(sb.String()))
}
