package visualizer

// Options configures the visualization output.
type Options struct {
	// ShowConditions shows transition conditions as labels
	ShowConditions bool

	// Direction controls diagram flow: "TD" (top-down) or "LR" (left-right)
	Direction string

	// HighlightPath highlights a specific state path through the diagram
	HighlightPath []string
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		ShowConditions: true,
		Direction:      "LR",
	}
}

// WithShowConditions enables/disables transition conditions.
func (o Options) WithShowConditions(show bool) Options {
	o.ShowConditions = show

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithHighlightPath sets states to highlight. A captured log's Names() is the
// usual source.
func (o Options) WithHighlightPath(path []string) Options {
	o.HighlightPath = path

	return o
}

func (o Options) highlighted() map[string]bool {
	out := make(map[string]bool, len(o.HighlightPath))
	for _, state := range o.HighlightPath {
		out[state] = true
	}

	return out
}

// rankdir maps the direction to its Graphviz spelling.
func (o Options) rankdir() string {
	switch o.Direction {
	case "TD", "TB":
		return "TB"
	case "":
		return "LR"
	default:
		return o.Direction
	}
}

// mermaidDirection maps the direction to its Mermaid spelling.
func (o Options) mermaidDirection() string {
	switch o.Direction {
	case "TB", "":
		return "TD"
	default:
		return o.Direction
	}
}
