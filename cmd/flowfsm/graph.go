package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/amp-labs/flowfsm/statemachine"
	"github.com/amp-labs/flowfsm/statemachine/visualizer"
	"github.com/spf13/cobra"
)

type graphFlags struct {
	format       string
	output       string
	direction    string
	highlight    []string
	noConditions bool
}

func (f graphFlags) options() visualizer.Options {
	return visualizer.DefaultOptions().
		WithShowConditions(!f.noConditions).
		WithDirection(f.direction).
		WithHighlightPath(f.highlight)
}

func newGraphCmd(a *app) *cobra.Command {
	var flags graphFlags

	cmd := &cobra.Command{
		Use:   "graph WORKFLOW",
		Short: "Export a workflow graph as DOT, Mermaid or an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, graph, err := a.loadGraph(args[0])
			if err != nil {
				return err
			}

			return a.writeGraph(cmd, graph, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "dot", "output format: dot, mermaid or an image format (png, svg, pdf)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (required for images)")
	cmd.Flags().StringVar(&flags.direction, "direction", "", "layout direction (LR or TB)")
	cmd.Flags().StringSliceVar(&flags.highlight, "highlight", nil, "states to highlight")
	cmd.Flags().BoolVar(&flags.noConditions, "no-conditions", false, "omit conditions from edge labels")

	return cmd
}

func (a *app) writeGraph(cmd *cobra.Command, graph *statemachine.Graph, flags graphFlags) error {
	var (
		text string
		err  error
	)

	switch format := strings.ToLower(flags.format); format {
	case "dot":
		text, err = visualizer.GenerateDOTWithOptions(graph, flags.options())
	case "mermaid":
		text, err = visualizer.GenerateMermaidWithOptions(graph, flags.options())
	case "png", "svg", "pdf", "jpg", "jpeg", "gif":
		if flags.output == "" {
			return fmt.Errorf("%w: --output is required for %s", errUsage, format)
		}

		return a.render(cmd, graph, flags.output, flags.options())
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, flags.format)
	}

	if err != nil {
		return err
	}

	if flags.output == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)

		return err
	}

	return os.WriteFile(flags.output, []byte(text), 0o644) //nolint:gosec,mnd
}

func (a *app) render(cmd *cobra.Command, graph *statemachine.Graph, output string, opts visualizer.Options) error {
	renderer := visualizer.Renderer{
		Binary:  a.settings.Renderer,
		Options: opts,
	}

	if err := renderer.Render(cmd.Context(), graph, output); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Graph rendered to %s\n", output)

	return nil
}
