package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/amp-labs/flowfsm/cli"
	"github.com/amp-labs/flowfsm/logger"
	"github.com/amp-labs/flowfsm/statemachine"
	"github.com/amp-labs/flowfsm/statemachine/examples"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs: settings plus where workflows
// and their implementations come from.
type app struct {
	settings settings
	factory  *statemachine.ImplementationFactory
	loader   statemachine.ConfigLoader
}

func newApp(s settings) *app {
	return &app{
		settings: s,
		factory:  examples.Factory(),
		loader:   examples.NewConfigLoader(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "flowfsm",
		Short:         "Configuration-driven finite-state workflow interpreter",
		Long:          "flowfsm runs workflows declared in YAML, verifies captured execution logs and draws workflow graphs.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newListCmd(a),
		newValidateCmd(a),
		newGraphCmd(a),
		newRunCmd(a),
		newAcceptCmd(a),
	)

	return root
}

// loadConfig resolves an embedded workflow name first and falls back to a
// file path.
func (a *app) loadConfig(pathOrName string) (*statemachine.Config, error) {
	if slices.Contains(a.loader.ListAvailable(), pathOrName) {
		data, err := a.loader.LoadByName(pathOrName)
		if err != nil {
			return nil, err
		}

		return statemachine.LoadConfigFromBytes(data)
	}

	return statemachine.LoadConfig(pathOrName)
}

func (a *app) loadGraph(pathOrName string) (*statemachine.Config, *statemachine.Graph, error) {
	config, err := a.loadConfig(pathOrName)
	if err != nil {
		return nil, nil, err
	}

	graph, err := config.Graph()
	if err != nil {
		return nil, nil, err
	}

	return config, graph, nil
}

func (a *app) newMachine(cmd *cobra.Command, pathOrName string) (*statemachine.Machine, error) {
	config, err := a.loadConfig(pathOrName)
	if err != nil {
		return nil, err
	}

	ctx := logger.WithWorkflow(cmd.Context(), config.Class.Name)

	return statemachine.NewMachineFromConfig(config, a.factory,
		statemachine.WithEngineOptions(
			statemachine.WithMaxSteps(a.settings.MaxSteps),
			statemachine.WithLogger(statemachine.NewSlogLogger(logger.Get(ctx))),
			statemachine.WithOutput(cmd.OutOrStdout()),
			statemachine.WithCancellation(true),
		))
}

// workflowArg returns the single positional workflow, prompting for one of
// the embedded workflows on an interactive terminal.
func (a *app) workflowArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	if !cli.IsInteractive() {
		return "", fmt.Errorf("%w: a workflow name or path is required", errUsage)
	}

	return cli.SelectOne("Workflow", a.loader.ListAvailable())
}

func printBanner(w io.Writer, text string) {
	_, _ = io.WriteString(w, cli.BannerAutoWidth(text, cli.AlignCenter))
}
