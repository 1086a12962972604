package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/amp-labs/flowfsm/logger"
	"github.com/amp-labs/flowfsm/statemachine"
	"github.com/amp-labs/flowfsm/statemachine/visualizer"
	"github.com/spf13/cobra"
)

type runFlags struct {
	args            []string
	logPath         string
	renderPath      string
	stopAfterRender bool
	verify          bool
}

func newRunCmd(a *app) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [WORKFLOW]",
		Short: "Run a workflow and print its execution log",
		Long: "Runs a workflow by embedded name or YAML path. Without a workflow an " +
			"interactive terminal offers the embedded workflows.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := a.workflowArg(args)
			if err != nil {
				return err
			}

			return a.runWorkflow(cmd, name, flags)
		},
	}

	cmd.Flags().StringArrayVar(&flags.args, "arg", nil, "run argument as key=value (repeatable)")
	cmd.Flags().StringVar(&flags.logPath, "log", "", "save the execution log (.yaml or .json, optionally .gz, .zst, .lz4 or .br)")
	cmd.Flags().StringVar(&flags.renderPath, "render", "", "render the graph image with the visited states highlighted")
	cmd.Flags().BoolVar(&flags.stopAfterRender, "stop-after-render", false, "render the graph and exit without running")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "replay the captured log after the run")

	return cmd
}

func (a *app) runWorkflow(cmd *cobra.Command, name string, flags runFlags) error {
	if flags.stopAfterRender && flags.renderPath == "" {
		return fmt.Errorf("%w: --stop-after-render needs --render", errUsage)
	}

	runArgs, err := parseRunArgs(flags.args)
	if err != nil {
		return err
	}

	machine, err := a.newMachine(cmd, name)
	if err != nil {
		return err
	}

	workflow := machine.Engine().Name()

	if flags.stopAfterRender {
		return a.render(cmd, machine.Graph(), flags.renderPath, visualizer.DefaultOptions())
	}

	out := cmd.OutOrStdout()

	log, runErr := machine.Run(cmd.Context(), runArgs, true)
	if runErr != nil {
		// The partial log of a failed run is still worth printing.
		log = machine.Engine().Log()
	}

	printBanner(out, fmt.Sprintf("%s  run %s", workflow, machine.Engine().RunID()))
	printLog(out, log)

	if flags.logPath != "" {
		if err := machine.SaveLog(flags.logPath, log); err != nil {
			return errors.Join(runErr, err)
		}

		fmt.Fprintf(out, "Log saved to %s\n", flags.logPath)
	}

	if runErr != nil {
		return logger.AnnotateError(runErr,
			"workflow", workflow,
			"state", machine.Engine().CurrentState(),
			"run_id", machine.Engine().RunID())
	}

	if flags.verify {
		ok, err := machine.Acceptance(cmd.Context(), log, true)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Acceptance: %t\n", ok)
	}

	if flags.renderPath != "" {
		opts := visualizer.DefaultOptions().WithHighlightPath(log.Names())

		return a.render(cmd, machine.Graph(), flags.renderPath, opts)
	}

	return nil
}

func printLog(w io.Writer, log statemachine.Log) {
	for i, entry := range log {
		switch {
		case entry.Error != "":
			fmt.Fprintf(w, "%3d  %s  error: %s\n", i+1, entry.Name, entry.Error)
		case entry.Return != nil:
			fmt.Fprintf(w, "%3d  %s  -> %s\n", i+1, entry.Name, statemachine.FormatCondition(entry.Return))
		default:
			fmt.Fprintf(w, "%3d  %s\n", i+1, entry.Name)
		}
	}
}
