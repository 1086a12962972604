package main

import (
	"fmt"

	"github.com/amp-labs/flowfsm/errors"
	"github.com/amp-labs/flowfsm/statemachine/validator"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate WORKFLOW...",
		Short: "Check workflow graphs for structural problems",
		Long: "Builds each workflow graph and checks it for unreachable states, dead ends, " +
			"unreachable final states, ambiguous transitions and naming problems.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed errors.Collection

			for _, name := range args {
				config, err := a.loadConfig(name)

				var result validator.ValidationResult
				if err != nil {
					result = validator.ValidationResult{
						Errors: []validator.ValidationError{{
							Code:     "CONFIG_LOAD_FAILED",
							Message:  err.Error(),
							Location: validator.Location{File: name},
						}},
					}
				} else {
					result = validator.ValidateConfig(config, strict)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s:\n%s\n", name, result.String())

				if !result.Valid {
					failed.Add(fmt.Errorf("%w: %s", errValidationFailed, name))
				}
			}

			return failed.GetError()
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")

	return cmd
}
