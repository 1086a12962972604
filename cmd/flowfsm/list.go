package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List embedded workflows and registered implementations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Workflows:")

			for _, name := range a.loader.ListAvailable() {
				fmt.Fprintf(out, "  %s\n", name)
			}

			fmt.Fprintln(out, "Implementations:")

			for _, name := range a.factory.Names() {
				fmt.Fprintf(out, "  %s\n", name)
			}

			return nil
		},
	}
}
