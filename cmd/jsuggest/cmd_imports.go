package main

import (
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

func newImportsCmd(a *app) *cobra.Command {
	var outputFormat string
	var scan bool

	cmd := &cobra.Command{
		Use:   "imports <file>",
		Short: "List the type names that need an import, with candidates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, _, err := a.open(cmd.Context(), args[0], "", scan)
			if err != nil {
				return err
			}
			missing, err := u.analysis.MissingImports(cmd.Context(), u.index)
			if err != nil {
				return errors.Errorf("imports: %w", err)
			}
			return encode(cmd, outputFormat, missing)
		},
	}

	formatFlag(cmd, &outputFormat, "line")
	cmd.Flags().BoolVar(&scan, "scan", true, "index the other sources of the project")

	return cmd
}
