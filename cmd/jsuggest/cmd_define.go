package main

import (
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

func newDefineCmd(a *app) *cobra.Command {
	var outputFormat string
	var scan bool

	cmd := &cobra.Command{
		Use:   "define <file> <offset|line:column>",
		Short: "Print where the identifier at a position is declared",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, offset, err := a.open(cmd.Context(), args[0], args[1], scan)
			if err != nil {
				return err
			}
			loc, err := u.analysis.Define(cmd.Context(), u.index, offset)
			if err != nil {
				return errors.Errorf("define: %w", err)
			}
			return encode(cmd, outputFormat, loc)
		},
	}

	formatFlag(cmd, &outputFormat, "line")
	cmd.Flags().BoolVar(&scan, "scan", true, "index the other sources of the project")

	return cmd
}
