package main

import (
	"github.com/spf13/cobra"
)

func newOutlineCmd(a *app) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "outline <file>",
		Short: "List the types and members declared in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, _, err := a.open(cmd.Context(), args[0], "", false)
			if err != nil {
				return err
			}
			return encode(cmd, outputFormat, u.analysis.Outline())
		},
	}

	formatFlag(cmd, &outputFormat, "line")

	return cmd
}
