package main

import (
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

func newSuggestCmd(a *app) *cobra.Command {
	var outputFormat string
	var scan bool

	cmd := &cobra.Command{
		Use:   "suggest <file> <offset|line:column>",
		Short: "List the members that can follow the dot at a position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, offset, err := a.open(cmd.Context(), args[0], args[1], scan)
			if err != nil {
				return err
			}
			suggestions, err := u.analysis.Suggest(cmd.Context(), u.index, offset)
			if err != nil {
				return errors.Errorf("suggest: %w", err)
			}
			return encode(cmd, outputFormat, suggestions)
		},
	}

	formatFlag(cmd, &outputFormat, "line")
	cmd.Flags().BoolVar(&scan, "scan", true, "index the other sources of the project")

	return cmd
}
