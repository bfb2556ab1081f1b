package main

import (
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

func newImplementCmd(a *app) *cobra.Command {
	var outputFormat string
	var scan bool

	cmd := &cobra.Command{
		Use:   "implement <file> <offset|line:column>",
		Short: "List the inherited methods the type at a position can override",
		Long: `List the inherited methods the type enclosing a position can still
override. Use --format java to print them as stubs.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, offset, err := a.open(cmd.Context(), args[0], args[1], scan)
			if err != nil {
				return err
			}
			methods, err := u.analysis.Implement(cmd.Context(), u.index, offset)
			if err != nil {
				return errors.Errorf("implement: %w", err)
			}
			return encode(cmd, outputFormat, methods)
		},
	}

	formatFlag(cmd, &outputFormat, "line")
	cmd.Flags().BoolVar(&scan, "scan", true, "index the other sources of the project")

	return cmd
}
