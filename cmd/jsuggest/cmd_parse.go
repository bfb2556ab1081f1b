package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/dhamidi/jsuggest/java/parser"
)

func newParseCmd(a *app) *cobra.Command {
	var outputFormat string
	var includePositions bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a .java file and dump the syntax tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			if ext := filepath.Ext(filename); ext != ".java" {
				return errors.Errorf("unsupported file extension: %s (expected .java)", ext)
			}
			data, err := afero.ReadFile(a.fs, filename)
			if err != nil {
				return errors.Errorf("read java file: %w", err)
			}
			tree := parser.Parse(data, parser.WithFile(filename))

			switch outputFormat {
			case "tree":
				out := cmd.OutOrStdout()
				if includePositions {
					fmt.Fprint(out, tree.StringWithPositions())
				} else {
					fmt.Fprint(out, tree.String())
				}
				for _, d := range tree.Diagnostics {
					fmt.Fprintln(cmd.ErrOrStderr(), d)
				}
				return nil
			case "json":
				return encode(cmd, "json", tree)
			}
			return errors.Errorf("unknown format: %s", outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "tree", "output format (tree, json)")
	cmd.Flags().BoolVar(&includePositions, "positions", false, "include spans in tree output")

	return cmd
}
