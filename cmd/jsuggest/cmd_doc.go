package main

import (
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/dhamidi/jsuggest/java/javadoc"
)

func newDocCmd(a *app) *cobra.Command {
	var outputFormat string
	var scan bool

	cmd := &cobra.Command{
		Use:   "doc <file> <offset|line:column>",
		Short: "Print the Javadoc of the member or type at a position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, offset, err := a.open(cmd.Context(), args[0], args[1], scan)
			if err != nil {
				return err
			}
			doc, err := u.analysis.Document(cmd.Context(), u.index, offset)
			if err != nil {
				return errors.Errorf("doc: %w", err)
			}
			if doc == "" {
				return nil
			}

			switch outputFormat {
			case "raw":
			case "markdown":
				doc = javadoc.Parse(doc).Markdown()
			case "text":
				doc = javadoc.Parse(doc).Text()
			default:
				return errors.Errorf("unknown format: %s", outputFormat)
			}
			return encode(cmd, "line", doc)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "markdown", "output format (markdown, text, raw)")
	cmd.Flags().BoolVar(&scan, "scan", true, "index the other sources of the project")

	return cmd
}
