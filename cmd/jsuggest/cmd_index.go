package main

import (
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/dhamidi/jsuggest/java/index"
)

func newIndexCmd(a *app) *cobra.Command {
	var outputFormat string
	var output string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the project sources",
		Long: `Scan the project sources and print an entry for every type they
declare. With --output the entries are written as an index file that other
projects can list under indexFiles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.workspace(ctx)
			if err != nil {
				return err
			}
			names, err := c.TypeNames(ctx)
			if err != nil {
				return err
			}
			entries := make([]*index.TypeEntry, 0, len(names))
			for _, name := range names {
				e, err := c.LookupType(ctx, name)
				if err != nil {
					return errors.Errorf("index %s: %w", name, err)
				}
				entries = append(entries, e)
			}
			log.Infof("indexed %d types", len(entries))

			if output != "" {
				return index.WriteFile(a.fs, output, entries)
			}
			return encode(cmd, outputFormat, entries)
		},
	}

	formatFlag(cmd, &outputFormat, "yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write an index file instead of printing")

	return cmd
}
