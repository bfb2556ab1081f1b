package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/jsuggest/java/codebase"
)

func newLSPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			libs, err := a.cfg.Libraries(a.fs)
			if err != nil {
				return err
			}
			opts := append(a.cfg.CodebaseOptions(), codebase.WithLibraries(libs))
			server := codebase.NewLSPServer(version, a.fs, opts...)
			return server.RunStdio()
		},
	}
}
