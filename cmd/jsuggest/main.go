package main

import (
	"os"

	"github.com/spf13/afero"
	_ "github.com/tliron/commonlog/simple"
)

var version = "0.1.0"

func main() {
	rootCmd := newRootCmd(&app{fs: afero.NewOsFs()})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
