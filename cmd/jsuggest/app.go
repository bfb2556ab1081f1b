package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/dhamidi/jsuggest/config"
	"github.com/dhamidi/jsuggest/format"
	"github.com/dhamidi/jsuggest/java"
	"github.com/dhamidi/jsuggest/java/codebase"
	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/parser"
)

var log = commonlog.GetLogger("jsuggest.cli")

// app is the state shared by the subcommands once the root command has
// loaded the configuration.
type app struct {
	fs        afero.Fs
	dir       string
	verbosity int
	cfg       *config.Config
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "jsuggest",
		Short:        "Member suggestions and navigation for Java sources",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.dir, "dir", "C", ".", "project directory")
	rootCmd.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "log more, repeat for debug output")

	rootCmd.AddCommand(newParseCmd(a))
	rootCmd.AddCommand(newSuggestCmd(a))
	rootCmd.AddCommand(newDefineCmd(a))
	rootCmd.AddCommand(newDocCmd(a))
	rootCmd.AddCommand(newImplementCmd(a))
	rootCmd.AddCommand(newImportsCmd(a))
	rootCmd.AddCommand(newOutlineCmd(a))
	rootCmd.AddCommand(newIndexCmd(a))
	rootCmd.AddCommand(newLSPCmd(a))

	return rootCmd
}

func (a *app) setup() error {
	dir, err := filepath.Abs(a.dir)
	if err != nil {
		return errors.Errorf("project directory: %w", err)
	}
	a.dir = dir

	if err := config.LoadDotEnv(a.fs, filepath.Join(dir, config.DotEnvName)); err != nil {
		return err
	}
	cfg, err := config.Find(a.fs, dir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	verbosity := max(cfg.Verbosity(), a.verbosity)
	if cfg.LogFile != "" {
		logFile := cfg.Path(cfg.LogFile)
		commonlog.Configure(verbosity, &logFile)
	} else {
		commonlog.Configure(verbosity, nil)
	}
	log.Debugf("configuration from %s", cfg.Dir)
	return nil
}

// workspace scans the project. Files that could not be read are logged and
// left out.
func (a *app) workspace(ctx context.Context) (*codebase.Codebase, error) {
	libs, err := a.cfg.Libraries(a.fs)
	if err != nil {
		return nil, err
	}
	opts := append(a.cfg.CodebaseOptions(), codebase.WithLibraries(libs))
	c := codebase.New(a.fs, a.cfg.Dir, opts...)
	if err := c.ScanAll(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		for _, e := range multierr.Errors(err) {
			log.Warning(e.Error())
		}
	}
	return c, nil
}

// unit is one source file opened for a query.
type unit struct {
	path     string
	content  []byte
	analysis *java.Analysis
	index    index.Index
}

// open reads path and analyzes it for a query at position, which is empty
// when the query needs no cursor. With scan set the rest of the project is
// indexed as well; otherwise only the configured libraries are.
func (a *app) open(ctx context.Context, path, position string, scan bool) (*unit, int, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, 0, errors.Errorf("path %s: %w", path, err)
	}
	content, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return nil, 0, errors.Errorf("read %s: %w", path, err)
	}

	offset := -1
	if position != "" {
		offset, err = parsePosition(content, position)
		if err != nil {
			return nil, 0, err
		}
	}
	opts := []parser.Option{parser.WithFile(path)}
	if offset >= 0 {
		opts = append(opts, parser.WithCursor(offset))
	}

	u := &unit{path: path, content: content}
	if !scan {
		libs, err := a.cfg.Libraries(a.fs)
		if err != nil {
			return nil, 0, err
		}
		u.index = libs
		u.analysis = java.Analyze(content, opts...)
		return u, offset, nil
	}

	c, err := a.workspace(ctx)
	if err != nil {
		return nil, 0, err
	}
	c.UpdateFile(path, content)
	u.index = c.Index()
	u.analysis = java.Analyze(content, opts...)
	return u, offset, nil
}

// parsePosition accepts a byte offset or a 1-based line:column pair, the
// column counting bytes.
func parsePosition(content []byte, s string) (int, error) {
	if line, col, ok := strings.Cut(s, ":"); ok {
		l, err := strconv.Atoi(line)
		if err != nil || l < 1 {
			return 0, errors.Errorf("bad line in position %q", s)
		}
		c, err := strconv.Atoi(col)
		if err != nil || c < 1 {
			return 0, errors.Errorf("bad column in position %q", s)
		}
		offset := 0
		for ; l > 1; l-- {
			i := bytes.IndexByte(content[offset:], '\n')
			if i < 0 {
				return 0, errors.Errorf("position %q past the end of the file", s)
			}
			offset += i + 1
		}
		return min(offset+c-1, len(content)), nil
	}

	offset, err := strconv.Atoi(s)
	if err != nil || offset < 0 {
		return 0, errors.Errorf("bad position %q", s)
	}
	if offset > len(content) {
		return 0, errors.Errorf("position %q past the end of the file", s)
	}
	return offset, nil
}

func encode(cmd *cobra.Command, name string, v any) error {
	enc, err := format.New(name, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := enc.Encode(v); err != nil {
		return errors.Errorf("encode: %w", err)
	}
	return nil
}

func formatFlag(cmd *cobra.Command, p *string, value string) {
	cmd.Flags().StringVarP(p, "format", "f", value, "output format ("+strings.Join(format.Names, ", ")+")")
}
