// Package config loads the project configuration of jsuggest from a
// .jsuggest.yaml file, a .env file and the environment.
package config

import (
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/tliron/commonlog"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/dhamidi/jsuggest/java/codebase"
	"github.com/dhamidi/jsuggest/java/index"
)

const (
	FileName    = ".jsuggest.yaml"
	DotEnvName  = ".env"
	EnvConfig   = "JSUGGEST_CONFIG"
	EnvLogLevel = "JSUGGEST_LOG_LEVEL"
)

var ErrInvalid = errors.Base("invalid configuration")

var logLevels = map[string]commonlog.Level{
	"none":     commonlog.None,
	"critical": commonlog.Critical,
	"error":    commonlog.Error,
	"warning":  commonlog.Warning,
	"notice":   commonlog.Notice,
	"info":     commonlog.Info,
	"debug":    commonlog.Debug,
}

// Config is relative to the directory holding the configuration file.
type Config struct {
	// SourceRoots are scanned for Java sources.
	SourceRoots []string `yaml:"sourceRoots,omitempty"`
	Include     []string `yaml:"include,omitempty"`
	Exclude     []string `yaml:"exclude,omitempty"`
	// IndexFiles describe libraries as YAML index files, jars or single
	// classes. They are consulted after the sources and before the built-in
	// java.lang types.
	IndexFiles []string `yaml:"indexFiles,omitempty"`
	LogLevel   string   `yaml:"logLevel,omitempty"`
	LogFile    string   `yaml:"logFile,omitempty"`

	// Dir is where relative paths start. It is not read from the file.
	Dir string `yaml:"-"`
}

func Default() *Config {
	return &Config{
		SourceRoots: []string{"."},
		Include:     append([]string(nil), codebase.DefaultInclude...),
		Exclude:     append([]string(nil), codebase.DefaultExclude...),
		LogLevel:    "notice",
		Dir:         ".",
	}
}

// Load reads the file at path over the defaults. Unknown keys are errors.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading config %s: %w", path, err)
	}

	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Errorf("config %s: %w", path, err)
	}
	c.Dir = filepath.Dir(path)

	if err := c.Validate(); err != nil {
		return nil, errors.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Find loads the configuration for dir: the file named by JSUGGEST_CONFIG,
// else dir/.jsuggest.yaml, else the defaults. The environment is applied on
// top.
func Find(fs afero.Fs, dir string) (*Config, error) {
	path := os.Getenv(EnvConfig)
	if path == "" {
		path = filepath.Join(dir, FileName)
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return nil, errors.Errorf("looking for config: %w", err)
		}
		if !exists {
			c := Default()
			c.Dir = dir
			return c, c.ApplyEnv()
		}
	}

	c, err := Load(fs, path)
	if err != nil {
		return nil, err
	}
	return c, c.ApplyEnv()
}

// LoadDotEnv sets the variables of the .env file at path that are not set
// already. A missing file is not an error.
func LoadDotEnv(fs afero.Fs, path string) error {
	f, err := fs.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return errors.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return errors.Errorf("parsing %s: %w", path, err)
	}
	for k, v := range vars {
		if _, ok := os.LookupEnv(k); ok {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return errors.Errorf("setting %s: %w", k, err)
		}
	}
	return nil
}

// ApplyEnv overrides file values with the environment.
func (c *Config) ApplyEnv() error {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
	return c.Validate()
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs error
	if len(c.SourceRoots) == 0 {
		errs = multierr.Append(errs, errors.Errorf("%w: no source roots", ErrInvalid))
	}
	for _, r := range c.SourceRoots {
		if strings.TrimSpace(r) == "" {
			errs = multierr.Append(errs, errors.Errorf("%w: empty source root", ErrInvalid))
		}
	}
	for _, g := range append(append([]string(nil), c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(g) {
			errs = multierr.Append(errs, errors.Errorf("%w: bad glob %q", ErrInvalid, g))
		}
	}
	for _, f := range c.IndexFiles {
		if strings.TrimSpace(f) == "" {
			errs = multierr.Append(errs, errors.Errorf("%w: empty index file", ErrInvalid))
		}
	}
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok && c.LogLevel != "" {
		errs = multierr.Append(errs, errors.Errorf("%w: unknown log level %q", ErrInvalid, c.LogLevel))
	}
	return errs
}

// Verbosity converts the log level to a commonlog verbosity.
func (c *Config) Verbosity() int {
	level, ok := logLevels[strings.ToLower(c.LogLevel)]
	if !ok {
		return 0
	}
	return int(level) - int(commonlog.Notice)
}

// Path makes p relative to the configuration directory.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// CodebaseOptions carries the globs into a codebase rooted at Dir. Include
// globs are repeated under each source root.
func (c *Config) CodebaseOptions() []codebase.Option {
	var include []string
	for _, r := range c.SourceRoots {
		r = path.Clean(filepath.ToSlash(r))
		for _, g := range c.Include {
			if r == "." {
				include = append(include, g)
			} else {
				include = append(include, r+"/"+g)
			}
		}
	}
	opts := []codebase.Option{codebase.WithInclude(include...)}
	if len(c.Exclude) > 0 {
		opts = append(opts, codebase.WithExclude(c.Exclude...))
	}
	return opts
}

// Libraries loads the index files and jars, in order, followed by the built-in
// java.lang types.
func (c *Config) Libraries(fs afero.Fs) (index.Index, error) {
	var chain []index.Index
	for _, f := range c.IndexFiles {
		m, err := index.LoadLibrary(fs, c.Path(f))
		if err != nil {
			return nil, err
		}
		chain = append(chain, m)
	}
	chain = append(chain, index.JDK())
	return index.NewChain(chain...), nil
}
