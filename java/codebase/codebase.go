// Package codebase keeps the Java sources under a root directory parsed and
// serves them as an index, so that queries on one file can see the types
// declared in the others.
package codebase

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"github.com/tliron/commonlog"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/dhamidi/jsuggest/java"
	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/parser"
	"github.com/dhamidi/jsuggest/java/resolve"
	"github.com/dhamidi/jsuggest/java/scope"
)

var log = commonlog.GetLogger("jsuggest.codebase")

var ErrUnknownFile = errors.Base("file not in codebase")

var (
	DefaultInclude = []string{"**/*.java"}
	DefaultExclude = []string{"**/build/**", "**/.*/**"}
)

type Option func(*Codebase)

// WithInclude replaces the globs a file must match, relative to the root.
func WithInclude(globs ...string) Option {
	return func(c *Codebase) { c.include = globs }
}

// WithExclude replaces the globs that drop a file, relative to the root.
func WithExclude(globs ...string) Option {
	return func(c *Codebase) { c.exclude = globs }
}

// WithLibraries adds an index consulted after the sources, for the JDK and
// other dependencies.
func WithLibraries(idx index.Index) Option {
	return func(c *Codebase) { c.libs = idx }
}

// Codebase is safe for concurrent use.
type Codebase struct {
	fs      afero.Fs
	rootDir string
	include []string
	exclude []string
	libs    index.Index
	cache   *index.Cached

	mu    sync.RWMutex
	files map[string]*FileInfo
	// types maps the qualified name of each member and top-level type to
	// the file declaring it.
	types map[string]string
	// gen counts changes; entries built before the last change are stale.
	gen uint64
}

type FileInfo struct {
	Path     string
	Content  []byte
	Analysis *java.Analysis

	mu      sync.Mutex
	gen     uint64
	entries map[string]*index.TypeEntry
}

func New(fs afero.Fs, rootDir string, opts ...Option) *Codebase {
	c := &Codebase{
		fs:      fs,
		rootDir: filepath.Clean(rootDir),
		include: DefaultInclude,
		exclude: DefaultExclude,
		files:   make(map[string]*FileInfo),
		types:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cache = index.NewCached(index.NewChain(c, c.libs))
	return c
}

func (c *Codebase) RootDir() string {
	return c.rootDir
}

func (c *Codebase) Fs() afero.Fs {
	return c.fs
}

// Index is the view queries should use: the sources, then the libraries,
// memoized until the next change.
func (c *Codebase) Index() index.Index {
	return c.cache
}

// Matches reports whether path is a source file of the codebase according
// to the include and exclude globs.
func (c *Codebase) Matches(path string) bool {
	rel, err := filepath.Rel(c.rootDir, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, g := range c.exclude {
		if doublestar.MatchUnvalidated(g, rel) {
			return false
		}
	}
	for _, g := range c.include {
		if doublestar.MatchUnvalidated(g, rel) {
			return true
		}
	}
	return false
}

// ScanAll reads every matching file under the root. A file that cannot be
// read does not stop the scan; all such failures are returned together.
func (c *Codebase) ScanAll(ctx context.Context) error {
	var errs error
	n := 0
	err := afero.Walk(c.fs, c.rootDir, func(path string, info os.FileInfo, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			errs = multierr.Append(errs, errors.Errorf("walk %s: %w", path, err))
			return nil
		}
		if info.IsDir() || !c.Matches(path) {
			return nil
		}
		if err := c.ScanFile(path); err != nil {
			errs = multierr.Append(errs, err)
			return nil
		}
		n++
		return nil
	})
	if err != nil {
		return errors.Errorf("scan %s: %w", c.rootDir, err)
	}
	log.Infof("scanned %d files under %s", n, c.rootDir)
	return errs
}

func (c *Codebase) ScanFile(path string) error {
	content, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return errors.Errorf("read %s: %w", path, err)
	}
	c.UpdateFile(path, content)
	return nil
}

// UpdateFile replaces the content of path, which need not exist on disk.
func (c *Codebase) UpdateFile(path string, content []byte) {
	a := java.Analyze(content, parser.WithFile(path))
	f := &FileInfo{Path: path, Content: content, Analysis: a}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.forgetLocked(path)
	c.files[path] = f
	for _, name := range declaredTypes(a) {
		if other, ok := c.types[name]; ok && other != path {
			log.Warningf("type %s declared in %s and %s", name, other, path)
		}
		c.types[name] = path
	}
	c.invalidateLocked()
	log.Debugf("updated %s", path)
}

func (c *Codebase) RemoveFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forgetLocked(path)
	delete(c.files, path)
	c.invalidateLocked()
	log.Debugf("removed %s", path)
}

func (c *Codebase) forgetLocked(path string) {
	for name, p := range c.types {
		if p == path {
			delete(c.types, name)
		}
	}
}

// invalidateLocked marks derived entries stale: the names they were built
// with may have changed meaning.
func (c *Codebase) invalidateLocked() {
	c.gen++
	c.cache.Invalidate()
}

func (c *Codebase) GetFile(path string) *FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files[path]
}

// Files lists the paths of the codebase in order.
func (c *Codebase) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.files))
	for p := range c.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Analyze parses path again for a query at offset.
func (c *Codebase) Analyze(path string, offset int) (*java.Analysis, error) {
	f := c.GetFile(path)
	if f == nil {
		return nil, errors.Errorf("%w: %s", ErrUnknownFile, path)
	}
	return java.Analyze(f.Content, parser.WithFile(path), parser.WithCursor(offset)), nil
}

// LookupType returns the entry of a type declared in the sources. Entries are
// built on first use.
func (c *Codebase) LookupType(ctx context.Context, fqn string) (*index.TypeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fqn = index.NormalizeName(fqn)
	c.mu.RLock()
	f, gen := c.files[c.types[fqn]], c.gen
	c.mu.RUnlock()
	if f == nil {
		return nil, index.ErrNotFound
	}
	if e := c.entriesOf(ctx, f, gen)[fqn]; e != nil {
		return e, nil
	}
	return nil, index.ErrNotFound
}

func (c *Codebase) TypeNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.types))
	for n := range c.types {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// entriesOf converts f to index entries. Type names are qualified against the
// names the codebase and libraries declare, without reading their members,
// so building one file's entries never needs another's.
func (c *Codebase) entriesOf(ctx context.Context, f *FileInfo, gen uint64) map[string]*index.TypeEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries != nil && f.gen == gen {
		return f.entries
	}
	f.gen = gen
	r := resolve.New(f.Analysis.Graph, index.NewChain(names{c}, c.libs))
	f.entries = map[string]*index.TypeEntry{}
	for _, e := range index.FromAnalysis(ctx, f.Analysis.Graph, r.TypeRef) {
		f.entries[e.Name] = e
	}
	return f.entries
}

// names knows which types the sources declare but nothing about them.
type names struct{ c *Codebase }

func (n names) LookupType(_ context.Context, fqn string) (*index.TypeEntry, error) {
	fqn = index.NormalizeName(fqn)
	n.c.mu.RLock()
	_, ok := n.c.types[fqn]
	n.c.mu.RUnlock()
	if !ok {
		return nil, index.ErrNotFound
	}
	return &index.TypeEntry{Name: fqn}, nil
}

func declaredTypes(a *java.Analysis) []string {
	var out []string
	g := a.Graph
	for i := 0; i < g.NumTypes(); i++ {
		d := g.Type(scope.TypeID(i))
		if !d.Local && d.Name != "" {
			out = append(out, d.QualifiedName)
		}
	}
	return out
}
