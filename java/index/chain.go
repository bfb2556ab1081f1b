package index

import (
	"context"
	"sort"
	"sync"

	"github.com/tliron/commonlog"
	"gitlab.com/tozd/go/errors"
)

var log = commonlog.GetLogger("jsuggest.index")

// Chain asks each index in turn. The first one that knows a name wins;
// ErrNotFound falls through to the next, any other error ends the lookup
// and is returned as is.
type Chain []Index

func NewChain(indexes ...Index) Chain {
	var c Chain
	for _, idx := range indexes {
		if idx != nil {
			c = append(c, idx)
		}
	}
	return c
}

func (c Chain) LookupType(ctx context.Context, fqn string) (*TypeEntry, error) {
	for _, idx := range c {
		e, err := idx.LookupType(ctx, fqn)
		if err == nil && e != nil {
			return e, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// TypeNames merges the names of every index in the chain that is a Lister.
func (c Chain) TypeNames(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var names []string
	for _, idx := range c {
		l, ok := idx.(Lister)
		if !ok {
			continue
		}
		ns, err := l.TypeNames(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range ns {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// Cached memoizes the lookups of an index, misses included. Failures other
// than ErrNotFound are not remembered. It is safe for concurrent use.
type Cached struct {
	inner Index

	mu      sync.RWMutex
	entries map[string]*TypeEntry
}

func NewCached(inner Index) *Cached {
	return &Cached{inner: inner, entries: map[string]*TypeEntry{}}
}

func (c *Cached) LookupType(ctx context.Context, fqn string) (*TypeEntry, error) {
	fqn = NormalizeName(fqn)
	c.mu.RLock()
	e, ok := c.entries[fqn]
	c.mu.RUnlock()
	if ok {
		if e == nil {
			return nil, ErrNotFound
		}
		return e, nil
	}

	e, err := c.inner.LookupType(ctx, fqn)
	switch {
	case errors.Is(err, ErrNotFound):
		e = nil
	case err != nil:
		log.Warningf("lookup %s: %s", fqn, err)
		return nil, err
	}

	c.mu.Lock()
	c.entries[fqn] = e
	c.mu.Unlock()
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

func (c *Cached) TypeNames(ctx context.Context) ([]string, error) {
	if l, ok := c.inner.(Lister); ok {
		return l.TypeNames(ctx)
	}
	return nil, nil
}

// Invalidate forgets every memoized lookup.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.entries = map[string]*TypeEntry{}
	c.mu.Unlock()
	log.Debug("cache invalidated")
}
