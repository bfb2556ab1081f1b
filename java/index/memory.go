package index

import (
	"context"
	"sort"
	"sync"
)

// Memory is a map-backed index. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	types map[string]*TypeEntry
}

func NewMemory(entries ...*TypeEntry) *Memory {
	m := &Memory{types: make(map[string]*TypeEntry)}
	m.Add(entries...)
	return m
}

// Add registers entries, replacing any with the same name.
func (m *Memory) Add(entries ...*TypeEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if e == nil || e.Name == "" {
			continue
		}
		e.Name = NormalizeName(e.Name)
		m.types[e.Name] = e
	}
}

func (m *Memory) Remove(names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		delete(m.types, NormalizeName(n))
	}
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.types)
}

func (m *Memory) LookupType(ctx context.Context, fqn string) (*TypeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.types[NormalizeName(fqn)]; ok {
		return e, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) TypeNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.types))
	for n := range m.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Entries returns all entries sorted by name.
func (m *Memory) Entries() []*TypeEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*TypeEntry, 0, len(m.types))
	for _, e := range m.types {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
