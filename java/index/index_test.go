package index

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/dhamidi/jsuggest/java/parser"
	"github.com/dhamidi/jsuggest/java/scope"
)

// countingIndex records how often it is asked and can be made to fail.
type countingIndex struct {
	inner Index
	err   error
	calls atomic.Int32
}

func (c *countingIndex) LookupType(ctx context.Context, fqn string) (*TypeEntry, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.LookupType(ctx, fqn)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(&TypeEntry{Name: "a.B"}, &TypeEntry{Name: "a.B$Inner"})

	e, err := m.LookupType(ctx, "a.B")
	require.NoError(t, err)
	assert.Equal(t, "B", e.SimpleName())
	assert.Equal(t, "a", e.Package())

	_, err = m.LookupType(ctx, "a.B.Inner")
	assert.NoError(t, err, "binary names are stored dotted")
	_, err = m.LookupType(ctx, "a.B$Inner")
	assert.NoError(t, err)

	_, err = m.LookupType(ctx, "a.C")
	assert.True(t, errors.Is(err, ErrNotFound))

	names, err := m.TypeNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.B", "a.B.Inner"}, names)

	m.Remove("a.B")
	assert.Equal(t, 1, m.Len())

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = m.LookupType(canceled, "a.B.Inner")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLookupHelper(t *testing.T) {
	ctx := context.Background()
	_, found, err := Lookup(ctx, nil, "a.B")
	assert.False(t, found)
	assert.NoError(t, err)

	_, found, err = Lookup(ctx, NewMemory(), "a.B")
	assert.False(t, found)
	assert.NoError(t, err)

	boom := errors.New("disk on fire")
	_, _, err = Lookup(ctx, &countingIndex{err: boom}, "a.B")
	assert.ErrorIs(t, err, boom)
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	first := NewMemory(&TypeEntry{Name: "a.B", Doc: "first"})
	second := NewMemory(&TypeEntry{Name: "a.B", Doc: "second"}, &TypeEntry{Name: "a.C"})
	chain := NewChain(first, nil, second)

	e, err := chain.LookupType(ctx, "a.B")
	require.NoError(t, err)
	assert.Equal(t, "first", e.Doc)

	e, err = chain.LookupType(ctx, "a.C")
	require.NoError(t, err)
	assert.Equal(t, "a.C", e.Name)

	_, err = chain.LookupType(ctx, "a.D")
	assert.ErrorIs(t, err, ErrNotFound)

	names, err := chain.TypeNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.B", "a.C"}, names)

	t.Run("failures are returned unmodified", func(t *testing.T) {
		boom := errors.New("timeout")
		failing := NewChain(NewMemory(), &countingIndex{err: boom}, second)
		_, err := failing.LookupType(ctx, "a.C")
		assert.Same(t, boom, err)
	})
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	inner := &countingIndex{inner: NewMemory(&TypeEntry{Name: "a.B"})}
	cached := NewCached(inner)

	for i := 0; i < 3; i++ {
		_, err := cached.LookupType(ctx, "a.B")
		require.NoError(t, err)
		_, err = cached.LookupType(ctx, "a.Missing")
		require.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(2), inner.calls.Load(), "hits and misses are memoized")

	cached.Invalidate()
	_, err := cached.LookupType(ctx, "a.B")
	require.NoError(t, err)
	assert.Equal(t, int32(3), inner.calls.Load())

	boom := errors.New("io")
	failing := &countingIndex{err: boom}
	cachedFailing := NewCached(failing)
	for i := 0; i < 2; i++ {
		_, err := cachedFailing.LookupType(ctx, "a.B")
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, int32(2), failing.calls.Load(), "failures are not memoized")
}

func TestParseTypeRef(t *testing.T) {
	tests := []struct {
		in   string
		want TypeRef
	}{
		{"int", TypeRef{Name: "int"}},
		{"java.lang.String[][]", TypeRef{Name: "java.lang.String", ArrayDepth: 2}},
		{"java.lang.Object...", TypeRef{Name: "java.lang.Object", ArrayDepth: 1}},
		{"java.util.Map$Entry", TypeRef{Name: "java.util.Map.Entry"}},
		{"java.util.List<E>", TypeRef{Name: "java.util.List", TypeArguments: []TypeRef{{Name: "E"}}}},
		{
			"java.util.Map<K, java.util.List<? extends V>>",
			TypeRef{Name: "java.util.Map", TypeArguments: []TypeRef{
				{Name: "K"},
				{Name: "java.util.List", TypeArguments: []TypeRef{{Name: "V", Wildcard: "extends"}}},
			}},
		},
		{"java.lang.Class<?>", TypeRef{Name: "java.lang.Class", TypeArguments: []TypeRef{{Wildcard: "?"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTypeRef(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "List<", "int[", "? maybe X", "a b"} {
		_, err := ParseTypeRef(bad)
		assert.Error(t, err, bad)
	}

	ref, _ := ParseTypeRef("java.util.Map<java.lang.String, ? super T>[]")
	assert.Equal(t, "java.util.Map<java.lang.String, ? super T>[]", ref.String())
	assert.Equal(t, "Map<String, ? super T>[]", ref.SimpleString())
}

func TestFileRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	entries := []*TypeEntry{{
		Name:       "com.example.Greeter",
		Kind:       KindInterface,
		Interfaces: []string{"java.lang.Comparable<com.example.Greeter>"},
		Members: []MemberEntry{{
			Name:       "greet",
			Kind:       MemberMethod,
			Type:       TypeRef{Name: "java.lang.String"},
			Parameters: []Parameter{{Name: "names", Type: TypeRef{Name: "java.lang.String", ArrayDepth: 1}}},
			Varargs:    true,
			Visibility: VisibilityPublic,
		}},
		Source: &Location{File: "Greeter.java", Line: 3, Column: 18},
	}}
	require.NoError(t, WriteFile(fs, "/idx/greeter.yaml", entries))

	m, err := LoadFile(fs, "/idx/greeter.yaml")
	require.NoError(t, err)
	got, err := m.LookupType(context.Background(), "com.example.Greeter")
	require.NoError(t, err)
	assert.Equal(t, entries[0], got)
}

func TestLoadFileErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := LoadFile(fs, "/missing.yaml")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("types:\n  - name: a.B\n    members:\n      - name: x\n        kind: field\n        type: \"List<\"\n"), 0o644))
	_, err = LoadFile(fs, "/bad.yaml")
	assert.ErrorContains(t, err, "line 6")

	require.NoError(t, afero.WriteFile(fs, "/unknown.yaml", []byte("types:\n  - name: a.B\n    color: red\n"), 0o644))
	_, err = LoadFile(fs, "/unknown.yaml")
	assert.Error(t, err, "unknown keys are rejected")

	require.NoError(t, afero.WriteFile(fs, "/noname.yaml", []byte("types:\n  - kind: class\n"), 0o644))
	_, err = LoadFile(fs, "/noname.yaml")
	assert.ErrorContains(t, err, "no name")
}

func TestJDK(t *testing.T) {
	ctx := context.Background()
	jdk := JDK()

	obj, err := jdk.LookupType(ctx, "java.lang.Object")
	require.NoError(t, err)
	toString, ok := obj.Member("toString", MemberMethod)
	require.True(t, ok)
	assert.Equal(t, "java.lang.String", toString.Type.Name)

	entry, err := jdk.LookupType(ctx, "java.util.Map.Entry")
	require.NoError(t, err)
	assert.Len(t, entry.TypeParameters, 2)

	list, err := jdk.LookupType(ctx, "java.util.List")
	require.NoError(t, err)
	assert.True(t, list.IsInterface())

	fqn, ok := JavaLang("String")
	assert.True(t, ok)
	assert.Equal(t, "java.lang.String", fqn)
	_, ok = JavaLang("List")
	assert.False(t, ok)
}

func TestFromAnalysis(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "parser", "testdata", "Foo.java"))
	require.NoError(t, err)
	g := scope.Build(parser.Parse(data, parser.WithFile("Foo.java")))

	entries := FromAnalysis(context.Background(), g, nil)
	var names []string
	byName := map[string]*TypeEntry{}
	for _, e := range entries {
		names = append(names, e.Name)
		byName[e.Name] = e
	}
	assert.Equal(t, []string{
		"net.dhleong.njast.Foo",
		"net.dhleong.njast.Foo.Fancy",
		"net.dhleong.njast.Foo.Fancy.Fancier",
	}, names)

	foo := byName["net.dhleong.njast.Foo"]
	require.NotNil(t, foo.Source)
	assert.Equal(t, Location{File: "Foo.java", Line: 5, Column: 7}, *foo.Source)

	field, ok := foo.Member("field1", MemberField)
	require.True(t, ok)
	assert.Equal(t, "Fancier", field.Type.Name, "a nil namer keeps names as written")
	assert.Equal(t, VisibilityPackage, field.Visibility)
	assert.Equal(t, 7, field.Line)

	fancier := byName["net.dhleong.njast.Foo.Fancy.Fancier"]
	doFancier, ok := fancier.Member("doFancier", MemberMethod)
	require.True(t, ok)
	require.Len(t, doFancier.Parameters, 1)
	assert.Equal(t, "Boring", doFancier.Parameters[0].Type.Name)
	assert.Contains(t, doFancier.Doc, "Turns a Boring into a Fancy")
}

func TestFromAnalysisEnumsAndInterfaces(t *testing.T) {
	src := `package p;
interface Shape { double area(); default String label() { return ""; } }
enum Color { RED; }
class Local { void m() { class Hidden {} } }`
	g := scope.Build(parser.Parse([]byte(src)))
	namer := func(_ context.Context, node parser.NodeID, _ scope.TypeID) TypeRef {
		ref := RawTypeRef(g.Tree, node)
		if fqn, ok := JavaLang(ref.Name); ok {
			ref.Name = fqn
		}
		return ref
	}
	entries := FromAnalysis(context.Background(), g, namer)
	require.Len(t, entries, 3, "local classes are skipped")

	shape := entries[0]
	area, _ := shape.Member("area", MemberMethod)
	assert.True(t, area.Abstract)
	assert.Equal(t, VisibilityPublic, area.Visibility)
	label, _ := shape.Member("label", MemberMethod)
	assert.False(t, label.Abstract)
	assert.Equal(t, "java.lang.String", label.Type.Name)

	color := entries[1]
	assert.Equal(t, KindEnum, color.Kind)
	assert.Equal(t, "java.lang.Enum<p.Color>", color.Superclass)
	values, _ := color.Member("values", MemberMethod)
	assert.Equal(t, TypeRef{Name: "p.Color", ArrayDepth: 1}, values.Type)
	valueOf, _ := color.Member("valueOf", MemberMethod)
	assert.Equal(t, "java.lang.String", valueOf.Parameters[0].Type.Name)
}
