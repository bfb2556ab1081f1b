package java

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/dhamidi/jsuggest/java/index"
)

func TestSuggestMemberAccess(t *testing.T) {
	src := "class A { B f; void m() { f. } }\nclass B { void g() {} }"
	got := suggestAt(t, src, after(t, src, "f."), nil)

	require.Len(t, got, 1)
	assert.Equal(t, "g", got[0].Name)
	assert.Equal(t, SuggestMethod, got[0].Kind)
	assert.Equal(t, "B", got[0].DeclaringType)
	assert.Equal(t, "void g()", got[0].Signature)
	assert.False(t, got[0].Static)
}

func TestSuggestAfterComment(t *testing.T) {
	src := "class A { B f; void m() { f. /* note */ // more\n } }\nclass B { void g() {} }"
	for _, marker := range []string{"f.", "f. /*", "/* note */", "// more", "// more\n "} {
		got := suggestAt(t, src, after(t, src, marker), nil)
		assert.Equal(t, []string{"g"}, names(got), "cursor after %q", marker)
	}

	src = "class A { B f; void m() { f. x } }\nclass B { void g() {} }"
	got := suggestAt(t, src, after(t, src, "f. x"), nil)
	assert.Empty(t, names(got))
}

func TestSuggestFooFixture(t *testing.T) {
	src := readFixture(t, "Foo.java")
	fancier := []string{"doFancier", "buz", "bla", "breaks", "method"}
	fancy := []string{"biz", "Fancier"}

	tests := []struct {
		name   string
		marker string
		want   []string
	}{
		{"field", "return field1.", fancier},
		{"qualified this field", "Foo.this.field1.", fancier},
		{"this field", "        this.field1.", fancier},
		{"local", "return other.", fancier},
		{"parameter", "                other.", fancier},
		{"method result", "doFancier().", fancy},
		{"qualified this", "Fancy.this.", fancy},
		{"this", "        this. //", []string{"field1", "baz", "baz", "Fancy", "fooFieldMethod", "fooMethod"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := suggestAt(t, src, after(t, src, tt.marker), nil)
			assert.Equal(t, tt.want, names(got))
		})
	}

	t.Run("signatures", func(t *testing.T) {
		got := suggestAt(t, src, after(t, src, "return field1."), nil)
		require.Len(t, got, 5)

		assert.Equal(t, "Fancy doFancier(Boring arg)", got[0].Signature)
		assert.Contains(t, got[0].Doc, "Turns a Boring into a Fancy")
		assert.Equal(t, "Foo buz()", got[1].Signature)
		assert.Equal(t, "/** Buzzes */", got[1].Doc)
		assert.Equal(t, "Fail method()", got[4].Signature, "the first overload wins")
		for _, s := range got {
			assert.Equal(t, "net.dhleong.njast.Foo.Fancy.Fancier", s.DeclaringType)
		}
	})

	t.Run("nested type", func(t *testing.T) {
		got := suggestAt(t, src, after(t, src, "Fancy.this."), nil)
		require.Len(t, got, 2)
		assert.Equal(t, SuggestNestedType, got[1].Kind)
		assert.Equal(t, "class Fancier", got[1].Signature)
	})
}

func TestSuggestCastNarrowing(t *testing.T) {
	src := `class Foo {
	Foo buz() { return null; }
	Fancier make() { return null; }
	void m(Object arg) {
		((Fancier) arg).buz().
	}
	class Fancier {
		Foo buz() { return null; }
		void only() {}
	}
}`
	got := suggestAt(t, src, after(t, src, "buz()."), nil)
	assert.Equal(t, []string{"buz", "make", "m", "Fancier"}, names(got))
}

func TestSuggestUnresolvedQualifier(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		marker string
	}{
		{"unknown field type", "class A { Missing f; void m() { f. } }", "f."},
		{"unknown name", "class A { void m() { nothing. } }", "nothing."},
		{"null", "class A { void m() { null. } }", "null."},
		{"through unresolved call", "class A { Bar b() { return null; } void m() { b().c(). } }", "c()."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, suggestAt(t, tt.src, after(t, tt.src, tt.marker), nil))
		})
	}
}

func TestSuggestNoAccessPoint(t *testing.T) {
	src := "class A { int x; void m() { x = 1; } }"
	a := analyzeAt(src, 0)

	for _, offset := range []int{0, after(t, src, "x = "), len(src), len(src) + 5, -1} {
		got, err := a.Suggest(context.Background(), nil, offset)
		require.NoError(t, err)
		assert.Empty(t, got, "offset %d", offset)
	}
}

func TestSuggestPrefix(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		marker string
		want   []string
	}{
		{"field access", "class P { void m(String s) { s.le } }", "s.le", []string{"length"}},
		{"call", "class P { void m(String s) { s.subs(); } }", "s.subs", []string{"substring"}},
		{"unqualified call", "class P { void helper() {} void m() { hel(); } }", "{ hel", []string{"helper"}},
		{"whole name", "class P { void m(String s) { s.trim(); } }", "s.trim", []string{"trim"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := suggestAt(t, tt.src, after(t, tt.src, tt.marker), index.JDK())
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestSuggestStaticContext(t *testing.T) {
	src := `class U {
	static int MAX;
	int size;
	static void make() {}
	void use() {}
	static class Nested {}
	class Inner {}
	void m() {
		U.
	}
}`
	got := suggestAt(t, src, after(t, src, "U."), nil)
	assert.Equal(t, []string{"MAX", "make", "Nested", "Inner"}, names(got))
	assert.True(t, got[0].Static)
	assert.Equal(t, "int MAX", got[0].Signature)
}

func TestSuggestImplicitThis(t *testing.T) {
	strs := &index.TypeEntry{
		Name: "util.Strings",
		Kind: index.KindClass,
		Members: []index.MemberEntry{
			{Name: "EMPTY", Kind: index.MemberField, Type: index.TypeRef{Name: "java.lang.String"}, Static: true},
		},
	}
	src := `import static util.Strings.EMPTY;

class Outer {
	int count;
	private int hidden;
	void outerOnly() {}

	class Inner {
		String label;

		void run(int n) {
			int local = 1;
			.
			int later = 2;
		}
	}
}`
	offset := after(t, src, "local = 1;\n\t\t\t.")
	got := suggestAt(t, src, offset, index.NewMemory(strs))

	assert.Equal(t, []string{"local", "n", "label", "run", "count", "hidden", "EMPTY"}, names(got))
	assert.Equal(t, SuggestLocal, got[0].Kind)
	assert.Equal(t, "int local", got[0].Signature)
	assert.Equal(t, SuggestField, got[4].Kind)
	assert.Equal(t, "Outer", got[4].DeclaringType)
	assert.True(t, got[6].Static)

	t.Run("this", func(t *testing.T) {
		src := `class T {
	int a;
	void m(int p) {
		this.
	}
}`
		assert.Equal(t, []string{"p", "a", "m"}, names(suggestAt(t, src, after(t, src, "this."), nil)))
	})
}

func TestSuggestHidesPrivateMembers(t *testing.T) {
	t.Run("other top-level type", func(t *testing.T) {
		src := `class A { B b; void m() { b. } }
class B { private int secret; int open; private void hide() {} B() {} }`
		assert.Equal(t, []string{"open"}, names(suggestAt(t, src, after(t, src, "b."), nil)))
	})

	t.Run("same top-level type", func(t *testing.T) {
		src := `class Outer {
	Inner in;
	void m() { in. }
	class Inner { private int secret; }
}`
		assert.Equal(t, []string{"secret"}, names(suggestAt(t, src, after(t, src, "in."), nil)))
	})
}

func TestSuggestJDK(t *testing.T) {
	src := `import java.util.List;

class J {
	void m(List<String> xs) {
		xs.get(0).
	}
}`
	got := suggestAt(t, src, after(t, src, "get(0)."), index.JDK())
	ns := names(got)
	assert.Contains(t, ns, "length")
	assert.Contains(t, ns, "hashCode")
	assert.Equal(t, 1, count(ns, "toString"))
	assert.Contains(t, ns, "getClass")
}

func TestSuggestIndexErrors(t *testing.T) {
	boom := errors.New("index unavailable")
	src := "class A { Missing f; void m() { f. } }"
	offset := after(t, src, "f.")

	_, err := analyzeAt(src, offset).Suggest(context.Background(), failingIndex{err: boom}, offset)
	assert.ErrorIs(t, err, boom)
}

type failingIndex struct{ err error }

func (f failingIndex) LookupType(context.Context, string) (*index.TypeEntry, error) {
	return nil, f.err
}

func count(xs []string, x string) int {
	n := 0
	for _, s := range xs {
		if s == x {
			n++
		}
	}
	return n
}
