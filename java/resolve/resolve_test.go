package resolve

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/parser"
	"github.com/dhamidi/jsuggest/java/scope"
)

type unit struct {
	tree *parser.Tree
	g    *scope.Graph
	r    *Resolver
}

func analyze(t *testing.T, src string, idx index.Index) *unit {
	t.Helper()
	tree := parser.Parse([]byte(src))
	g := scope.Build(tree)
	return &unit{tree: tree, g: g, r: New(g, idx)}
}

func analyzeFixture(t *testing.T, name string, idx index.Index) *unit {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "parser", "testdata", name))
	require.NoError(t, err)
	return analyze(t, string(data), idx)
}

// node returns the first node of kind, in source order, whose text is text.
func (u *unit) node(t *testing.T, kind parser.NodeKind, text string) parser.NodeID {
	t.Helper()
	found := parser.NoNode
	u.tree.Walk(u.tree.Root, func(id parser.NodeID) bool {
		if found != parser.NoNode {
			return false
		}
		if u.tree.Kind(id) == kind && u.tree.Text(id) == text {
			found = id
			return false
		}
		return true
	})
	require.NotEqual(t, parser.NoNode, found, "no %s %q\n%s", kind, text, u.tree)
	return found
}

// init returns the initializer of the variable declared as name.
func (u *unit) init(t *testing.T, name string) parser.NodeID {
	t.Helper()
	found := parser.NoNode
	u.tree.Walk(u.tree.Root, func(id parser.NodeID) bool {
		if found == parser.NoNode && u.tree.Kind(id) == parser.KindVarDeclarator && u.tree.DeclName(id) == name {
			if cs := u.tree.Children(id); len(cs) > 1 {
				found = cs[1]
			}
		}
		return found == parser.NoNode
	})
	require.NotEqual(t, parser.NoNode, found, "no initializer for %s", name)
	return found
}

func (u *unit) typeOf(t *testing.T, kind parser.NodeKind, text string) Type {
	t.Helper()
	typ, err := u.r.Resolve(context.Background(), u.node(t, kind, text))
	require.NoError(t, err)
	return typ
}

func (u *unit) typeOfInit(t *testing.T, name string) Type {
	t.Helper()
	typ, err := u.r.Resolve(context.Background(), u.init(t, name))
	require.NoError(t, err)
	return typ
}

func (u *unit) memberNames(t *testing.T, typ Type) []string {
	t.Helper()
	ms, err := u.r.Members(context.Background(), typ)
	require.NoError(t, err)
	var out []string
	for _, m := range ms {
		out = append(out, m.Name)
	}
	return out
}

func (u *unit) onlyType(t *testing.T, name string) *scope.TypeDecl {
	t.Helper()
	ids := u.g.TypesNamed(name)
	require.Len(t, ids, 1, "types named %s", name)
	return u.g.Type(ids[0])
}

func TestMemberAccessOnField(t *testing.T) {
	u := analyze(t, `
class A {
	B f;
	void m() {
		f.
	}
}
class B {
	void g() {}
}`, nil)

	typ := u.typeOf(t, parser.KindIncompleteMemberAccess, "f.")
	assert.Equal(t, Known, typ.Kind)
	assert.Equal(t, "B", typ.Name)
	assert.True(t, typ.IsLocal())

	ms, err := u.r.Members(context.Background(), typ)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "g", ms[0].Name)
	assert.Equal(t, index.MemberMethod, ms[0].Kind)
	assert.Equal(t, "B", ms[0].DeclaringType)
	assert.Equal(t, "void", ms[0].Type.String())
}

func TestFooFixture(t *testing.T) {
	u := analyzeFixture(t, "Foo.java", nil)
	const (
		foo     = "net.dhleong.njast.Foo"
		fancy   = "net.dhleong.njast.Foo.Fancy"
		fancier = "net.dhleong.njast.Foo.Fancy.Fancier"
	)
	fancierMembers := []string{"doFancier", "buz", "bla", "breaks", "method"}

	t.Run("field of nested type", func(t *testing.T) {
		typ := u.typeOf(t, parser.KindIncompleteMemberAccess, "field1.")
		assert.Equal(t, fancier, typ.Name)
		assert.Equal(t, fancierMembers, u.memberNames(t, typ))
	})

	t.Run("outer this", func(t *testing.T) {
		typ := u.typeOf(t, parser.KindIncompleteMemberAccess, "Foo.this.field1.")
		assert.Equal(t, fancier, typ.Name)
		assert.Equal(t, fancy, u.typeOf(t, parser.KindIncompleteMemberAccess, "Fancy.this.").Name)
	})

	t.Run("this field", func(t *testing.T) {
		assert.Equal(t, fancier, u.typeOf(t, parser.KindIncompleteMemberAccess, "this.field1.").Name)
	})

	t.Run("this", func(t *testing.T) {
		typ := u.typeOf(t, parser.KindIncompleteMemberAccess, "this.")
		assert.Equal(t, foo, typ.Name)
		assert.Equal(t, []string{"field1", "Foo", "baz", "baz", "Fancy", "fooFieldMethod", "fooMethod"},
			u.memberNames(t, typ))
	})

	t.Run("locals and parameters", func(t *testing.T) {
		assert.Equal(t, fancier, u.typeOf(t, parser.KindIncompleteMemberAccess, "other.").Name)
	})

	t.Run("method result", func(t *testing.T) {
		assert.Equal(t, fancy, u.typeOf(t, parser.KindIncompleteMemberAccess, "doFancier().").Name)
	})

	t.Run("cast narrows", func(t *testing.T) {
		assert.Equal(t, fancier, u.typeOf(t, parser.KindParenExpr, "((Fancier) arg3)").Name)
		assert.Equal(t, foo, u.typeOf(t, parser.KindCallExpr, "((Fancier) arg3).buz()").Name)
		assert.Equal(t, fancy, u.typeOf(t, parser.KindCallExpr, "((Fancier) arg3).buz().baz()").Name)
		assert.Equal(t, fancy, u.typeOf(t, parser.KindCallExpr, "((Fancier) arg2).doFancier(arg3)").Name)
	})

	t.Run("unknown types stay unresolved down the chain", func(t *testing.T) {
		biz := u.typeOf(t, parser.KindCallExpr, "((Fancier) arg3).buz().baz().biz()")
		assert.Equal(t, Unresolved, biz.Kind)
		assert.False(t, biz.IsResolved())
		assert.Equal(t, "<unresolved>", biz.String())

		bar := u.typeOf(t, parser.KindCallExpr, "((Fancier) arg3).buz().baz().biz().doBar()")
		assert.Equal(t, Unresolved, bar.Kind)
	})

	t.Run("idempotent", func(t *testing.T) {
		id := u.node(t, parser.KindIncompleteMemberAccess, "Foo.this.field1.")
		first, err := u.r.Resolve(context.Background(), id)
		require.NoError(t, err)
		second, err := u.r.Resolve(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := u.r.Resolve(ctx, u.node(t, parser.KindIncompleteMemberAccess, "field1."))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestExpressionTypes(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"1", "int"},
		{"2L", "long"},
		{"1.5", "double"},
		{"1.5f", "float"},
		{"'c'", "char"},
		{`"s"`, "java.lang.String"},
		{"true", "boolean"},
		{"null", "<unresolved>"},
		{"i + l", "long"},
		{"i * 1.5f", "float"},
		{"c + c", "int"},
		{"s + i", "java.lang.String"},
		{"i + s", "java.lang.String"},
		{"boxed + 1", "int"},
		{"i < l", "boolean"},
		{"i == l && true", "boolean"},
		{"i << l", "int"},
		{"true & false", "boolean"},
		{"i ^ 3", "int"},
		{"-c", "int"},
		{"!true", "boolean"},
		{"i++", "int"},
		{"(l)", "long"},
		{"i = 4", "int"},
		{"true ? null : s", "java.lang.String"},
		{"(long) i", "long"},
		{"s instanceof String", "boolean"},
		{"new int[3]", "int[]"},
		{"new L()", "L"},
		{"String.class", "java.lang.Class<java.lang.String>"},
		{"this", "L"},
		{"() -> 1", "<unresolved>"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			u := analyze(t, `
class L {
	int i;
	long l;
	char c;
	String s;
	Integer boxed;
	void m() {
		Object x = `+tt.expr+`;
	}
}`, nil)
			assert.Equal(t, tt.want, u.typeOfInit(t, "x").String())
		})
	}
}

func TestShadowing(t *testing.T) {
	u := analyze(t, `
class S {
	String name;
	void m(int name) {
		Object a = name;
	}
	void n() {
		Object b = name;
		long name = 1L;
		Object c = name;
	}
}`, nil)

	assert.Equal(t, "int", u.typeOfInit(t, "a").String())
	assert.Equal(t, "java.lang.String", u.typeOfInit(t, "b").String(), "local not yet declared")
	assert.Equal(t, "long", u.typeOfInit(t, "c").String())
}

func TestVarInference(t *testing.T) {
	u := analyze(t, `
class V {
	String s;
	void m(String[] args) {
		var copy = s;
		var self = self;
		for (var arg : args) {
			Object a = arg;
		}
	}
}`, nil)

	assert.Equal(t, "java.lang.String", u.typeOfInit(t, "copy").String())
	assert.Equal(t, Unresolved, u.typeOfInit(t, "self").Kind)
	assert.Equal(t, "java.lang.String", u.typeOfInit(t, "a").String())
}

func TestGenerics(t *testing.T) {
	u := analyze(t, `
import java.util.*;

class G<T extends Runnable> {
	Map<String, List<Integer>> m;
	T task;
	void run() {
		Object a = m.get("k").get(0);
		for (var e : m.entrySet()) {
			Object b = e.getKey();
			Object c = e.getValue();
		}
		Optional<String> o = null;
		Object d = o.get().length();
		Object f = task;
	}
}`, index.JDK())

	assert.Equal(t, "java.util.Map<java.lang.String, java.util.List<java.lang.Integer>>",
		u.typeOf(t, parser.KindIdentifier, "m").String())
	assert.Equal(t, "java.lang.Integer", u.typeOfInit(t, "a").String())
	assert.Equal(t, "java.lang.String", u.typeOfInit(t, "b").String())
	assert.Equal(t, "java.util.List<java.lang.Integer>", u.typeOfInit(t, "c").String())
	assert.Equal(t, "int", u.typeOfInit(t, "d").String())
	assert.Equal(t, "java.lang.Runnable", u.typeOfInit(t, "f").String(), "type variable stands in for its bound")
}

func TestSupertypesCarryArguments(t *testing.T) {
	u := analyze(t, `
import java.util.ArrayList;

class Names extends ArrayList<String> {
	void m() {
		Object x = get(0);
	}
}`, index.JDK())

	names := u.onlyType(t, "Names")
	supers, err := u.r.Supertypes(context.Background(), localType(names))
	require.NoError(t, err)
	require.Len(t, supers, 1)
	assert.Equal(t, "java.util.ArrayList<java.lang.String>", supers[0].String())

	assert.Equal(t, "java.lang.String", u.typeOfInit(t, "x").String())
}

func TestEnums(t *testing.T) {
	u := analyze(t, `
enum Color {
	RED, GREEN;
	int rgb() { return 0; }
}
class U {
	void m() {
		Object a = Color.RED;
		Object b = Color.RED.rgb();
		Object c = Color.values();
		Object d = Color.valueOf("RED");
		Object e = Color.values()[0];
	}
}`, nil)

	a := u.typeOfInit(t, "a")
	assert.Equal(t, "Color", a.String())
	assert.False(t, a.TypeName)
	assert.Equal(t, "int", u.typeOfInit(t, "b").String())
	assert.Equal(t, "Color[]", u.typeOfInit(t, "c").String())
	assert.Equal(t, "Color", u.typeOfInit(t, "d").String())
	assert.Equal(t, "Color", u.typeOfInit(t, "e").String())

	names := u.memberNames(t, a)
	assert.Subset(t, names, []string{"RED", "GREEN", "rgb", "values", "valueOf"})

	color := u.typeOf(t, parser.KindIdentifier, "Color")
	assert.True(t, color.TypeName)
}

func TestArrays(t *testing.T) {
	u := analyze(t, `
class A {
	int[] xs;
	String[][] grid;
	void m(String... rest) {
		Object a = xs.length;
		Object b = xs[0];
		Object c = xs.clone();
		Object d = grid[0];
		Object e = grid[0][1].length();
		Object f = rest;
	}
}`, index.JDK())

	assert.Equal(t, "int", u.typeOfInit(t, "a").String())
	assert.Equal(t, "int", u.typeOfInit(t, "b").String())
	assert.Equal(t, "int[]", u.typeOfInit(t, "c").String())
	assert.Equal(t, "java.lang.String[]", u.typeOfInit(t, "d").String())
	assert.Equal(t, "int", u.typeOfInit(t, "e").String())
	assert.Equal(t, "java.lang.String[]", u.typeOfInit(t, "f").String())

	xs := u.typeOf(t, parser.KindIdentifier, "xs")
	names := u.memberNames(t, xs)
	require.GreaterOrEqual(t, len(names), 3)
	assert.Equal(t, []string{"length", "clone"}, names[:2])
	assert.Contains(t, names, "toString")
	assert.Equal(t, 1, count(names, "clone"))
}

func count(names []string, name string) int {
	n := 0
	for _, s := range names {
		if s == name {
			n++
		}
	}
	return n
}

func TestLocalAndAnonymousClasses(t *testing.T) {
	u := analyze(t, `
class Outer {
	void m() {
		class Helper {
			int size() { return 0; }
		}
		Helper h = new Helper();
		Object hh = h;
		Object a = h.size();
		Object r = new Runnable() {
			public void run() {}
			void extra() {}
		};
	}
}`, index.JDK())

	h := u.typeOfInit(t, "hh")
	assert.Equal(t, "Outer$1Helper", h.Name)
	assert.True(t, h.IsLocal())
	assert.Equal(t, "int", u.typeOfInit(t, "a").String())

	anon := u.typeOfInit(t, "r")
	require.True(t, anon.IsLocal())
	assert.Equal(t, scope.AnonymousType, u.g.Type(anon.Local).Kind)

	names := u.memberNames(t, anon)
	require.GreaterOrEqual(t, len(names), 2)
	assert.Equal(t, []string{"run", "extra"}, names[:2])
	assert.Equal(t, 1, count(names, "run"))
	assert.Contains(t, names, "hashCode")
}

func TestMembersOrderAndHiding(t *testing.T) {
	u := analyze(t, `
class Base {
	int count;
	Base() {}
	void greet() {}
	void greet(String who) {}
	private void secret() {}
	static void util() {}
}
class Sub extends Base {
	void greet() {}
	int count;
	void own() {}
	Sub() {}
}`, nil)

	ms, err := u.r.Members(context.Background(), localType(u.onlyType(t, "Sub")))
	require.NoError(t, err)

	var got []string
	for _, m := range ms {
		got = append(got, m.DeclaringType+"."+m.Name+"/"+string(m.Kind))
	}
	assert.Equal(t, []string{
		"Sub.greet/method",
		"Sub.count/field",
		"Sub.own/method",
		"Sub.Sub/constructor",
		"Base.greet/method",
		"Base.util/method",
	}, got)

	inherited := ms[4]
	require.Len(t, inherited.Parameters, 1)
	assert.Equal(t, "java.lang.String", inherited.Parameters[0].Type.String())
	assert.Equal(t, "Base", inherited.Owner.Name)
	assert.NotNil(t, inherited.Local)
}

func TestSuper(t *testing.T) {
	u := analyze(t, `
class Base {
	String name() { return null; }
}
class Sub extends Base {
	void m() {
		Object a = super.name();
	}
}`, nil)

	assert.Equal(t, "Base", u.typeOf(t, parser.KindSuper, "super").Name)
	assert.Equal(t, "java.lang.String", u.typeOfInit(t, "a").String())
}

func TestStaticImports(t *testing.T) {
	strs := &index.TypeEntry{
		Name: "util.Strings",
		Kind: index.KindClass,
		Members: []index.MemberEntry{
			{Name: "EMPTY", Kind: index.MemberField, Type: index.TypeRef{Name: "java.lang.String"}, Static: true},
			{Name: "join", Kind: index.MemberMethod, Type: index.TypeRef{Name: "int"}, Static: true},
			{Name: "helper", Kind: index.MemberMethod, Type: index.TypeRef{Name: "int"}},
		},
	}

	t.Run("single and on demand", func(t *testing.T) {
		u := analyze(t, `
import static util.Strings.EMPTY;
import static util.Strings.*;

class I {
	Object a = EMPTY;
	Object b = join();
	Object c = helper();
}`, index.NewMemory(strs))

		assert.Equal(t, "java.lang.String", u.typeOfInit(t, "a").String())
		assert.Equal(t, "int", u.typeOfInit(t, "b").String())
		assert.Equal(t, Unresolved, u.typeOfInit(t, "c").Kind, "helper is not static")
	})

	t.Run("listed", func(t *testing.T) {
		u := analyze(t, `
import static util.Strings.*;

class I {}`, index.NewMemory(strs))

		ms, err := u.r.StaticImports(context.Background())
		require.NoError(t, err)
		var names []string
		for _, m := range ms {
			names = append(names, m.Name)
		}
		assert.Equal(t, []string{"EMPTY", "join"}, names)
	})
}

type failingIndex struct{ err error }

func (f failingIndex) LookupType(context.Context, string) (*index.TypeEntry, error) {
	return nil, f.err
}

func TestIndexErrorsPassThrough(t *testing.T) {
	boom := errors.New("index unavailable")
	u := analyze(t, `
class E {
	Missing m;
	Object x = m;
}`, failingIndex{err: boom})

	_, err := u.r.Resolve(context.Background(), u.init(t, "x"))
	assert.ErrorIs(t, err, boom)
}

func TestTypeRef(t *testing.T) {
	u := analyze(t, `
import java.util.Map;

class N<T> {
	java.util.List<String> xs;
	Map.Entry<T, Missing> entry;
	int[] counts;
}`, index.JDK())

	n := u.onlyType(t, "N")
	ref := func(field string) string {
		m, ok := n.Member(field, scope.FieldMember)
		require.True(t, ok, field)
		return u.r.TypeRef(context.Background(), m.Type, n.ID).String()
	}
	assert.Equal(t, "java.util.List<java.lang.String>", ref("xs"))
	assert.Equal(t, "java.util.Map.Entry<T, Missing>", ref("entry"))
	assert.Equal(t, "int[]", ref("counts"))

	typ, err := u.r.ResolveTypeName(context.Background(), "Map.Entry", scope.NoType)
	require.NoError(t, err)
	assert.Equal(t, "java.util.Map.Entry", typ.Name)
	require.NotNil(t, typ.Entry)
	assert.Len(t, typ.Entry.TypeParameters, 2)
}

func TestImportedButNotIndexed(t *testing.T) {
	u := analyze(t, `
import lib.Widget;
import java.util.List;

class A {
	Widget w;
	void m() {
		Object x = w.size();
	}
}`, index.JDK())
	ctx := context.Background()

	typ, err := u.r.ResolveTypeName(ctx, "Widget", scope.NoType)
	require.NoError(t, err)
	assert.Equal(t, Unresolved, typ.Kind)
	assert.False(t, typ.IsResolved())
	assert.Equal(t, "lib.Widget", typ.String(), "the import still names it")
	assert.Equal(t, "Widget", typ.SimpleString())
	assert.Empty(t, u.memberNames(t, typ))
	assert.Equal(t, Unresolved, ArrayOf(typ, 1).Kind)

	assert.Equal(t, Unresolved, u.typeOfInit(t, "x").Kind)

	a := u.onlyType(t, "A")
	w, ok := a.Member("w", scope.FieldMember)
	require.True(t, ok)
	assert.Equal(t, "lib.Widget", u.r.TypeRef(ctx, w.Type, a.ID).String())

	list, err := u.r.ResolveTypeName(ctx, "List", scope.NoType)
	require.NoError(t, err)
	assert.Equal(t, Known, list.Kind)
}

func TestMemberType(t *testing.T) {
	u := analyze(t, `
import java.util.List;

class M {
	List<String> names;
}`, index.JDK())

	typ := localType(u.onlyType(t, "M"))
	ms, err := u.r.Members(context.Background(), typ)
	require.NoError(t, err)
	require.NotEmpty(t, ms)
	require.Equal(t, "names", ms[0].Name)

	names, err := u.r.MemberType(context.Background(), ms[0])
	require.NoError(t, err)
	assert.Equal(t, "java.util.List<java.lang.String>", names.String())
	assert.Equal(t, "List<String>", names.SimpleString())

	get, ok, err := u.r.newState(context.Background()).findMember(names, "get", false, methodKinds...)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "java.util.List", get.DeclaringType)
	elem, err := u.r.MemberType(context.Background(), get)
	require.NoError(t, err)
	assert.Equal(t, "java.lang.String", elem.String())
}

func TestPromotion(t *testing.T) {
	assert.Equal(t, "int", binaryPromote(primitive("byte"), primitive("short")).String())
	assert.Equal(t, "double", binaryPromote(named("java.lang.Double"), primitive("int")).String())
	assert.Equal(t, Unresolved, binaryPromote(primitive("boolean"), primitive("int")).Kind)
	assert.Equal(t, "long", unaryPromote(named("java.lang.Long")).String())

	arr := ArrayOf(ArrayOf(primitive("int"), 1), 2)
	assert.Equal(t, "int[][][]", arr.String())
	assert.Equal(t, "int[][]", arr.Component().String())
	assert.Equal(t, Unresolved, ArrayOf(Type{}, 2).Kind)
	assert.Equal(t, "int[][][]", arr.Ref().String())
}
