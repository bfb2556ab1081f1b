package index

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// classBuilder assembles class files for tests.
type classBuilder struct {
	pool    bytes.Buffer
	next    uint16
	utf8s   map[string]uint16
	classes map[string]uint16
}

type testClass struct {
	access     accessFlags
	name       string
	super      string
	interfaces []string
	fields     []memberInfo
	methods    []memberInfo
	inners     []innerClass
}

func newClassBuilder() *classBuilder {
	b := &classBuilder{next: 1, utf8s: map[string]uint16{}, classes: map[string]uint16{}}
	// Constants the decoder has to read past.
	b.pool.WriteByte(tagLong)
	b.pool.Write(make([]byte, 8))
	b.next += 2
	b.pool.WriteByte(tagInteger)
	b.pool.Write(make([]byte, 4))
	b.next++
	hello := b.utf8("hello")
	b.pool.WriteByte(tagString)
	put2(&b.pool, hello)
	b.next++
	b.pool.WriteByte(tagMethodHandle)
	b.pool.Write([]byte{6, 0, 1})
	b.next++
	return b
}

func put2(buf *bytes.Buffer, v uint16) {
	_ = binary.Write(buf, binary.BigEndian, v)
}

func put4(buf *bytes.Buffer, v uint32) {
	_ = binary.Write(buf, binary.BigEndian, v)
}

func (b *classBuilder) utf8(s string) uint16 {
	if s == "" {
		return 0
	}
	if i, ok := b.utf8s[s]; ok {
		return i
	}
	b.pool.WriteByte(tagUtf8)
	put2(&b.pool, uint16(len(s)))
	b.pool.WriteString(s)
	b.utf8s[s] = b.next
	b.next++
	return b.utf8s[s]
}

func (b *classBuilder) class(name string) uint16 {
	if name == "" {
		return 0
	}
	if i, ok := b.classes[name]; ok {
		return i
	}
	n := b.utf8(name)
	b.pool.WriteByte(tagClass)
	put2(&b.pool, n)
	b.classes[name] = b.next
	b.next++
	return b.classes[name]
}

func (b *classBuilder) members(body *bytes.Buffer, members []memberInfo, attr string, content []byte) {
	put2(body, uint16(len(members)))
	for _, m := range members {
		put2(body, uint16(m.access))
		put2(body, b.utf8(m.name))
		put2(body, b.utf8(m.descriptor))
		put2(body, 1)
		put2(body, b.utf8(attr))
		put4(body, uint32(len(content)))
		body.Write(content)
	}
}

func (b *classBuilder) build(c testClass) []byte {
	var body bytes.Buffer
	put2(&body, uint16(c.access))
	put2(&body, b.class(c.name))
	put2(&body, b.class(c.super))
	put2(&body, uint16(len(c.interfaces)))
	for _, iface := range c.interfaces {
		put2(&body, b.class(iface))
	}
	b.members(&body, c.fields, "ConstantValue", []byte{0, 0})
	b.members(&body, c.methods, "Code", []byte{0, 1, 2, 3, 4})

	var inners bytes.Buffer
	put2(&inners, uint16(len(c.inners)))
	for _, ic := range c.inners {
		put2(&inners, b.class(ic.inner))
		put2(&inners, b.class(ic.outer))
		put2(&inners, b.utf8(ic.name))
		put2(&inners, uint16(ic.access))
	}
	put2(&body, 2)
	put2(&body, b.utf8("SourceFile"))
	put4(&body, 2)
	put2(&body, b.utf8("Test.java"))
	put2(&body, b.utf8("InnerClasses"))
	put4(&body, uint32(inners.Len()))
	body.Write(inners.Bytes())

	var out bytes.Buffer
	put4(&out, classMagic)
	put2(&out, 0)
	put2(&out, 61)
	put2(&out, b.next)
	out.Write(b.pool.Bytes())
	out.Write(body.Bytes())
	return out.Bytes()
}

func buildClass(c testClass) []byte {
	return newClassBuilder().build(c)
}

var shapeClass = testClass{
	access:     accPublic | accAbstract | 0x0020,
	name:       "p/Shape",
	super:      "java/lang/Object",
	interfaces: []string{"java/lang/Comparable"},
	fields: []memberInfo{
		{accPublic | accStatic | accFinal, "MAX", "I"},
		{accPrivate, "secret", "Ljava/lang/String;"},
		{accProtected, "items", "[Ljava/util/List;"},
		{accFinal | accSynthetic, "this$0", "Lp/Outer;"},
	},
	methods: []memberInfo{
		{accPublic, "<init>", "(Ljava/lang/String;I)V"},
		{accStatic, "<clinit>", "()V"},
		{accPublic | accAbstract, "area", "()D"},
		{accPublic | accStatic | accVarargs, "of", "([Ljava/lang/String;)Lp/Shape;"},
		{accPublic | accBridge | accSynthetic, "compareTo", "(Ljava/lang/Object;)I"},
		{accPublic, "compareTo", "(Lp/Shape;)I"},
		{accPrivate, "hidden", "()V"},
		{0, "corners", "()Ljava/util/Map$Entry;"},
	},
	inners: []innerClass{
		{"p/Shape$Corner", "p/Shape", "Corner", accPublic | accStatic},
		{"p/Shape$1", "", "", 0},
		{"p/Shape$Secret", "p/Shape", "Secret", accPrivate | accStatic},
		{"java/util/Map$Entry", "java/util/Map", "Entry", accPublic | accStatic | accInterface | accAbstract},
	},
}

func TestDecodeClass(t *testing.T) {
	e, err := DecodeClass(buildClass(shapeClass))
	require.NoError(t, err)

	str := TypeRef{Name: "java.lang.String"}
	assert.Equal(t, &TypeEntry{
		Name:       "p.Shape",
		Kind:       KindClass,
		Superclass: "java.lang.Object",
		Interfaces: []string{"java.lang.Comparable"},
		Members: []MemberEntry{
			{Name: "Corner", Kind: MemberNestedType, Static: true, Visibility: VisibilityPublic},
			{Name: "MAX", Kind: MemberField, Type: TypeRef{Name: "int"}, Static: true, Final: true, Visibility: VisibilityPublic},
			{Name: "items", Kind: MemberField, Type: TypeRef{Name: "java.util.List", ArrayDepth: 1}, Visibility: VisibilityProtected},
			{Name: "Shape", Kind: MemberConstructor, Parameters: []Parameter{{Type: str}, {Type: TypeRef{Name: "int"}}}, Visibility: VisibilityPublic},
			{Name: "area", Kind: MemberMethod, Type: TypeRef{Name: "double"}, Abstract: true, Visibility: VisibilityPublic},
			{Name: "of", Kind: MemberMethod, Type: TypeRef{Name: "p.Shape"}, Parameters: []Parameter{{Type: TypeRef{Name: "java.lang.String", ArrayDepth: 1}}}, Varargs: true, Static: true, Visibility: VisibilityPublic},
			{Name: "compareTo", Kind: MemberMethod, Type: TypeRef{Name: "int"}, Parameters: []Parameter{{Type: TypeRef{Name: "p.Shape"}}}, Visibility: VisibilityPublic},
			{Name: "corners", Kind: MemberMethod, Type: TypeRef{Name: "java.util.Map.Entry"}, Visibility: VisibilityPackage},
		},
	}, e)
}

func TestDecodeClassKinds(t *testing.T) {
	tests := []struct {
		name  string
		class testClass
		want  *TypeEntry
	}{
		{
			name: "nested",
			class: testClass{
				access: accPublic | 0x0020,
				name:   "p/Shape$Corner",
				super:  "java/lang/Object",
				inners: []innerClass{{"p/Shape$Corner", "p/Shape", "Corner", accPublic | accStatic}},
			},
			want: &TypeEntry{Name: "p.Shape.Corner", Kind: KindClass, Superclass: "java.lang.Object"},
		},
		{
			name: "interface",
			class: testClass{
				access:  accPublic | accInterface | accAbstract,
				name:    "p/Task",
				super:   "java/lang/Object",
				methods: []memberInfo{{accPublic | accAbstract, "run", "()V"}},
			},
			want: &TypeEntry{Name: "p.Task", Kind: KindInterface, Members: []MemberEntry{
				{Name: "run", Kind: MemberMethod, Type: TypeRef{Name: "void"}, Abstract: true, Visibility: VisibilityPublic},
			}},
		},
		{
			name: "annotation",
			class: testClass{
				access: accPublic | accInterface | accAbstract | accAnnotation,
				name:   "p/Marker",
				super:  "java/lang/Object",
			},
			want: &TypeEntry{Name: "p.Marker", Kind: KindAnnotation},
		},
		{
			name: "enum",
			class: testClass{
				access: accPublic | accFinal | accEnum | 0x0020,
				name:   "p/Color",
				super:  "java/lang/Enum",
				fields: []memberInfo{
					{accPublic | accStatic | accFinal | accEnum, "RED", "Lp/Color;"},
					{accPrivate | accStatic | accFinal | accSynthetic, "$VALUES", "[Lp/Color;"},
				},
			},
			want: &TypeEntry{Name: "p.Color", Kind: KindEnum, Superclass: "java.lang.Enum", Members: []MemberEntry{
				{Name: "RED", Kind: MemberEnumConstant, Type: TypeRef{Name: "p.Color"}, Static: true, Final: true, Visibility: VisibilityPublic},
			}},
		},
		{
			name: "record",
			class: testClass{
				access: accPublic | accFinal | 0x0020,
				name:   "p/Point",
				super:  "java/lang/Record",
			},
			want: &TypeEntry{Name: "p.Point", Kind: KindRecord, Superclass: "java.lang.Record"},
		},
		{
			name: "anonymous",
			class: testClass{
				access: 0x0020,
				name:   "p/Shape$1",
				super:  "java/lang/Object",
				inners: []innerClass{{"p/Shape$1", "", "", 0}},
			},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := DecodeClass(buildClass(tt.class))
			require.NoError(t, err)
			assert.Equal(t, tt.want, e)
		})
	}
}

func TestDecodeClassMalformed(t *testing.T) {
	data := buildClass(shapeClass)

	_, err := DecodeClass([]byte("not a class"))
	assert.ErrorIs(t, err, ErrMalformedClass)

	_, err = DecodeClass(data[:len(data)/2])
	assert.ErrorIs(t, err, ErrMalformedClass)

	_, err = DecodeClass(buildClass(testClass{name: "p/Bad", methods: []memberInfo{{accPublic, "m", "(L;)V"}}}))
	assert.ErrorIs(t, err, ErrMalformedClass)
}

func TestParseMethodDescriptor(t *testing.T) {
	tests := []struct {
		desc   string
		params []TypeRef
		ret    TypeRef
		ok     bool
	}{
		{"()V", nil, TypeRef{Name: "void"}, true},
		{"([[IJLjava/lang/String;)[Ljava/util/Map$Entry;", []TypeRef{
			{Name: "int", ArrayDepth: 2},
			{Name: "long"},
			{Name: "java.lang.String"},
		}, TypeRef{Name: "java.util.Map.Entry", ArrayDepth: 1}, true},
		{"(ZC)B", []TypeRef{{Name: "boolean"}, {Name: "char"}}, TypeRef{Name: "byte"}, true},
		{"(L;)V", nil, TypeRef{}, false},
		{"()", nil, TypeRef{}, false},
		{"(I", nil, TypeRef{}, false},
		{"I", nil, TypeRef{}, false},
		{"()IX", nil, TypeRef{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			params, ret, ok := parseMethodDescriptor(tt.desc)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.params, params)
				assert.Equal(t, tt.ret, ret)
			}
		})
	}
}

func writeJar(t *testing.T, fs afero.Fs, path string, files map[string][]byte) {
	t.Helper()
	f, err := fs.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestLoadJar(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := context.Background()
	writeJar(t, fs, "/libs/shapes.jar", map[string][]byte{
		"META-INF/MANIFEST.MF":               []byte("Manifest-Version: 1.0\n"),
		"META-INF/versions/11/p/Shape.class": []byte("junk"),
		"module-info.class":                  []byte("junk"),
		"p/package-info.class":               []byte("junk"),
		"p/Shape.class":                      buildClass(shapeClass),
		"p/Shape$1.class": buildClass(testClass{
			name:   "p/Shape$1",
			super:  "java/lang/Object",
			inners: []innerClass{{"p/Shape$1", "", "", 0}},
		}),
		"p/Task.class": buildClass(testClass{
			access: accPublic | accInterface | accAbstract,
			name:   "p/Task",
			super:  "java/lang/Object",
		}),
	})

	m, err := LoadLibrary(fs, "/libs/shapes.jar")
	require.NoError(t, err)
	names, err := m.TypeNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p.Shape", "p.Task"}, names)

	shape, err := m.LookupType(ctx, "p.Shape")
	require.NoError(t, err)
	area, ok := shape.Member("area", MemberMethod)
	require.True(t, ok)
	assert.Equal(t, "double", area.Type.String())

	writeJar(t, fs, "/libs/broken.jar", map[string][]byte{"p/Bad.class": []byte("junk")})
	_, err = LoadJar(fs, "/libs/broken.jar")
	assert.ErrorIs(t, err, ErrMalformedClass)

	require.NoError(t, afero.WriteFile(fs, "/libs/plain.jar", []byte("not a zip"), 0o644))
	_, err = LoadJar(fs, "/libs/plain.jar")
	assert.Error(t, err)
}

func TestLoadLibrary(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := context.Background()
	require.NoError(t, afero.WriteFile(fs, "/libs/Shape.class", buildClass(shapeClass), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/libs/util.yaml", []byte("types:\n  - name: lib.Util\n"), 0o644))

	m, err := LoadLibrary(fs, "/libs/Shape.class")
	require.NoError(t, err)
	_, err = m.LookupType(ctx, "p.Shape")
	assert.NoError(t, err)

	m, err = LoadLibrary(fs, "/libs/util.yaml")
	require.NoError(t, err)
	_, err = m.LookupType(ctx, "lib.Util")
	assert.NoError(t, err)

	_, err = LoadLibrary(fs, "/libs/Missing.class")
	assert.Error(t, err)
}
