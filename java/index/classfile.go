package index

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"

	"gitlab.com/tozd/go/errors"
)

const classMagic = 0xCAFEBABE

var ErrMalformedClass = errors.Base("malformed class file")

type accessFlags uint16

const (
	accPublic     accessFlags = 0x0001
	accPrivate    accessFlags = 0x0002
	accProtected  accessFlags = 0x0004
	accStatic     accessFlags = 0x0008
	accFinal      accessFlags = 0x0010
	accBridge     accessFlags = 0x0040
	accVarargs    accessFlags = 0x0080
	accInterface  accessFlags = 0x0200
	accAbstract   accessFlags = 0x0400
	accSynthetic  accessFlags = 0x1000
	accAnnotation accessFlags = 0x2000
	accEnum       accessFlags = 0x4000
)

func (f accessFlags) has(flag accessFlags) bool { return f&flag != 0 }

func (f accessFlags) visibility() Visibility {
	switch {
	case f.has(accPublic):
		return VisibilityPublic
	case f.has(accProtected):
		return VisibilityProtected
	case f.has(accPrivate):
		return VisibilityPrivate
	}
	return VisibilityPackage
}

// Constant pool tags. Only UTF-8 and class entries are kept; the others are
// read past.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// classReader keeps the first error; reads after it return zero values.
type classReader struct {
	r   io.Reader
	err error
}

func (r *classReader) u1() uint8 {
	var buf [1]byte
	r.read(buf[:])
	return buf[0]
}

func (r *classReader) u2() uint16 {
	var buf [2]byte
	r.read(buf[:])
	return binary.BigEndian.Uint16(buf[:])
}

func (r *classReader) u4() uint32 {
	var buf [4]byte
	r.read(buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

func (r *classReader) bytes(n int) []byte {
	buf := make([]byte, n)
	r.read(buf)
	return buf
}

func (r *classReader) read(buf []byte) {
	if r.err != nil {
		return
	}
	_, r.err = io.ReadFull(r.r, buf)
}

type constant struct {
	tag  uint8
	utf8 string
	// name is the UTF-8 index of a class entry.
	name uint16
}

type constantPool []constant

func (cp constantPool) utf8(i uint16) string {
	if int(i) >= len(cp) || cp[i].tag != tagUtf8 {
		return ""
	}
	return cp[i].utf8
}

// className is the binary name of the class entry at i, with dots for
// slashes.
func (cp constantPool) className(i uint16) string {
	if int(i) >= len(cp) || cp[i].tag != tagClass {
		return ""
	}
	return strings.ReplaceAll(cp.utf8(cp[i].name), "/", ".")
}

type memberInfo struct {
	access     accessFlags
	name       string
	descriptor string
}

type innerClass struct {
	inner  string
	outer  string
	name   string
	access accessFlags
}

// DecodeClass converts a compiled class to an entry with erased types.
// Private and synthetic members are left out. Anonymous and local classes
// yield a nil entry.
func DecodeClass(data []byte) (*TypeEntry, error) {
	r := &classReader{r: bytes.NewReader(data)}
	if magic := r.u4(); r.err != nil || magic != classMagic {
		return nil, errors.Errorf("%w: bad magic", ErrMalformedClass)
	}
	r.u2() // minor version
	r.u2() // major version

	cp, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}

	access := accessFlags(r.u2())
	name := cp.className(r.u2())
	super := cp.className(r.u2())
	var interfaces []string
	for n := r.u2(); n > 0 && r.err == nil; n-- {
		interfaces = append(interfaces, cp.className(r.u2()))
	}
	fields := readMembers(r, cp)
	methods := readMembers(r, cp)
	inners := readClassAttributes(r, cp)
	if r.err != nil {
		return nil, errors.Errorf("%w: %s", ErrMalformedClass, r.err)
	}
	if name == "" {
		return nil, errors.Errorf("%w: no class name", ErrMalformedClass)
	}

	for _, ic := range inners {
		if ic.inner != name {
			continue
		}
		if ic.outer == "" || ic.name == "" {
			return nil, nil
		}
		// The class's own flags drop static and protected.
		access = ic.access
	}

	e := &TypeEntry{Name: NormalizeName(name), Kind: classKind(access, super)}
	if !access.has(accInterface) && super != "" {
		e.Superclass = NormalizeName(super)
	}
	for _, iface := range interfaces {
		e.Interfaces = append(e.Interfaces, NormalizeName(iface))
	}

	for _, ic := range inners {
		if ic.outer != name || ic.name == "" || ic.access.has(accPrivate) || ic.access.has(accSynthetic) {
			continue
		}
		e.Members = append(e.Members, MemberEntry{
			Name:       ic.name,
			Kind:       MemberNestedType,
			Static:     ic.access.has(accStatic),
			Visibility: ic.access.visibility(),
		})
	}
	for _, f := range fields {
		if f.access.has(accPrivate) || f.access.has(accSynthetic) {
			continue
		}
		typ, ok := parseFieldDescriptor(f.descriptor)
		if !ok {
			return nil, errors.Errorf("%w: field %s: descriptor %q", ErrMalformedClass, f.name, f.descriptor)
		}
		kind := MemberField
		if f.access.has(accEnum) {
			kind = MemberEnumConstant
		}
		e.Members = append(e.Members, MemberEntry{
			Name:       f.name,
			Kind:       kind,
			Type:       typ,
			Static:     f.access.has(accStatic),
			Final:      f.access.has(accFinal),
			Visibility: f.access.visibility(),
		})
	}
	simple := e.SimpleName()
	for _, m := range methods {
		if m.name == "<clinit>" || m.access.has(accPrivate) || m.access.has(accSynthetic) || m.access.has(accBridge) {
			continue
		}
		params, ret, ok := parseMethodDescriptor(m.descriptor)
		if !ok {
			return nil, errors.Errorf("%w: method %s: descriptor %q", ErrMalformedClass, m.name, m.descriptor)
		}
		me := MemberEntry{
			Name:       m.name,
			Kind:       MemberMethod,
			Type:       ret,
			Varargs:    m.access.has(accVarargs),
			Static:     m.access.has(accStatic),
			Final:      m.access.has(accFinal),
			Abstract:   m.access.has(accAbstract),
			Visibility: m.access.visibility(),
		}
		if m.name == "<init>" {
			me.Name = simple
			me.Kind = MemberConstructor
			me.Type = TypeRef{}
		}
		for _, p := range params {
			me.Parameters = append(me.Parameters, Parameter{Type: p})
		}
		e.Members = append(e.Members, me)
	}
	return e, nil
}

func classKind(access accessFlags, super string) TypeKind {
	switch {
	case access.has(accAnnotation):
		return KindAnnotation
	case access.has(accInterface):
		return KindInterface
	case access.has(accEnum):
		return KindEnum
	case super == "java.lang.Record":
		return KindRecord
	}
	return KindClass
}

// readConstantPool indexes entries from 1. Long and double entries take two
// slots.
func readConstantPool(r *classReader) (constantPool, error) {
	count := r.u2()
	cp := make(constantPool, count)
	for i := 1; i < int(count) && r.err == nil; i++ {
		c := constant{tag: r.u1()}
		switch c.tag {
		case tagUtf8:
			c.utf8 = string(r.bytes(int(r.u2())))
		case tagClass:
			c.name = r.u2()
		case tagString, tagMethodType, tagModule, tagPackage:
			r.u2()
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref,
			tagNameAndType, tagDynamic, tagInvokeDynamic:
			r.u4()
		case tagLong, tagDouble:
			r.u4()
			r.u4()
			cp[i] = c
			i++
			continue
		case tagMethodHandle:
			r.u1()
			r.u2()
		default:
			if r.err == nil {
				return nil, errors.Errorf("%w: constant %d has tag %d", ErrMalformedClass, i, c.tag)
			}
		}
		cp[i] = c
	}
	if r.err != nil {
		return nil, errors.Errorf("%w: constant pool: %s", ErrMalformedClass, r.err)
	}
	return cp, nil
}

func readMembers(r *classReader, cp constantPool) []memberInfo {
	var out []memberInfo
	for n := r.u2(); n > 0 && r.err == nil; n-- {
		m := memberInfo{
			access:     accessFlags(r.u2()),
			name:       cp.utf8(r.u2()),
			descriptor: cp.utf8(r.u2()),
		}
		skipAttributes(r)
		out = append(out, m)
	}
	return out
}

func skipAttributes(r *classReader) {
	for n := r.u2(); n > 0 && r.err == nil; n-- {
		r.u2()
		r.bytes(int(r.u4()))
	}
}

// readClassAttributes keeps the InnerClasses attribute and skips the rest.
func readClassAttributes(r *classReader, cp constantPool) []innerClass {
	var out []innerClass
	for n := r.u2(); n > 0 && r.err == nil; n-- {
		name := cp.utf8(r.u2())
		length := r.u4()
		if name != "InnerClasses" {
			r.bytes(int(length))
			continue
		}
		for k := r.u2(); k > 0 && r.err == nil; k-- {
			out = append(out, innerClass{
				inner:  cp.className(r.u2()),
				outer:  cp.className(r.u2()),
				name:   cp.utf8(r.u2()),
				access: accessFlags(r.u2()),
			})
		}
	}
	return out
}

func parseFieldDescriptor(desc string) (TypeRef, bool) {
	ref, n := parseFieldType(desc)
	return ref, n > 0 && n == len(desc)
}

func parseMethodDescriptor(desc string) (params []TypeRef, ret TypeRef, ok bool) {
	if !strings.HasPrefix(desc, "(") {
		return nil, TypeRef{}, false
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		ref, n := parseFieldType(desc[i:])
		if n == 0 {
			return nil, TypeRef{}, false
		}
		params = append(params, ref)
		i += n
	}
	if i >= len(desc) {
		return nil, TypeRef{}, false
	}
	i++
	if desc[i:] == "V" {
		return params, TypeRef{Name: "void"}, true
	}
	ret, ok = parseFieldDescriptor(desc[i:])
	return params, ret, ok
}

var baseTypes = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
}

// parseFieldType reads one type from the front of desc and reports how many
// bytes it used, or 0.
func parseFieldType(desc string) (TypeRef, int) {
	var ref TypeRef
	i := 0
	for i < len(desc) && desc[i] == '[' {
		ref.ArrayDepth++
		i++
	}
	if i >= len(desc) {
		return TypeRef{}, 0
	}
	if base, ok := baseTypes[desc[i]]; ok {
		ref.Name = base
		return ref, i + 1
	}
	if desc[i] != 'L' {
		return TypeRef{}, 0
	}
	end := strings.IndexByte(desc[i:], ';')
	if end < 2 {
		return TypeRef{}, 0
	}
	ref.Name = NormalizeName(strings.ReplaceAll(desc[i+1:i+end], "/", "."))
	return ref, i + end + 1
}
