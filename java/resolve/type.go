// Package resolve computes the static types of expressions in a compilation
// unit and the members available on them. Names are looked up in the frame
// graph of the unit first and in an external index second.
package resolve

import (
	"strings"

	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/scope"
)

type Kind int

const (
	// Unresolved is the zero Kind: the name or expression could not be
	// typed. It is an ordinary outcome, not an error.
	Unresolved Kind = iota
	Primitive
	Known
	Array
	Void
)

var kindNames = []string{"unresolved", "primitive", "known", "array", "void"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Type is a resolved type. The zero value is Unresolved.
//
// A Known type is either declared in the unit (Local is its TypeID) or
// found in the index (Entry is set). java.lang types may be Known by Name
// alone when the index does not carry them.
type Type struct {
	Kind Kind
	// Name is the qualified name of a Known type or the keyword of a
	// primitive.
	Name  string
	Local scope.TypeID
	Entry *index.TypeEntry
	Args  []Type
	// Elem and Dims describe an Array. Elem is never itself an array.
	Elem *Type
	Dims int
	// TypeName is set when the expression names a type rather than a
	// value, as in Math.max or Map.Entry.
	TypeName bool
}

func primitive(name string) Type {
	return Type{Kind: Primitive, Name: name, Local: scope.NoType}
}

func voidType() Type {
	return Type{Kind: Void, Name: "void", Local: scope.NoType}
}

func localType(d *scope.TypeDecl) Type {
	if d == nil {
		return Type{}
	}
	return Type{Kind: Known, Name: d.QualifiedName, Local: d.ID}
}

func entryType(e *index.TypeEntry) Type {
	return Type{Kind: Known, Name: e.Name, Local: scope.NoType, Entry: e}
}

// Declared is the type declared by d, without type arguments.
func Declared(d *scope.TypeDecl) Type {
	return localType(d)
}

// named is a Known type the index has no entry for.
func named(name string) Type {
	return Type{Kind: Known, Name: name, Local: scope.NoType}
}

// imported is an Unresolved type that an import names but the index lacks.
// Name is kept for display; it has no members or supertypes.
func imported(name string) Type {
	return Type{Kind: Unresolved, Name: name, Local: scope.NoType}
}

// ArrayOf wraps elem in dims array dimensions. Unresolved stays Unresolved.
func ArrayOf(elem Type, dims int) Type {
	switch {
	case dims <= 0:
		return elem
	case elem.Kind == Unresolved:
		return Type{}
	case elem.Kind == Array:
		elem.Dims += dims
		return elem
	}
	elem.TypeName = false
	e := elem
	return Type{Kind: Array, Local: scope.NoType, Elem: &e, Dims: dims}
}

func (t Type) IsResolved() bool { return t.Kind != Unresolved }

// IsLocal reports whether t is declared in the unit being resolved.
func (t Type) IsLocal() bool {
	return t.Kind == Known && t.Local != scope.NoType
}

// Component removes one array dimension.
func (t Type) Component() Type {
	if t.Kind != Array || t.Elem == nil {
		return Type{}
	}
	if t.Dims <= 1 {
		return *t.Elem
	}
	t.Dims--
	return t
}

func (t Type) String() string {
	return t.format(func(s string) string { return s })
}

// SimpleString renders t with simple names, for display.
func (t Type) SimpleString() string {
	return t.format(index.SimpleName)
}

func (t Type) format(name func(string) string) string {
	switch t.Kind {
	case Unresolved:
		if t.Name != "" {
			return name(t.Name)
		}
		return "<unresolved>"
	case Array:
		if t.Elem == nil {
			return "<unresolved>"
		}
		return t.Elem.format(name) + strings.Repeat("[]", t.Dims)
	case Known:
		if len(t.Args) == 0 {
			return name(t.Name)
		}
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.format(name)
		}
		return name(t.Name) + "<" + strings.Join(args, ", ") + ">"
	}
	return t.Name
}

// Ref converts t back into an index reference.
func (t Type) Ref() index.TypeRef {
	switch t.Kind {
	case Array:
		if t.Elem == nil {
			return index.TypeRef{}
		}
		ref := t.Elem.Ref()
		ref.ArrayDepth += t.Dims
		return ref
	case Unresolved:
		return index.TypeRef{Name: t.Name}
	}
	ref := index.TypeRef{Name: t.Name}
	for _, a := range t.Args {
		ref.TypeArguments = append(ref.TypeArguments, a.Ref())
	}
	return ref
}

var boxes = map[string]string{
	"java.lang.Boolean":   "boolean",
	"java.lang.Byte":      "byte",
	"java.lang.Character": "char",
	"java.lang.Short":     "short",
	"java.lang.Integer":   "int",
	"java.lang.Long":      "long",
	"java.lang.Float":     "float",
	"java.lang.Double":    "double",
}

func unbox(t Type) Type {
	if t.Kind == Known {
		if p, ok := boxes[t.Name]; ok {
			return primitive(p)
		}
	}
	return t
}

func isString(t Type) bool {
	return t.Kind == Known && t.Name == "java.lang.String"
}

func numericRank(t Type) int {
	if t.Kind != Primitive {
		return 0
	}
	switch t.Name {
	case "byte", "short", "char", "int":
		return 1
	case "long":
		return 2
	case "float":
		return 3
	case "double":
		return 4
	}
	return 0
}

// unaryPromote applies unary numeric promotion.
func unaryPromote(t Type) Type {
	t = unbox(t)
	switch numericRank(t) {
	case 0:
		return Type{}
	case 1:
		return primitive("int")
	}
	return t
}

// binaryPromote applies binary numeric promotion.
func binaryPromote(a, b Type) Type {
	a, b = unbox(a), unbox(b)
	ra, rb := numericRank(a), numericRank(b)
	if ra == 0 || rb == 0 {
		return Type{}
	}
	switch max(ra, rb) {
	case 4:
		return primitive("double")
	case 3:
		return primitive("float")
	case 2:
		return primitive("long")
	}
	return primitive("int")
}
