// Package scope builds the frame graph of a parsed compilation unit: one
// frame per type declaration and one per block-bearing construct, each
// holding the names it introduces and linked to its lexical parent.
package scope

import (
	"github.com/dhamidi/jsuggest/java/parser"
)

type FrameID int32

type TypeID int32

const (
	NoFrame FrameID = -1
	NoType  TypeID  = -1
)

type FrameKind int

const (
	UnitFrame FrameKind = iota
	TypeFrame
	BlockFrame
)

func (k FrameKind) String() string {
	switch k {
	case UnitFrame:
		return "unit"
	case TypeFrame:
		return "type"
	}
	return "block"
}

// Frame is a lexical region holding name bindings. For block frames Type is
// the type declaration whose body contains the block; for type frames it is
// the declared type itself.
type Frame struct {
	ID       FrameID
	Kind     FrameKind
	Node     parser.NodeID
	Span     parser.Span
	Parent   FrameID
	Type     TypeID
	Bindings []Binding
	// Static is set inside static methods, static initializers and static
	// field initializers.
	Static bool
}

type BindingKind int

const (
	LocalBinding BindingKind = iota
	ParameterBinding
	CatchBinding
	ResourceBinding
	ForeachBinding
	PatternBinding
	LambdaBinding
)

var bindingKindNames = []string{"local", "parameter", "catch", "resource", "foreach", "pattern", "lambda"}

func (k BindingKind) String() string {
	if int(k) < len(bindingKindNames) {
		return bindingKindNames[k]
	}
	return "unknown"
}

// Binding is a local name. Type is NoNode for "var" declarations and untyped
// lambda parameters; Init then holds the initializer, or the iterated
// expression for a foreach variable.
type Binding struct {
	Name     string
	Kind     BindingKind
	Type     parser.NodeID
	Dims     int
	Init     parser.NodeID
	Decl     parser.NodeID
	NameNode parser.NodeID
	// Visible is the offset from which the binding is in scope.
	Visible int
	Final   bool
	Varargs bool
}

type TypeKind int

const (
	ClassType TypeKind = iota
	InterfaceType
	EnumType
	RecordType
	AnnotationType
	AnonymousType
)

var typeKindNames = []string{"class", "interface", "enum", "record", "annotation", "anonymous"}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

type TypeParam struct {
	Name   string
	Bounds []parser.NodeID
	Node   parser.NodeID
}

// TypeDecl is a type declared in the unit, including local and anonymous
// classes. Enclosing is the type providing the enclosing instance and is
// NoType for static nested, top-level and static-context classes; Lexical is
// the textually enclosing type regardless of staticness.
type TypeDecl struct {
	ID            TypeID
	Name          string
	QualifiedName string
	Kind          TypeKind
	Local         bool
	TypeParams    []TypeParam
	Superclass    parser.NodeID
	Interfaces    []parser.NodeID
	// Base is set for enum constant bodies, whose supertype is the enum
	// declared in this unit.
	Base      TypeID
	Members   []Member
	Nested    []TypeID
	Enclosing TypeID
	Lexical   TypeID
	Static    bool
	Captured  []Binding
	Node      parser.NodeID
	Body      parser.NodeID
	Frame     FrameID
	Doc       string
}

// IsInterface reports whether members of the type are implicitly abstract
// or static.
func (t *TypeDecl) IsInterface() bool {
	return t.Kind == InterfaceType || t.Kind == AnnotationType
}

// Member looks up the first member with the given name and kind.
func (t *TypeDecl) Member(name string, kind MemberKind) (*Member, bool) {
	for i := range t.Members {
		if t.Members[i].Name == name && t.Members[i].Kind == kind {
			return &t.Members[i], true
		}
	}
	return nil, false
}

type MemberKind int

const (
	FieldMember MemberKind = iota
	MethodMember
	ConstructorMember
	EnumConstantMember
	NestedTypeMember
)

var memberKindNames = []string{"field", "method", "constructor", "enum-constant", "nested-type"}

func (k MemberKind) String() string {
	if int(k) < len(memberKindNames) {
		return memberKindNames[k]
	}
	return "unknown"
}

// Param is a method parameter. TypeName is used instead of Type for
// synthesized members that have no syntax.
type Param struct {
	Name     string
	Type     parser.NodeID
	TypeName string
	Dims     int
	Varargs  bool
}

// Member is a field, method, constructor, enum constant or nested type.
// Type is the field type or method return type. Members whose type is the
// declaring type itself (enum constants, valueOf, values) set Self instead.
type Member struct {
	Name       string
	Kind       MemberKind
	Static     bool
	Type       parser.NodeID
	Self       bool
	Dims       int
	Params     []Param
	Varargs    bool
	TypeParams []TypeParam
	Decl       parser.NodeID
	NameNode   parser.NodeID
	Nested     TypeID
	Doc        string
	Modifiers  []string
	Synthetic  bool
}

func (m *Member) HasModifier(word string) bool {
	for _, w := range m.Modifiers {
		if w == word {
			return true
		}
	}
	return false
}

// Graph is the frame graph of one compilation unit. It is built once and
// not modified afterwards.
type Graph struct {
	Tree     *parser.Tree
	Package  string
	Imports  []parser.Import
	Unit     FrameID
	TopLevel []TypeID

	frames []Frame
	types  []TypeDecl
	byNode map[parser.NodeID]TypeID
}

func (g *Graph) Frame(id FrameID) *Frame {
	if id < 0 || int(id) >= len(g.frames) {
		return nil
	}
	return &g.frames[id]
}

func (g *Graph) Type(id TypeID) *TypeDecl {
	if id < 0 || int(id) >= len(g.types) {
		return nil
	}
	return &g.types[id]
}

func (g *Graph) NumFrames() int { return len(g.frames) }

func (g *Graph) NumTypes() int { return len(g.types) }

// TypeOfNode returns the type declared by a declaration node, the ClassBody
// of an anonymous class or enum constant, or the AnonymousClassExpr itself.
func (g *Graph) TypeOfNode(id parser.NodeID) TypeID {
	if t, ok := g.byNode[id]; ok {
		return t
	}
	return NoType
}
