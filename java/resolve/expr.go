package resolve

import (
	"strings"

	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/parser"
	"github.com/dhamidi/jsuggest/java/scope"
)

var (
	fieldKinds  = []index.MemberKind{index.MemberField, index.MemberEnumConstant}
	methodKinds = []index.MemberKind{index.MemberMethod}
)

// expr types an expression. The frame and the current type are taken from
// the position of the node, so any node of the unit can be asked about.
func (s *state) expr(id parser.NodeID) (Type, error) {
	if err := s.ctx.Err(); err != nil {
		return Type{}, err
	}
	t := s.g.Tree
	n := t.Node(id)
	if n == nil {
		return Type{}, nil
	}
	offset := n.Span.Start.Offset
	frame := s.g.FrameAt(offset)
	at := s.g.Frame(frame).Type
	cs := n.Children

	switch n.Kind {
	case parser.KindLiteral:
		return s.literal(n.Token)

	case parser.KindIdentifier:
		return s.identifier(n.TokenLiteral(), frame, at, offset)

	case parser.KindFieldAccess:
		q, name := t.FieldAccessParts(id)
		qt, err := s.expr(q)
		if err != nil {
			return Type{}, err
		}
		if qt.Kind == Unresolved {
			// java.util.List: the qualifier is a package
			return s.packageQualified(t.QualifiedName(id))
		}
		return s.field(qt, t.TokenLiteral(name))

	case parser.KindCallExpr, parser.KindGenericCallExpr:
		q, _, nameNode, _ := t.CallParts(id)
		name := t.TokenLiteral(nameNode)
		if q == parser.NoNode {
			return s.unqualifiedCall(name, at)
		}
		qt, err := s.expr(q)
		if err != nil || qt.Kind == Unresolved {
			return Type{}, err
		}
		m, ok, err := s.findMember(qt, name, qt.TypeName, methodKinds...)
		if err != nil || !ok {
			return Type{}, err
		}
		return s.memberType(m)

	case parser.KindThis:
		return s.self(at), nil

	case parser.KindSuper:
		return s.superclassOf(s.self(at))

	case parser.KindQualifiedThis:
		if len(cs) == 0 {
			return Type{}, nil
		}
		enc := s.g.FindEnclosingNamed(at, index.SimpleName(t.QualifiedName(cs[0])))
		return localType(s.g.Type(enc)), nil

	case parser.KindQualifiedSuper:
		if len(cs) == 0 {
			return Type{}, nil
		}
		return s.qualifiedSuper(t.QualifiedName(cs[0]), at, offset)

	case parser.KindCastExpr:
		return s.typeNode(t.FirstChildOfKind(id, parser.KindType), at, nil)

	case parser.KindInstanceofExpr:
		return primitive("boolean"), nil

	case parser.KindArrayAccess:
		if len(cs) == 0 {
			return Type{}, nil
		}
		arr, err := s.expr(cs[0])
		return arr.Component(), err

	case parser.KindNewExpr:
		return s.newExpr(id, at)

	case parser.KindAnonymousClassExpr:
		if anon := s.g.TypeOfNode(id); anon != scope.NoType {
			return localType(s.g.Type(anon)), nil
		}
		return s.typeNode(t.FirstChildOfKind(id, parser.KindType), at, nil)

	case parser.KindNewArrayExpr:
		elem, err := s.typeNode(t.FirstChildOfKind(id, parser.KindType), at, nil)
		return ArrayOf(elem, n.Dims), err

	case parser.KindClassLiteral:
		return s.classLiteral(n, at, offset)

	case parser.KindParenExpr, parser.KindAssignExpr, parser.KindPostfixExpr:
		if len(cs) == 0 {
			return Type{}, nil
		}
		return s.expr(cs[0])

	case parser.KindTernaryExpr:
		if len(cs) < 3 {
			return Type{}, nil
		}
		first, err := s.expr(cs[1])
		if err != nil || first.Kind != Unresolved {
			return first, err
		}
		return s.expr(cs[2])

	case parser.KindBinaryExpr:
		return s.binary(n)

	case parser.KindUnaryExpr:
		if len(cs) == 0 {
			return Type{}, nil
		}
		if n.TokenLiteral() == "!" {
			return primitive("boolean"), nil
		}
		operand, err := s.expr(cs[0])
		if err != nil {
			return Type{}, err
		}
		switch n.TokenLiteral() {
		case "++", "--":
			return operand, nil
		}
		return unaryPromote(operand), nil

	case parser.KindIncompleteMemberAccess:
		if len(cs) == 0 {
			return s.self(at), nil
		}
		return s.expr(cs[0])

	case parser.KindQualifiedName:
		typ, err := s.typeName(t.QualifiedName(id), at, offset, nil)
		if typ.Kind == Known {
			typ.TypeName = true
		}
		return typ, err

	case parser.KindExplicitConstructorInvocation:
		return voidType(), nil
	}
	// lambdas, method references, switch expressions and array
	// initializers take their type from the context
	return Type{}, nil
}

func (s *state) literal(tok *parser.Token) (Type, error) {
	if tok == nil {
		return Type{}, nil
	}
	switch tok.Kind {
	case parser.TokenIntLiteral:
		if strings.HasSuffix(tok.Literal, "L") || strings.HasSuffix(tok.Literal, "l") {
			return primitive("long"), nil
		}
		return primitive("int"), nil
	case parser.TokenFloatLiteral:
		if strings.HasSuffix(tok.Literal, "f") || strings.HasSuffix(tok.Literal, "F") {
			return primitive("float"), nil
		}
		return primitive("double"), nil
	case parser.TokenCharLiteral:
		return primitive("char"), nil
	case parser.TokenTrue, parser.TokenFalse:
		return primitive("boolean"), nil
	case parser.TokenStringLiteral, parser.TokenTextBlock:
		return s.javaLang("String")
	}
	return Type{}, nil
}

func (s *state) self(at scope.TypeID) Type {
	return localType(s.g.Type(at))
}

// identifier resolves a simple name: locals, then fields of the current
// type and each enclosing one, then static imports, then type names.
func (s *state) identifier(name string, frame scope.FrameID, at scope.TypeID, offset int) (Type, error) {
	if b, ok := s.g.Lookup(frame, name, offset); ok {
		return s.binding(b)
	}
	for _, id := range s.g.LexicalChain(at) {
		m, ok, err := s.findMember(localType(s.g.Type(id)), name, false, fieldKinds...)
		if err != nil {
			return Type{}, err
		}
		if ok {
			return s.memberType(m)
		}
	}
	m, ok, err := s.staticImport(name, fieldKinds...)
	if err != nil {
		return Type{}, err
	}
	if ok {
		return s.memberType(m)
	}
	typ, err := s.typeName(name, at, offset, nil)
	if err != nil || typ.Kind != Known {
		return Type{}, err
	}
	typ.TypeName = true
	return typ, nil
}

func (s *state) binding(b scope.Binding) (Type, error) {
	t := s.g.Tree
	if b.Type != parser.NoNode {
		at := s.g.TypeAt(t.Span(b.Type).Start.Offset)
		typ, err := s.typeNode(b.Type, at, nil)
		if err != nil {
			return Type{}, err
		}
		dims := b.Dims
		if b.Varargs {
			dims++
		}
		return ArrayOf(typ, dims), nil
	}
	if b.Init == parser.NoNode || s.pending[b.Decl] {
		return Type{}, nil
	}
	s.pending[b.Decl] = true
	defer delete(s.pending, b.Decl)
	init, err := s.expr(b.Init)
	if err != nil {
		return Type{}, err
	}
	if b.Kind == scope.ForeachBinding {
		return elementType(init), nil
	}
	return ArrayOf(init, b.Dims), nil
}

// elementType is the variable type of a foreach over t.
func elementType(t Type) Type {
	switch {
	case t.Kind == Array:
		return t.Component()
	case t.Kind == Known && len(t.Args) == 1:
		return t.Args[0]
	}
	return Type{}
}

func (s *state) packageQualified(name string) (Type, error) {
	if name == "" {
		return Type{}, nil
	}
	typ, err := s.fqn(name)
	if typ.Kind == Known {
		typ.TypeName = true
	}
	return typ, err
}

// field selects a field of qt, or a member type when qt names a type.
func (s *state) field(qt Type, name string) (Type, error) {
	m, ok, err := s.findMember(qt, name, qt.TypeName, fieldKinds...)
	if err != nil {
		return Type{}, err
	}
	if ok {
		return s.memberType(m)
	}
	if !qt.TypeName {
		return Type{}, nil
	}
	nt, err := s.nestedType(qt, name)
	if nt.Kind == Known {
		nt.TypeName = true
	}
	return nt, err
}

func (s *state) unqualifiedCall(name string, at scope.TypeID) (Type, error) {
	for _, id := range s.g.LexicalChain(at) {
		m, ok, err := s.findMember(localType(s.g.Type(id)), name, false, methodKinds...)
		if err != nil {
			return Type{}, err
		}
		if ok {
			return s.memberType(m)
		}
	}
	m, ok, err := s.staticImport(name, methodKinds...)
	if err != nil || !ok {
		return Type{}, err
	}
	return s.memberType(m)
}

// qualifiedSuper resolves Outer.super, or Iface.super naming a direct
// superinterface of the current type.
func (s *state) qualifiedSuper(name string, at scope.TypeID, offset int) (Type, error) {
	if enc := s.g.FindEnclosingNamed(at, index.SimpleName(name)); enc != scope.NoType {
		return s.superclassOf(localType(s.g.Type(enc)))
	}
	iface, err := s.typeName(name, at, offset, nil)
	if err != nil || iface.Kind != Known {
		return Type{}, err
	}
	supers, err := s.supertypes(s.self(at))
	if err != nil {
		return Type{}, err
	}
	for _, sup := range supers {
		if sup.Name == iface.Name {
			return sup, nil
		}
	}
	return Type{}, nil
}

// newExpr types instance creation, including outer.new Inner().
func (s *state) newExpr(id parser.NodeID, at scope.TypeID) (Type, error) {
	t := s.g.Tree
	typeNode := t.FirstChildOfKind(id, parser.KindType)
	cs := t.Children(id)
	if len(cs) == 0 || cs[0] == typeNode || t.Kind(cs[0]) == parser.KindTypeArguments {
		return s.typeNode(typeNode, at, nil)
	}
	outer, err := s.expr(cs[0])
	if err != nil || outer.Kind != Known {
		return Type{}, err
	}
	return s.nestedType(outer, t.TypeName(typeNode))
}

func (s *state) classLiteral(n *parser.Node, at scope.TypeID, offset int) (Type, error) {
	t := s.g.Tree
	var arg Type
	var err error
	if len(n.Children) > 0 {
		c := n.Children[0]
		if t.Kind(c) == parser.KindType {
			arg, err = s.typeNode(c, at, nil)
		} else {
			arg, err = s.typeName(t.QualifiedName(c), at, offset, nil)
		}
		if err != nil {
			return Type{}, err
		}
	}
	arg = ArrayOf(arg, n.Dims)
	arg.TypeName = false
	cls, err := s.javaLang("Class")
	if err != nil {
		return Type{}, err
	}
	if arg.Kind != Unresolved {
		cls.Args = []Type{arg}
	}
	return cls, nil
}

func (s *state) binary(n *parser.Node) (Type, error) {
	op := n.TokenLiteral()
	switch op {
	case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
		return primitive("boolean"), nil
	}
	if len(n.Children) < 2 {
		return Type{}, nil
	}
	left, err := s.expr(n.Children[0])
	if err != nil {
		return Type{}, err
	}
	right, err := s.expr(n.Children[1])
	if err != nil {
		return Type{}, err
	}
	if op == "+" && (isString(left) || isString(right)) {
		return s.javaLang("String")
	}
	if left.Kind == Unresolved || right.Kind == Unresolved {
		return Type{}, nil
	}
	switch op {
	case "<<", ">>", ">>>":
		return unaryPromote(left), nil
	case "&", "|", "^":
		if l, r := unbox(left), unbox(right); l.Name == "boolean" && r.Name == "boolean" {
			return primitive("boolean"), nil
		}
	}
	return binaryPromote(left, right), nil
}
