package index

import (
	"context"

	"github.com/dhamidi/jsuggest/java/parser"
	"github.com/dhamidi/jsuggest/java/scope"
)

// TypeNamer turns a Type node into a reference, qualifying the names the way
// the declaring type at sees them.
type TypeNamer func(ctx context.Context, node parser.NodeID, at scope.TypeID) TypeRef

// FromAnalysis converts the member and top-level types of a unit into index
// entries. Local and anonymous classes are not addressable from other units
// and are skipped. A nil namer keeps names as written.
func FromAnalysis(ctx context.Context, g *scope.Graph, name TypeNamer) []*TypeEntry {
	if name == nil {
		name = func(_ context.Context, node parser.NodeID, _ scope.TypeID) TypeRef {
			return RawTypeRef(g.Tree, node)
		}
	}
	var out []*TypeEntry
	for i := 0; i < g.NumTypes(); i++ {
		decl := g.Type(scope.TypeID(i))
		if decl.Local || decl.Name == "" {
			continue
		}
		out = append(out, entryFor(ctx, g, decl, name))
	}
	return out
}

func entryFor(ctx context.Context, g *scope.Graph, decl *scope.TypeDecl, name TypeNamer) *TypeEntry {
	t := g.Tree
	e := &TypeEntry{
		Name: decl.QualifiedName,
		Kind: typeKind(decl.Kind),
		Doc:  decl.Doc,
	}
	if n := t.DeclNameNode(decl.Node); n != parser.NoNode {
		pos := t.Span(n).Start
		e.Source = &Location{File: t.File, Line: pos.Line, Column: pos.Column}
	}

	switch {
	case decl.Superclass != parser.NoNode:
		e.Superclass = name(ctx, decl.Superclass, decl.ID).String()
	case decl.Kind == scope.EnumType:
		e.Superclass = "java.lang.Enum<" + decl.QualifiedName + ">"
	case decl.Kind == scope.RecordType:
		e.Superclass = "java.lang.Record"
	}
	for _, iface := range decl.Interfaces {
		e.Interfaces = append(e.Interfaces, name(ctx, iface, decl.ID).String())
	}
	for _, tp := range decl.TypeParams {
		p := TypeParameter{Name: tp.Name}
		for _, b := range tp.Bounds {
			p.Bounds = append(p.Bounds, name(ctx, b, decl.ID))
		}
		e.TypeParameters = append(e.TypeParameters, p)
	}

	for i := range decl.Members {
		e.Members = append(e.Members, MemberEntryFor(ctx, g, decl, &decl.Members[i], name))
	}
	return e
}

// MemberEntryFor converts one member of a type declared in g.
func MemberEntryFor(ctx context.Context, g *scope.Graph, decl *scope.TypeDecl, m *scope.Member, name TypeNamer) MemberEntry {
	t := g.Tree
	me := MemberEntry{
		Name:       m.Name,
		Kind:       memberKind(m.Kind),
		Varargs:    m.Varargs,
		Static:     m.Static,
		Final:      m.HasModifier("final"),
		Abstract:   m.HasModifier("abstract"),
		Visibility: ModifierVisibility(m.Modifiers, decl.IsInterface()),
		Doc:        m.Doc,
	}
	if m.NameNode != parser.NoNode {
		me.Line = t.Span(m.NameNode).Start.Line
	}
	if decl.IsInterface() && m.Kind == scope.MethodMember && !m.Static &&
		!m.HasModifier("default") && !m.HasModifier("private") {
		me.Abstract = true
	}

	switch {
	case m.Self:
		me.Type = TypeRef{Name: decl.QualifiedName, ArrayDepth: m.Dims}
	case m.Type != parser.NoNode:
		me.Type = name(ctx, m.Type, decl.ID)
		me.Type.ArrayDepth += m.Dims
	}
	for _, p := range m.Params {
		var ref TypeRef
		switch {
		case p.Type != parser.NoNode:
			ref = name(ctx, p.Type, decl.ID)
		case p.TypeName != "":
			ref = TypeRef{Name: p.TypeName}
			if fqn, ok := JavaLang(p.TypeName); ok {
				ref.Name = fqn
			}
		}
		ref.ArrayDepth += p.Dims
		if p.Varargs {
			ref.ArrayDepth++
		}
		me.Parameters = append(me.Parameters, Parameter{Name: p.Name, Type: ref})
	}
	return me
}

// RawTypeRef renders a Type node without resolving any names.
func RawTypeRef(t *parser.Tree, node parser.NodeID) TypeRef {
	n := t.Node(node)
	if n == nil {
		return TypeRef{}
	}
	if n.Kind == parser.KindWildcard {
		ref := TypeRef{Wildcard: "?"}
		if bound := t.TypeNode(node); bound != parser.NoNode {
			ref = RawTypeRef(t, bound)
			ref.Wildcard = "extends"
			if n.Flags&parser.FlagSuperBound != 0 {
				ref.Wildcard = "super"
			}
		}
		return ref
	}
	ref := TypeRef{Name: t.TypeName(node), ArrayDepth: n.Dims}
	for _, a := range t.TypeArgs(node) {
		ref.TypeArguments = append(ref.TypeArguments, RawTypeRef(t, a))
	}
	return ref
}

func typeKind(k scope.TypeKind) TypeKind {
	switch k {
	case scope.InterfaceType:
		return KindInterface
	case scope.EnumType:
		return KindEnum
	case scope.RecordType:
		return KindRecord
	case scope.AnnotationType:
		return KindAnnotation
	}
	return KindClass
}

func memberKind(k scope.MemberKind) MemberKind {
	switch k {
	case scope.MethodMember:
		return MemberMethod
	case scope.ConstructorMember:
		return MemberConstructor
	case scope.EnumConstantMember:
		return MemberEnumConstant
	case scope.NestedTypeMember:
		return MemberNestedType
	}
	return MemberField
}

// ModifierVisibility derives the access level from modifier keywords.
// Members of interfaces without one are public.
func ModifierVisibility(mods []string, inInterface bool) Visibility {
	for _, m := range mods {
		switch m {
		case "public":
			return VisibilityPublic
		case "protected":
			return VisibilityProtected
		case "private":
			return VisibilityPrivate
		}
	}
	if inInterface {
		return VisibilityPublic
	}
	return VisibilityPackage
}
