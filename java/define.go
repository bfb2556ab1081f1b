package java

import (
	"context"
	"strings"

	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/parser"
	"github.com/dhamidi/jsuggest/java/resolve"
	"github.com/dhamidi/jsuggest/java/scope"
)

// symbol is what a name in the source refers to. At most one of binding,
// member and typ is set.
type symbol struct {
	binding *scope.Binding
	member  *resolve.MemberInfo
	typ     resolve.Type
	// decl is the name of the declaration itself when declared is set.
	decl     parser.NodeID
	declared bool
	doc      string
}

// Define returns the declaration site of the name at offset: a local
// binding, a member or type of this unit, or the source location recorded
// in the index. It returns nil when the name is unknown or the index has no
// location for it.
func (a *Analysis) Define(ctx context.Context, idx index.Index, offset int) (*Location, error) {
	sym, ok, err := a.symbolAt(ctx, a.Resolver(idx), offset)
	if err != nil || !ok {
		return nil, err
	}
	switch {
	case sym.declared:
		return a.location(sym.decl), nil
	case sym.binding != nil:
		return a.location(sym.binding.NameNode), nil
	case sym.member != nil:
		return a.memberLocation(*sym.member), nil
	}
	return a.typeLocation(sym.typ), nil
}

// Document returns the Javadoc of the member or type named at offset, or ""
// when it has none.
func (a *Analysis) Document(ctx context.Context, idx index.Index, offset int) (string, error) {
	sym, ok, err := a.symbolAt(ctx, a.Resolver(idx), offset)
	if err != nil || !ok {
		return "", err
	}
	switch {
	case sym.declared || sym.binding != nil:
		return sym.doc, nil
	case sym.member != nil:
		return sym.member.Doc, nil
	case sym.typ.IsLocal():
		return a.Graph.Type(sym.typ.Local).Doc, nil
	case sym.typ.Entry != nil:
		return sym.typ.Entry.Doc, nil
	}
	return "", nil
}

func (a *Analysis) memberLocation(m resolve.MemberInfo) *Location {
	if m.Local != nil {
		switch {
		case m.Local.NameNode != parser.NoNode:
			return a.location(m.Local.NameNode)
		case m.Owner.IsLocal():
			return a.location(a.Tree.DeclNameNode(a.Graph.Type(m.Owner.Local).Node))
		}
		return nil
	}
	if m.Owner.Entry == nil || m.Owner.Entry.Source == nil {
		return nil
	}
	loc := *m.Owner.Entry.Source
	if m.Line > 0 {
		loc.Line, loc.Column = m.Line, 0
	}
	return &loc
}

func (a *Analysis) typeLocation(t resolve.Type) *Location {
	switch {
	case t.IsLocal():
		return a.location(a.Tree.DeclNameNode(a.Graph.Type(t.Local).Node))
	case t.Entry != nil && t.Entry.Source != nil:
		loc := *t.Entry.Source
		return &loc
	}
	return nil
}

// symbolAt finds what the identifier at offset refers to.
func (a *Analysis) symbolAt(ctx context.Context, r *resolve.Resolver, offset int) (symbol, bool, error) {
	t := a.Tree
	g := a.Graph
	id := t.NodeAt(offset)
	if t.Kind(id) != parser.KindIdentifier {
		return symbol{}, false, nil
	}
	name := t.TokenLiteral(id)
	p := t.Parent(id)
	at := g.TypeAt(offset)

	if sym, ok := a.declarationNamed(id); ok {
		return sym, true, nil
	}

	switch t.Kind(p) {
	case parser.KindType:
		// the segments up to this one name a type
		var parts []string
		for _, c := range t.Children(p) {
			if t.Kind(c) == parser.KindIdentifier {
				parts = append(parts, t.TokenLiteral(c))
			}
			if c == id {
				break
			}
		}
		typ, err := r.ResolveTypeName(ctx, strings.Join(parts, "."), at)
		return symbol{typ: typ}, typ.IsResolved(), err

	case parser.KindFieldAccess:
		if q, n := t.FieldAccessParts(p); n == id {
			return a.memberOf(ctx, r, q, name, true)
		}

	case parser.KindCallExpr, parser.KindGenericCallExpr:
		if q, _, n, _ := t.CallParts(p); n == id {
			if q == parser.NoNode {
				return a.enclosingMember(ctx, r, at, name, index.MemberMethod)
			}
			return a.memberOf(ctx, r, q, name, false)
		}
	}

	if b, ok := g.Lookup(g.FrameAt(offset), name, offset); ok {
		return symbol{binding: &b}, true, nil
	}
	if sym, ok, err := a.enclosingMember(ctx, r, at, name, index.MemberField, index.MemberEnumConstant); err != nil || ok {
		return sym, ok, err
	}
	imported, err := r.StaticImports(ctx)
	if err != nil {
		return symbol{}, false, err
	}
	for i := range imported {
		if imported[i].Name == name {
			return symbol{member: &imported[i]}, true, nil
		}
	}
	typ, err := r.ResolveTypeName(ctx, name, at)
	return symbol{typ: typ}, typ.IsResolved(), err
}

// declarationNamed reports whether id is the name of a declaration in the
// unit: a type, a member or a local.
func (a *Analysis) declarationNamed(id parser.NodeID) (symbol, bool) {
	t := a.Tree
	g := a.Graph
	p := t.Parent(id)
	if t.DeclNameNode(p) != id {
		return symbol{}, false
	}
	if typ := g.TypeOfNode(p); typ != scope.NoType {
		if d := g.Type(typ); d.Node == p {
			return symbol{decl: id, declared: true, doc: d.Doc}, true
		}
	}
	for i := 0; i < g.NumTypes(); i++ {
		d := g.Type(scope.TypeID(i))
		for _, m := range d.Members {
			if m.NameNode == id {
				return symbol{decl: id, declared: true, doc: m.Doc}, true
			}
		}
	}
	switch t.Kind(p) {
	case parser.KindVarDeclarator, parser.KindParameter, parser.KindTypeParameter:
		return symbol{decl: id, declared: true}, true
	}
	return symbol{}, false
}

// memberOf finds the member name of the value or type q. Fields are looked
// for first when field is set, and member types after both.
func (a *Analysis) memberOf(ctx context.Context, r *resolve.Resolver, q parser.NodeID, name string, field bool) (symbol, bool, error) {
	qt, err := r.Resolve(ctx, q)
	if err != nil || !qt.IsResolved() {
		return symbol{}, false, err
	}
	kinds := []index.MemberKind{index.MemberMethod}
	if field {
		kinds = []index.MemberKind{index.MemberField, index.MemberEnumConstant, index.MemberNestedType}
	}
	ms, err := members(ctx, r, qt, name, kinds...)
	if err != nil || len(ms) == 0 {
		return symbol{}, false, err
	}
	return symbol{member: &ms[0]}, true, nil
}

// enclosingMember looks name up in at and each type lexically enclosing it.
func (a *Analysis) enclosingMember(ctx context.Context, r *resolve.Resolver, at scope.TypeID, name string, kinds ...index.MemberKind) (symbol, bool, error) {
	for _, id := range a.Graph.LexicalChain(at) {
		ms, err := members(ctx, r, resolve.Declared(a.Graph.Type(id)), name, kinds...)
		if err != nil {
			return symbol{}, false, err
		}
		if len(ms) > 0 {
			return symbol{member: &ms[0]}, true, nil
		}
	}
	return symbol{}, false, nil
}
