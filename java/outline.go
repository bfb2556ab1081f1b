package java

import (
	"context"

	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/parser"
	"github.com/dhamidi/jsuggest/java/scope"
)

// OutlineEntry is a type or member declared in the unit. Types list their
// members, member types included, as children.
type OutlineEntry struct {
	Name     string         `json:"name"`
	Kind     string         `json:"kind"`
	Detail   string         `json:"detail,omitempty"`
	Static   bool           `json:"static,omitempty"`
	Location Location       `json:"location"`
	Children []OutlineEntry `json:"children,omitempty"`
}

// Outline lists the top-level types of the unit with their members in
// declaration order. Local and anonymous classes and synthesized members
// are left out.
func (a *Analysis) Outline() []OutlineEntry {
	var out []OutlineEntry
	for _, id := range a.Graph.TopLevel {
		out = append(out, a.typeOutline(a.Graph.Type(id)))
	}
	return out
}

func (a *Analysis) typeOutline(d *scope.TypeDecl) OutlineEntry {
	e := OutlineEntry{
		Name:   d.Name,
		Kind:   d.Kind.String(),
		Detail: d.QualifiedName,
		Static: d.Static,
	}
	if loc := a.location(a.Tree.DeclNameNode(d.Node)); loc != nil {
		e.Location = *loc
	}
	for i := range d.Members {
		m := &d.Members[i]
		switch {
		case m.Synthetic:
			continue
		case m.Kind == scope.NestedTypeMember:
			e.Children = append(e.Children, a.typeOutline(a.Graph.Type(m.Nested)))
			continue
		}
		me := index.MemberEntryFor(context.Background(), a.Graph, d, m, a.rawTypeRef)
		child := OutlineEntry{
			Name:   m.Name,
			Kind:   m.Kind.String(),
			Static: m.Static,
		}
		switch m.Kind {
		case scope.MethodMember, scope.ConstructorMember:
			child.Detail = methodSignature(me.Type.SimpleString(), me)
		case scope.FieldMember:
			child.Detail = me.Type.SimpleString()
		}
		if loc := a.location(m.NameNode); loc != nil {
			child.Location = *loc
		}
		e.Children = append(e.Children, child)
	}
	return e
}

// rawTypeRef renders a type as written, without resolving names.
func (a *Analysis) rawTypeRef(_ context.Context, node parser.NodeID, _ scope.TypeID) index.TypeRef {
	return index.RawTypeRef(a.Tree, node)
}
