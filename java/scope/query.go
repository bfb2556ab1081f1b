package scope

import (
	"github.com/dhamidi/jsuggest/java/parser"
)

// FrameAt returns the innermost frame whose span contains offset. Frames
// nest, so the smallest containing span wins; among equal spans the frame
// created last is the inner one.
func (g *Graph) FrameAt(offset int) FrameID {
	best := g.Unit
	bestLen := -1
	for i := range g.frames {
		f := &g.frames[i]
		if !f.Span.Contains(offset) {
			continue
		}
		if l := f.Span.Len(); bestLen < 0 || l <= bestLen {
			best, bestLen = f.ID, l
		}
	}
	return best
}

// TypeAt returns the innermost type whose body contains offset, or NoType
// outside of any type declaration.
func (g *Graph) TypeAt(offset int) TypeID {
	f := g.Frame(g.FrameAt(offset))
	if f == nil {
		return NoType
	}
	return f.Type
}

// Visible lists the local bindings in scope at offset, innermost first and
// in declaration order within a frame. A name shadowed by a closer frame is
// listed once. The walk stops at the first type frame: a member class sees
// no locals, a local or anonymous class sees only what it captured.
func (g *Graph) Visible(frame FrameID, offset int) []Binding {
	var out []Binding
	seen := map[string]bool{}
	add := func(b Binding) {
		if !seen[b.Name] {
			seen[b.Name] = true
			out = append(out, b)
		}
	}
	for f := g.Frame(frame); f != nil; f = g.Frame(f.Parent) {
		switch f.Kind {
		case UnitFrame:
			return out
		case TypeFrame:
			for _, b := range g.types[f.Type].Captured {
				add(b)
			}
			return out
		}
		for _, b := range f.Bindings {
			if b.Visible <= offset {
				add(b)
			}
		}
	}
	return out
}

// Lookup finds the binding a simple name refers to at offset.
func (g *Graph) Lookup(frame FrameID, name string, offset int) (Binding, bool) {
	for _, b := range g.Visible(frame, offset) {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

// FindEnclosingNamed resolves the qualifier of Outer.this: starting at t it
// follows enclosing instances until a type with the simple name is found.
func (g *Graph) FindEnclosingNamed(t TypeID, name string) TypeID {
	for decl := g.Type(t); decl != nil; decl = g.Type(decl.Enclosing) {
		if decl.Name == name {
			return decl.ID
		}
	}
	return NoType
}

// TypesNamed returns all types in the unit with the given simple name, in
// declaration order.
func (g *Graph) TypesNamed(simple string) []TypeID {
	var out []TypeID
	for i := range g.types {
		if g.types[i].Name == simple && simple != "" {
			out = append(out, g.types[i].ID)
		}
	}
	return out
}

// LexicalChain returns t followed by its textually enclosing types,
// innermost first.
func (g *Graph) LexicalChain(t TypeID) []TypeID {
	var out []TypeID
	for decl := g.Type(t); decl != nil; decl = g.Type(decl.Lexical) {
		out = append(out, decl.ID)
	}
	return out
}

// TypeParamsAt returns the type parameters in scope at offset, those of the
// innermost generic method or type first.
func (g *Graph) TypeParamsAt(offset int) []TypeParam {
	var out []TypeParam
	tree := g.Tree
	for f := g.Frame(g.FrameAt(offset)); f != nil; f = g.Frame(f.Parent) {
		switch {
		case f.Kind == TypeFrame:
			out = append(out, g.types[f.Type].TypeParams...)
		case tree.Kind(f.Node) == parser.KindMethodDecl || tree.Kind(f.Node) == parser.KindConstructorDecl:
			decl := g.types[f.Type]
			for _, m := range decl.Members {
				if m.Decl == f.Node {
					out = append(out, m.TypeParams...)
					break
				}
			}
		}
	}
	return out
}

// MemberAt returns the member declaration containing offset, if any, along
// with its declaring type.
func (g *Graph) MemberAt(offset int) (TypeID, *Member) {
	for f := g.Frame(g.FrameAt(offset)); f != nil; f = g.Frame(f.Parent) {
		decl := g.Type(f.Type)
		if decl == nil {
			return NoType, nil
		}
		for i := range decl.Members {
			m := &decl.Members[i]
			if m.Decl == parser.NoNode || m.Kind == NestedTypeMember {
				continue
			}
			span := g.Tree.Span(m.Decl)
			if m.Kind == FieldMember {
				span = g.Tree.Span(g.Tree.Parent(m.Decl))
			}
			if span.Contains(offset) {
				return decl.ID, m
			}
		}
		if f.Kind == TypeFrame {
			return NoType, nil
		}
	}
	return NoType, nil
}
