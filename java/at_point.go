package java

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/parser"
	"github.com/dhamidi/jsuggest/java/resolve"
	"github.com/dhamidi/jsuggest/java/scope"
)

type SuggestionKind string

const (
	SuggestField      SuggestionKind = "field"
	SuggestMethod     SuggestionKind = "method"
	SuggestNestedType SuggestionKind = "nested-type"
	SuggestLocal      SuggestionKind = "local"
)

// Suggestion is one completion candidate.
type Suggestion struct {
	Name          string         `json:"name"`
	Kind          SuggestionKind `json:"kind"`
	DeclaringType string         `json:"declaringType,omitempty"`
	// Signature reads like a declaration: "Fancy doFancier(Boring arg)".
	Signature  string            `json:"signature"`
	Static     bool              `json:"static,omitempty"`
	Doc        string            `json:"doc,omitempty"`
	Parameters []index.Parameter `json:"-"`
}

// accessPoint is a place where members can be suggested: a dot with no
// member after it, or a member name being typed.
type accessPoint struct {
	node parser.NodeID
	// qualifier is NoNode for an implicit this.
	qualifier parser.NodeID
	prefix    string
}

// accessPointAt finds the access point at offset. A dangling dot counts when
// only whitespace and comments separate it from the cursor.
func (a *Analysis) accessPointAt(offset int) (accessPoint, bool) {
	t := a.Tree
	if offset < 0 || offset > len(t.Source) {
		return accessPoint{}, false
	}

	best := parser.NoNode
	t.Walk(t.Root, func(id parser.NodeID) bool {
		span := t.Span(id)
		if span.Start.Offset > offset {
			return false
		}
		if t.Kind(id) == parser.KindIncompleteMemberAccess && span.End.Offset <= offset &&
			onlyTrivia(t.Source[span.End.Offset:offset]) {
			best = id
		}
		return true
	})
	if best != parser.NoNode {
		ap := accessPoint{node: best, qualifier: parser.NoNode}
		if cs := t.Children(best); len(cs) > 0 {
			ap.qualifier = cs[0]
		}
		return ap, true
	}

	id := t.NodeAt(offset)
	if t.Kind(id) != parser.KindIdentifier {
		return accessPoint{}, false
	}
	p := t.Parent(id)
	q, name := parser.NoNode, parser.NoNode
	switch t.Kind(p) {
	case parser.KindFieldAccess:
		q, name = t.FieldAccessParts(p)
	case parser.KindCallExpr, parser.KindGenericCallExpr:
		q, _, name, _ = t.CallParts(p)
	}
	if name != id {
		return accessPoint{}, false
	}
	start := t.Span(id).Start.Offset
	return accessPoint{node: p, qualifier: q, prefix: string(t.Source[start:offset])}, true
}

// onlyTrivia reports whether s holds nothing but whitespace and comments. A
// comment may be left open where the cursor sits inside it.
func onlyTrivia(s []byte) bool {
	for {
		s = bytes.TrimLeft(s, " \t\r\n\f")
		switch {
		case len(s) == 0:
			return true
		case bytes.HasPrefix(s, []byte("//")):
			i := bytes.IndexByte(s, '\n')
			if i < 0 {
				return true
			}
			s = s[i+1:]
		case bytes.HasPrefix(s, []byte("/*")):
			i := bytes.Index(s[2:], []byte("*/"))
			if i < 0 {
				return true
			}
			s = s[i+4:]
		default:
			return false
		}
	}
}

// Suggest lists the members that may follow the dot at offset, or complete
// the member name the cursor is in. The result is empty when there is no
// access point at offset or its qualifier cannot be typed. Errors come only
// from idx.
//
// A qualifier that names a type offers its static members and member types.
// A bare dot or this also offers the locals in scope, the fields of
// enclosing types and statically imported members.
func (a *Analysis) Suggest(ctx context.Context, idx index.Index, offset int) ([]Suggestion, error) {
	ap, ok := a.accessPointAt(offset)
	if !ok {
		return nil, nil
	}
	r := a.Resolver(idx)
	g := a.Graph
	at := g.TypeAt(offset)

	var qt resolve.Type
	if ap.qualifier == parser.NoNode {
		qt = resolve.Declared(g.Type(at))
	} else {
		var err error
		if qt, err = r.Resolve(ctx, ap.qualifier); err != nil {
			return nil, err
		}
	}
	if !qt.IsResolved() {
		return nil, nil
	}
	broad := ap.qualifier == parser.NoNode || a.Tree.Kind(ap.qualifier) == parser.KindThis

	c := &collector{a: a, r: r, prefix: ap.prefix, seen: map[string]bool{}}
	if broad {
		if err := c.locals(ctx, g.FrameAt(offset), offset); err != nil {
			return nil, err
		}
	}

	ms, err := r.Members(ctx, qt)
	if err != nil {
		return nil, err
	}
	for _, m := range ms {
		if !a.accessible(m, at) || qt.TypeName && !m.Static && m.Kind != index.MemberNestedType {
			continue
		}
		if err := c.member(ctx, m); err != nil {
			return nil, err
		}
	}

	if broad {
		if chain := g.LexicalChain(at); len(chain) > 1 {
			for _, id := range chain[1:] {
				if err := c.fields(ctx, resolve.Declared(g.Type(id)), at); err != nil {
					return nil, err
				}
			}
		}
		imported, err := r.StaticImports(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range imported {
			if err := c.member(ctx, m); err != nil {
				return nil, err
			}
		}
	}
	return c.out, nil
}

// collector accumulates suggestions, dropping repeats of the same name,
// kind and arity.
type collector struct {
	a      *Analysis
	r      *resolve.Resolver
	prefix string
	seen   map[string]bool
	out    []Suggestion
}

func (c *collector) add(s Suggestion) {
	if !strings.HasPrefix(s.Name, c.prefix) {
		return
	}
	key := string(s.Kind) + " " + s.Name
	if s.Kind == SuggestMethod {
		key += "/" + strconv.Itoa(len(s.Parameters))
	}
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.out = append(c.out, s)
}

func (c *collector) locals(ctx context.Context, frame scope.FrameID, offset int) error {
	for _, b := range c.a.Graph.Visible(frame, offset) {
		typ, err := c.r.Binding(ctx, b)
		if err != nil {
			return err
		}
		fallback := ""
		if b.Type != parser.NoNode {
			fallback = index.RawTypeRef(c.a.Tree, b.Type).SimpleString()
		}
		c.add(Suggestion{
			Name:      b.Name,
			Kind:      SuggestLocal,
			Signature: typeString(typ, fallback) + " " + b.Name,
		})
	}
	return nil
}

func (c *collector) fields(ctx context.Context, t resolve.Type, from scope.TypeID) error {
	ms, err := c.r.Members(ctx, t)
	if err != nil {
		return err
	}
	for _, m := range ms {
		if m.Kind != index.MemberField && m.Kind != index.MemberEnumConstant || !c.a.accessible(m, from) {
			continue
		}
		if err := c.member(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (c *collector) member(ctx context.Context, m resolve.MemberInfo) error {
	s, err := c.a.suggestion(ctx, c.r, m)
	if err != nil {
		return err
	}
	c.add(s)
	return nil
}

func (a *Analysis) suggestion(ctx context.Context, r *resolve.Resolver, m resolve.MemberInfo) (Suggestion, error) {
	typ, err := r.MemberType(ctx, m)
	if err != nil {
		return Suggestion{}, err
	}
	s := Suggestion{
		Name:          m.Name,
		DeclaringType: m.DeclaringType,
		Static:        m.Static,
		Doc:           m.Doc,
		Parameters:    m.Parameters,
	}
	switch m.Kind {
	case index.MemberMethod, index.MemberConstructor:
		s.Kind = SuggestMethod
		s.Signature = methodSignature(typeString(typ, m.Type.SimpleString()), m.MemberEntry)
	case index.MemberNestedType:
		s.Kind = SuggestNestedType
		s.Signature = a.typeKeyword(typ) + " " + m.Name
	default:
		s.Kind = SuggestField
		s.Signature = typeString(typ, m.Type.SimpleString()) + " " + m.Name
	}
	return s, nil
}

// typeString renders t with simple names, or fallback as written in the
// declaration when t did not resolve.
func typeString(t resolve.Type, fallback string) string {
	if !t.IsResolved() && fallback != "" {
		return fallback
	}
	return t.SimpleString()
}

func methodSignature(ret string, m index.MemberEntry) string {
	var params []string
	for i, p := range m.Parameters {
		typ := p.Type
		last := m.Varargs && i == len(m.Parameters)-1 && typ.ArrayDepth > 0
		if last {
			typ.ArrayDepth--
		}
		s := typ.SimpleString()
		if last {
			s += "..."
		}
		if p.Name != "" {
			s += " " + p.Name
		}
		params = append(params, s)
	}
	sig := m.Name + "(" + strings.Join(params, ", ") + ")"
	if m.Kind == index.MemberConstructor {
		return sig
	}
	return ret + " " + sig
}

func (a *Analysis) typeKeyword(t resolve.Type) string {
	switch {
	case t.IsLocal():
		return a.Graph.Type(t.Local).Kind.String()
	case t.Entry != nil && t.Entry.Kind != "":
		return string(t.Entry.Kind)
	}
	return string(index.KindClass)
}
