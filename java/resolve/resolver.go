package resolve

import (
	"context"
	"strings"

	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/parser"
	"github.com/dhamidi/jsuggest/java/scope"
)

// Resolver types the expressions of one compilation unit. It keeps no state
// between calls: resolving the same node twice gives the same Type, and a
// Resolver may serve concurrent queries when its index allows it.
//
// Errors from the index other than index.ErrNotFound are returned as they
// are; a name that cannot be found yields an Unresolved Type instead.
type Resolver struct {
	g   *scope.Graph
	idx index.Index
}

// New returns a resolver for g. idx may be nil, in which case only the
// declarations of the unit are known.
func New(g *scope.Graph, idx index.Index) *Resolver {
	return &Resolver{g: g, idx: idx}
}

func (r *Resolver) Graph() *scope.Graph { return r.g }

// state is the scratch space of one call.
type state struct {
	*Resolver
	ctx context.Context
	// pending holds var declarations and type parameters being resolved,
	// so that self-references end as Unresolved.
	pending map[parser.NodeID]bool
	// supers holds local types whose supertypes are being resolved.
	supers     map[scope.TypeID]bool
	superCache map[string][]Type
}

func (r *Resolver) newState(ctx context.Context) *state {
	return &state{
		Resolver:   r,
		ctx:        ctx,
		pending:    map[parser.NodeID]bool{},
		supers:     map[scope.TypeID]bool{},
		superCache: map[string][]Type{},
	}
}

// Resolve returns the static type of expr.
func (r *Resolver) Resolve(ctx context.Context, expr parser.NodeID) (Type, error) {
	return r.newState(ctx).expr(expr)
}

// ResolveTypeNode resolves a Type node as seen from inside type at.
func (r *Resolver) ResolveTypeNode(ctx context.Context, node parser.NodeID, at scope.TypeID) (Type, error) {
	return r.newState(ctx).typeNode(node, at, nil)
}

// ResolveTypeName resolves a simple or dotted type name as seen from inside
// type at, or from the top level of the unit when at is scope.NoType.
func (r *Resolver) ResolveTypeName(ctx context.Context, name string, at scope.TypeID) (Type, error) {
	return r.newState(ctx).typeName(name, at, -1, nil)
}

// Binding returns the declared type of a local binding; for var
// declarations that is the type of the initializer.
func (r *Resolver) Binding(ctx context.Context, b scope.Binding) (Type, error) {
	return r.newState(ctx).binding(b)
}

// TypeRef renders a Type node as an index reference with qualified names.
// Type variables and names that do not resolve are kept as written.
func (r *Resolver) TypeRef(ctx context.Context, node parser.NodeID, at scope.TypeID) index.TypeRef {
	return r.newState(ctx).typeRef(node, at)
}

func (s *state) typeRef(node parser.NodeID, at scope.TypeID) index.TypeRef {
	t := s.g.Tree
	n := t.Node(node)
	if n == nil {
		return index.TypeRef{}
	}
	if n.Kind == parser.KindWildcard {
		ref := index.TypeRef{Wildcard: "?"}
		if bound := t.TypeNode(node); bound != parser.NoNode {
			ref = s.typeRef(bound, at)
			ref.Wildcard = "extends"
			if n.Flags&parser.FlagSuperBound != 0 {
				ref.Wildcard = "super"
			}
		}
		return ref
	}
	ref := index.TypeRef{Name: t.TypeName(node), ArrayDepth: n.Dims}
	offset := n.Span.Start.Offset
	if !t.IsPrimitiveType(node) && !s.isTypeParam(ref.Name, at, offset) {
		if typ, err := s.typeName(ref.Name, at, offset, nil); err == nil && typ.Name != "" {
			ref.Name = typ.Name
		}
	}
	for _, a := range t.TypeArgs(node) {
		ref.TypeArguments = append(ref.TypeArguments, s.typeRef(a, at))
	}
	return ref
}

func (s *state) namer(_ context.Context, node parser.NodeID, at scope.TypeID) index.TypeRef {
	return s.typeRef(node, at)
}

// typeNode resolves a Type or Wildcard node. subst maps type variable names
// to the arguments a receiver supplies for them.
func (s *state) typeNode(node parser.NodeID, at scope.TypeID, subst map[string]Type) (Type, error) {
	t := s.g.Tree
	n := t.Node(node)
	if n == nil {
		return Type{}, nil
	}
	switch n.Kind {
	case parser.KindWildcard:
		bound := t.TypeNode(node)
		if bound == parser.NoNode || n.Flags&parser.FlagSuperBound != 0 {
			return s.javaLang("Object")
		}
		return s.typeNode(bound, at, subst)
	case parser.KindType:
	default:
		return Type{}, nil
	}

	var base Type
	switch {
	case t.IsPrimitiveType(node) && t.TokenLiteral(node) == "void":
		base = voidType()
	case t.IsPrimitiveType(node):
		base = primitive(t.TokenLiteral(node))
	case t.IsVar(node):
		return Type{}, nil
	default:
		name := t.TypeName(node)
		var err error
		if base, err = s.typeName(name, at, n.Span.Start.Offset, subst); err != nil {
			return Type{}, err
		}
		if args := t.TypeArgs(node); base.Kind == Known && len(args) > 0 {
			base.Args = make([]Type, 0, len(args))
			for _, a := range args {
				arg, err := s.typeNode(a, at, subst)
				if err != nil {
					return Type{}, err
				}
				base.Args = append(base.Args, arg)
			}
		}
	}
	return ArrayOf(base, n.Dims), nil
}

// typeName resolves a simple or dotted name. offset places the name in the
// source for type parameters and local classes; it is -1 when unknown.
func (s *state) typeName(name string, at scope.TypeID, offset int, subst map[string]Type) (Type, error) {
	switch {
	case name == "":
		return Type{}, nil
	case name == "void":
		return voidType(), nil
	case index.IsPrimitiveName(name):
		return primitive(name), nil
	}
	parts := strings.Split(index.NormalizeName(name), ".")
	t, err := s.simpleTypeName(parts[0], at, offset, subst)
	if err != nil {
		return Type{}, err
	}
	for _, seg := range parts[1:] {
		if t.Kind != Known {
			break
		}
		if t, err = s.nestedType(t, seg); err != nil {
			return Type{}, err
		}
	}
	if t.Kind == Known || len(parts) == 1 {
		return t, nil
	}
	return s.fqn(name)
}

// simpleTypeName looks a simple name up the way the compiler does, closest
// scope first, and finally accepts any type of that name in the unit.
func (s *state) simpleTypeName(name string, at scope.TypeID, offset int, subst map[string]Type) (Type, error) {
	if p, ok := s.typeParam(name, at, offset); ok {
		if t, ok := subst[name]; ok {
			return t, nil
		}
		return s.paramBound(p, at)
	}

	if offset >= 0 {
		if t, ok := s.localClass(name, offset); ok {
			return t, nil
		}
	}

	for _, id := range s.g.LexicalChain(at) {
		d := s.g.Type(id)
		t, err := s.nestedType(localType(d), name)
		if err != nil || t.Kind == Known {
			return t, err
		}
		if d.Name == name {
			return localType(d), nil
		}
	}

	for _, id := range s.g.TopLevel {
		if d := s.g.Type(id); d.Name == name {
			return localType(d), nil
		}
	}

	for _, imp := range s.g.Imports {
		if imp.Static || imp.Wildcard || imp.SimpleName() != name {
			continue
		}
		t, err := s.fqn(imp.Name)
		if err != nil {
			return Type{}, err
		}
		if t.Kind != Known {
			t = imported(index.NormalizeName(imp.Name))
		}
		return t, nil
	}

	if s.g.Package != "" {
		if t, err := s.fqn(s.g.Package + "." + name); err != nil || t.Kind == Known {
			return t, err
		}
	}

	for _, imp := range s.g.Imports {
		if !imp.Wildcard {
			continue
		}
		if t, err := s.fqn(imp.Name + "." + name); err != nil || t.Kind == Known {
			return t, err
		}
	}

	if _, ok := index.JavaLang(name); ok {
		return s.javaLang(name)
	}

	if t, err := s.fqn(name); err != nil || t.Kind == Known {
		return t, err
	}

	if ids := s.g.TypesNamed(name); len(ids) > 0 {
		return localType(s.g.Type(ids[0])), nil
	}
	return Type{}, nil
}

// typeParams lists the type parameters in scope, innermost first.
func (s *state) typeParams(at scope.TypeID, offset int) []scope.TypeParam {
	if offset >= 0 {
		return s.g.TypeParamsAt(offset)
	}
	var out []scope.TypeParam
	for _, id := range s.g.LexicalChain(at) {
		out = append(out, s.g.Type(id).TypeParams...)
	}
	return out
}

func (s *state) typeParam(name string, at scope.TypeID, offset int) (scope.TypeParam, bool) {
	for _, p := range s.typeParams(at, offset) {
		if p.Name == name {
			return p, true
		}
	}
	return scope.TypeParam{}, false
}

func (s *state) isTypeParam(name string, at scope.TypeID, offset int) bool {
	_, ok := s.typeParam(name, at, offset)
	return ok
}

// paramBound stands in a type variable by its first bound.
func (s *state) paramBound(p scope.TypeParam, at scope.TypeID) (Type, error) {
	if len(p.Bounds) == 0 || s.pending[p.Node] {
		return s.javaLang("Object")
	}
	s.pending[p.Node] = true
	defer delete(s.pending, p.Node)
	return s.typeNode(p.Bounds[0], at, nil)
}

// localClass finds a class declared in a block enclosing offset, before it.
func (s *state) localClass(name string, offset int) (Type, bool) {
	chain := map[scope.FrameID]bool{}
	for f := s.g.Frame(s.g.FrameAt(offset)); f != nil; f = s.g.Frame(f.Parent) {
		chain[f.ID] = true
	}
	for _, id := range s.g.TypesNamed(name) {
		d := s.g.Type(id)
		if !d.Local {
			continue
		}
		declared := s.g.Frame(d.Frame)
		if chain[declared.Parent] && s.g.Tree.Span(d.Node).Start.Offset <= offset {
			return localType(d), true
		}
	}
	return Type{}, false
}

// nestedType finds a member type of t or of one of its supertypes.
func (s *state) nestedType(t Type, name string) (Type, error) {
	seen := map[string]bool{}
	queue := []Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.Kind != Known || seen[cur.Name] {
			continue
		}
		seen[cur.Name] = true
		if cur.IsLocal() {
			if m, ok := s.g.Type(cur.Local).Member(name, scope.NestedTypeMember); ok {
				return localType(s.g.Type(m.Nested)), nil
			}
		} else if nt, err := s.fqn(cur.Name + "." + name); err != nil || nt.Kind == Known {
			return nt, err
		}
		supers, err := s.supertypes(cur)
		if err != nil {
			return Type{}, err
		}
		queue = append(queue, supers...)
	}
	return Type{}, nil
}

// fqn finds a type by qualified name, in the unit first.
func (s *state) fqn(name string) (Type, error) {
	name = index.NormalizeName(name)
	for i := 0; i < s.g.NumTypes(); i++ {
		if d := s.g.Type(scope.TypeID(i)); !d.Local && d.QualifiedName == name {
			return localType(d), nil
		}
	}
	e, ok, err := index.Lookup(s.ctx, s.idx, name)
	if err != nil || !ok {
		return Type{}, err
	}
	return entryType(e), nil
}

// javaLang returns a java.lang type, Known by name even when the index does
// not have it.
func (s *state) javaLang(simple string) (Type, error) {
	t, err := s.fqn("java.lang." + simple)
	if err != nil {
		return Type{}, err
	}
	if t.Kind != Known {
		t = named("java.lang." + simple)
	}
	return t, nil
}

// refType resolves a reference from an index entry. params are the type
// parameters of the entry; subst the arguments the receiver supplies.
func (s *state) refType(ref index.TypeRef, subst map[string]Type, params []index.TypeParameter) (Type, error) {
	if ref.Wildcard != "" {
		if ref.Name == "" || ref.Wildcard == "super" {
			return s.javaLang("Object")
		}
		ref.Wildcard = ""
	}
	var base Type
	var err error
	switch {
	case ref.Name == "":
		return Type{}, nil
	case ref.Name == "void":
		base = voidType()
	case index.IsPrimitiveName(ref.Name):
		base = primitive(ref.Name)
	default:
		if t, ok := subst[ref.Name]; ok {
			base = t
			break
		}
		for _, p := range params {
			if p.Name != ref.Name {
				continue
			}
			if len(p.Bounds) == 0 {
				base, err = s.javaLang("Object")
			} else {
				base, err = s.refType(p.Bounds[0], nil, nil)
			}
			if err != nil {
				return Type{}, err
			}
			return ArrayOf(base, ref.ArrayDepth), nil
		}
		if base, err = s.fqn(ref.Name); err != nil {
			return Type{}, err
		}
		if base.Kind != Known && strings.Contains(ref.Name, ".") {
			base = named(index.NormalizeName(ref.Name))
		}
		if base.Kind == Known && len(ref.TypeArguments) > 0 {
			for _, a := range ref.TypeArguments {
				arg, err := s.refType(a, subst, params)
				if err != nil {
					return Type{}, err
				}
				base.Args = append(base.Args, arg)
			}
		}
	}
	return ArrayOf(base, ref.ArrayDepth), nil
}
