package resolve

import (
	"context"
	"strconv"

	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/parser"
	"github.com/dhamidi/jsuggest/java/scope"
)

const objectName = "java.lang.Object"

// MemberInfo is a member as seen from a receiver type. Members declared in
// the unit carry their scope.Member in Local; the embedded entry is filled
// in either way, with qualified type names.
type MemberInfo struct {
	index.MemberEntry
	DeclaringType string
	// Owner is the declaring type with the type arguments the receiver
	// supplies for it.
	Owner Type
	Local *scope.Member

	fixed *Type
}

// Members lists the members available on t: its own in declaration order,
// then those inherited from superclasses and interfaces, breadth first,
// with java.lang.Object last. An inherited member hidden by one of the same
// name and kind (and arity, for methods) is left out, as are constructors
// and private members of supertypes.
func (r *Resolver) Members(ctx context.Context, t Type) ([]MemberInfo, error) {
	return r.newState(ctx).members(t)
}

// MemberType is the field type or return type of m.
func (r *Resolver) MemberType(ctx context.Context, m MemberInfo) (Type, error) {
	return r.newState(ctx).memberType(m)
}

// Supertypes lists the direct supertypes of t, superclass first.
func (r *Resolver) Supertypes(ctx context.Context, t Type) ([]Type, error) {
	return r.newState(ctx).supertypes(t)
}

// StaticImports lists the members brought in by static imports, in import
// order.
func (r *Resolver) StaticImports(ctx context.Context) ([]MemberInfo, error) {
	s := r.newState(ctx)
	var out []MemberInfo
	for _, imp := range r.g.Imports {
		if !imp.Static {
			continue
		}
		owner, name := imp.Name, ""
		if !imp.Wildcard {
			owner, name = imp.Container(), imp.SimpleName()
		}
		t, err := s.fqn(owner)
		if err != nil {
			return nil, err
		}
		ms, err := s.members(t)
		if err != nil {
			return nil, err
		}
		for _, m := range ms {
			if m.Static && m.Kind != index.MemberConstructor && (name == "" || m.Name == name) {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (s *state) members(t Type) ([]MemberInfo, error) {
	switch {
	case t.Kind == Array:
		return s.arrayMembers(t)
	case t.Kind != Known || !t.IsLocal() && t.Entry == nil:
		return nil, nil
	}

	var out []MemberInfo
	seen := map[string]bool{}
	add := func(ms []MemberInfo, inherited bool) {
		for _, m := range ms {
			if inherited && !inheritable(m) {
				continue
			}
			k := shadowKey(m)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, m)
		}
	}

	visited := map[string]bool{}
	queue := []Type{t}
	for len(queue) > 0 {
		if err := s.ctx.Err(); err != nil {
			return nil, err
		}
		cur := queue[0]
		queue = queue[1:]
		if cur.Kind != Known || visited[cur.Name] {
			continue
		}
		if cur.Name == objectName && t.Name != objectName {
			continue
		}
		visited[cur.Name] = true
		add(s.ownMembers(cur), len(visited) > 1)
		supers, err := s.supertypes(cur)
		if err != nil {
			return nil, err
		}
		queue = append(queue, supers...)
	}

	if !visited[objectName] {
		obj, err := s.javaLang("Object")
		if err != nil {
			return nil, err
		}
		add(s.ownMembers(obj), true)
	}
	return out, nil
}

func (s *state) ownMembers(t Type) []MemberInfo {
	switch {
	case t.IsLocal():
		d := s.g.Type(t.Local)
		out := make([]MemberInfo, 0, len(d.Members))
		for i := range d.Members {
			m := &d.Members[i]
			out = append(out, MemberInfo{
				MemberEntry:   index.MemberEntryFor(s.ctx, s.g, d, m, s.namer),
				DeclaringType: d.QualifiedName,
				Owner:         t,
				Local:         m,
			})
		}
		return out
	case t.Entry != nil:
		out := make([]MemberInfo, 0, len(t.Entry.Members))
		for _, m := range t.Entry.Members {
			out = append(out, MemberInfo{
				MemberEntry:   m,
				DeclaringType: t.Entry.Name,
				Owner:         t,
			})
		}
		return out
	}
	return nil
}

// arrayMembers are length, clone and the members of Object.
func (s *state) arrayMembers(t Type) ([]MemberInfo, error) {
	length := primitive("int")
	self := t
	out := []MemberInfo{
		{
			MemberEntry: index.MemberEntry{
				Name:       "length",
				Kind:       index.MemberField,
				Type:       index.TypeRef{Name: "int"},
				Final:      true,
				Visibility: index.VisibilityPublic,
			},
			DeclaringType: t.String(),
			Owner:         t,
			fixed:         &length,
		},
		{
			MemberEntry: index.MemberEntry{
				Name:       "clone",
				Kind:       index.MemberMethod,
				Type:       t.Ref(),
				Visibility: index.VisibilityPublic,
			},
			DeclaringType: t.String(),
			Owner:         t,
			fixed:         &self,
		},
	}
	obj, err := s.javaLang("Object")
	if err != nil {
		return nil, err
	}
	for _, m := range s.ownMembers(obj) {
		if m.Name != "clone" && inheritable(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func inheritable(m MemberInfo) bool {
	switch {
	case m.Kind == index.MemberConstructor:
		return false
	case m.Visibility == index.VisibilityPrivate:
		return false
	}
	return true
}

func shadowKey(m MemberInfo) string {
	switch m.Kind {
	case index.MemberMethod, index.MemberConstructor:
		return string(m.Kind) + " " + m.Name + "/" + strconv.Itoa(len(m.Parameters))
	case index.MemberEnumConstant:
		return string(index.MemberField) + " " + m.Name
	}
	return string(m.Kind) + " " + m.Name
}

// findMember returns the first member of t with the given name and one of
// the kinds. Overloads are not told apart: the first declaration wins.
func (s *state) findMember(t Type, name string, staticOnly bool, kinds ...index.MemberKind) (MemberInfo, bool, error) {
	ms, err := s.members(t)
	if err != nil {
		return MemberInfo{}, false, err
	}
	for _, m := range ms {
		if m.Name != name || staticOnly && !m.Static {
			continue
		}
		for _, k := range kinds {
			if m.Kind == k {
				return m, true, nil
			}
		}
	}
	return MemberInfo{}, false, nil
}

// staticImport finds a static member imported by name or on demand.
func (s *state) staticImport(name string, kinds ...index.MemberKind) (MemberInfo, bool, error) {
	for _, imp := range s.g.Imports {
		if !imp.Static {
			continue
		}
		owner := imp.Name
		if !imp.Wildcard {
			if imp.SimpleName() != name {
				continue
			}
			owner = imp.Container()
		}
		t, err := s.fqn(owner)
		if err != nil {
			return MemberInfo{}, false, err
		}
		m, ok, err := s.findMember(t, name, true, kinds...)
		if err != nil || ok {
			return m, ok, err
		}
	}
	return MemberInfo{}, false, nil
}

func (s *state) memberType(m MemberInfo) (Type, error) {
	if m.fixed != nil {
		return *m.fixed, nil
	}
	subst := s.substitution(m.Owner)
	if m.Local != nil {
		d := s.g.Type(m.Owner.Local)
		switch {
		case m.Local.Kind == scope.NestedTypeMember:
			return localType(s.g.Type(m.Local.Nested)), nil
		case m.Local.Self:
			return ArrayOf(localType(d), m.Local.Dims), nil
		}
		for _, tp := range m.Local.TypeParams {
			delete(subst, tp.Name)
		}
		typ, err := s.typeNode(m.Local.Type, d.ID, subst)
		if err != nil {
			return Type{}, err
		}
		return ArrayOf(typ, m.Local.Dims), nil
	}
	if m.Kind == index.MemberNestedType {
		return s.fqn(m.DeclaringType + "." + m.Name)
	}
	var params []index.TypeParameter
	if m.Owner.Entry != nil {
		params = m.Owner.Entry.TypeParameters
	}
	return s.refType(m.Type, subst, params)
}

// substitution maps the type parameters of t's declaration to the type
// arguments of t. It is nil for raw and non-generic types.
func (s *state) substitution(t Type) map[string]Type {
	if len(t.Args) == 0 {
		return nil
	}
	var names []string
	switch {
	case t.IsLocal():
		for _, p := range s.g.Type(t.Local).TypeParams {
			names = append(names, p.Name)
		}
	case t.Entry != nil:
		for _, p := range t.Entry.TypeParameters {
			names = append(names, p.Name)
		}
	}
	subst := map[string]Type{}
	for i, n := range names {
		if i < len(t.Args) {
			subst[n] = t.Args[i]
		}
	}
	return subst
}

// supertypes lists the direct supertypes of t, with the type arguments of t
// carried into them. A class without an extends clause has Object.
func (s *state) supertypes(t Type) ([]Type, error) {
	if t.Kind != Known || t.IsLocal() && s.supers[t.Local] {
		return nil, nil
	}
	key := t.String()
	if cached, ok := s.superCache[key]; ok {
		return cached, nil
	}
	var out []Type
	var err error
	switch {
	case t.IsLocal():
		out, err = s.localSupertypes(t)
	case t.Entry != nil:
		out, err = s.entrySupertypes(t)
	}
	if err != nil {
		return nil, err
	}
	s.superCache[key] = out
	return out, nil
}

func (s *state) localSupertypes(t Type) ([]Type, error) {
	d := s.g.Type(t.Local)
	s.supers[d.ID] = true
	defer delete(s.supers, d.ID)

	subst := s.substitution(t)
	var out []Type
	sup, err := s.localSuperclass(d, subst)
	if err != nil {
		return nil, err
	}
	if sup.Kind == Known {
		out = append(out, sup)
	}
	for _, iface := range d.Interfaces {
		it, err := s.typeNode(iface, d.Lexical, subst)
		if err != nil {
			return nil, err
		}
		if it.Kind == Known {
			out = append(out, it)
		}
	}
	return out, nil
}

// localSuperclass resolves the extends clause of d in the scope enclosing
// d, so that d's own member types do not shadow the names in it.
func (s *state) localSuperclass(d *scope.TypeDecl, subst map[string]Type) (Type, error) {
	switch {
	case d.Superclass != parser.NoNode:
		return s.typeNode(d.Superclass, d.Lexical, subst)
	case d.Base != scope.NoType:
		return localType(s.g.Type(d.Base)), nil
	case d.Kind == scope.EnumType:
		e, err := s.javaLang("Enum")
		e.Args = []Type{localType(d)}
		return e, err
	case d.Kind == scope.RecordType:
		return s.javaLang("Record")
	case d.IsInterface():
		return Type{}, nil
	}
	return s.javaLang("Object")
}

func (s *state) entrySupertypes(t Type) ([]Type, error) {
	e := t.Entry
	subst := s.substitution(t)
	var out []Type
	add := func(name string) error {
		ref, err := index.ParseTypeRef(name)
		if err != nil {
			return nil
		}
		st, err := s.refType(ref, subst, e.TypeParameters)
		if err != nil {
			return err
		}
		if st.Kind == Known {
			out = append(out, st)
		}
		return nil
	}
	switch {
	case e.Superclass != "":
		if err := add(e.Superclass); err != nil {
			return nil, err
		}
	case !e.IsInterface() && e.Name != objectName:
		obj, err := s.javaLang("Object")
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	for _, i := range e.Interfaces {
		if err := add(i); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// superclassOf is the type "super" refers to inside t.
func (s *state) superclassOf(t Type) (Type, error) {
	switch {
	case t.IsLocal():
		return s.localSuperclass(s.g.Type(t.Local), s.substitution(t))
	case t.Kind == Known:
		supers, err := s.supertypes(t)
		if err != nil || len(supers) == 0 {
			return Type{}, err
		}
		return supers[0], nil
	}
	return Type{}, nil
}
