package scope

import (
	"strconv"

	"github.com/dhamidi/jsuggest/java/parser"
)

// Build constructs the frame graph of tree in a single walk. It never fails:
// declarations with missing parts contribute whatever they have.
func Build(tree *parser.Tree) *Graph {
	b := &builder{
		tree: tree,
		g: &Graph{
			Tree:    tree,
			Package: tree.PackageName(),
			Imports: tree.Imports(),
			byNode:  map[parser.NodeID]TypeID{},
		},
		assigns: map[string][]int{},
		counter: map[TypeID]int{},
	}
	b.collectAssignments()

	b.g.Unit = b.newFrame(UnitFrame, tree.Root, tree.Span(tree.Root), NoFrame, NoType, false)
	for _, c := range tree.Children(tree.Root) {
		if tree.Kind(c).IsTypeDecl() {
			t := b.declareType(c, b.g.Unit, NoType, typeContext{static: true})
			b.g.TopLevel = append(b.g.TopLevel, t)
		}
	}
	return b.g
}

type builder struct {
	tree *parser.Tree
	g    *Graph
	// assigns maps a simple name to the offsets of assignments, increments
	// and decrements targeting it.
	assigns map[string][]int
	// counter numbers local and anonymous classes per top-level type.
	counter map[TypeID]int
}

// typeContext describes where a type declaration appears.
type typeContext struct {
	static bool // declared in a static context or explicitly static
	local  bool
}

func (b *builder) newFrame(kind FrameKind, node parser.NodeID, span parser.Span, parent FrameID, typ TypeID, static bool) FrameID {
	id := FrameID(len(b.g.frames))
	b.g.frames = append(b.g.frames, Frame{
		ID:     id,
		Kind:   kind,
		Node:   node,
		Span:   span,
		Parent: parent,
		Type:   typ,
		Static: static,
	})
	return id
}

func (b *builder) bind(frame FrameID, binding Binding) {
	f := &b.g.frames[frame]
	binding.Final = binding.Final || b.effectivelyFinal(binding, f.Span)
	f.Bindings = append(f.Bindings, binding)
}

func (b *builder) collectAssignments() {
	t := b.tree
	t.Walk(t.Root, func(id parser.NodeID) bool {
		var target parser.NodeID = parser.NoNode
		switch t.Kind(id) {
		case parser.KindAssignExpr:
			target = firstChild(t, id)
		case parser.KindUnaryExpr, parser.KindPostfixExpr:
			switch t.TokenLiteral(id) {
			case "++", "--":
				target = firstChild(t, id)
			}
		}
		if t.Kind(target) == parser.KindIdentifier {
			name := t.TokenLiteral(target)
			b.assigns[name] = append(b.assigns[name], t.Span(target).Start.Offset)
		}
		return true
	})
}

// effectivelyFinal approximates the language rule: no assignment to the name
// after its declaration within the declaring frame, or exactly one for a
// local declared without an initializer.
func (b *builder) effectivelyFinal(binding Binding, span parser.Span) bool {
	allowed := 0
	if binding.Kind == LocalBinding && binding.Init == parser.NoNode {
		allowed = 1
	}
	n := 0
	for _, off := range b.assigns[binding.Name] {
		if off > binding.Visible && span.Contains(off) {
			n++
		}
	}
	return n <= allowed
}

func firstChild(t *parser.Tree, id parser.NodeID) parser.NodeID {
	if cs := t.Children(id); len(cs) > 0 {
		return cs[0]
	}
	return parser.NoNode
}

func typeKindOf(k parser.NodeKind) TypeKind {
	switch k {
	case parser.KindInterfaceDecl:
		return InterfaceType
	case parser.KindEnumDecl:
		return EnumType
	case parser.KindRecordDecl:
		return RecordType
	case parser.KindAnnotationDecl:
		return AnnotationType
	}
	return ClassType
}

func (b *builder) topLevelOf(t TypeID) TypeID {
	for {
		lex := b.g.types[t].Lexical
		if lex == NoType {
			return t
		}
		t = lex
	}
}

// localName numbers local and anonymous classes the way class files do:
// Outer$1, Outer$2Local.
func (b *builder) localName(lexical TypeID, simple string) string {
	if lexical == NoType {
		return simple
	}
	top := b.topLevelOf(lexical)
	b.counter[top]++
	return b.g.types[lexical].QualifiedName + "$" + strconv.Itoa(b.counter[top]) + simple
}

// declareType registers the type declared by node, opens its frame inside
// parent and walks its body.
func (b *builder) declareType(node parser.NodeID, parent FrameID, lexical TypeID, ctx typeContext) TypeID {
	t := b.tree
	kind := typeKindOf(t.Kind(node))
	name := t.DeclName(node)

	qualified := name
	switch {
	case ctx.local:
		qualified = b.localName(lexical, name)
	case lexical != NoType:
		qualified = b.g.types[lexical].QualifiedName + "." + name
	case b.g.Package != "":
		qualified = b.g.Package + "." + name
	}

	static := ctx.static || kind != ClassType || t.HasModifier(node, "static")
	if lexical != NoType && b.g.types[lexical].IsInterface() && !ctx.local {
		static = true
	}

	decl := TypeDecl{
		Name:          name,
		QualifiedName: qualified,
		Kind:          kind,
		Local:         ctx.local,
		TypeParams:    b.typeParams(node),
		Superclass:    parser.NoNode,
		Base:          NoType,
		Enclosing:     NoType,
		Lexical:       lexical,
		Static:        static,
		Node:          node,
		Body:          t.Body(node),
		Doc:           t.Doc(node),
	}
	if !static {
		decl.Enclosing = lexical
	}
	ext := t.FirstChildOfKind(node, parser.KindExtendsClause)
	if kind == InterfaceType {
		decl.Interfaces = append(decl.Interfaces, t.ChildrenOfKind(ext, parser.KindType)...)
	} else if types := t.ChildrenOfKind(ext, parser.KindType); len(types) > 0 {
		decl.Superclass = types[0]
	}
	impl := t.FirstChildOfKind(node, parser.KindImplementsClause)
	decl.Interfaces = append(decl.Interfaces, t.ChildrenOfKind(impl, parser.KindType)...)

	id := b.addType(decl, node, parent, ctx)
	if ctx.local {
		b.g.types[id].Captured = b.capture(parent, t.Span(node).Start.Offset)
	}
	b.walkBody(id)
	return id
}

// declareAnonymous registers an anonymous class. base is the enum for enum
// constant bodies; otherwise the supertype is the instantiated Type node.
func (b *builder) declareAnonymous(node, body parser.NodeID, parent FrameID, lexical TypeID, static bool, base TypeID) TypeID {
	t := b.tree
	decl := TypeDecl{
		QualifiedName: b.localName(lexical, ""),
		Kind:          AnonymousType,
		Local:         true,
		Superclass:    t.FirstChildOfKind(node, parser.KindType),
		Base:          base,
		Enclosing:     NoType,
		Lexical:       lexical,
		Static:        static,
		Node:          node,
		Body:          body,
	}
	if !static {
		decl.Enclosing = lexical
	}
	id := b.addType(decl, body, parent, typeContext{static: static, local: true})
	b.g.byNode[node] = id
	if base == NoType {
		b.g.types[id].Captured = b.capture(parent, t.Span(body).Start.Offset)
	}
	b.walkBody(id)
	return id
}

func (b *builder) addType(decl TypeDecl, frameNode parser.NodeID, parent FrameID, ctx typeContext) TypeID {
	id := TypeID(len(b.g.types))
	decl.ID = id
	decl.Frame = b.newFrame(TypeFrame, frameNode, b.tree.Span(frameNode), parent, id, false)
	b.g.types = append(b.g.types, decl)
	b.g.byNode[decl.Node] = id
	b.g.byNode[frameNode] = id
	if decl.Body != parser.NoNode {
		b.g.byNode[decl.Body] = id
	}
	if decl.Lexical != NoType && !ctx.local {
		lex := &b.g.types[decl.Lexical]
		lex.Nested = append(lex.Nested, id)
	}
	return id
}

// capture snapshots the effectively final locals visible at offset. They
// are what a local or anonymous class body may refer to.
func (b *builder) capture(frame FrameID, offset int) []Binding {
	var out []Binding
	for _, binding := range b.g.Visible(frame, offset) {
		if binding.Final {
			out = append(out, binding)
		}
	}
	return out
}

func (b *builder) typeParams(node parser.NodeID) []TypeParam {
	t := b.tree
	var out []TypeParam
	for _, tp := range t.ChildrenOfKind(t.FirstChildOfKind(node, parser.KindTypeParameters), parser.KindTypeParameter) {
		out = append(out, TypeParam{
			Name:   t.DeclName(tp),
			Bounds: t.ChildrenOfKind(t.FirstChildOfKind(tp, parser.KindTypeBound), parser.KindType),
			Node:   tp,
		})
	}
	return out
}

// walkBody collects the members of a type and walks the code inside them.
func (b *builder) walkBody(id TypeID) {
	t := b.tree
	decl := b.g.types[id]
	frame := decl.Frame

	var members []Member
	if decl.Kind == RecordType {
		members = append(members, b.recordComponents(decl.Node)...)
	}

	for _, m := range t.Children(decl.Body) {
		switch k := t.Kind(m); {
		case k == parser.KindEnumConstant:
			members = append(members, Member{
				Name:      t.DeclName(m),
				Kind:      EnumConstantMember,
				Static:    true,
				Type:      parser.NoNode,
				Self:      true,
				Decl:      m,
				NameNode:  t.DeclNameNode(m),
				Nested:    NoType,
				Doc:       t.Doc(m),
				Modifiers: []string{"public", "static", "final"},
			})
			b.walk(t.FirstChildOfKind(m, parser.KindArguments), frame, true)
			if body := t.Body(m); body != parser.NoNode {
				b.declareAnonymous(m, body, frame, id, true, id)
			}

		case k == parser.KindFieldDecl:
			static := t.HasModifier(m, "static") || decl.IsInterface()
			typ := t.TypeNode(m)
			mods := t.ModifierWords(m)
			doc := t.Doc(m)
			for _, d := range t.ChildrenOfKind(m, parser.KindVarDeclarator) {
				members = append(members, Member{
					Name:      t.DeclName(d),
					Kind:      FieldMember,
					Static:    static,
					Type:      typ,
					Dims:      t.Node(d).Dims,
					Decl:      d,
					NameNode:  t.DeclNameNode(d),
					Nested:    NoType,
					Doc:       doc,
					Modifiers: mods,
				})
				b.walkInitializer(d, frame, static)
			}

		case k == parser.KindMethodDecl || k == parser.KindConstructorDecl:
			member := b.method(m)
			members = append(members, member)
			b.walkMethod(m, id, frame, member.Static)

		case k == parser.KindInitializer:
			b.walk(t.FirstChildOfKind(m, parser.KindBlock), frame, t.HasModifier(m, "static"))

		case k.IsTypeDecl():
			nested := b.declareType(m, frame, id, typeContext{})
			nd := &b.g.types[nested]
			members = append(members, Member{
				Name:      nd.Name,
				Kind:      NestedTypeMember,
				Static:    nd.Static,
				Type:      parser.NoNode,
				Decl:      m,
				NameNode:  t.DeclNameNode(m),
				Nested:    nested,
				Doc:       nd.Doc,
				Modifiers: t.ModifierWords(m),
			})
		}
	}

	switch decl.Kind {
	case EnumType:
		members = append(members, enumMethods()...)
	case RecordType:
		members = b.recordAccessors(decl.Node, members)
	}
	b.g.types[id].Members = members
}

func (b *builder) method(m parser.NodeID) Member {
	t := b.tree
	kind := MethodMember
	typ := t.TypeNode(m)
	if t.Kind(m) == parser.KindConstructorDecl {
		kind = ConstructorMember
		typ = parser.NoNode
	}
	member := Member{
		Name:       t.DeclName(m),
		Kind:       kind,
		Static:     t.HasModifier(m, "static"),
		Type:       typ,
		Dims:       t.Node(m).Dims,
		TypeParams: b.typeParams(m),
		Decl:       m,
		NameNode:   t.DeclNameNode(m),
		Nested:     NoType,
		Doc:        t.Doc(m),
		Modifiers:  t.ModifierWords(m),
	}
	for _, p := range t.Params(m) {
		member.Params = append(member.Params, Param{
			Name:    t.DeclName(p),
			Type:    t.TypeNode(p),
			Dims:    t.Node(p).Dims,
			Varargs: t.IsVarargs(p),
		})
		member.Varargs = member.Varargs || t.IsVarargs(p)
	}
	return member
}

func (b *builder) recordComponents(node parser.NodeID) []Member {
	t := b.tree
	var out []Member
	for _, p := range t.Params(node) {
		out = append(out, Member{
			Name:      t.DeclName(p),
			Kind:      FieldMember,
			Type:      t.TypeNode(p),
			Dims:      t.Node(p).Dims,
			Decl:      p,
			NameNode:  t.DeclNameNode(p),
			Nested:    NoType,
			Modifiers: []string{"private", "final"},
		})
	}
	return out
}

// recordAccessors adds an accessor per component unless the body already
// declares a parameterless method of that name.
func (b *builder) recordAccessors(node parser.NodeID, members []Member) []Member {
	t := b.tree
	for _, p := range t.Params(node) {
		name := t.DeclName(p)
		explicit := false
		for _, m := range members {
			if m.Kind == MethodMember && m.Name == name && len(m.Params) == 0 {
				explicit = true
				break
			}
		}
		if explicit {
			continue
		}
		members = append(members, Member{
			Name:      name,
			Kind:      MethodMember,
			Type:      t.TypeNode(p),
			Dims:      t.Node(p).Dims,
			Decl:      p,
			NameNode:  t.DeclNameNode(p),
			Nested:    NoType,
			Modifiers: []string{"public"},
			Synthetic: true,
		})
	}
	return members
}

func enumMethods() []Member {
	return []Member{
		{
			Name:      "values",
			Kind:      MethodMember,
			Static:    true,
			Type:      parser.NoNode,
			Self:      true,
			Dims:      1,
			Decl:      parser.NoNode,
			NameNode:  parser.NoNode,
			Nested:    NoType,
			Modifiers: []string{"public", "static"},
			Synthetic: true,
		},
		{
			Name:      "valueOf",
			Kind:      MethodMember,
			Static:    true,
			Type:      parser.NoNode,
			Self:      true,
			Params:    []Param{{Name: "name", Type: parser.NoNode, TypeName: "String"}},
			Decl:      parser.NoNode,
			NameNode:  parser.NoNode,
			Nested:    NoType,
			Modifiers: []string{"public", "static"},
			Synthetic: true,
		},
	}
}

func (b *builder) walkInitializer(declarator parser.NodeID, frame FrameID, static bool) {
	cs := b.tree.Children(declarator)
	if len(cs) < 2 {
		return
	}
	for _, c := range cs[1:] {
		b.walk(c, frame, static)
	}
}

// walkMethod opens the parameter frame of a method or constructor. Compact
// record constructors see the record components as parameters.
func (b *builder) walkMethod(m parser.NodeID, owner TypeID, parent FrameID, static bool) {
	t := b.tree
	frame := b.newFrame(BlockFrame, m, t.Span(m), parent, owner, static)
	params := t.Params(m)
	if t.Kind(m) == parser.KindConstructorDecl && t.FirstChildOfKind(m, parser.KindParameters) == parser.NoNode {
		params = t.Params(b.g.types[owner].Node)
	}
	for _, p := range params {
		b.bindParameter(frame, p, ParameterBinding, parser.NoNode)
	}
	b.walk(t.FirstChildOfKind(m, parser.KindBlock), frame, static)
}

func (b *builder) bindParameter(frame FrameID, p parser.NodeID, kind BindingKind, init parser.NodeID) {
	t := b.tree
	name := t.DeclNameNode(p)
	if name == parser.NoNode {
		return
	}
	typ := t.TypeNode(p)
	if t.IsVar(typ) {
		typ = parser.NoNode
	}
	b.bind(frame, Binding{
		Name:     t.TokenLiteral(name),
		Kind:     kind,
		Type:     typ,
		Dims:     t.Node(p).Dims,
		Init:     init,
		Decl:     p,
		NameNode: name,
		Visible:  t.Span(name).End.Offset,
		Final:    t.HasModifier(p, "final"),
		Varargs:  t.IsVarargs(p),
	})
}

func (b *builder) bindLocals(frame FrameID, decl parser.NodeID, kind BindingKind) {
	t := b.tree
	typ := t.TypeNode(decl)
	if t.IsVar(typ) {
		typ = parser.NoNode
	}
	final := t.HasModifier(decl, "final")
	for _, d := range t.ChildrenOfKind(decl, parser.KindVarDeclarator) {
		name := t.DeclNameNode(d)
		init := parser.NoNode
		if cs := t.Children(d); len(cs) > 1 {
			init = cs[1]
		}
		if init != parser.NoNode {
			b.walk(init, frame, b.g.frames[frame].Static)
		}
		b.bind(frame, Binding{
			Name:     t.TokenLiteral(name),
			Kind:     kind,
			Type:     typ,
			Dims:     t.Node(d).Dims,
			Init:     init,
			Decl:     d,
			NameNode: name,
			Visible:  t.Span(name).End.Offset,
			Final:    final,
		})
	}
}

// bindPattern binds the variables of a type or record pattern.
func (b *builder) bindPattern(frame FrameID, p parser.NodeID) {
	t := b.tree
	for _, nested := range t.ChildrenOfKind(p, parser.KindParameter) {
		b.bindPattern(frame, nested)
	}
	b.bindParameter(frame, p, PatternBinding, parser.NoNode)
}

// walk visits statements and expressions, opening frames for constructs
// that introduce names and declaring local and anonymous classes.
func (b *builder) walk(id parser.NodeID, frame FrameID, static bool) {
	t := b.tree
	if id == parser.NoNode {
		return
	}
	owner := b.g.frames[frame].Type

	switch t.Kind(id) {
	case parser.KindBlock:
		f := b.newFrame(BlockFrame, id, t.Span(id), frame, owner, static)
		b.walkChildren(id, f, static)

	case parser.KindForStmt, parser.KindSwitchStmt, parser.KindSwitchExpr:
		f := b.newFrame(BlockFrame, id, t.Span(id), frame, owner, static)
		b.walkChildren(id, f, static)

	case parser.KindForInit:
		b.walkChildren(id, frame, static)

	case parser.KindEnhancedForStmt:
		cs := t.Children(id)
		f := b.newFrame(BlockFrame, id, t.Span(id), frame, owner, static)
		if len(cs) > 1 {
			b.walk(cs[1], frame, static)
			b.bindParameter(f, cs[0], ForeachBinding, cs[1])
		}
		if len(cs) > 2 {
			b.walk(cs[2], f, static)
		}

	case parser.KindCatchClause:
		f := b.newFrame(BlockFrame, id, t.Span(id), frame, owner, static)
		b.bindParameter(f, t.FirstChildOfKind(id, parser.KindParameter), CatchBinding, parser.NoNode)
		b.walk(t.FirstChildOfKind(id, parser.KindBlock), f, static)

	case parser.KindTryStmt:
		res := t.FirstChildOfKind(id, parser.KindResources)
		block := t.FirstChildOfKind(id, parser.KindBlock)
		if res == parser.NoNode {
			b.walkChildren(id, frame, static)
			break
		}
		span := t.Span(id)
		span.End = t.Span(block).End
		f := b.newFrame(BlockFrame, id, span, frame, owner, static)
		for _, r := range t.ChildrenOfKind(res, parser.KindResource) {
			if d := t.FirstChildOfKind(r, parser.KindVarDeclarator); d != parser.NoNode {
				b.bindLocals(f, r, ResourceBinding)
			} else {
				b.walkChildren(r, f, static)
			}
		}
		b.walk(block, f, static)
		for _, c := range t.Children(id) {
			if c != res && c != block {
				b.walk(c, frame, static)
			}
		}

	case parser.KindLocalVarDecl:
		b.bindLocals(frame, id, LocalBinding)

	case parser.KindLambdaExpr:
		f := b.newFrame(BlockFrame, id, t.Span(id), frame, owner, static)
		for _, p := range t.Params(id) {
			b.bindParameter(f, p, LambdaBinding, parser.NoNode)
		}
		cs := t.Children(id)
		if len(cs) > 1 {
			b.walk(cs[len(cs)-1], f, static)
		}

	case parser.KindInstanceofExpr:
		b.walkChildren(id, frame, static)
		if p := t.FirstChildOfKind(id, parser.KindParameter); p != parser.NoNode {
			b.bindPattern(frame, p)
		}

	case parser.KindSwitchLabel:
		for _, c := range t.Children(id) {
			if t.Kind(c) == parser.KindParameter {
				b.bindPattern(frame, c)
			} else {
				b.walk(c, frame, static)
			}
		}

	case parser.KindAnonymousClassExpr:
		body := t.Body(id)
		for _, c := range t.Children(id) {
			if c != body {
				b.walk(c, frame, static)
			}
		}
		b.declareAnonymous(id, body, frame, owner, static, NoType)

	case parser.KindClassDecl, parser.KindInterfaceDecl, parser.KindEnumDecl,
		parser.KindRecordDecl, parser.KindAnnotationDecl:
		b.declareType(id, frame, owner, typeContext{static: static, local: true})

	default:
		b.walkChildren(id, frame, static)
	}
}

func (b *builder) walkChildren(id parser.NodeID, frame FrameID, static bool) {
	for _, c := range b.tree.Children(id) {
		b.walk(c, frame, static)
	}
}
