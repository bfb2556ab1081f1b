package parser

import "strings"

// Accessors for the fixed child layouts the parser produces. They all
// tolerate missing children: an incomplete declaration simply yields NoNode
// or "".

// DeclNameNode returns the Identifier naming a declaration: type, method,
// constructor, declarator, parameter, enum constant or type parameter.
func (t *Tree) DeclNameNode(id NodeID) NodeID {
	return t.FirstChildOfKind(id, KindIdentifier)
}

func (t *Tree) DeclName(id NodeID) string {
	return t.TokenLiteral(t.DeclNameNode(id))
}

// HasModifier reports whether the declaration carries the modifier keyword
// word, e.g. "static" or "final".
func (t *Tree) HasModifier(id NodeID, word string) bool {
	mods := t.FirstChildOfKind(id, KindModifiers)
	for _, m := range t.ChildrenOfKind(mods, KindModifier) {
		if t.TokenLiteral(m) == word {
			return true
		}
	}
	return false
}

// ModifierWords returns the keyword modifiers of a declaration in source order.
func (t *Tree) ModifierWords(id NodeID) []string {
	mods := t.FirstChildOfKind(id, KindModifiers)
	var out []string
	for _, m := range t.ChildrenOfKind(mods, KindModifier) {
		out = append(out, t.TokenLiteral(m))
	}
	return out
}

// TypeNode returns the declared type of a field, local, parameter or the
// return type of a method.
func (t *Tree) TypeNode(id NodeID) NodeID {
	return t.FirstChildOfKind(id, KindType)
}

// TypeName returns the dotted name of a Type node without type arguments or
// dimensions: "int", "String", "java.util.Map.Entry".
func (t *Tree) TypeName(id NodeID) string {
	n := t.Node(id)
	if n == nil || n.Kind != KindType {
		return ""
	}
	if n.Token != nil {
		return n.Token.Literal
	}
	var parts []string
	for _, c := range n.Children {
		if t.nodes[c].Kind == KindIdentifier {
			parts = append(parts, t.nodes[c].TokenLiteral())
		}
	}
	return strings.Join(parts, ".")
}

// IsVar reports whether a Type node is the inferred local type var.
func (t *Tree) IsVar(id NodeID) bool {
	n := t.Node(id)
	if n == nil || n.Kind != KindType || n.Token != nil || n.Dims != 0 {
		return false
	}
	names := t.ChildrenOfKind(id, KindIdentifier)
	if len(names) != 1 {
		return false
	}
	tok := t.nodes[names[0]].Token
	return tok != nil && tok.Kind == TokenVar
}

// TypeArgs returns the type arguments applied to the last name segment of a
// Type node. Diamonds yield an empty, non-nil slice.
func (t *Tree) TypeArgs(id NodeID) []NodeID {
	args := NoNode
	for _, c := range t.Children(id) {
		switch t.nodes[c].Kind {
		case KindIdentifier:
			args = NoNode
		case KindTypeArguments:
			args = c
		}
	}
	if args == NoNode {
		return nil
	}
	out := []NodeID{}
	return append(out, t.Children(args)...)
}

// IsPrimitiveType reports whether a Type node is a primitive or void.
func (t *Tree) IsPrimitiveType(id NodeID) bool {
	n := t.Node(id)
	return n != nil && n.Kind == KindType && n.Token != nil
}

// QualifiedName renders a QualifiedName, Identifier or FieldAccess chain as a
// dotted name. It returns "" for anything else.
func (t *Tree) QualifiedName(id NodeID) string {
	n := t.Node(id)
	if n == nil {
		return ""
	}
	switch n.Kind {
	case KindIdentifier:
		return n.TokenLiteral()
	case KindQualifiedName:
		parts := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			parts = append(parts, t.nodes[c].TokenLiteral())
		}
		return strings.Join(parts, ".")
	case KindFieldAccess:
		left := t.QualifiedName(n.Children[0])
		if left == "" || len(n.Children) < 2 {
			return ""
		}
		return left + "." + t.nodes[n.Children[1]].TokenLiteral()
	case KindType:
		return t.TypeName(id)
	}
	return ""
}

// CallParts splits a CallExpr or GenericCallExpr into its qualifier (NoNode
// for an unqualified call), type arguments, method name and arguments.
func (t *Tree) CallParts(id NodeID) (qualifier, typeArgs, name, args NodeID) {
	qualifier, typeArgs, name, args = NoNode, NoNode, NoNode, NoNode
	n := t.Node(id)
	if n == nil {
		return
	}
	rest := n.Children
	switch n.Kind {
	case KindCallExpr:
		if len(rest) == 3 {
			qualifier = rest[0]
			rest = rest[1:]
		}
	case KindGenericCallExpr:
		if len(rest) > 0 {
			qualifier = rest[0]
			rest = rest[1:]
		}
	default:
		return
	}
	for _, c := range rest {
		switch t.nodes[c].Kind {
		case KindTypeArguments:
			typeArgs = c
		case KindIdentifier:
			name = c
		case KindArguments:
			args = c
		}
	}
	return
}

// FieldAccessParts splits a FieldAccess into qualifier and name.
func (t *Tree) FieldAccessParts(id NodeID) (qualifier, name NodeID) {
	n := t.Node(id)
	if n == nil || n.Kind != KindFieldAccess || len(n.Children) < 2 {
		return NoNode, NoNode
	}
	return n.Children[0], n.Children[1]
}

// PackageName returns the declared package, or "" for the default package.
func (t *Tree) PackageName() string {
	pkg := t.FirstChildOfKind(t.Root, KindPackageDecl)
	return t.QualifiedName(t.FirstChildOfKind(pkg, KindQualifiedName))
}

// Import is one import declaration. Name excludes the trailing ".*" of
// on-demand imports.
type Import struct {
	Name     string
	Static   bool
	Wildcard bool
	Node     NodeID
}

// SimpleName is the last segment of the imported name.
func (i Import) SimpleName() string {
	if dot := strings.LastIndexByte(i.Name, '.'); dot >= 0 {
		return i.Name[dot+1:]
	}
	return i.Name
}

// Container is the imported name without its last segment.
func (i Import) Container() string {
	if dot := strings.LastIndexByte(i.Name, '.'); dot >= 0 {
		return i.Name[:dot]
	}
	return ""
}

func (t *Tree) Imports() []Import {
	var out []Import
	for _, id := range t.ChildrenOfKind(t.Root, KindImportDecl) {
		n := &t.nodes[id]
		name := t.QualifiedName(t.FirstChildOfKind(id, KindQualifiedName))
		if name == "" {
			continue
		}
		out = append(out, Import{
			Name:     name,
			Static:   n.Flags&FlagStatic != 0,
			Wildcard: n.Flags&FlagWildcard != 0,
			Node:     id,
		})
	}
	return out
}

// TypeDecls returns the top-level type declarations of the unit.
func (t *Tree) TypeDecls() []NodeID {
	var out []NodeID
	for _, c := range t.Children(t.Root) {
		if t.nodes[c].Kind.IsTypeDecl() {
			out = append(out, c)
		}
	}
	return out
}

// Body returns the ClassBody of a type declaration, enum constant or
// anonymous class.
func (t *Tree) Body(id NodeID) NodeID {
	return t.FirstChildOfKind(id, KindClassBody)
}

// Params returns the Parameter children of a method, constructor, lambda or
// record declaration.
func (t *Tree) Params(id NodeID) []NodeID {
	return t.ChildrenOfKind(t.FirstChildOfKind(id, KindParameters), KindParameter)
}

// IsVarargs reports whether a Parameter was declared with "...".
func (t *Tree) IsVarargs(id NodeID) bool {
	n := t.Node(id)
	return n != nil && n.Flags&FlagVarargs != 0
}
