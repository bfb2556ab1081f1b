package parser

import (
	"fmt"
	"sort"
	"strings"
)

type NodeKind int

const (
	KindError NodeKind = iota

	// Compilation unit level
	KindCompilationUnit
	KindPackageDecl
	KindImportDecl

	// Type declarations
	KindClassDecl
	KindInterfaceDecl
	KindEnumDecl
	KindRecordDecl
	KindAnnotationDecl
	KindClassBody
	KindEnumConstant

	// Members
	KindFieldDecl
	KindVarDeclarator
	KindMethodDecl
	KindConstructorDecl
	KindInitializer
	KindExplicitConstructorInvocation

	// Type and modifiers
	KindModifiers
	KindModifier
	KindTypeParameters
	KindTypeParameter
	KindTypeBound
	KindTypeArguments
	KindType
	KindWildcard
	KindAnnotation
	KindAnnotationElement

	// Type clauses
	KindExtendsClause
	KindImplementsClause
	KindPermitsClause

	// Method components
	KindParameters
	KindParameter
	KindThrowsList
	KindDefaultValue

	// Statements
	KindBlock
	KindEmptyStmt
	KindExprStmt
	KindIfStmt
	KindForStmt
	KindForInit
	KindForUpdate
	KindEnhancedForStmt
	KindWhileStmt
	KindDoStmt
	KindSwitchStmt
	KindSwitchCase
	KindSwitchLabel
	KindReturnStmt
	KindBreakStmt
	KindContinueStmt
	KindThrowStmt
	KindTryStmt
	KindResources
	KindResource
	KindCatchClause
	KindFinallyClause
	KindSynchronizedStmt
	KindAssertStmt
	KindLabeledStmt
	KindLocalVarDecl
	KindYieldStmt

	// Expressions
	KindAssignExpr
	KindTernaryExpr
	KindBinaryExpr
	KindUnaryExpr
	KindPostfixExpr
	KindCastExpr
	KindInstanceofExpr
	KindCallExpr
	KindGenericCallExpr
	KindArguments
	KindMethodRef
	KindFieldAccess
	KindArrayAccess
	KindNewExpr
	KindAnonymousClassExpr
	KindNewArrayExpr
	KindArrayInit
	KindLambdaExpr
	KindParenExpr
	KindLiteral
	KindIdentifier
	KindQualifiedName
	KindThis
	KindQualifiedThis
	KindSuper
	KindQualifiedSuper
	KindClassLiteral
	KindSwitchExpr
	KindIncompleteMemberAccess
)

var nodeKindNames = map[NodeKind]string{
	KindError:                         "Error",
	KindCompilationUnit:               "CompilationUnit",
	KindPackageDecl:                   "PackageDecl",
	KindImportDecl:                    "ImportDecl",
	KindClassDecl:                     "ClassDecl",
	KindInterfaceDecl:                 "InterfaceDecl",
	KindEnumDecl:                      "EnumDecl",
	KindRecordDecl:                    "RecordDecl",
	KindAnnotationDecl:                "AnnotationDecl",
	KindClassBody:                     "ClassBody",
	KindEnumConstant:                  "EnumConstant",
	KindFieldDecl:                     "FieldDecl",
	KindVarDeclarator:                 "VarDeclarator",
	KindMethodDecl:                    "MethodDecl",
	KindConstructorDecl:               "ConstructorDecl",
	KindInitializer:                   "Initializer",
	KindExplicitConstructorInvocation: "ExplicitConstructorInvocation",
	KindModifiers:                     "Modifiers",
	KindModifier:                      "Modifier",
	KindTypeParameters:                "TypeParameters",
	KindTypeParameter:                 "TypeParameter",
	KindTypeBound:                     "TypeBound",
	KindTypeArguments:                 "TypeArguments",
	KindType:                          "Type",
	KindWildcard:                      "Wildcard",
	KindAnnotation:                    "Annotation",
	KindAnnotationElement:             "AnnotationElement",
	KindExtendsClause:                 "ExtendsClause",
	KindImplementsClause:              "ImplementsClause",
	KindPermitsClause:                 "PermitsClause",
	KindParameters:                    "Parameters",
	KindParameter:                     "Parameter",
	KindThrowsList:                    "ThrowsList",
	KindDefaultValue:                  "DefaultValue",
	KindBlock:                         "Block",
	KindEmptyStmt:                     "EmptyStmt",
	KindExprStmt:                      "ExprStmt",
	KindIfStmt:                        "IfStmt",
	KindForStmt:                       "ForStmt",
	KindForInit:                       "ForInit",
	KindForUpdate:                     "ForUpdate",
	KindEnhancedForStmt:               "EnhancedForStmt",
	KindWhileStmt:                     "WhileStmt",
	KindDoStmt:                        "DoStmt",
	KindSwitchStmt:                    "SwitchStmt",
	KindSwitchCase:                    "SwitchCase",
	KindSwitchLabel:                   "SwitchLabel",
	KindReturnStmt:                    "ReturnStmt",
	KindBreakStmt:                     "BreakStmt",
	KindContinueStmt:                  "ContinueStmt",
	KindThrowStmt:                     "ThrowStmt",
	KindTryStmt:                       "TryStmt",
	KindResources:                     "Resources",
	KindResource:                      "Resource",
	KindCatchClause:                   "CatchClause",
	KindFinallyClause:                 "FinallyClause",
	KindSynchronizedStmt:              "SynchronizedStmt",
	KindAssertStmt:                    "AssertStmt",
	KindLabeledStmt:                   "LabeledStmt",
	KindLocalVarDecl:                  "LocalVarDecl",
	KindYieldStmt:                     "YieldStmt",
	KindAssignExpr:                    "AssignExpr",
	KindTernaryExpr:                   "TernaryExpr",
	KindBinaryExpr:                    "BinaryExpr",
	KindUnaryExpr:                     "UnaryExpr",
	KindPostfixExpr:                   "PostfixExpr",
	KindCastExpr:                      "CastExpr",
	KindInstanceofExpr:                "InstanceofExpr",
	KindCallExpr:                      "CallExpr",
	KindGenericCallExpr:               "GenericCallExpr",
	KindArguments:                     "Arguments",
	KindMethodRef:                     "MethodRef",
	KindFieldAccess:                   "FieldAccess",
	KindArrayAccess:                   "ArrayAccess",
	KindNewExpr:                       "NewExpr",
	KindAnonymousClassExpr:            "AnonymousClassExpr",
	KindNewArrayExpr:                  "NewArrayExpr",
	KindArrayInit:                     "ArrayInit",
	KindLambdaExpr:                    "LambdaExpr",
	KindParenExpr:                     "ParenExpr",
	KindLiteral:                       "Literal",
	KindIdentifier:                    "Identifier",
	KindQualifiedName:                 "QualifiedName",
	KindThis:                          "This",
	KindQualifiedThis:                 "QualifiedThis",
	KindSuper:                         "Super",
	KindQualifiedSuper:                "QualifiedSuper",
	KindClassLiteral:                  "ClassLiteral",
	KindSwitchExpr:                    "SwitchExpr",
	KindIncompleteMemberAccess:        "IncompleteMemberAccess",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// IsTypeDecl reports whether k declares a named type.
func (k NodeKind) IsTypeDecl() bool {
	switch k {
	case KindClassDecl, KindInterfaceDecl, KindEnumDecl, KindRecordDecl, KindAnnotationDecl:
		return true
	}
	return false
}

// NodeID indexes a node in its Tree. IDs are only meaningful together with the
// tree that produced them.
type NodeID int32

// NoNode is the null NodeID.
const NoNode NodeID = -1

// NodeFlags carries the few syntactic facts that have no node of their own.
type NodeFlags uint8

const (
	FlagStatic     NodeFlags = 1 << iota // static import
	FlagWildcard                         // on-demand import
	FlagVarargs                          // parameter declared with ...
	FlagArrow                            // switch case written with ->
	FlagDefault                          // default switch label
	FlagSuperBound                       // wildcard bounded with super
)

type Error struct {
	Message  string
	Expected []TokenKind
	Got      *Token
}

// Node is one syntax tree node. Nodes live in the arena of a Tree and refer to
// each other by NodeID. Token is set for nodes that stand for a single token:
// identifiers, literals, modifiers, operators of unary/binary/assign
// expressions and primitive types.
type Node struct {
	Kind     NodeKind
	Span     Span
	Children []NodeID
	Parent   NodeID
	Token    *Token
	Error    *Error
	Dims     int
	Flags    NodeFlags
}

func (n *Node) IsError() bool {
	return n.Kind == KindError
}

func (n *Node) TokenLiteral() string {
	if n.Token != nil {
		return n.Token.Literal
	}
	return ""
}

// DiagnosticKind separates lexical problems from syntactic ones.
type DiagnosticKind int

const (
	LexError DiagnosticKind = iota
	SyntaxError
)

func (k DiagnosticKind) String() string {
	if k == LexError {
		return "LexError"
	}
	return "SyntaxError"
}

// Diagnostic describes a recovered problem. Diagnostics never stop parsing.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Span    Span
}

func newDiagnostic(kind DiagnosticKind, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Span.Start.Line, d.Span.Start.Column, d.Kind, d.Message)
}

// Tree is the immutable result of a parse. All nodes are stored in a single
// arena; the zero NodeID is not special, use NoNode for absence.
type Tree struct {
	File        string
	Source      []byte
	Tokens      []Token
	Root        NodeID
	Diagnostics []Diagnostic
	nodes       []Node
}

// Node returns the node for id. The returned node must not be modified.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) Kind(id NodeID) NodeKind {
	if n := t.Node(id); n != nil {
		return n.Kind
	}
	return KindError
}

func (t *Tree) Span(id NodeID) Span {
	if n := t.Node(id); n != nil {
		return n.Span
	}
	return Span{}
}

func (t *Tree) Parent(id NodeID) NodeID {
	if n := t.Node(id); n != nil {
		return n.Parent
	}
	return NoNode
}

func (t *Tree) Children(id NodeID) []NodeID {
	if n := t.Node(id); n != nil {
		return n.Children
	}
	return nil
}

func (t *Tree) FirstChildOfKind(id NodeID, kind NodeKind) NodeID {
	for _, c := range t.Children(id) {
		if t.nodes[c].Kind == kind {
			return c
		}
	}
	return NoNode
}

func (t *Tree) ChildrenOfKind(id NodeID, kind NodeKind) []NodeID {
	var result []NodeID
	for _, c := range t.Children(id) {
		if t.nodes[c].Kind == kind {
			result = append(result, c)
		}
	}
	return result
}

// TokenLiteral returns the literal of the node's token, or "".
func (t *Tree) TokenLiteral(id NodeID) string {
	if n := t.Node(id); n != nil {
		return n.TokenLiteral()
	}
	return ""
}

// Text returns the source text covered by the node.
func (t *Tree) Text(id NodeID) string {
	n := t.Node(id)
	if n == nil {
		return ""
	}
	return string(t.Source[n.Span.Start.Offset:n.Span.End.Offset])
}

// Walk visits id and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if t.Node(id) == nil || !fn(id) {
		return
	}
	for _, c := range t.nodes[id].Children {
		t.Walk(c, fn)
	}
}

// Ancestors returns the chain of parents of id, innermost first.
func (t *Tree) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	for p := t.Parent(id); p != NoNode; p = t.Parent(p) {
		out = append(out, p)
	}
	return out
}

// NodeAt returns the smallest node whose span contains offset. A node ending
// exactly at offset counts, so a cursor right after "f." finds the node for
// the dot.
func (t *Tree) NodeAt(offset int) NodeID {
	best := NoNode
	var visit func(id NodeID)
	visit = func(id NodeID) {
		n := &t.nodes[id]
		if !n.Span.Contains(offset) {
			return
		}
		best = id
		for _, c := range n.Children {
			if t.nodes[c].Span.Contains(offset) {
				visit(c)
				return
			}
		}
	}
	if t.Node(t.Root) != nil {
		visit(t.Root)
	}
	return best
}

// TokenIndexAt returns the index of the first token starting at or after
// offset.
func (t *Tree) TokenIndexAt(offset int) int {
	return sort.Search(len(t.Tokens), func(i int) bool {
		return t.Tokens[i].Span.Start.Offset >= offset
	})
}

// Doc returns the Javadoc attached to the first token of the node.
func (t *Tree) Doc(id NodeID) string {
	n := t.Node(id)
	if n == nil {
		return ""
	}
	i := t.TokenIndexAt(n.Span.Start.Offset)
	if i >= len(t.Tokens) {
		return ""
	}
	return t.Tokens[i].Doc()
}

func (t *Tree) String() string {
	var sb strings.Builder
	t.write(&sb, t.Root, 0, false)
	return sb.String()
}

// StringWithPositions renders the tree with line:column spans.
func (t *Tree) StringWithPositions() string {
	var sb strings.Builder
	t.write(&sb, t.Root, 0, true)
	return sb.String()
}

func (t *Tree) write(sb *strings.Builder, id NodeID, indent int, showPositions bool) {
	n := t.Node(id)
	if n == nil {
		return
	}
	sb.WriteString(strings.Repeat("  ", indent))
	sb.WriteString(n.Kind.String())
	if showPositions {
		fmt.Fprintf(sb, " [%d:%d-%d:%d]", n.Span.Start.Line, n.Span.Start.Column, n.Span.End.Line, n.Span.End.Column)
	}
	if n.Token != nil {
		sb.WriteString(" " + n.Token.Literal)
	}
	if n.Dims > 0 {
		sb.WriteString(" " + strings.Repeat("[]", n.Dims))
	}
	if n.Error != nil {
		sb.WriteString(" ERROR: " + n.Error.Message)
	}
	sb.WriteString("\n")
	for _, c := range n.Children {
		t.write(sb, c, indent+1, showPositions)
	}
}
