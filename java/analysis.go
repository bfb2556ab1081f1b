// Package java answers editor queries about one Java compilation unit:
// member suggestions at a dangling dot, go to definition, documentation,
// methods left to implement, missing imports and an outline.
package java

import (
	"context"

	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/parser"
	"github.com/dhamidi/jsuggest/java/resolve"
	"github.com/dhamidi/jsuggest/java/scope"
)

// Analysis is a parsed compilation unit with its frame graph. It is not
// modified after Analyze returns and may be queried concurrently.
type Analysis struct {
	Tree  *parser.Tree
	Graph *scope.Graph
}

// Analyze parses src and builds its scopes. Pass parser.WithCursor when the
// analysis serves a query at a known offset, so that a dot right before the
// cursor is not joined with a name on a later line.
func Analyze(src []byte, opts ...parser.Option) *Analysis {
	tree := parser.Parse(src, opts...)
	return &Analysis{Tree: tree, Graph: scope.Build(tree)}
}

// Resolver returns a type resolver for the unit backed by idx.
func (a *Analysis) Resolver(idx index.Index) *resolve.Resolver {
	return resolve.New(a.Graph, idx)
}

// Location is a position in a source file. Line and Column are 1-based.
type Location = index.Location

func (a *Analysis) location(node parser.NodeID) *Location {
	if a.Tree.Node(node) == nil {
		return nil
	}
	start := a.Tree.Span(node).Start
	return &Location{File: start.File, Line: start.Line, Column: start.Column}
}

// topLevel returns the top-level type that textually contains t.
func (a *Analysis) topLevel(t scope.TypeID) scope.TypeID {
	chain := a.Graph.LexicalChain(t)
	if len(chain) == 0 {
		return scope.NoType
	}
	return chain[len(chain)-1]
}

// accessible reports whether m may be offered to code inside type from.
// Private members are only visible within the same top-level type.
func (a *Analysis) accessible(m resolve.MemberInfo, from scope.TypeID) bool {
	switch {
	case m.Kind == index.MemberConstructor:
		return false
	case m.Visibility != index.VisibilityPrivate:
		return true
	case !m.Owner.IsLocal():
		return false
	}
	return a.topLevel(m.Owner.Local) == a.topLevel(from)
}

// members lists the members of t with the given name and one of kinds.
func members(ctx context.Context, r *resolve.Resolver, t resolve.Type, name string, kinds ...index.MemberKind) ([]resolve.MemberInfo, error) {
	ms, err := r.Members(ctx, t)
	if err != nil {
		return nil, err
	}
	var out []resolve.MemberInfo
	for _, m := range ms {
		if m.Name != name {
			continue
		}
		for _, k := range kinds {
			if m.Kind == k {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}
