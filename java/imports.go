package java

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/parser"
)

// MissingImport is a simple type name used in the unit that does not
// resolve, with the qualified names it might refer to.
type MissingImport struct {
	Name       string   `json:"name"`
	Location   Location `json:"location"`
	Candidates []string `json:"candidates,omitempty"`
}

// MissingImports lists, in order of first use, the type names in the unit
// that resolve neither locally nor through idx and are not imported by name. When idx implements
// index.Lister the candidates are the indexed types with the same simple
// name.
func (a *Analysis) MissingImports(ctx context.Context, idx index.Index) ([]MissingImport, error) {
	t := a.Tree
	g := a.Graph
	r := a.Resolver(idx)

	var out []MissingImport
	// A single-type import is never missing, whether or not idx has it.
	seen := map[string]bool{}
	for _, imp := range g.Imports {
		if !imp.Static && !imp.Wildcard {
			seen[imp.SimpleName()] = true
		}
	}
	var err error
	t.Walk(t.Root, func(id parser.NodeID) bool {
		if err != nil {
			return false
		}
		var name string
		switch t.Kind(id) {
		case parser.KindImportDecl, parser.KindPackageDecl, parser.KindAnnotation:
			return false
		case parser.KindType:
			if t.IsPrimitiveType(id) {
				return true
			}
			name = t.TypeName(id)
			if t.IsVar(id) || strings.Contains(name, ".") || seen[name] {
				return true
			}
			at := g.TypeAt(t.Span(id).Start.Offset)
			typ, rerr := r.ResolveTypeNode(ctx, id, at)
			if err = rerr; err != nil || typ.IsResolved() {
				return true
			}
		case parser.KindIdentifier:
			name = t.TokenLiteral(id)
			if seen[name] || !isQualifier(t, id) || !startsUpper(name) {
				return true
			}
			typ, rerr := r.Resolve(ctx, id)
			if err = rerr; err != nil || typ.IsResolved() {
				return true
			}
		default:
			return true
		}
		seen[name] = true
		start := t.Span(id).Start
		out = append(out, MissingImport{
			Name:     name,
			Location: Location{File: start.File, Line: start.Line, Column: start.Column},
		})
		return true
	})
	if err != nil {
		return nil, err
	}

	lister, ok := idx.(index.Lister)
	if !ok || len(out) == 0 {
		return out, nil
	}
	names, err := lister.TypeNames(ctx)
	if err != nil {
		return nil, err
	}
	bySimple := map[string][]string{}
	for _, n := range names {
		s := index.SimpleName(n)
		bySimple[s] = append(bySimple[s], n)
	}
	for i := range out {
		cands := bySimple[out[i].Name]
		sort.Strings(cands)
		out[i].Candidates = cands
	}
	return out, nil
}

func startsUpper(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

// isQualifier reports whether id is the leftmost part of a member access,
// as NotImported is in NotImported.make().
func isQualifier(t *parser.Tree, id parser.NodeID) bool {
	p := t.Parent(id)
	switch t.Kind(p) {
	case parser.KindFieldAccess:
		q, _ := t.FieldAccessParts(p)
		return q == id
	case parser.KindCallExpr, parser.KindGenericCallExpr:
		q, _, _, _ := t.CallParts(p)
		return q == id
	}
	return false
}
