package java

import (
	"context"
	"strconv"

	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/resolve"
	"github.com/dhamidi/jsuggest/java/scope"
)

// Implement lists the inherited methods that the type enclosing offset may
// still override: instance methods of its supertypes that are neither final
// nor private, and that it does not already declare with the same name and
// parameter count. Abstract methods come first.
func (a *Analysis) Implement(ctx context.Context, idx index.Index, offset int) ([]Suggestion, error) {
	at := a.Graph.TypeAt(offset)
	decl := a.Graph.Type(at)
	if decl == nil {
		return nil, nil
	}
	r := a.Resolver(idx)

	declared := map[string]bool{}
	for _, m := range decl.Members {
		if m.Kind == scope.MethodMember {
			declared[m.Name+"/"+strconv.Itoa(len(m.Params))] = true
		}
	}

	ms, err := r.Members(ctx, resolve.Declared(decl))
	if err != nil {
		return nil, err
	}
	var abstract, rest []Suggestion
	for _, m := range ms {
		switch {
		case m.Kind != index.MemberMethod, m.Static, m.Final, m.IsPrivate():
			continue
		case m.Owner.IsLocal() && m.Owner.Local == at:
			continue
		case declared[m.Name+"/"+strconv.Itoa(len(m.Parameters))]:
			continue
		}
		s, err := a.suggestion(ctx, r, m)
		if err != nil {
			return nil, err
		}
		if m.Abstract {
			abstract = append(abstract, s)
		} else {
			rest = append(rest, s)
		}
	}
	return append(abstract, rest...), nil
}
