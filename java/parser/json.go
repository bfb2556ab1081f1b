package parser

import "encoding/json"

type jsonNode struct {
	Kind     string      `json:"kind"`
	Span     *jsonSpan   `json:"span,omitempty"`
	Token    string      `json:"token,omitempty"`
	Dims     int         `json:"dims,omitempty"`
	Error    *jsonError  `json:"error,omitempty"`
	Children []*jsonNode `json:"children,omitempty"`
}

type jsonSpan struct {
	Start jsonPosition `json:"start"`
	End   jsonPosition `json:"end"`
}

type jsonPosition struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

type jsonError struct {
	Message string `json:"message"`
	Got     string `json:"got,omitempty"`
}

type jsonDiagnostic struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Span    jsonSpan `json:"span"`
}

type jsonTree struct {
	File        string           `json:"file,omitempty"`
	Root        *jsonNode        `json:"root"`
	Diagnostics []jsonDiagnostic `json:"diagnostics,omitempty"`
}

// MarshalJSON renders the whole tree with its diagnostics.
func (t *Tree) MarshalJSON() ([]byte, error) {
	out := jsonTree{File: t.File, Root: t.nodeJSON(t.Root)}
	for _, d := range t.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, jsonDiagnostic{
			Kind:    d.Kind.String(),
			Message: d.Message,
			Span:    spanJSON(d.Span),
		})
	}
	return json.Marshal(out)
}

// NodeJSON renders the subtree rooted at id.
func (t *Tree) NodeJSON(id NodeID) ([]byte, error) {
	return json.Marshal(t.nodeJSON(id))
}

func spanJSON(s Span) jsonSpan {
	return jsonSpan{
		Start: jsonPosition{Offset: s.Start.Offset, Line: s.Start.Line, Column: s.Start.Column},
		End:   jsonPosition{Offset: s.End.Offset, Line: s.End.Line, Column: s.End.Column},
	}
}

func (t *Tree) nodeJSON(id NodeID) *jsonNode {
	n := t.Node(id)
	if n == nil {
		return nil
	}
	span := spanJSON(n.Span)
	jn := &jsonNode{
		Kind: n.Kind.String(),
		Span: &span,
		Dims: n.Dims,
	}
	if n.Token != nil {
		jn.Token = n.Token.Literal
	}
	if n.Error != nil {
		jn.Error = &jsonError{Message: n.Error.Message}
		if n.Error.Got != nil {
			jn.Error.Got = n.Error.Got.Literal
		}
	}
	for _, c := range n.Children {
		jn.Children = append(jn.Children, t.nodeJSON(c))
	}
	return jn
}
