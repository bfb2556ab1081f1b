package format

import (
	"fmt"
	"io"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/dhamidi/jsuggest/java"
)

// JavaEncoder writes method suggestions as overriding stubs, ready to paste
// into a class body.
type JavaEncoder struct {
	w      io.Writer
	indent string
}

func NewJavaEncoder(w io.Writer) *JavaEncoder {
	return &JavaEncoder{w: w, indent: "    "}
}

func (e *JavaEncoder) Encode(v any) error {
	text, err := e.Marshal(v)
	return write(e.w, text, err)
}

func (e *JavaEncoder) Marshal(v any) ([]byte, error) {
	suggestions, ok := v.([]java.Suggestion)
	if !ok {
		return nil, errors.Errorf("%w: java: %T", ErrUnsupported, v)
	}

	var sb strings.Builder
	first := true
	for _, s := range suggestions {
		if s.Kind != java.SuggestMethod {
			continue
		}
		if !first {
			sb.WriteString("\n")
		}
		first = false
		e.writeMethod(&sb, s)
	}
	return []byte(sb.String()), nil
}

func (e *JavaEncoder) writeMethod(sb *strings.Builder, s java.Suggestion) {
	ret := returnType(s)

	sb.WriteString(e.indent)
	sb.WriteString("@Override\n")
	sb.WriteString(e.indent)
	// Widening to public is always a legal override.
	fmt.Fprintf(sb, "public %s %s(%s) {\n", ret, s.Name, e.parameters(s))

	if ret != "void" {
		sb.WriteString(e.indent + e.indent)
		sb.WriteString("throw new UnsupportedOperationException();\n")
	}

	sb.WriteString(e.indent)
	sb.WriteString("}\n")
}

func (e *JavaEncoder) parameters(s java.Suggestion) string {
	parts := make([]string, 0, len(s.Parameters))
	for i, p := range s.Parameters {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		parts = append(parts, p.Type.SimpleString()+" "+name)
	}
	return strings.Join(parts, ", ")
}

// returnType takes the return type out of a "Type name(params)" signature.
func returnType(s java.Suggestion) string {
	i := strings.Index(s.Signature, " "+s.Name+"(")
	if i < 0 {
		return "void"
	}
	return s.Signature[:i]
}
