package format

import (
	"fmt"
	"io"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/dhamidi/jsuggest/java"
	"github.com/dhamidi/jsuggest/java/index"
	"github.com/dhamidi/jsuggest/java/parser"
)

// LineEncoder writes one tab-separated record per line, for shells and
// editors that read results line by line.
type LineEncoder struct {
	w io.Writer
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(v any) error {
	text, err := e.Marshal(v)
	return write(e.w, text, err)
}

func (e *LineEncoder) Marshal(v any) ([]byte, error) {
	var sb strings.Builder

	switch v := v.(type) {
	case *parser.Tree:
		sb.WriteString(v.String())
		for _, d := range v.Diagnostics {
			fmt.Fprintf(&sb, "%s\n", d)
		}
	case []java.Suggestion:
		for _, s := range v {
			fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\n", s.Kind, s.Name, s.Signature, s.DeclaringType)
		}
	case []java.OutlineEntry:
		writeOutline(&sb, v, 0)
	case *java.Location:
		if v != nil {
			fmt.Fprintf(&sb, "%s\n", locationStr(*v))
		}
	case []java.MissingImport:
		for _, m := range v {
			fmt.Fprintf(&sb, "%s\t%s\t%s\n", m.Name, locationStr(m.Location), strings.Join(m.Candidates, ","))
		}
	case []*index.TypeEntry:
		for _, t := range v {
			writeEntry(&sb, t)
		}
	case string:
		if v != "" {
			sb.WriteString(strings.TrimSuffix(v, "\n"))
			sb.WriteString("\n")
		}
	default:
		return nil, errors.Errorf("%w: line: %T", ErrUnsupported, v)
	}

	return []byte(sb.String()), nil
}

func writeOutline(sb *strings.Builder, entries []java.OutlineEntry, depth int) {
	for _, o := range entries {
		fmt.Fprintf(sb, "%s%s\t%s\t%s\t%d:%d\n",
			strings.Repeat("  ", depth),
			o.Kind,
			o.Name,
			o.Detail,
			o.Location.Line,
			o.Location.Column,
		)
		writeOutline(sb, o.Children, depth+1)
	}
}

func writeEntry(sb *strings.Builder, t *index.TypeEntry) {
	fmt.Fprintf(sb, "%s\t%s", t.Kind, t.Name)
	if t.Superclass != "" {
		fmt.Fprintf(sb, "\textends %s", t.Superclass)
	}
	if len(t.Interfaces) > 0 {
		fmt.Fprintf(sb, "\timplements %s", strings.Join(t.Interfaces, ","))
	}
	sb.WriteString("\n")

	for _, m := range t.Members {
		fmt.Fprintf(sb, "  %s\t%s\t%s", m.Kind, m.Name, m.Type)
		if m.Kind == index.MemberMethod || m.Kind == index.MemberConstructor {
			fmt.Fprintf(sb, "\t(%s)", parametersStr(m.Parameters))
		}
		if m.Static {
			sb.WriteString("\tstatic")
		}
		sb.WriteString("\n")
	}
}

func parametersStr(params []index.Parameter) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.Type.String())
	}
	return strings.Join(parts, ",")
}

// locationStr leaves out a column that is not known.
func locationStr(l java.Location) string {
	if l.Column == 0 {
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}
