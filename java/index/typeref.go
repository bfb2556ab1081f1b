package index

import (
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// TypeRef is a reference to a type by name, as written in a member
// signature. In index files it is a plain string such as
// "java.util.Map<java.lang.String, java.util.List<T>>[]".
type TypeRef struct {
	Name          string
	ArrayDepth    int
	TypeArguments []TypeRef
	// Wildcard is "?", "extends" or "super" for wildcard arguments; Name is
	// then the bound, if any.
	Wildcard string
}

func (t TypeRef) IsPrimitive() bool {
	if t.ArrayDepth > 0 {
		return false
	}
	return IsPrimitiveName(t.Name)
}

func (t TypeRef) IsArray() bool {
	return t.ArrayDepth > 0
}

func (t TypeRef) IsVoid() bool {
	return t.Name == "void" && t.ArrayDepth == 0
}

func (t TypeRef) IsZero() bool {
	return t.Name == "" && t.Wildcard == ""
}

// IsPrimitiveName reports whether name is one of the eight primitive types.
func IsPrimitiveName(name string) bool {
	switch name {
	case "boolean", "byte", "char", "short", "int", "long", "float", "double":
		return true
	}
	return false
}

func (t TypeRef) String() string {
	return t.format(func(name string) string { return name })
}

// SimpleString renders the reference with simple names only, for display.
func (t TypeRef) SimpleString() string {
	return t.format(SimpleName)
}

func (t TypeRef) format(name func(string) string) string {
	var sb strings.Builder
	switch t.Wildcard {
	case "?":
		sb.WriteString("?")
	case "extends", "super":
		sb.WriteString("? " + t.Wildcard + " ")
	}
	sb.WriteString(name(t.Name))
	if len(t.TypeArguments) > 0 {
		sb.WriteString("<")
		for i, a := range t.TypeArguments {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.format(name))
		}
		sb.WriteString(">")
	}
	for i := 0; i < t.ArrayDepth; i++ {
		sb.WriteString("[]")
	}
	return sb.String()
}

// ParseTypeRef parses the string form of a type reference. Varargs "..."
// counts as one array dimension.
func ParseTypeRef(s string) (TypeRef, error) {
	p := &refParser{src: s}
	ref, err := p.parse()
	if err != nil {
		return TypeRef{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return TypeRef{}, errors.Errorf("type %q: unexpected %q", s, p.src[p.pos:])
	}
	return ref, nil
}

type refParser struct {
	src string
	pos int
}

func (p *refParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *refParser) peek() byte {
	p.skipSpace()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *refParser) word() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '.' && strings.HasPrefix(p.src[p.pos:], "...") {
			break
		}
		if c == '_' || c == '$' || c == '.' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *refParser) parse() (TypeRef, error) {
	var ref TypeRef
	if p.peek() == '?' {
		p.pos++
		ref.Wildcard = "?"
		switch w := p.word(); w {
		case "":
			return ref, nil
		case "extends", "super":
			ref.Wildcard = w
		default:
			return TypeRef{}, errors.Errorf("type %q: unexpected %q after '?'", p.src, w)
		}
	}
	ref.Name = NormalizeName(p.word())
	if ref.Name == "" {
		return TypeRef{}, errors.Errorf("type %q: expected a name at offset %d", p.src, p.pos)
	}
	if p.peek() == '<' {
		p.pos++
		for {
			arg, err := p.parse()
			if err != nil {
				return TypeRef{}, err
			}
			ref.TypeArguments = append(ref.TypeArguments, arg)
			if p.peek() != ',' {
				break
			}
			p.pos++
		}
		if p.peek() != '>' {
			return TypeRef{}, errors.Errorf("type %q: missing '>'", p.src)
		}
		p.pos++
	}
	for {
		switch {
		case p.peek() == '[':
			p.pos++
			if p.peek() != ']' {
				return TypeRef{}, errors.Errorf("type %q: missing ']'", p.src)
			}
			p.pos++
			ref.ArrayDepth++
		case strings.HasPrefix(p.src[p.pos:], "..."):
			p.pos += 3
			ref.ArrayDepth++
		default:
			return ref, nil
		}
	}
}

func (t TypeRef) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

func (t *TypeRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: type reference must be a string", node.Line)
	}
	ref, err := ParseTypeRef(node.Value)
	if err != nil {
		return errors.Errorf("line %d: %w", node.Line, err)
	}
	*t = ref
	return nil
}
