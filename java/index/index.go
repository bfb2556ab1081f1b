// Package index describes types that live outside the compilation unit being
// analyzed and provides the lookups used to find them.
package index

import (
	"context"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ErrNotFound is returned by LookupType when the index has no entry for a
// name. Any other error is a failure of the index itself.
var ErrNotFound = errors.Base("type not found")

// Index maps fully qualified type names to their entries. Nested types use
// dotted names (java.util.Map.Entry).
type Index interface {
	LookupType(ctx context.Context, fqn string) (*TypeEntry, error)
}

// Lister is implemented by indexes that can enumerate their type names.
type Lister interface {
	TypeNames(ctx context.Context) ([]string, error)
}

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
	VisibilityPackage   Visibility = "package"
)

type TypeKind string

const (
	KindClass      TypeKind = "class"
	KindInterface  TypeKind = "interface"
	KindEnum       TypeKind = "enum"
	KindAnnotation TypeKind = "annotation"
	KindRecord     TypeKind = "record"
)

type MemberKind string

const (
	MemberField        MemberKind = "field"
	MemberMethod       MemberKind = "method"
	MemberConstructor  MemberKind = "constructor"
	MemberEnumConstant MemberKind = "enum-constant"
	MemberNestedType   MemberKind = "nested-type"
)

type TypeEntry struct {
	Name           string          `yaml:"name"`
	Kind           TypeKind        `yaml:"kind,omitempty"`
	Superclass     string          `yaml:"superclass,omitempty"`
	Interfaces     []string        `yaml:"interfaces,omitempty"`
	TypeParameters []TypeParameter `yaml:"typeParameters,omitempty"`
	Members        []MemberEntry   `yaml:"members,omitempty"`
	Source         *Location       `yaml:"source,omitempty"`
	Doc            string          `yaml:"doc,omitempty"`
}

// SimpleName is the last segment of the entry's name.
func (e *TypeEntry) SimpleName() string {
	return SimpleName(e.Name)
}

func (e *TypeEntry) Package() string {
	if i := strings.LastIndexByte(e.Name, '.'); i >= 0 {
		return e.Name[:i]
	}
	return ""
}

func (e *TypeEntry) IsInterface() bool {
	return e.Kind == KindInterface || e.Kind == KindAnnotation
}

// Member returns the first member with the given name and kind.
func (e *TypeEntry) Member(name string, kind MemberKind) (*MemberEntry, bool) {
	for i := range e.Members {
		if e.Members[i].Name == name && e.Members[i].Kind == kind {
			return &e.Members[i], true
		}
	}
	return nil, false
}

type TypeParameter struct {
	Name   string    `yaml:"name"`
	Bounds []TypeRef `yaml:"bounds,omitempty"`
}

type MemberEntry struct {
	Name       string      `yaml:"name"`
	Kind       MemberKind  `yaml:"kind"`
	Type       TypeRef     `yaml:"type,omitempty"`
	Parameters []Parameter `yaml:"parameters,omitempty"`
	Varargs    bool        `yaml:"varargs,omitempty"`
	Static     bool        `yaml:"static,omitempty"`
	Final      bool        `yaml:"final,omitempty"`
	Abstract   bool        `yaml:"abstract,omitempty"`
	Visibility Visibility  `yaml:"visibility,omitempty"`
	Doc        string      `yaml:"doc,omitempty"`
	Line       int         `yaml:"line,omitempty"`
}

// IsPrivate treats a missing visibility as public: stub files usually only
// list the public surface.
func (m *MemberEntry) IsPrivate() bool {
	return m.Visibility == VisibilityPrivate
}

type Parameter struct {
	Name string  `yaml:"name,omitempty"`
	Type TypeRef `yaml:"type"`
}

// Location is a position in a source file. Line and Column are 1-based.
type Location struct {
	File   string `yaml:"file" json:"file"`
	Line   int    `yaml:"line,omitempty" json:"line,omitempty"`
	Column int    `yaml:"column,omitempty" json:"column,omitempty"`
}

// SimpleName returns the last dotted segment of a name.
func SimpleName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// NormalizeName turns binary names (Outer$Inner) into the dotted form used
// as index keys.
func NormalizeName(name string) string {
	return strings.ReplaceAll(name, "$", ".")
}

// Lookup calls idx.LookupType and reports a missing entry as found == false
// rather than an error. A nil index finds nothing.
func Lookup(ctx context.Context, idx Index, fqn string) (entry *TypeEntry, found bool, err error) {
	if idx == nil || fqn == "" {
		return nil, false, nil
	}
	entry, err = idx.LookupType(ctx, fqn)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry, entry != nil, nil
}
