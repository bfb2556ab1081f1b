// Package javadoc reads Javadoc comments for display in completion lists and
// hovers.
package javadoc

import (
	"html"
	"slices"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Doc is a parsed Javadoc comment. Body holds the HTML description with
// inline tags already rendered; block tags keep their order.
type Doc struct {
	Body string
	Tags []Tag
}

// Tag is a block tag such as "@param name text". Arg is set for the tags
// that name something: @param, @throws, @exception and @see.
type Tag struct {
	Name string
	Arg  string
	Text string
}

// Parse accepts a comment with or without its /** */ markers. Inline tags
// are rendered as HTML, so Body and tag texts read as HTML fragments.
func Parse(comment string) *Doc {
	lines := commentLines(comment)

	doc := &Doc{}
	var body []string
	var tag *Tag
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "@") {
			doc.Tags = append(doc.Tags, parseTag(trimmed))
			tag = &doc.Tags[len(doc.Tags)-1]
			continue
		}
		if tag != nil {
			if trimmed != "" {
				tag.Text = strings.TrimSpace(tag.Text + " " + inline(trimmed, true))
			}
			continue
		}
		body = append(body, line)
	}
	doc.Body = strings.TrimSpace(inline(strings.Join(body, "\n"), true))
	return doc
}

func commentLines(comment string) []string {
	comment = strings.TrimSpace(comment)
	comment = strings.TrimPrefix(comment, "/**")
	comment = strings.TrimSuffix(comment, "*/")

	lines := strings.Split(strings.ReplaceAll(comment, "\r\n", "\n"), "\n")
	for i, l := range lines {
		l = strings.TrimLeft(l, " \t")
		if strings.HasPrefix(l, "*") {
			l = strings.TrimPrefix(l[1:], " ")
		}
		lines[i] = strings.TrimRight(l, " \t")
	}
	return lines
}

func parseTag(line string) Tag {
	name, rest, _ := strings.Cut(line[1:], " ")
	t := Tag{Name: name}
	rest = strings.TrimSpace(rest)
	switch name {
	case "param", "throws", "exception", "see":
		t.Arg, rest, _ = strings.Cut(rest, " ")
		t.Arg = inline(t.Arg, false)
	}
	t.Text = inline(strings.TrimSpace(rest), true)
	return t
}

// inline renders {@code}, {@link} and friends. With markup unset the result
// is plain text.
func inline(s string, markup bool) string {
	var sb strings.Builder
	for {
		start := strings.Index(s, "{@")
		if start < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		end := closingBrace(s, start+1)
		if end < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		sb.WriteString(s[:start])
		name, arg, _ := strings.Cut(s[start+2:end], " ")
		name = strings.TrimSpace(strings.TrimRight(name, "\n"))
		arg = strings.TrimSpace(arg)
		sb.WriteString(renderInline(name, arg, markup))
		s = s[end+1:]
	}
}

func renderInline(name, arg string, markup bool) string {
	text := func(s string) string {
		if markup {
			return html.EscapeString(s)
		}
		return s
	}
	code := func(s string) string {
		if markup && s != "" {
			return "<code>" + html.EscapeString(s) + "</code>"
		}
		return s
	}
	switch name {
	case "code":
		return code(arg)
	case "literal":
		return text(arg)
	case "link", "linkplain":
		ref, label, _ := strings.Cut(arg, " ")
		if label = strings.TrimSpace(label); label != "" {
			return label
		}
		ref = strings.TrimPrefix(strings.ReplaceAll(ref, "#", "."), ".")
		if name == "linkplain" {
			return text(ref)
		}
		return code(ref)
	case "value":
		return code(strings.TrimPrefix(strings.ReplaceAll(arg, "#", "."), "."))
	case "inheritDoc", "docRoot":
		return ""
	}
	// summary, return, index and unknown tags read as their text.
	return arg
}

// closingBrace finds the brace that closes the one at open, counting nested
// braces as {@code} bodies may contain them.
func closingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

var converter = md.NewConverter("", true, nil)

// markdown converts an HTML fragment. Fragments the converter rejects are
// shown as text.
func markdown(fragment string) string {
	if fragment == "" {
		return ""
	}
	out, err := converter.ConvertString(fragment)
	if err != nil {
		return plain(fragment)
	}
	return strings.TrimSpace(out)
}

// plain is the text of an HTML fragment with runs of blank lines collapsed.
func plain(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var out []string
	blank := false
	for _, l := range strings.Split(doc.Text(), "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

// Summary is the first sentence of the body, as text.
func (d *Doc) Summary() string {
	text := strings.Join(strings.Fields(plain(d.Body)), " ")
	if i := strings.Index(text, ". "); i >= 0 {
		return text[:i+1]
	}
	return text
}

// Params returns the text of each @param tag by parameter name.
func (d *Doc) Params() map[string]string {
	out := map[string]string{}
	for _, t := range d.Tags {
		if t.Name == "param" {
			out[t.Arg] = t.Text
		}
	}
	return out
}

// Text is the body without markup.
func (d *Doc) Text() string {
	return plain(d.Body)
}

var sections = []struct {
	title string
	tags  []string
}{
	{"Parameters", []string{"param"}},
	{"Returns", []string{"return"}},
	{"Throws", []string{"throws", "exception"}},
	{"Deprecated", []string{"deprecated"}},
	{"Since", []string{"since"}},
	{"See also", []string{"see"}},
}

// Markdown renders the body followed by a section per kind of block tag.
// Other tags, such as @author, are left out.
func (d *Doc) Markdown() string {
	var sb strings.Builder
	sb.WriteString(markdown(d.Body))

	for _, sec := range sections {
		var items []string
		list := false
		for _, t := range d.Tags {
			if !slices.Contains(sec.tags, t.Name) {
				continue
			}
			text := markdown(t.Text)
			if t.Arg == "" {
				items = append(items, text)
				continue
			}
			list = true
			item := "- `" + t.Arg + "`"
			if text != "" {
				item += " " + text
			}
			items = append(items, item)
		}
		if len(items) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("**" + sec.title + "**")
		if list {
			sb.WriteString("\n" + strings.Join(items, "\n"))
		} else {
			sb.WriteString(" " + strings.Join(items, " "))
		}
	}
	return sb.String()
}
