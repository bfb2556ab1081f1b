package codebase

import (
	"bytes"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"
)

// pathFromURI accepts file URIs and plain paths.
func pathFromURI(uri protocol.DocumentUri) (string, error) {
	if !strings.HasPrefix(uri, "file://") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", errors.Errorf("parse uri %q: %w", uri, err)
	}
	return filepath.Clean(u.Path), nil
}

func fileURI(path string) protocol.DocumentUri {
	if path == "" {
		return ""
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// offsetAt converts an LSP position, whose character counts UTF-16 code
// units, to a byte offset into content. Positions past the end of a line
// clamp to the line end.
func offsetAt(content []byte, pos protocol.Position) int {
	i := 0
	for line := 0; line < int(pos.Line); line++ {
		nl := bytes.IndexByte(content[i:], '\n')
		if nl < 0 {
			return len(content)
		}
		i += nl + 1
	}
	for units := 0; i < len(content) && content[i] != '\n' && units < int(pos.Character); {
		r, size := utf8.DecodeRune(content[i:])
		units += utf16.RuneLen(r)
		i += size
	}
	return i
}

// positionAt converts a 1-based line and byte column to an LSP position.
// Without content the column is taken to count characters.
func positionAt(content []byte, line, column int) protocol.Position {
	pos := protocol.Position{}
	if line > 0 {
		pos.Line = protocol.UInteger(line - 1)
	}
	if column <= 1 {
		return pos
	}
	if content == nil {
		pos.Character = protocol.UInteger(column - 1)
		return pos
	}
	i := 0
	for l := 1; l < line; l++ {
		nl := bytes.IndexByte(content[i:], '\n')
		if nl < 0 {
			return pos
		}
		i += nl + 1
	}
	end := min(i+column-1, len(content))
	units := 0
	for i < end {
		r, size := utf8.DecodeRune(content[i:])
		units += utf16.RuneLen(r)
		i += size
	}
	pos.Character = protocol.UInteger(units)
	return pos
}
