// Package format renders the results of jsuggest queries for the command
// line.
package format

import (
	"io"

	"gitlab.com/tozd/go/errors"
)

var (
	ErrUnknownFormat = errors.Base("unknown format")
	ErrUnsupported   = errors.Base("value not supported by format")
)

// Encoder writes one query result per call.
type Encoder interface {
	Encode(v any) error
	Marshal(v any) ([]byte, error)
}

// Names lists the formats New accepts.
var Names = []string{"line", "json", "yaml", "java"}

func New(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "line", "":
		return NewLineEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "yaml":
		return NewYAMLEncoder(w), nil
	case "java":
		return NewJavaEncoder(w), nil
	}
	return nil, errors.Errorf("%w: %q", ErrUnknownFormat, name)
}

func write(w io.Writer, text []byte, err error) error {
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
