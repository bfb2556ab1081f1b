package format

import (
	"encoding/json"
	"io"
)

// JSONEncoder writes indented JSON. Syntax trees use their own encoding,
// which carries spans and diagnostics.
type JSONEncoder struct {
	w io.Writer
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(v any) error {
	text, err := e.Marshal(v)
	return write(e.w, text, err)
}

func (e *JSONEncoder) Marshal(v any) ([]byte, error) {
	text, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(text, '\n'), nil
}
