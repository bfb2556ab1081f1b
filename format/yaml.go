package format

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dhamidi/jsuggest/java/index"
)

// YAMLEncoder writes YAML. Index entries come out in the layout index files
// are loaded from.
type YAMLEncoder struct {
	w io.Writer
}

func NewYAMLEncoder(w io.Writer) *YAMLEncoder {
	return &YAMLEncoder{w: w}
}

func (e *YAMLEncoder) Encode(v any) error {
	text, err := e.Marshal(v)
	return write(e.w, text, err)
}

func (e *YAMLEncoder) Marshal(v any) ([]byte, error) {
	if entries, ok := v.([]*index.TypeEntry); ok {
		v = index.FileDocument{Types: entries}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
