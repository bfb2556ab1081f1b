package index

import (
	"bytes"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// FileDocument is the YAML layout of an index file:
//
//	types:
//	  - name: com.example.Greeter
//	    kind: interface
//	    members:
//	      - name: greet
//	        kind: method
//	        type: java.lang.String
//	        parameters:
//	          - name: who
//	            type: java.lang.String
type FileDocument struct {
	Types []*TypeEntry `yaml:"types"`
}

// LoadFile reads an index file into a Memory index.
func LoadFile(fs afero.Fs, path string) (*Memory, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading index %s: %w", path, err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, errors.Errorf("index %s: %w", path, err)
	}
	return m, nil
}

// Decode parses index file content.
func Decode(data []byte) (*Memory, error) {
	var doc FileDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Errorf("decoding: %w", err)
	}
	for i, e := range doc.Types {
		if e == nil || e.Name == "" {
			return nil, errors.Errorf("type %d has no name", i)
		}
	}
	return NewMemory(doc.Types...), nil
}

// WriteFile stores entries as an index file that LoadFile can read back.
func WriteFile(fs afero.Fs, path string, entries []*TypeEntry) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(FileDocument{Types: entries}); err != nil {
		return errors.Errorf("encoding index: %w", err)
	}
	if err := enc.Close(); err != nil {
		return errors.Errorf("encoding index: %w", err)
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return errors.Errorf("writing index %s: %w", path, err)
	}
	return nil
}
