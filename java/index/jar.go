package index

import (
	"archive/zip"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// LoadLibrary reads the types of a library: an index file, a compiled class
// or a jar of classes, by extension.
func LoadLibrary(fs afero.Fs, p string) (*Memory, error) {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".jar":
		return LoadJar(fs, p)
	case ".class":
		return LoadClass(fs, p)
	}
	return LoadFile(fs, p)
}

func LoadClass(fs afero.Fs, p string) (*Memory, error) {
	data, err := afero.ReadFile(fs, p)
	if err != nil {
		return nil, errors.Errorf("reading class %s: %w", p, err)
	}
	e, err := DecodeClass(data)
	if err != nil {
		return nil, errors.Errorf("class %s: %w", p, err)
	}
	return NewMemory(e), nil
}

// LoadJar decodes every class in a jar. Module and package descriptors and
// the multi-release copies under META-INF are skipped.
func LoadJar(fs afero.Fs, p string) (*Memory, error) {
	f, err := fs.Open(p)
	if err != nil {
		return nil, errors.Errorf("reading jar %s: %w", p, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, errors.Errorf("reading jar %s: %w", p, err)
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, errors.Errorf("jar %s: %w", p, err)
	}

	m := NewMemory()
	for _, zf := range zr.File {
		if !isLibraryClass(zf.Name) {
			continue
		}
		data, err := readZipFile(zf)
		if err != nil {
			return nil, errors.Errorf("jar %s: %s: %w", p, zf.Name, err)
		}
		e, err := DecodeClass(data)
		if err != nil {
			return nil, errors.Errorf("jar %s: %s: %w", p, zf.Name, err)
		}
		m.Add(e)
	}
	return m, nil
}

func isLibraryClass(name string) bool {
	if !strings.HasSuffix(name, ".class") || strings.HasPrefix(name, "META-INF/") {
		return false
	}
	switch path.Base(name) {
	case "module-info.class", "package-info.class":
		return false
	}
	return true
}

func readZipFile(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
