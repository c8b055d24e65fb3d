// Package fs writes run artifacts as JSON files under an output directory.
package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Fs struct {
	dir string
}

// New does not touch the filesystem; the directory is created on first write.
func New(dir string) *Fs {
	return &Fs{dir: dir}
}

func (fs *Fs) Dir() string {
	return fs.dir
}

// Path returns the location an artifact with the given name is written to.
func (fs *Fs) Path(name string) string {
	return filepath.Join(fs.dir, name)
}

// WriteJSON stores v as two-space indented UTF-8 JSON (non-ASCII and HTML
// characters unescaped) and returns the written path.
func (fs *Fs) WriteJSON(name string, v any) (string, error) {
	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	p := fs.Path(name)
	f, err := os.Create(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	return p, f.Close()
}

// WriteFile stores raw bytes, used for binary artifacts such as workbooks.
func (fs *Fs) WriteFile(name string, b []byte) (string, error) {
	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	p := fs.Path(name)
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return "", err
	}
	return p, nil
}
