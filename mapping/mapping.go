// Package mapping persists the charcode -> recognized text mapping.
//
// The store is full-overwrite: every Save replaces the whole file with the
// given Mapping. There is no merge and no locking; concurrent Saves are
// last-writer-wins. Saves go through a temporary file and a rename so
// readers never observe a partially written document.
package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultFileName is the mapping file name inside an output directory.
const DefaultFileName = "mapping.json"

// Mapping maps a decimal charcode string to its recognized text. An empty
// value means "processed, nothing recognized"; a missing key means the code
// was not processed.
type Mapping map[string]string

var (
	// ErrNotFound reports that the backing file does not exist.
	ErrNotFound = errors.New("mapping not found")
	// ErrMalformed reports that the backing file is not a JSON object of
	// strings.
	ErrMalformed = errors.New("malformed mapping data")
)

// WriteError wraps an I/O failure during Save.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write mapping %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store reads and writes one mapping file.
type Store struct {
	path string
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Open returns a store for fileName inside dir.
func Open(dir, fileName string) *Store {
	if fileName == "" {
		fileName = DefaultFileName
	}
	return NewStore(filepath.Join(dir, fileName))
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Exists reports whether the backing file is present.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// Load reads the whole mapping.
func (s *Store) Load() (Mapping, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read mapping %s: %w", s.path, err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	return m, nil
}

// Save replaces the backing file with m.
func (s *Store) Save(m Mapping) error {
	data, err := Encode(m)
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	return nil
}

// Decode parses a JSON object of string values. Anything else, including
// null, arrays and non-string values, is ErrMalformed.
func Decode(data []byte) (Mapping, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}
	var raw map[string]*string
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	m := make(Mapping, len(raw))
	for k, v := range raw {
		if v == nil {
			return nil, fmt.Errorf("%w: value for %q is null", ErrMalformed, k)
		}
		m[k] = *v
	}
	return m, nil
}

// Encode renders m as indented JSON. Non-ASCII text and HTML characters are
// written literally.
func Encode(m Mapping) ([]byte, error) {
	if m == nil {
		m = Mapping{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]string(m)); err != nil {
		return nil, fmt.Errorf("encode mapping: %w", err)
	}
	return buf.Bytes(), nil
}

// Has reports whether key is present, regardless of its value.
func (m Mapping) Has(key string) bool {
	_, ok := m[key]
	return ok
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
