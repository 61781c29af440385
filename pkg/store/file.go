package store

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	cblog "github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	apperrors "github.com/darksworm/backoffice/pkg/errors"
)

// File keeps every key as a top-level string member of one JSON document.
// The document is read once and rewritten on every Set.
type File struct {
	path string

	mu  sync.Mutex
	doc string
}

// OpenFile loads path, creating an empty document when it does not exist.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, doc: "{}"}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return f, nil
	case err != nil:
		return nil, apperrors.StorageError("READ_FAILED", "Failed to read settings file").
			WithCause(err).
			WithContext("path", path)
	}

	if len(data) == 0 {
		return f, nil
	}
	if !gjson.ValidBytes(data) {
		cblog.With("component", "store").Warn("settings file is not valid JSON; starting empty", "path", path)
		return f, nil
	}
	f.doc = string(data)
	return f, nil
}

// Path returns the backing file.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := gjson.Get(f.doc, gjson.Escape(key))
	if !res.Exists() {
		return "", false, nil
	}
	return res.String(), true, nil
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := sjson.Set(f.doc, gjson.Escape(key), value)
	if err != nil {
		return apperrors.StorageError("ENCODE_FAILED", "Failed to update settings document").
			WithCause(err).
			WithContext("key", key)
	}
	if err := WriteAtomic(f.path, []byte(doc)); err != nil {
		return apperrors.StorageError("WRITE_FAILED", "Failed to write settings file").
			WithCause(err).
			WithContext("path", f.path)
	}
	f.doc = doc
	return nil
}

func (f *File) Keys() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	gjson.Parse(f.doc).ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	sort.Strings(keys)
	return keys, nil
}

// WriteAtomic replaces path through a temp file in the same directory.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".backoffice-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
