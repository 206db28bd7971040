package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// FileBackend keeps all namespaces in a single JSON document on disk.
// Every write rewrites the file through a temp file and rename.
type FileBackend struct {
	mu   sync.Mutex
	path string
}

func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("storage: file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}
	return &FileBackend{path: path}, nil
}

type fileDoc map[string]map[string]json.RawMessage

func (f *FileBackend) load() (fileDoc, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileDoc{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", f.path, err)
	}
	if len(b) == 0 {
		return fileDoc{}, nil
	}
	doc := fileDoc{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *FileBackend) save(doc fileDoc) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".storage-*")
	if err != nil {
		return fmt.Errorf("storage: temp file: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("storage: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("storage: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}

func (f *FileBackend) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	v, ok := doc[namespace][key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

// Set stores value as-is. Values written through Storage are always valid JSON.
func (f *FileBackend) Set(ctx context.Context, namespace, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("storage: value for %q is not JSON", key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	if doc[namespace] == nil {
		doc[namespace] = map[string]json.RawMessage{}
	}
	doc[namespace][key] = json.RawMessage(value)
	return f.save(doc)
}

func (f *FileBackend) Delete(ctx context.Context, namespace, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := doc[namespace][key]; !ok {
		return nil
	}
	delete(doc[namespace], key)
	return f.save(doc)
}

func (f *FileBackend) Clear(ctx context.Context, namespace string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := doc[namespace]; !ok {
		return nil
	}
	delete(doc, namespace)
	return f.save(doc)
}
