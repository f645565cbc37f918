// Package storage provides the durable local blob store the board state is
// persisted into. Persistence is best-effort: callers treat failures as
// degradation, never as fatal.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Blob is a durable key/value store for opaque byte blobs.
type Blob interface {
	// Get returns the stored blob, or (nil, nil) when the key is absent.
	Get(key string) ([]byte, error)
	// Set stores the blob under key, replacing any previous value.
	Set(key string, data []byte) error
}

var validKey = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// FileStore keeps one file per key under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(f.dir, key), nil
}

// Get reads a key's file. A missing file is not an error.
func (f *FileStore) Get(key string) ([]byte, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Set writes the blob atomically via a temp file rename.
func (f *FileStore) Set(key string, data []byte) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}
