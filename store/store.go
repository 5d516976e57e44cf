// Package store persists whole JSON documents under a data directory and
// optionally fronts them with an in-memory TTL cache.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound reports a key with no stored document.
var ErrNotFound = errors.New("key not found")

// KV loads and saves whole documents by slash-separated key. A document is
// always read and written in full; there are no partial updates.
type KV interface {
	// Load unmarshals the document at key into v.
	Load(key string, v any) error
	// Save marshals v and replaces the document at key.
	Save(key string, v any) error
	// Delete removes the document at key. Deleting a missing key is not an
	// error.
	Delete(key string) error
}

// FileStore is a KV keeping one JSON file per key under a root directory.
// The key "portfolios/main" maps to <root>/portfolios/main.json. Writes go
// through a temp file and a rename, so a crash never leaves a torn
// document behind.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %q: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

// path maps a key to its file, refusing keys that would escape the root.
func (s *FileStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.root, clean+".json"), nil
}

func (s *FileStore) Load(key string, v any) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load %q: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) Save(key string, v any) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

var _ KV = (*FileStore)(nil)
