package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"InventoryApp/app/config"

	"github.com/google/uuid"
)

// ImageStore is an opaque blob store for recipe images: callers hand it
// bytes and get back a key, and the key is all the database ever holds.
type ImageStore struct {
	dir string
}

// NewImageStore opens the store under the app data directory
func NewImageStore() (*ImageStore, error) {
	dataDir, err := config.GetDataDir()
	if err != nil {
		return nil, err
	}
	return NewImageStoreAt(filepath.Join(dataDir, "images"))
}

// NewImageStoreAt opens a store rooted at the given directory
func NewImageStoreAt(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create image directory: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// Save writes the blob under a fresh key and returns the key
func (s *ImageStore) Save(data []byte) (string, error) {
	key := uuid.NewString()
	if err := os.WriteFile(s.path(key), data, 0644); err != nil {
		return "", fmt.Errorf("could not write blob: %w", err)
	}
	return key, nil
}

// Load reads the blob stored under key
func (s *ImageStore) Load(key string) ([]byte, error) {
	path, err := s.safePath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read blob %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the blob stored under key. Missing blobs are not an error.
func (s *ImageStore) Delete(key string) error {
	path, err := s.safePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete blob %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a blob is stored under key
func (s *ImageStore) Exists(key string) bool {
	path, err := s.safePath(key)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

func (s *ImageStore) path(key string) string {
	return filepath.Join(s.dir, key)
}

// safePath rejects keys that would escape the store directory
func (s *ImageStore) safePath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return s.path(key), nil
}
