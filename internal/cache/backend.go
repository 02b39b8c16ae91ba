package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by a Backend when a partition does not exist
var ErrNotFound = errors.New("partition not found")

// Backend persists whole partitions as opaque bytes
type Backend interface {
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
	Remove(name string) error
	Close() error
}

// FileBackend stores each partition as <dir>/<name>.json
type FileBackend struct {
	dir string
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend creates a file backend rooted at dir
func NewFileBackend(dir string) (*FileBackend, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Path returns the file backing a partition
func (b *FileBackend) Path(name string) string {
	return filepath.Join(b.dir, name+".json")
}

// Read returns the partition file contents
func (b *FileBackend) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(b.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read partition %s: %w", name, err)
	}
	return data, nil
}

// Write overwrites the partition file atomically via a temp file
func (b *FileBackend) Write(name string, data []byte) error {
	path := b.Path(name)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace partition %s: %w", name, err)
	}
	return nil
}

// Remove deletes the partition file; a missing file is not an error
func (b *FileBackend) Remove(name string) error {
	if err := os.Remove(b.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove partition %s: %w", name, err)
	}
	return nil
}

// Close is a no-op for files
func (b *FileBackend) Close() error {
	return nil
}
