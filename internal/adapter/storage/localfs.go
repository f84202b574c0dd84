// Package storage implements the FileStore port on the local filesystem.
// CV uploads live under a single root directory; paths stored on records
// are relative to that root.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// LocalFS stores files under a root directory.
type LocalFS struct {
	root string
}

// NewLocalFS creates the root directory if needed and returns the store.
func NewLocalFS(root string) (*LocalFS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("op=storage.init: %w", err)
	}
	return &LocalFS{root: root}, nil
}

// resolve joins rel onto the root and rejects traversal outside it.
func (s *LocalFS) resolve(rel string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	cleanRoot := filepath.Clean(s.root) + string(filepath.Separator)
	if !strings.HasPrefix(full, cleanRoot) {
		return "", fmt.Errorf("op=storage.resolve: %w: path escapes root", domain.ErrInvalidArgument)
	}
	return full, nil
}

// Exists reports whether the file exists and is a regular file.
func (s *LocalFS) Exists(_ domain.Context, rel string) bool {
	full, err := s.resolve(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

// Read returns the file contents.
func (s *LocalFS) Read(_ domain.Context, rel string) ([]byte, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("op=storage.read: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("op=storage.read: %w", err)
	}
	return b, nil
}

// Write stores the file contents, creating parent directories as needed.
func (s *LocalFS) Write(_ domain.Context, rel string, data []byte) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("op=storage.write: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("op=storage.write: %w", err)
	}
	return nil
}
