// Package fs provides file system adapters for the make engine.
package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
)

var _ ports.FileSystem = (*OS)(nil)

// OS implements ports.FileSystem on the host file system.
type OS struct{}

// NewOS creates a new OS file system.
func NewOS() *OS {
	return &OS{}
}

// ModTime returns the file's modification time in nanoseconds.
func (o *OS) ModTime(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.ModTime().UnixNano(), nil
}

// ReadFile returns the content of the file.
func (o *OS) ReadFile(path string) ([]byte, error) {
	//nolint:gosec // Paths are targets declared by the project's own rules
	return os.ReadFile(path)
}

// WriteFile writes data to path, creating parent directories as needed.
func (o *OS) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return err
	}
	return os.WriteFile(path, data, domain.FilePerm)
}

// MkdirAll creates the directory and any missing parents.
func (o *OS) MkdirAll(path string) error {
	return os.MkdirAll(path, domain.DirPerm)
}

// Remove deletes the file.
func (o *OS) Remove(path string) error {
	return os.Remove(path)
}

// Exists reports whether the file exists.
func (o *OS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, iofs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
