package fs

import (
	iofs "io/fs"
	"path/filepath"
	"sync"

	"go.trai.ch/makit/internal/core/ports"
)

var _ ports.FileSystem = (*Memory)(nil)

// Memory is an in-memory ports.FileSystem. Every write bumps a counter that
// serves as the modification time, so two writes never share a mtime.
type Memory struct {
	mu    sync.Mutex
	files map[string]memFile
	dirs  map[string]struct{}
	tick  int64
}

type memFile struct {
	data  []byte
	mtime int64
}

// NewMemory creates an empty in-memory file system.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string]memFile),
		dirs:  make(map[string]struct{}),
	}
}

// ModTime returns the write counter value of the last write to path.
func (m *Memory) ModTime(path string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[filepath.Clean(path)]
	if !ok {
		return 0, notExist("stat", path)
	}
	return f.mtime, nil
}

// ReadFile returns a copy of the file content.
func (m *Memory) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, notExist("open", path)
	}
	return append([]byte(nil), f.data...), nil
}

// WriteFile stores a copy of data and creates parent directories.
func (m *Memory) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	m.mkdirAllLocked(filepath.Dir(path))
	m.tick++
	m.files[path] = memFile{data: append([]byte(nil), data...), mtime: m.tick}
	return nil
}

// MkdirAll records the directory and its parents.
func (m *Memory) MkdirAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mkdirAllLocked(filepath.Clean(path))
	return nil
}

// Remove deletes the file.
func (m *Memory) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	if _, ok := m.files[path]; !ok {
		return notExist("remove", path)
	}
	delete(m.files, path)
	return nil
}

// Exists reports whether a file or directory exists at path.
func (m *Memory) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	if _, ok := m.files[path]; ok {
		return true, nil
	}
	_, ok := m.dirs[path]
	return ok, nil
}

func (m *Memory) mkdirAllLocked(dir string) {
	for {
		m.dirs[dir] = struct{}{}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func notExist(op, path string) error {
	return &iofs.PathError{Op: op, Path: path, Err: iofs.ErrNotExist}
}
