// Package db implements the timestamp database as a single JSON document file.
package db

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DataBase = (*Store)(nil)

// Store implements ports.DataBase. Documents live in memory and are written
// to disk as one JSON object on Sync. A Store without a path never touches disk.
type Store struct {
	mu       sync.Mutex
	path     string
	docs     map[string]map[string]json.RawMessage
	dirty    bool
	checksum uint64
}

// NewMemory creates a Store that is never persisted.
func NewMemory() *Store {
	return &Store{docs: make(map[string]map[string]json.RawMessage)}
}

// Open loads the database at path. A missing file yields an empty database.
// A corrupted file is reported through log and the database starts empty.
func Open(path string, log ports.Logger) (*Store, error) {
	s := &Store{
		path: path,
		docs: make(map[string]map[string]json.RawMessage),
	}

	//nolint:gosec // Path comes from the project configuration
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDatabaseReadFailed.Error()), "path", path)
	}

	if err := json.Unmarshal(data, &s.docs); err != nil {
		if log != nil {
			log.Warn(zerr.With(zerr.Wrap(err, domain.ErrDatabaseCorrupted.Error()), "path", path).Error())
		}
		s.docs = make(map[string]map[string]json.RawMessage)
		return s, nil
	}
	if s.docs == nil {
		s.docs = make(map[string]map[string]json.RawMessage)
	}
	s.checksum = xxhash.Sum64(data)
	return s, nil
}

// Path returns the file backing the store, empty for memory stores.
func (s *Store) Path() string {
	return s.path
}

// Query decodes the value stored under doc/key into out.
func (s *Store) Query(doc, key string, out any) (bool, error) {
	s.mu.Lock()
	raw, ok := s.docs[doc][key]
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrDatabaseValueMismatch.Error()), "key", doc+"/"+key)
	}
	return true, nil
}

// Write stores value under doc/key.
func (s *Store) Write(doc, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDatabaseMarshalFailed.Error()), "key", doc+"/"+key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.docs[doc]
	if !ok {
		d = make(map[string]json.RawMessage)
		s.docs[doc] = d
	}
	d[key] = raw
	s.dirty = true
	return nil
}

// Clear removes a document, or every document when doc is empty.
func (s *Store) Clear(doc string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc == "" {
		s.docs = make(map[string]map[string]json.RawMessage)
	} else {
		delete(s.docs, doc)
	}
	s.dirty = true
}

// Sync writes the database to disk when it changed since the last write.
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty || s.path == "" {
		return nil
	}

	data, err := json.Marshal(s.docs)
	if err != nil {
		return zerr.Wrap(err, domain.ErrDatabaseMarshalFailed.Error())
	}

	sum := xxhash.Sum64(data)
	if sum == s.checksum {
		s.dirty = false
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDatabaseWriteFailed.Error()), "path", s.path)
	}
	if err := os.WriteFile(s.path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDatabaseWriteFailed.Error()), "path", s.path)
	}

	s.checksum = sum
	s.dirty = false
	return nil
}

// Opener implements ports.DataBaseOpener on top of Open.
type Opener struct {
	log ports.Logger
}

// NewOpener creates an Opener that reports corrupted files through log.
func NewOpener(log ports.Logger) *Opener {
	return &Opener{log: log}
}

// Open loads the database at path.
func (o *Opener) Open(path string) (ports.DataBase, error) {
	return Open(path, o.log)
}
