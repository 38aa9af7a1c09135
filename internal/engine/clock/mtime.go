package clock

import (
	"errors"
	"io/fs"
	"sync"

	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.TimestampStore = (*MTime)(nil)

// entry pairs the physical mtime observed when a logical time was assigned
// with that logical time. A changed physical mtime invalidates the entry.
type entry struct {
	MtimeNs int64            `json:"mtimeNs"`
	Time    domain.Timestamp `json:"time"`
}

// MTime implements ports.TimestampStore on top of a Clock, a database and a file system.
type MTime struct {
	mu    sync.Mutex
	clock *Clock
	db    ports.DataBase
	fs    ports.FileSystem
}

// NewMTime creates a timestamp store whose clock shares db.
func NewMTime(db ports.DataBase, fsys ports.FileSystem) *MTime {
	return &MTime{
		clock: New(db),
		db:    db,
		fs:    fsys,
	}
}

// Now returns the next logical time.
func (m *MTime) Now() (domain.Timestamp, error) {
	return m.clock.Now()
}

// ModifiedTime returns the logical time of path. The cached time is reused
// while the file's physical mtime is unchanged; otherwise a new time is minted.
func (m *MTime) ModifiedTime(path string) (domain.Timestamp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	physical, err := m.physical(path)
	if err != nil {
		return domain.NotExist, err
	}
	if physical == nil {
		return domain.NotExist, nil
	}

	var e entry
	ok, err := m.db.Query(mtimeDoc, path, &e)
	if err != nil {
		return domain.NotExist, err
	}
	if ok && e.MtimeNs == *physical {
		return e.Time, nil
	}

	now, err := m.clock.Now()
	if err != nil {
		return domain.NotExist, err
	}
	if err := m.db.Write(mtimeDoc, path, entry{MtimeNs: *physical, Time: now}); err != nil {
		return domain.NotExist, err
	}
	return now, nil
}

// SetModifiedTime stamps path with a freshly minted time.
func (m *MTime) SetModifiedTime(path string) (domain.Timestamp, error) {
	now, err := m.clock.Now()
	if err != nil {
		return domain.NotExist, err
	}
	return m.SetModifiedTimeAt(path, now)
}

// SetModifiedTimeAt stamps path with t and records its current physical mtime.
// It returns NotExist when the file does not exist.
func (m *MTime) SetModifiedTimeAt(path string, t domain.Timestamp) (domain.Timestamp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	physical, err := m.physical(path)
	if err != nil {
		return domain.NotExist, err
	}
	if physical == nil {
		return domain.NotExist, nil
	}
	if err := m.db.Write(mtimeDoc, path, entry{MtimeNs: *physical, Time: t}); err != nil {
		return domain.NotExist, err
	}
	return t, nil
}

// physical returns nil for missing files.
func (m *MTime) physical(path string) (*int64, error) {
	ns, err := m.fs.ModTime(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStatFailed.Error()), "path", path)
	}
	return &ns, nil
}
