// Package clock implements the virtual clock that orders builds without
// relying on file system timestamp precision.
package clock

import (
	"sync"

	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
)

const (
	metaDoc  = "meta"
	nowKey   = "now"
	mtimeDoc = "mtime"
)

// Clock is a strictly increasing logical clock. Its position is kept in the
// database so that times keep increasing across process runs.
//
// Clock is safe for concurrent use.
type Clock struct {
	mu sync.Mutex
	db ports.DataBase
}

// New creates a clock that resumes from the position stored in db.
func New(db ports.DataBase) *Clock {
	return &Clock{db: db}
}

// Now returns the next logical time.
func (c *Clock) Now() (domain.Timestamp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cur domain.Timestamp
	if _, err := c.db.Query(metaDoc, nowKey, &cur); err != nil {
		return domain.NotExist, err
	}
	if cur < 0 {
		cur = 0
	}
	next := cur + 1
	if err := c.db.Write(metaDoc, nowKey, next); err != nil {
		return domain.NotExist, err
	}
	return next, nil
}

// Current returns the last minted time without advancing the clock.
func (c *Clock) Current() (domain.Timestamp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cur domain.Timestamp
	if _, err := c.db.Query(metaDoc, nowKey, &cur); err != nil {
		return domain.NotExist, err
	}
	return cur, nil
}
