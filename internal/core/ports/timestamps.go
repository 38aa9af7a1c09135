package ports

import "go.trai.ch/makit/internal/core/domain"

// TimestampStore maps resources to logical modification times.
type TimestampStore interface {
	// Now returns a strictly increasing logical time.
	Now() (domain.Timestamp, error)
	// ModifiedTime returns the logical time of the resource, minting one when
	// the resource is new or changed on disk. Missing resources yield NotExist.
	ModifiedTime(path string) (domain.Timestamp, error)
	// SetModifiedTime stamps the resource as produced now.
	SetModifiedTime(path string) (domain.Timestamp, error)
	// SetModifiedTimeAt stamps the resource as produced at t.
	SetModifiedTimeAt(path string, t domain.Timestamp) (domain.Timestamp, error)
}
