package domain

// Timestamp is a logical modification time minted by the virtual clock.
// Real timestamps are strictly positive; negative values are sentinels.
type Timestamp int64

const (
	// NotExist marks a resource that does not exist. It is older than everything,
	// so a missing target is always stale.
	NotExist Timestamp = -2

	// EmptyDependency is the dependency time of a target without prerequisites.
	// It is newer than NotExist but older than any minted time, so such a target
	// is built once and then left alone.
	EmptyDependency Timestamp = -1
)

// Exists reports whether the timestamp refers to an existing resource.
func (t Timestamp) Exists() bool {
	return t != NotExist
}

// MaxTimestamp returns the newest of the given timestamps, or EmptyDependency when there are none.
func MaxTimestamp(times ...Timestamp) Timestamp {
	out := EmptyDependency
	for i, t := range times {
		if i == 0 || t > out {
			out = t
		}
	}
	return out
}

// IsStale reports whether a target stamped at mtime must be rebuilt given the
// newest time among its dependencies. Equal times count as stale.
func IsStale(dmtime, mtime Timestamp) bool {
	return dmtime >= mtime
}
