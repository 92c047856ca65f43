package swrcache

import "github.com/swaggest/usecase/status"

// SentinelError is an error.
type SentinelError string

// Error implements error.
func (e SentinelError) Error() string {
	return string(e)
}

var (
	// ErrNotFound indicates missing store entry.
	ErrNotFound = status.Wrap(SentinelError("missing cache entry"), status.NotFound)

	// ErrEmptyKey indicates an empty coordinator key.
	ErrEmptyKey = status.Wrap(SentinelError("empty cache key"), status.InvalidArgument)
)

const (
	// ErrExpired indicates a force-expired store entry, it is returned
	// together with the entry so that the value remains usable as a
	// fallback.
	ErrExpired = SentinelError("expired cache entry")

	// ErrNothingToInvalidate indicates no callbacks were added to Invalidator.
	ErrNothingToInvalidate = SentinelError("nothing to invalidate")

	// ErrAlreadyInvalidated indicates recent invalidation.
	ErrAlreadyInvalidated = SentinelError("already invalidated")

	// errStoreClosed indicates store was closed and deactivated.
	errStoreClosed = SentinelError("store is closed")
)
