package swrcache

import "time"

// Default freshness windows, applied when both Config and Policy leave
// a window unset.
const (
	DefaultFreshFor = 5 * time.Minute
	DefaultStaleFor = 30 * time.Minute
)

// Policy controls a single Coordinator.Get call.
//
// Zero values inherit coordinator defaults, so an empty Policy is a valid
// argument.
type Policy struct {
	// FreshFor is duration since production while a value is served as is,
	// with no build invoked.
	FreshFor time.Duration

	// StaleFor is duration since production while a value is still served
	// immediately, with a single refresh triggered in background. Must be
	// greater than FreshFor to have effect.
	//
	// A value older than StaleFor is rebuilt on read and retained only as
	// a fallback for a failed build.
	StaleFor time.Duration

	// ForceRefresh bypasses the cache read, but not in-flight
	// deduplication. Equivalent to calling with a WithSkipRead context.
	ForceRefresh bool
}
