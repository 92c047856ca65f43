package swrcache

import (
	"context"
	"io"
	"time"
)

// Entry is a cached value together with its production time.
//
// Freshness is not a property of the entry, it is evaluated lazily by the
// Coordinator against a Policy on every read.
type Entry struct {
	Val        interface{}
	ProducedAt time.Time
}

// Value returns cached value.
func (e Entry) Value() interface{} {
	return e.Val
}

// Reader reads from store.
type Reader interface {
	// Read returns a stored entry or ErrNotFound.
	//
	// If ErrExpired is returned, the force-expired entry must be returned
	// as well.
	Read(ctx context.Context, key string) (Entry, error)
}

// Writer writes to store.
type Writer interface {
	// Write stores an entry with a given key.
	Write(ctx context.Context, key string, e Entry) error
}

// Deleter removes entries from store.
type Deleter interface {
	// Delete removes an entry, removal of a missing key is a no-op.
	Delete(ctx context.Context, key string) error
}

// Store holds the last known result per key.
//
// Stores never judge policy freshness, any retained entry is returned to
// the reader.
type Store interface {
	Reader
	Writer
	Deleter

	// RemoveAll deletes all entries.
	RemoveAll()

	// Len returns number of retained entries.
	Len() int

	// Walk calls a function for every entry and fails on first error
	// returned by that function.
	//
	// Count of processed entries is returned.
	Walk(fn func(key string, e Entry) error) (int, error)
}

// Dumper dumps store entries in binary format.
type Dumper interface {
	Dump(w io.Writer) (int, error)
}

// Restorer restores store entries from binary dump.
type Restorer interface {
	Restore(r io.Reader) (int, error)
}
