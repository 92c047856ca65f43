package swrcache

import (
	"context"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/puzpuzpuz/xsync"
)

// XsyncMapConfig controls XsyncMap store instance.
type XsyncMapConfig struct {
	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker

	// Name is store instance name, used in stats and logging.
	Name string
}

var _ Store = &XsyncMap{}

// XsyncMap is a store on a concurrent hash map, optimized for read-mostly
// workloads with high contention.
//
// There is no janitor: entries are retained until explicit removal.
type XsyncMap struct {
	data *xsync.Map

	config XsyncMapConfig
	log    ctxd.Logger
	stat   stats.Tracker
}

// NewXsyncMap creates an instance of xsync-backed store with optional configuration.
func NewXsyncMap(cfg ...XsyncMapConfig) *XsyncMap {
	config := XsyncMapConfig{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	return &XsyncMap{
		data:   xsync.NewMap(),
		config: config,
		log:    config.Logger,
		stat:   config.Stats,
	}
}

// Read gets an entry.
func (c *XsyncMap) Read(ctx context.Context, key string) (Entry, error) {
	v, ok := c.data.Load(key)
	if !ok {
		if c.log != nil {
			c.log.Debug(ctx, "store miss", "name", c.config.Name, "key", key)
		}

		return Entry{}, ErrNotFound
	}

	return v.(Entry), nil
}

// Write sets an entry.
func (c *XsyncMap) Write(ctx context.Context, key string, e Entry) error {
	if e.ProducedAt.IsZero() {
		e.ProducedAt = time.Now()
	}

	c.data.Store(key, e)

	if c.stat != nil {
		c.stat.Add(ctx, MetricWrite, 1, "name", c.config.Name)
	}

	return nil
}

// Delete removes an entry, removal of a missing key is a no-op.
func (c *XsyncMap) Delete(ctx context.Context, key string) error {
	c.data.Delete(key)

	if c.stat != nil {
		c.stat.Add(ctx, MetricDelete, 1, "name", c.config.Name)
	}

	return nil
}

// RemoveAll deletes all entries.
func (c *XsyncMap) RemoveAll() {
	c.data.Range(func(key string, _ interface{}) bool {
		c.data.Delete(key)

		return true
	})
}

// Len returns number of retained entries.
func (c *XsyncMap) Len() int {
	cnt := 0

	c.data.Range(func(_ string, _ interface{}) bool {
		cnt++

		return true
	})

	return cnt
}

// Walk walks stored entries.
func (c *XsyncMap) Walk(fn func(key string, e Entry) error) (int, error) {
	n := 0

	var walkErr error

	c.data.Range(func(key string, v interface{}) bool {
		if err := fn(key, v.(Entry)); err != nil {
			walkErr = err

			return false
		}

		n++

		return true
	})

	return n, walkErr
}
