package swrcache

import (
	"context"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	gocache "github.com/patrickmn/go-cache"
)

// GoCacheConfig controls go-cache backed store instance.
type GoCacheConfig struct {
	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker

	// Name is store instance name, used in stats and logging.
	Name string

	// HardTTL is a go-cache expiration for entries, counted from last
	// write. It puts an upper bound on degraded fallback retention,
	// unlimited when 0.
	HardTTL time.Duration

	// CleanupInterval is go-cache janitor interval, default 10m when
	// HardTTL is set.
	CleanupInterval time.Duration

	// Backend is an existing go-cache instance, created when nil.
	Backend *gocache.Cache
}

var _ Store = &GoCacheStore{}

// GoCacheStore adapts patrickmn/go-cache as a store backend.
//
// The go-cache janitor evicts entries HardTTL after last write, policy
// freshness is still evaluated by the coordinator.
type GoCacheStore struct {
	backend *gocache.Cache

	config GoCacheConfig
	log    ctxd.Logger
	stat   stats.Tracker
}

// NewGoCacheStore creates a go-cache backed store with optional configuration.
func NewGoCacheStore(cfg ...GoCacheConfig) *GoCacheStore {
	config := GoCacheConfig{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	if config.CleanupInterval == 0 {
		config.CleanupInterval = 10 * time.Minute
	}

	backend := config.Backend
	if backend == nil {
		ttl := gocache.NoExpiration
		if config.HardTTL > 0 {
			ttl = config.HardTTL
		}

		backend = gocache.New(ttl, config.CleanupInterval)
	}

	return &GoCacheStore{
		backend: backend,
		config:  config,
		log:     config.Logger,
		stat:    config.Stats,
	}
}

// Read gets an entry.
func (c *GoCacheStore) Read(ctx context.Context, key string) (Entry, error) {
	v, ok := c.backend.Get(key)
	if !ok {
		if c.log != nil {
			c.log.Debug(ctx, "store miss", "name", c.config.Name, "key", key)
		}

		return Entry{}, ErrNotFound
	}

	return v.(Entry), nil
}

// Write sets an entry.
func (c *GoCacheStore) Write(ctx context.Context, key string, e Entry) error {
	if e.ProducedAt.IsZero() {
		e.ProducedAt = time.Now()
	}

	c.backend.Set(key, e, gocache.DefaultExpiration)

	if c.stat != nil {
		c.stat.Add(ctx, MetricWrite, 1, "name", c.config.Name)
	}

	return nil
}

// Delete removes an entry, removal of a missing key is a no-op.
func (c *GoCacheStore) Delete(ctx context.Context, key string) error {
	c.backend.Delete(key)

	if c.stat != nil {
		c.stat.Add(ctx, MetricDelete, 1, "name", c.config.Name)
	}

	return nil
}

// RemoveAll deletes all entries.
func (c *GoCacheStore) RemoveAll() {
	c.backend.Flush()
}

// Len returns number of retained entries.
//
// May include entries pending janitor eviction.
func (c *GoCacheStore) Len() int {
	return c.backend.ItemCount()
}

// Walk walks stored entries.
func (c *GoCacheStore) Walk(fn func(key string, e Entry) error) (int, error) {
	n := 0

	for key, item := range c.backend.Items() {
		if err := fn(key, item.Object.(Entry)); err != nil {
			return n, err
		}

		n++
	}

	return n, nil
}
