package swrcache

import (
	"context"
	"sync"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

// MemoryConfig controls in-memory store instance.
type MemoryConfig struct {
	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker

	// Name is store instance name, used in stats and logging.
	Name string

	// DeleteDeadAfter is delay before an entry that was never rewritten is
	// deleted by the janitor, default 24h. Until then entries are retained
	// as fallback candidates regardless of any policy window.
	DeleteDeadAfter time.Duration

	// JanitorInterval is delay between two consecutive cleanups, default 1h.
	JanitorInterval time.Duration

	// ItemsCountReportInterval is items count metric report interval, default 1m.
	ItemsCountReportInterval time.Duration
}

var (
	_ Store    = &Memory{}
	_ Dumper   = &Memory{}
	_ Restorer = &Memory{}
)

// Memory is an in-memory store.
type Memory struct {
	sync.RWMutex
	data   map[string]Entry
	closed chan struct{}

	// expiredBelow force-expires entries produced before it, see ExpireAll.
	expiredBelow time.Time

	config MemoryConfig
	log    ctxd.Logger
	stat   stats.Tracker
}

// NewMemory creates an instance of in-memory store with optional configuration.
func NewMemory(cfg ...MemoryConfig) *Memory {
	config := MemoryConfig{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	if config.DeleteDeadAfter == 0 {
		config.DeleteDeadAfter = 24 * time.Hour
	}

	if config.JanitorInterval == 0 {
		config.JanitorInterval = time.Hour
	}

	if config.ItemsCountReportInterval == 0 {
		config.ItemsCountReportInterval = time.Minute
	}

	c := &Memory{
		data:   map[string]Entry{},
		config: config,
		stat:   config.Stats,
		log:    config.Logger,
		closed: make(chan struct{}, 1),
	}

	if c.stat != nil {
		go c.reportItemsCount()
	}

	go c.janitor()

	return c
}

// Read gets an entry.
func (c *Memory) Read(ctx context.Context, key string) (Entry, error) {
	closed := false

	c.RLock()
	if c.data == nil {
		closed = true
	}

	e, ok := c.data[key]
	expiredBelow := c.expiredBelow
	c.RUnlock()

	if closed {
		return Entry{}, errStoreClosed
	}

	if !ok {
		if c.log != nil {
			c.log.Debug(ctx, "store miss",
				"name", c.config.Name,
				"key", key)
		}

		return Entry{}, ErrNotFound
	}

	if e.ProducedAt.Before(expiredBelow) {
		if c.log != nil {
			c.log.Debug(ctx, "store entry force-expired",
				"name", c.config.Name,
				"key", key)
		}

		return e, ErrExpired
	}

	if c.log != nil {
		c.log.Debug(ctx, "store read",
			"name", c.config.Name,
			"key", key,
			"entry", e)
	}

	return e, nil
}

// Write sets an entry.
func (c *Memory) Write(ctx context.Context, key string, e Entry) error {
	c.Lock()
	defer c.Unlock()

	if c.data == nil {
		if c.log != nil {
			c.log.Debug(ctx, "writing to a closed store", "name", c.config.Name, "key", key)
		}

		return errStoreClosed
	}

	if e.ProducedAt.IsZero() {
		e.ProducedAt = time.Now()
	}

	c.data[key] = e

	if c.log != nil {
		c.log.Debug(ctx, "wrote to store",
			"name", c.config.Name,
			"key", key,
			"value", e.Val)
	}

	if c.stat != nil {
		c.stat.Add(ctx, MetricWrite, 1, "name", c.config.Name)
	}

	return nil
}

// Delete removes an entry, removal of a missing key is a no-op.
func (c *Memory) Delete(ctx context.Context, key string) error {
	c.Lock()
	defer c.Unlock()

	if c.data == nil {
		return errStoreClosed
	}

	if _, ok := c.data[key]; !ok {
		return nil
	}

	delete(c.data, key)

	if c.log != nil {
		c.log.Debug(ctx, "deleted from store", "name", c.config.Name, "key", key)
	}

	if c.stat != nil {
		c.stat.Add(ctx, MetricDelete, 1, "name", c.config.Name)
	}

	return nil
}

// ExpireAll force-expires all entries currently present.
//
// Expired entries read as ErrExpired and are rebuilt on next coordinator
// access, but remain available as degraded fallback until the janitor
// collects them.
func (c *Memory) ExpireAll() {
	now := time.Now()

	c.Lock()
	c.expiredBelow = now
	c.Unlock()
}

// RemoveAll deletes all entries.
func (c *Memory) RemoveAll() {
	c.Lock()
	c.data = make(map[string]Entry)
	c.Unlock()
}

// Len returns number of retained entries.
func (c *Memory) Len() int {
	c.RLock()
	cnt := len(c.data)
	c.RUnlock()

	return cnt
}

// Walk walks stored entries.
func (c *Memory) Walk(fn func(key string, e Entry) error) (int, error) {
	c.RLock()
	defer c.RUnlock()

	n := 0

	for k, e := range c.data {
		c.RUnlock()

		err := fn(k, e)

		c.RLock()

		if err != nil {
			return n, err
		}

		n++
	}

	return n, nil
}

// Close disables store instance.
func (c *Memory) Close() {
	c.closed <- struct{}{}
}

func (c *Memory) janitor() {
	for {
		c.RLock()
		interval := c.config.JanitorInterval
		c.RUnlock()

		select {
		case <-time.After(interval):
			c.deleteDead()
		case <-c.closed:
			c.Lock()
			c.data = nil
			c.Unlock()

			return
		}
	}
}

func (c *Memory) deleteDead() {
	deadBoundary := time.Now().Add(-c.config.DeleteDeadAfter)
	keys := make([]string, 0, 100)

	c.RLock()
	for k, e := range c.data {
		if e.ProducedAt.Before(deadBoundary) {
			keys = append(keys, k)
		}
	}
	c.RUnlock()

	if c.log != nil {
		c.log.Debug(context.Background(), "deleting dead store entries",
			"name", c.config.Name,
			"items", keys,
		)
	}

	c.Lock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.Unlock()
}

func (c *Memory) reportItemsCount() {
	for {
		c.RLock()
		interval := c.config.ItemsCountReportInterval
		c.RUnlock()

		<-time.After(interval)

		c.RLock()
		closed := c.data == nil
		count := len(c.data)
		c.RUnlock()

		if closed {
			return
		}

		if c.log != nil {
			c.log.Debug(context.Background(), "store items count",
				"name", c.config.Name,
				"count", count,
			)
		}

		if c.stat != nil {
			c.stat.Set(context.Background(), MetricItems, float64(count), "name", c.config.Name)
		}
	}
}
