package swrcache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

// BuildFunc produces a value for a key.
//
// The coordinator does not impose any timeout. A build that never settles
// keeps its key deduplicated against a hung operation forever, so wrap the
// function with context.WithTimeout at the call site.
type BuildFunc func(ctx context.Context) (interface{}, error)

// Config is optional configuration for NewCoordinator.
type Config struct {
	// Name is added to logs and stats.
	Name string

	// Store holds last known results, in-memory created by default.
	Store Store

	// StoreConfig is a configuration for in-memory store instance if Store
	// is not provided.
	StoreConfig MemoryConfig

	// FreshFor is default duration while a value is served without
	// invoking the build, default 5 minutes.
	FreshFor time.Duration

	// StaleFor is default duration while a value is served with a refresh
	// in background, default 30 minutes.
	StaleFor time.Duration

	// FailedBuildTTL caches a build error to short-circuit rebuilds of an
	// unhealthy key, disabled when 0.
	FailedBuildTTL time.Duration

	// Logger collects messages with context.
	Logger ctxd.Logger

	// Stats tracks stats.
	Stats stats.Tracker

	// Now is the time source, time.Now by default.
	Now func() time.Time
}

// Coordinator serves values with stale-while-revalidate semantics.
//
// Builds are locked per key to avoid concurrent updates: all concurrent
// callers of one key share a single build invocation. A stale value is
// served immediately while a refresh runs in background. A failed build
// falls back to the last known value, however old.
//
// Please use NewCoordinator to create an instance.
type Coordinator struct {
	// Errors caches errors of failed builds when Config.FailedBuildTTL is set.
	Errors *Memory

	store Store

	lock    sync.Mutex // Securing flights
	flights map[string]*flight

	config Config
	log    ctxd.Logger
	stat   stats.Tracker
	now    func() time.Time
}

// flight is an in-flight build shared by all concurrent callers of a key.
type flight struct {
	done chan struct{}

	// val and err are set before done is closed.
	val interface{}
	err error

	// detached is set under Coordinator.lock by Clear, a detached build
	// does not store its result.
	detached bool
}

// NewCoordinator creates a Coordinator instance.
func NewCoordinator(config Config) *Coordinator {
	if config.FreshFor == 0 {
		config.FreshFor = DefaultFreshFor
	}

	if config.StaleFor == 0 {
		config.StaleFor = DefaultStaleFor
	}

	c := &Coordinator{}
	c.config = config

	c.log = config.Logger
	if c.log == nil {
		c.log = ctxd.NoOpLogger{}
	}

	c.stat = config.Stats
	if c.stat == nil {
		c.stat = stats.NoOp{}
	}

	c.now = config.Now
	if c.now == nil {
		c.now = time.Now
	}

	c.store = config.Store

	if c.store == nil {
		config.StoreConfig.Name = config.Name
		config.StoreConfig.Logger = config.Logger
		config.StoreConfig.Stats = config.Stats
		c.store = NewMemory(config.StoreConfig)
	}

	if config.FailedBuildTTL > 0 {
		c.Errors = NewMemory(MemoryConfig{
			Name:   "err_" + config.Name,
			Logger: config.Logger,
			Stats:  config.Stats,

			// Short cleanup intervals to avoid retaining potentially heavy
			// errors for long.
			DeleteDeadAfter: time.Minute,
			JanitorInterval: time.Minute,
		})
	}

	c.flights = make(map[string]*flight)

	return c
}

// Get returns a value for key from store or from the build function.
//
// A fresh value is returned as is. A stale value is returned immediately
// with a refresh triggered in background. Otherwise the caller joins an
// in-flight build for the key or starts a new one. When the build fails
// and any prior value exists for the key, however old, that value is
// returned instead of the failure.
func (c *Coordinator) Get(ctx context.Context, key string, build BuildFunc, policy ...Policy) (interface{}, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	p := Policy{}
	if len(policy) >= 1 {
		p = policy[0]
	}

	if p.FreshFor == 0 {
		p.FreshFor = c.config.FreshFor
	}

	if p.StaleFor == 0 {
		p.StaleFor = c.config.StaleFor
	}

	var (
		prior        Entry
		hasPrior     bool
		forceExpired bool
	)

	e, err := c.store.Read(ctx, key)
	switch {
	case err == nil:
		prior, hasPrior = e, true
	case errors.Is(err, ErrExpired):
		// Force-expired entry is not served, but kept as a fallback.
		prior, hasPrior, forceExpired = e, true, true

		c.stat.Add(ctx, MetricExpired, 1, "name", c.config.Name)
	default:
		c.stat.Add(ctx, MetricMiss, 1, "name", c.config.Name)
	}

	if hasPrior && !forceExpired && !p.ForceRefresh && !SkipRead(ctx) {
		age := c.now().Sub(prior.ProducedAt)

		switch {
		case age < p.FreshFor:
			c.stat.Add(ctx, MetricHit, 1, "name", c.config.Name)
			c.log.Debug(ctx, "cache hit", "name", c.config.Name, "key", key)

			return prior.Val, nil
		case age < p.StaleFor:
			c.stat.Add(ctx, MetricStale, 1, "name", c.config.Name)
			c.log.Debug(ctx, "serving stale value",
				"name", c.config.Name,
				"key", key,
				"age", age)

			c.refreshInBackground(ctx, key, build)

			return prior.Val, nil
		default:
			c.stat.Add(ctx, MetricExpired, 1, "name", c.config.Name)
		}
	}

	// Check if build failed recently.
	if err := c.recentlyFailed(ctx, key); err != nil {
		return nil, err
	}

	f, started := c.join(key)

	if !started {
		c.stat.Add(ctx, MetricJoined, 1, "name", c.config.Name)
		c.log.Debug(ctx, "waiting for in-flight build", "name", c.config.Name, "key", key)

		select {
		case <-f.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		return c.settle(ctx, key, f.val, f.err, prior, hasPrior)
	}

	val, buildErr := c.doBuild(ctx, key, f, build)

	return c.settle(ctx, key, val, buildErr, prior, hasPrior)
}

// Invalidate removes any entry for key.
//
// An in-flight build for the key is not canceled, its completion
// repopulates the store.
func (c *Coordinator) Invalidate(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if c.Errors != nil {
		_ = c.Errors.Delete(ctx, key)
	}

	return c.store.Delete(ctx, key)
}

// Clear removes all entries and detaches in-flight builds.
//
// Detached builds run to completion and deliver results to callers
// already waiting on them, but their results are not stored and are not
// deduplicated against.
func (c *Coordinator) Clear(ctx context.Context) {
	c.lock.Lock()
	for _, f := range c.flights {
		f.detached = true
	}

	c.flights = make(map[string]*flight)
	c.lock.Unlock()

	if c.Errors != nil {
		c.Errors.RemoveAll()
	}

	c.store.RemoveAll()

	c.log.Debug(ctx, "cleared coordinator", "name", c.config.Name)
}

// Stats is a point-in-time snapshot of coordinator state.
type Stats struct {
	EntryCount    int
	InFlightCount int
	Keys          []string
}

// Stats reports store and in-flight registry state.
func (c *Coordinator) Stats() Stats {
	c.lock.Lock()
	inFlight := len(c.flights)
	c.lock.Unlock()

	keys := make([]string, 0, c.store.Len())

	_, _ = c.store.Walk(func(key string, _ Entry) error {
		keys = append(keys, key)

		return nil
	})

	sort.Strings(keys)

	return Stats{
		EntryCount:    len(keys),
		InFlightCount: inFlight,
		Keys:          keys,
	}
}

// join returns the in-flight build for key, creating one if none exists.
// The second result reports whether the caller became the build owner.
func (c *Coordinator) join(key string) (*flight, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if f, ok := c.flights[key]; ok {
		return f, false
	}

	f := &flight{done: make(chan struct{})}
	c.flights[key] = f

	return f, true
}

// doBuild invokes the build function as the flight owner and settles the
// flight for all waiters.
func (c *Coordinator) doBuild(ctx context.Context, key string, f *flight, build BuildFunc) (interface{}, error) {
	defer func() {
		c.stat.Add(ctx, MetricBuild, 1, "name", c.config.Name)
	}()
	c.log.Debug(ctx, "building value", "name", c.config.Name, "key", key)

	val, err := build(ctx)

	c.lock.Lock()
	detached := f.detached

	if c.flights[key] == f {
		delete(c.flights, key)
	}

	f.val, f.err = val, err
	c.lock.Unlock()

	close(f.done)

	if detached {
		// Result of a build orphaned by Clear is discarded.
		return val, err
	}

	if err != nil {
		c.stat.Add(ctx, MetricFailed, 1, "name", c.config.Name)
		c.cacheFailure(ctx, key, err)

		return nil, err
	}

	if writeErr := c.store.Write(ctx, key, Entry{Val: val, ProducedAt: c.now()}); writeErr != nil {
		return nil, ctxd.WrapError(ctx, writeErr, "failed to store built value")
	}

	return val, nil
}

// settle resolves a finished build for one caller, serving the prior value
// as a degraded fallback if the build failed.
func (c *Coordinator) settle(ctx context.Context, key string, val interface{}, err error, prior Entry, hasPrior bool) (interface{}, error) {
	if err == nil {
		return val, nil
	}

	if hasPrior {
		c.stat.Add(ctx, MetricFallback, 1, "name", c.config.Name)
		c.log.Warn(ctx, "serving fallback value after failed build",
			"error", err,
			"name", c.config.Name,
			"key", key)

		return prior.Val, nil
	}

	return nil, err
}

// refreshInBackground spawns a build for a stale key unless one is
// already in flight. There is no cancellation: the refresh holds no
// reference to the caller and runs on a detached context.
func (c *Coordinator) refreshInBackground(ctx context.Context, key string, build BuildFunc) {
	if err := c.recentlyFailed(ctx, key); err != nil {
		c.log.Debug(ctx, "skipping refresh of recently failed key",
			"error", err,
			"name", c.config.Name,
			"key", key)

		return
	}

	f, started := c.join(key)
	if !started {
		// Refresh is already in flight.
		return
	}

	// Detaching context so that caller cancellation does not abort the refresh.
	dctx := detachedContext{ctx}

	go func() {
		if _, err := c.doBuild(dctx, key, f, build); err != nil {
			c.log.Warn(dctx, "failed to refresh stale value in background",
				"error", err,
				"name", c.config.Name,
				"key", key)

			return
		}

		c.stat.Add(dctx, MetricRefreshed, 1, "name", c.config.Name)
	}()
}

func (c *Coordinator) cacheFailure(ctx context.Context, key string, err error) {
	if c.Errors == nil {
		return
	}

	writeErr := c.Errors.Write(ctx, key, Entry{Val: err, ProducedAt: c.now()})
	if writeErr != nil {
		c.log.Error(ctx, "failed to cache build failure",
			"error", writeErr,
			"buildErr", err,
			"name", c.config.Name,
			"key", key)
	}
}

func (c *Coordinator) recentlyFailed(ctx context.Context, key string) error {
	if c.Errors == nil {
		return nil
	}

	e, err := c.Errors.Read(ctx, key)
	if err != nil {
		return nil
	}

	if c.now().Sub(e.ProducedAt) < c.config.FailedBuildTTL {
		return e.Val.(error)
	}

	return nil
}
