// Package swrcache coordinates cached fetches with stale-while-revalidate semantics.
// Focused on resilient and race-free operation on top of unreliable upstreams.
//
// Features:
//
//  - Fresh values are served from the store without touching the upstream.
//  - Stale values are served immediately, a single refresh runs in background.
//  - Builds are locked per key to eliminate racy updates and only build once.
//  - Failed builds fall back to the last known value, however old.
//  - Build errors can be cached with low TTL to avoid flooding unhealthy upstream.
//  - Per-call policy controls fresh and stale windows and forced refresh.
//  - Pluggable store backends, in-memory created by default.
//  - Allows logging, stats collection.
//  - Allows mass expiration and removal (drop cache).
//  - Gob dump and restore of in-memory store for persistence across restarts.
package swrcache
