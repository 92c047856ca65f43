package swrcache

// Metrics names.
const (
	// MetricHit is a counter of fresh values served from store.
	MetricHit = "cache_hit"

	// MetricStale is a counter of stale values served with a background refresh.
	MetricStale = "cache_stale"

	// MetricMiss is a counter of reads with no usable entry.
	MetricMiss = "cache_miss"

	// MetricExpired is a counter of entries found past their stale window.
	MetricExpired = "cache_expired"

	// MetricWrite is a counter of store writes.
	MetricWrite = "cache_write"

	// MetricDelete is a counter of store deletes.
	MetricDelete = "cache_delete"

	// MetricBuild is a counter of build invocations.
	MetricBuild = "cache_build"

	// MetricFailed is a counter of failed builds.
	MetricFailed = "cache_failed"

	// MetricFallback is a counter of degraded fallback values served after a failed build.
	MetricFallback = "cache_fallback"

	// MetricJoined is a counter of callers joined to an in-flight build.
	MetricJoined = "cache_joined"

	// MetricRefreshed is a counter of successful background refreshes.
	MetricRefreshed = "cache_refreshed"

	// MetricItems is a gauge of entries retained in store.
	MetricItems = "cache_items"
)
