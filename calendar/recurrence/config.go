package recurrence

import "time"

// EngineConfig holds configuration options for the expansion engine.
type EngineConfig struct {
	// MaxIterations bounds the number of periods visited per expansion.
	// The bound is a structural guard against unsatisfiable rules; any
	// realistic window fits well inside it.
	MaxIterations int

	// Cache configuration. Caching is pure memoization keyed on the full
	// expansion input, so it never changes results, only latency.
	CacheEnabled bool
	CacheConfig  CacheConfig
}

// DefaultEngineConfig matches the engine's documented contract: a bound of
// 100 periods and no caching, keeping every call a pure function of its
// arguments with no background goroutine.
var DefaultEngineConfig = EngineConfig{
	MaxIterations: 100,
	CacheEnabled:  false,
}

// CachedEngineConfig enables memoization for read-heavy deployments where
// the same definitions are expanded against the same window repeatedly
// (e.g. several viewers loading the same month).
var CachedEngineConfig = EngineConfig{
	MaxIterations: 100,
	CacheEnabled:  true,
	CacheConfig:   DefaultCacheConfig,
}

// DefaultCacheConfig provides sensible defaults for expansion caching.
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}
