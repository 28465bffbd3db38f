package recurrence

import (
	"sort"
	"sync"
	"time"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/date"
)

// cacheEntry is one memoized expansion result.
type cacheEntry struct {
	dates      []date.Date
	expiresAt  time.Time
	accessedAt time.Time
}

// cacheKey identifies one expansion input exactly. All fields are
// comparable values, so no string concatenation or hashing is needed.
type cacheKey struct {
	rule   string
	anchor date.Date
	window date.Range
}

// CacheConfig holds configuration for the expansion cache.
type CacheConfig struct {
	TTL             time.Duration // how long entries stay valid
	MaxEntries      int           // entry count that triggers eviction
	CleanupInterval time.Duration // how often expired entries are swept
}

// ExpansionCache memoizes Expand results. Entries expire after a TTL and the
// least recently used entries are evicted when the cache grows past
// MaxEntries.
type ExpansionCache struct {
	mu          sync.RWMutex
	entries     map[cacheKey]*cacheEntry
	ttl         time.Duration
	maxEntries  int
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewExpansionCache creates a cache and starts its cleanup goroutine. Call
// Close when done with it.
func NewExpansionCache(config CacheConfig) *ExpansionCache {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheConfig.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCacheConfig.CleanupInterval
	}

	c := &ExpansionCache{
		entries:     make(map[cacheKey]*cacheEntry),
		ttl:         config.TTL,
		maxEntries:  config.MaxEntries,
		stopCleanup: make(chan struct{}),
	}
	go c.cleanupLoop(config.CleanupInterval)
	return c
}

// Get retrieves a memoized result if present and unexpired.
func (c *ExpansionCache) Get(rule Rule, anchor date.Date, window date.Range) ([]date.Date, bool) {
	key := cacheKey{rule: rule.String(), anchor: anchor, window: window}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := time.Now()
	if now.After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	entry.accessedAt = now
	c.mu.Unlock()
	return entry.dates, true
}

// Put stores an expansion result.
func (c *ExpansionCache) Put(rule Rule, anchor date.Date, window date.Range, dates []date.Date) {
	key := cacheKey{rule: rule.String(), anchor: anchor, window: window}
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry{
		dates:      dates,
		expiresAt:  now.Add(c.ttl),
		accessedAt: now,
	}
	if len(c.entries) > c.maxEntries {
		c.evict()
	}
}

// Len returns the current entry count.
func (c *ExpansionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (c *ExpansionCache) Close() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}

// evict removes expired entries, then the least recently accessed entries
// until the cache is back under its limit. Caller must hold the write lock.
func (c *ExpansionCache) evict() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	type access struct {
		key cacheKey
		at  time.Time
	}
	byAge := make([]access, 0, len(c.entries))
	for key, entry := range c.entries {
		byAge = append(byAge, access{key: key, at: entry.accessedAt})
	}
	sort.Slice(byAge, func(i, j int) bool { return byAge[i].at.Before(byAge[j].at) })

	for i := 0; i < len(byAge) && len(c.entries) > c.maxEntries; i++ {
		delete(c.entries, byAge[i].key)
	}
}

func (c *ExpansionCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.evict()
			c.mu.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}
