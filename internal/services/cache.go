package services

import (
	"fmt"
	"sync"
	"time"
)

// Cache entry states as seen by Get.
type CacheState int

const (
	CacheMiss CacheState = iota
	CacheFresh
	CacheStale
)

type cacheEntry struct {
	result   *DashboardResult
	storedAt time.Time
}

// ResultCache memoizes assembled dashboards keyed by (group, window,
// locale). Entries younger than the freshness window are authoritative;
// older entries are still served up to the retention window so the
// dashboard repaints instantly while a background refresh replaces them.
// Correctness never depends on the stale copy, only latency does.
type ResultCache struct {
	mu        sync.RWMutex
	entries   map[string]*cacheEntry
	inFlight  map[string]bool
	fresh     time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewResultCache(fresh, retention time.Duration) *ResultCache {
	if retention < fresh {
		retention = fresh
	}
	return &ResultCache{
		entries:   make(map[string]*cacheEntry),
		inFlight:  make(map[string]bool),
		fresh:     fresh,
		retention: retention,
		now:       time.Now,
	}
}

// CacheKey builds the cache key for one dashboard request. Every component
// that changes the result is part of the key.
func CacheKey(groupID uint, win Window, locale string) string {
	return fmt.Sprintf("%d|%s|%s|%s",
		groupID, win.From.Format(dateLayout), win.To.Format(dateLayout), locale)
}

// Get returns the cached result for the key and how fresh it is. A stale
// result is returned alongside CacheStale; an evicted or absent key
// returns (nil, CacheMiss).
func (c *ResultCache) Get(key string) (*DashboardResult, CacheState) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, CacheMiss
	}

	age := c.now().Sub(entry.storedAt)
	switch {
	case age <= c.fresh:
		return entry.result, CacheFresh
	case age <= c.retention:
		return entry.result, CacheStale
	default:
		return nil, CacheMiss
	}
}

// Put stores a freshly computed result for the key.
func (c *ResultCache) Put(key string, result *DashboardResult) {
	c.mu.Lock()
	c.entries[key] = &cacheEntry{result: result, storedAt: c.now()}
	c.mu.Unlock()
}

// BeginRefresh claims the single background refresh slot for a key.
// It returns false when a refresh for the key is already in flight.
func (c *ResultCache) BeginRefresh(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[key] {
		return false
	}
	c.inFlight[key] = true
	return true
}

// EndRefresh releases the refresh slot for a key.
func (c *ResultCache) EndRefresh(key string) {
	c.mu.Lock()
	delete(c.inFlight, key)
	c.mu.Unlock()
}

// Sweep evicts entries past the retention window and returns how many were
// removed. Run periodically by the cache janitor.
func (c *ResultCache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) > c.retention {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live entries.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
