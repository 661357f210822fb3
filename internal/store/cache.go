package store

import (
	"sync"
	"time"
)

// fieldCache memoizes discovered field names per table with a TTL, so
// repeated imports against the same table cost one discovery request.
type fieldCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]fieldCacheEntry
}

type fieldCacheEntry struct {
	fields   []string
	cachedAt time.Time
}

func newFieldCache(ttl time.Duration) *fieldCache {
	return &fieldCache{
		ttl:     ttl,
		entries: make(map[string]fieldCacheEntry),
	}
}

// get returns the cached field list for a table, or false when missing or
// expired. A zero TTL disables expiry.
func (c *fieldCache) get(table string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[table]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.cachedAt) > c.ttl {
		delete(c.entries, table)
		return nil, false
	}

	fields := make([]string, len(entry.fields))
	copy(fields, entry.fields)
	return fields, true
}

func (c *fieldCache) set(table string, fields []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]string, len(fields))
	copy(stored, fields)
	c.entries[table] = fieldCacheEntry{fields: stored, cachedAt: time.Now()}
}

func (c *fieldCache) invalidate(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, table)
}
