package recommend

import (
	"sync"
	"time"

	"github.com/justestif/moodtunes/internal/music"
)

// DefaultCacheTTL is how long a search result stays fresh.
const DefaultCacheTTL = 30 * time.Minute

type cacheEntry struct {
	recs      []music.Recommendation
	fetchedAt time.Time
}

// searchCache is an in-memory query cache with lazy expiry.
type searchCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newSearchCache(ttl time.Duration) *searchCache {
	return &searchCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *searchCache) get(query string) ([]music.Recommendation, bool) {
	c.mu.RLock()
	entry, ok := c.entries[query]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	// Stale entries are removed on read
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		c.mu.Lock()
		if current, ok := c.entries[query]; ok && current.fetchedAt.Equal(entry.fetchedAt) {
			delete(c.entries, query)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.recs, true
}

func (c *searchCache) put(query string, recs []music.Recommendation) {
	c.mu.Lock()
	c.entries[query] = cacheEntry{recs: recs, fetchedAt: c.now()}
	c.mu.Unlock()
}

func (c *searchCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
