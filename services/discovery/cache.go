package discovery

import (
	"sync"

	"cinetile/models"
)

// sessionCache maps a title id to its already-resolved record for the
// lifetime of the service. Entries are write-once: two concurrent lookups
// for the same uncached id may both fetch, but they write equivalent data
// and the first write wins. Nothing is ever evicted.
type sessionCache struct {
	mu      sync.RWMutex
	entries map[string]models.Movie
}

func newSessionCache() *sessionCache {
	return &sessionCache{entries: make(map[string]models.Movie)}
}

func (c *sessionCache) get(id string) (models.Movie, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[id]
	return m, ok
}

// setOnce stores the record unless the id is already cached.
func (c *sessionCache) setOnce(id string, m models.Movie) {
	if id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[id]; exists {
		return
	}
	c.entries[id] = m
}

func (c *sessionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
