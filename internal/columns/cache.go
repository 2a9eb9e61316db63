package columns

import (
	"fmt"
	"sync"
	"time"
)

// Loader fetches a project's columns from the store.
type Loader func(projectID string) ([]ColumnInfo, error)

// DefaultTTL bounds how stale a cached role mapping may be after a human
// edits columns in the UI.
const DefaultTTL = time.Minute

// Cache memoizes role mappings per project with a TTL, so repeated polls do
// not re-query column metadata every cycle.
type Cache struct {
	load Loader
	ttl  time.Duration

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	roles     Roles
	available bool
	expires   time.Time
}

// NewCache builds a role cache around the given loader. A non-positive ttl
// falls back to DefaultTTL.
func NewCache(load Loader, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		load:    load,
		ttl:     ttl,
		Now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Roles returns the role mapping for a project, loading and classifying its
// columns on a cache miss. available is false when the project's columns
// cannot be mapped to all three roles.
func (c *Cache) Roles(projectID string) (roles Roles, available bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.Now()
	if e, ok := c.entries[projectID]; ok && now.Before(e.expires) {
		return e.roles, e.available, nil
	}

	cols, err := c.load(projectID)
	if err != nil {
		return Roles{}, false, fmt.Errorf("columns: load for project %s: %w", projectID, err)
	}

	roles, available = Classify(cols)
	c.entries[projectID] = cacheEntry{
		roles:     roles,
		available: available,
		expires:   now.Add(c.ttl),
	}
	return roles, available, nil
}

// Invalidate drops the cached mapping for a project, forcing a reload on
// the next Roles call.
func (c *Cache) Invalidate(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, projectID)
}
