package cascade

import "github.com/syssam/cascade/schema"

// DefaultCacheCapacity is the identity cache capacity of a session created
// without WithCacheCapacity.
const DefaultCacheCapacity = 1000

// IdentityCache maps entity identities to live instances. Its capacity is a
// plain counting bound: Put fails once the cache is full and entries are
// only ever dropped one at a time by Evict or all together by Clear.
//
// IdentityCache is not safe for concurrent use.
type IdentityCache struct {
	capacity int
	entries  map[schema.Identity]schema.Entity
}

// NewIdentityCache returns an empty cache holding at most capacity entries.
// A non-positive capacity uses DefaultCacheCapacity.
func NewIdentityCache(capacity int) *IdentityCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &IdentityCache{capacity: capacity, entries: make(map[schema.Identity]schema.Entity)}
}

// Put stores e under id. Replacing an existing entry always succeeds; adding
// one fails when the cache is full.
func (c *IdentityCache) Put(id schema.Identity, e schema.Entity) bool {
	if _, ok := c.entries[id]; !ok && len(c.entries) >= c.capacity {
		return false
	}
	c.entries[id] = e
	return true
}

// Get returns the entity stored under id.
func (c *IdentityCache) Get(id schema.Identity) (schema.Entity, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Contains reports if an entity is stored under id.
func (c *IdentityCache) Contains(id schema.Identity) bool {
	_, ok := c.entries[id]
	return ok
}

// Evict removes the entry of id.
func (c *IdentityCache) Evict(id schema.Identity) {
	delete(c.entries, id)
}

// Clear removes every entry.
func (c *IdentityCache) Clear() {
	clear(c.entries)
}

// Len returns the number of entries.
func (c *IdentityCache) Len() int { return len(c.entries) }

// Capacity returns the maximum number of entries.
func (c *IdentityCache) Capacity() int { return c.capacity }
