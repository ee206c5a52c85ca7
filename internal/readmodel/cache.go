package readmodel

import (
	"strings"
	"sync"
	"time"

	"timebank-go/internal/events"
)

// Key identifies one cached query result: the entity it is derived from
// plus the query name and parameters, e.g. {offers "explore:user=u1,q="}.
type Key struct {
	Entity events.Entity
	Query  string
}

type item struct {
	value     any
	expiresAt time.Time
}

// Cache is an in-memory TTL cache for read models. Values are stored as
// snapshots; callers must not mutate what they get back.
type Cache struct {
	mu    sync.RWMutex
	items map[Key]item
}

func NewCache() *Cache {
	return &Cache{items: make(map[Key]item)}
}

func (c *Cache) Get(key Key) (any, bool) {
	now := time.Now()

	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !it.expiresAt.After(now) {
		c.mu.Lock()
		it, ok = c.items[key]
		if ok && !it.expiresAt.After(now) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return it.value, true
}

func (c *Cache) Set(key Key, value any, ttl time.Duration) {
	if ttl <= 0 {
		c.Delete(key)
		return
	}

	c.mu.Lock()
	c.items[key] = item{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *Cache) Delete(key Key) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// DeletePrefix drops every key of the entity whose query starts with prefix.
// An empty prefix drops all of the entity's keys.
func (c *Cache) DeletePrefix(entity events.Entity, prefix string) {
	c.mu.Lock()
	for key := range c.items {
		if key.Entity != entity {
			continue
		}
		if prefix == "" || strings.HasPrefix(key.Query, prefix) {
			delete(c.items, key)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[Key]item)
	c.mu.Unlock()
}
