package cache

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// TTLCache is an LRU cache with a per-entry deadline. It is a pure
// performance aid: a miss (or an expired hit) must always fall through
// to a live recomputation, and writes that affect correctness must
// invalidate their keys explicitly.
type TTLCache struct {
	lru        *lru.Cache
	defaultTTL time.Duration
	mu         sync.Mutex
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

func NewTTL(size int, defaultTTL time.Duration) (*TTLCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &TTLCache{lru: c, defaultTTL: defaultTTL}, nil
}

func (c *TTLCache) Get(key string) (interface{}, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	e := v.(entry)
	if time.Now().After(e.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (c *TTLCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

func (c *TTLCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.lru.Add(key, entry{value: value, expiresAt: time.Now().Add(ttl)})
}

func (c *TTLCache) Invalidate(key string) {
	c.lru.Remove(key)
}

// InvalidatePrefix removes every key starting with prefix. Used to
// drop all of a user's entries after a write.
func (c *TTLCache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range c.lru.Keys() {
		if key, ok := k.(string); ok && strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
}

func (c *TTLCache) Purge() {
	c.lru.Purge()
}

func (c *TTLCache) Len() int {
	return c.lru.Len()
}
