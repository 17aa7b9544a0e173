package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache keeps entries in process memory with a TTL
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string][]byte
	cachedAt map[string]time.Time
	ttls     map[string]time.Duration
	ttl      time.Duration
	closed   bool
	now      func() time.Time
}

// NewMemoryCache creates an empty cache with the given default TTL
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries:  make(map[string][]byte),
		cachedAt: make(map[string]time.Time),
		ttls:     make(map[string]time.Duration),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy of the cached value if it has not expired
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCacheClosed
	}

	value, exists := c.entries[key]
	if !exists {
		return nil, ErrCacheMiss
	}

	// Check if expired
	if c.now().Sub(c.cachedAt[key]) > c.ttls[key] {
		c.remove(key)
		return nil, ErrCacheMiss
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores a copy of value
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	c.entries[key] = stored
	c.cachedAt[key] = c.now()
	c.ttls[key] = ttl
	return nil
}

// CleanExpired removes expired entries and returns how many were dropped
func (c *MemoryCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for key, cachedTime := range c.cachedAt {
		if now.Sub(cachedTime) > c.ttls[key] {
			c.remove(key)
			removed++
		}
	}
	return removed
}

// Size returns the number of stored entries, expired or not
func (c *MemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close drops all entries; further calls return ErrCacheClosed
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.entries = map[string][]byte{}
	c.cachedAt = map[string]time.Time{}
	c.ttls = map[string]time.Duration{}
	return nil
}

func (c *MemoryCache) remove(key string) {
	delete(c.entries, key)
	delete(c.cachedAt, key)
	delete(c.ttls, key)
}
