package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is a size-bounded LRU whose entries also expire. Values are
// stored serialized so callers never share memory with the cache.
type MemoryCache struct {
	lru        *expirable.LRU[string, memoryEntry]
	defaultTTL time.Duration
	now        func() time.Time
}

// NewMemoryCache creates an LRU holding at most size entries. defaultTTL is
// also the upper bound for any per-entry TTL.
func NewMemoryCache(size int, defaultTTL time.Duration) (*MemoryCache, error) {
	if size < 1 {
		return nil, fmt.Errorf("memory cache size must be at least 1: %d", size)
	}
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &MemoryCache{
		lru:        expirable.NewLRU[string, memoryEntry](size, nil, defaultTTL),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}, nil
}

// Get decodes the value stored under key into dest.
func (c *MemoryCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.lru.Remove(key)
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		c.lru.Remove(key)
		return false, fmt.Errorf("failed to decode cached value: %w", err)
	}
	return true, nil
}

// Set stores value under key for ttl, or the default TTL when ttl is zero.
func (c *MemoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 || ttl > c.defaultTTL {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	c.lru.Add(key, memoryEntry{data: data, expiresAt: c.now().Add(ttl)})
	return nil
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// Close drops every entry.
func (c *MemoryCache) Close() error {
	c.lru.Purge()
	return nil
}
