package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// cachedEnvelope wraps values stored in Redis with their timing metadata.
type cachedEnvelope struct {
	Data      json.RawMessage `json:"data"`
	CachedAt  time.Time       `json:"cached_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// RedisCache stores JSON envelopes in Redis under a key prefix.
type RedisCache struct {
	redis      *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedisCache connects to redisURL and verifies the connection.
func NewRedisCache(ctx context.Context, redisURL, prefix string, defaultTTL time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisCache(client, prefix, defaultTTL), nil
}

func newRedisCache(client *redis.Client, prefix string, defaultTTL time.Duration) *RedisCache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &RedisCache{redis: client, prefix: prefix, defaultTTL: defaultTTL}
}

func (c *RedisCache) key(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// Get decodes the value stored under key into dest. Corrupted or expired
// envelopes are deleted and reported as a miss.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	fullKey := c.key(key)

	val, err := c.redis.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache: %w", err)
	}

	var cached cachedEnvelope
	if err := json.Unmarshal(val, &cached); err != nil {
		c.redis.Del(ctx, fullKey)
		return false, nil
	}
	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, fullKey)
		return false, nil
	}
	if err := json.Unmarshal(cached.Data, dest); err != nil {
		c.redis.Del(ctx, fullKey)
		return false, nil
	}
	return true, nil
}

// Set stores value under key for ttl, or the default TTL when ttl is zero.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	now := time.Now()
	envelope, err := json.Marshal(cachedEnvelope{
		Data:      data,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache envelope: %w", err)
	}

	return c.redis.Set(ctx, c.key(key), envelope, ttl).Err()
}

// Ping checks if Redis connection is alive
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.redis.Close()
}
