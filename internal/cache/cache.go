// Package cache provides the response cache in front of the genome upstreams:
// an in-process LRU tier and an optional Redis tier shared between replicas.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
)

// Cache stores JSON-serializable values by key. A miss is (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Close() error
}

// Key derives a stable cache key from a namespace and the request parts.
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return namespace + ":" + hex.EncodeToString(hash[:16])
}

// New builds the cache described by cfg. A disabled cache is a no-op. When
// Redis is configured but unreachable the cache runs memory-only.
func New(ctx context.Context, cfg domain.CacheConfig, logger *logrus.Logger) (Cache, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}

	memory, err := NewMemoryCache(cfg.MemorySize, cfg.DefaultTTL)
	if err != nil {
		return nil, err
	}

	var remote Cache
	if cfg.RedisURL != "" {
		redisCache, err := NewRedisCache(ctx, cfg.RedisURL, cfg.KeyPrefix, cfg.DefaultTTL)
		if err != nil {
			logger.WithError(err).Warn("Redis cache unavailable, continuing with memory cache only")
		} else {
			remote = redisCache
		}
	}

	return NewTiered(memory, remote, logger), nil
}

// Noop is a Cache that never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }

func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }

func (Noop) Close() error { return nil }
