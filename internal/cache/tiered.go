package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Stats counts lookups per tier.
type Stats struct {
	MemoryHits   int64 `json:"memory_hits"`
	MemoryMisses int64 `json:"memory_misses"`
	RemoteHits   int64 `json:"remote_hits"`
	RemoteMisses int64 `json:"remote_misses"`
	Errors       int64 `json:"errors"`
}

// Tiered checks the memory tier first and falls back to the remote tier,
// back-filling memory on a remote hit. Remote failures are logged and
// treated as misses so the cache never fails a request.
type Tiered struct {
	memory *MemoryCache
	remote Cache
	logger *logrus.Logger

	memoryHits, memoryMisses atomic.Int64
	remoteHits, remoteMisses atomic.Int64
	errs                     atomic.Int64
}

// NewTiered combines memory with an optional remote tier.
func NewTiered(memory *MemoryCache, remote Cache, logger *logrus.Logger) *Tiered {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Tiered{memory: memory, remote: remote, logger: logger}
}

func (t *Tiered) Get(ctx context.Context, key string, dest any) (bool, error) {
	hit, err := t.memory.Get(ctx, key, dest)
	if err != nil {
		t.errs.Add(1)
		t.logger.WithError(err).WithField("key", key).Debug("Dropping undecodable memory cache entry")
	}
	if hit {
		t.memoryHits.Add(1)
		return true, nil
	}
	t.memoryMisses.Add(1)

	if t.remote == nil {
		return false, nil
	}

	hit, err = t.remote.Get(ctx, key, dest)
	if err != nil {
		t.errs.Add(1)
		t.logger.WithError(err).WithField("key", key).Warn("Remote cache read failed")
		return false, nil
	}
	if !hit {
		t.remoteMisses.Add(1)
		return false, nil
	}

	t.remoteHits.Add(1)
	if err := t.memory.Set(ctx, key, dest, 0); err != nil {
		t.logger.WithError(err).WithField("key", key).Debug("Memory back-fill failed")
	}
	return true, nil
}

func (t *Tiered) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := t.memory.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if t.remote == nil {
		return nil
	}
	if err := t.remote.Set(ctx, key, value, ttl); err != nil {
		t.errs.Add(1)
		t.logger.WithError(err).WithField("key", key).Warn("Remote cache write failed")
	}
	return nil
}

// Stats returns a snapshot of the lookup counters.
func (t *Tiered) Stats() Stats {
	return Stats{
		MemoryHits:   t.memoryHits.Load(),
		MemoryMisses: t.memoryMisses.Load(),
		RemoteHits:   t.remoteHits.Load(),
		RemoteMisses: t.remoteMisses.Load(),
		Errors:       t.errs.Load(),
	}
}

func (t *Tiered) Close() error {
	memErr := t.memory.Close()
	if t.remote == nil {
		return memErr
	}
	return errors.Join(memErr, t.remote.Close())
}
