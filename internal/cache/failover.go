package cache

import (
	"context"
	"sync/atomic"
	"time"

	"havenhub/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverSnapshotCache serves from the primary cache and falls back
// to the secondary when the primary errors, probing for recovery
// after a minute.
type FailoverSnapshotCache struct {
	primary   domain.SnapshotCache
	fallback  domain.SnapshotCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverSnapshotCache(primary, fallback domain.SnapshotCache, logger *zerolog.Logger) *FailoverSnapshotCache {
	return &FailoverSnapshotCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (c *FailoverSnapshotCache) Get(ctx context.Context, key string, out any) (bool, error) {
	if !c.isDown.Load() {
		hit, err := c.primary.Get(ctx, key, out)
		if err == nil {
			return hit, nil
		}
		c.logger.Error().Err(err).Msg("Primary snapshot cache failed, falling back to memory")
		c.isDown.Store(true)
		c.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if c.isDown.Load() && time.Since(c.lastCheck) > time.Minute {
		hit, err := c.primary.Get(ctx, key, out)
		if err == nil {
			c.isDown.Store(false)
			return hit, nil
		}
		c.lastCheck = time.Now()
	}

	return c.fallback.Get(ctx, key, out)
}

func (c *FailoverSnapshotCache) Set(ctx context.Context, key string, val any) error {
	if !c.isDown.Load() {
		err := c.primary.Set(ctx, key, val)
		if err == nil {
			return c.fallback.Set(ctx, key, val)
		}
		c.logger.Error().Err(err).Msg("Primary snapshot cache failed, falling back to memory")
		c.isDown.Store(true)
		c.lastCheck = time.Now()
	}

	return c.fallback.Set(ctx, key, val)
}

func (c *FailoverSnapshotCache) Delete(ctx context.Context, key string) error {
	var primaryErr error
	if !c.isDown.Load() {
		primaryErr = c.primary.Delete(ctx, key)
		if primaryErr != nil {
			c.logger.Error().Err(primaryErr).Msg("Primary snapshot cache failed, falling back to memory")
			c.isDown.Store(true)
			c.lastCheck = time.Now()
		}
	}

	return c.fallback.Delete(ctx, key)
}
