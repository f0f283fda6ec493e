package cache

import (
	"context"
	"log/slog"
)

// MultiTierConfig configures the multi-tier cache behavior
type MultiTierConfig struct {
	// WriteThrough writes entries to the back tier as well as the front.
	WriteThrough bool

	// WarmFrontOnBackHit copies back-tier hits into the front tier.
	WarmFrontOnBackHit bool
}

// DefaultMultiTierConfig returns the default multi-tier cache configuration
func DefaultMultiTierConfig() MultiTierConfig {
	return MultiTierConfig{
		WriteThrough:       true,
		WarmFrontOnBackHit: true,
	}
}

// Ensure MultiTierCache implements CacheManager interface
var _ CacheManager = (*MultiTierCache)(nil)

// MultiTierCache implements CacheManager over a fast front tier (usually a
// MemoryCache) and an optional persistent back tier (usually a LocalCache).
type MultiTierCache struct {
	front  CacheManager
	back   CacheManager // may be nil
	config MultiTierConfig
	logger *slog.Logger
}

// NewMultiTierCache creates a new multi-tier cache. If back is nil, the cache
// operates in front-only mode.
func NewMultiTierCache(front, back CacheManager, config MultiTierConfig, logger *slog.Logger) *MultiTierCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiTierCache{
		front:  front,
		back:   back,
		config: config,
		logger: logger,
	}
}

// Get checks the front tier, then the back tier.
func (c *MultiTierCache) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	entry, err := c.front.Get(ctx, key)
	if err == nil {
		return entry, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if c.back == nil {
		return nil, ErrCacheMiss
	}

	entry, err = c.back.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if c.config.WarmFrontOnBackHit {
		if putErr := c.front.Put(ctx, entry); putErr != nil {
			c.logger.Warn("failed to warm front cache", "err", putErr)
		}
	}
	return entry, nil
}

// Put stores an entry in the front tier and, with WriteThrough, the back tier.
func (c *MultiTierCache) Put(ctx context.Context, entry *CacheEntry) error {
	if err := c.front.Put(ctx, entry); err != nil {
		return err
	}

	if c.config.WriteThrough && c.back != nil {
		if err := c.back.Put(ctx, entry); err != nil {
			// Log but don't fail - front write succeeded
			c.logger.Warn("failed to write back cache", "err", err)
		}
	}
	return nil
}

// Delete removes an entry from both tiers.
func (c *MultiTierCache) Delete(ctx context.Context, key CacheKey) error {
	if err := c.front.Delete(ctx, key); err != nil {
		return err
	}
	if c.back != nil {
		if err := c.back.Delete(ctx, key); err != nil {
			c.logger.Warn("failed to delete from back cache", "err", err)
		}
	}
	return nil
}

// HasBack returns true if a back tier is configured
func (c *MultiTierCache) HasBack() bool {
	return c.back != nil
}
