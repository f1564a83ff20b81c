package distance

import (
	"context"

	"go.uber.org/zap"
)

// Resolver resolves driving distances.
type Resolver interface {
	Resolve(ctx context.Context, origin, destination string) (*Result, error)
}

// Cache stores resolved distances. A miss returns (nil, nil).
type Cache interface {
	GetDistance(ctx context.Context, origin, destination string) (*Result, error)
	SetDistance(ctx context.Context, origin, destination string, result *Result) error
}

// Cached serves repeated lookups from a cache. Cache failures never fail a lookup.
type Cached struct {
	next   Resolver
	cache  Cache
	logger *zap.Logger
}

// NewCached wraps next with cache.
func NewCached(next Resolver, cache Cache, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{next: next, cache: cache, logger: logger}
}

// Resolve checks the cache before calling the wrapped resolver.
func (c *Cached) Resolve(ctx context.Context, origin, destination string) (*Result, error) {
	cached, err := c.cache.GetDistance(ctx, origin, destination)
	if err != nil {
		c.logger.Warn("distance cache read failed", zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	result, err := c.next.Resolve(ctx, origin, destination)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetDistance(ctx, origin, destination, result); err != nil {
		c.logger.Warn("distance cache write failed", zap.Error(err))
	}
	return result, nil
}
