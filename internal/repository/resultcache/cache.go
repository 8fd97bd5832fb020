// Package resultcache stores finished assessments in a key-value store.
// The pipeline is deterministic, so identical requests can be answered from
// cache without re-running inference.
package resultcache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cliniview/triage/internal/db"
	"github.com/cliniview/triage/internal/domain"
)

const defaultKeyPrefix = "triage:assessment:"

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache is a best-effort assessment cache. Store failures are logged and
// swallowed so a degraded cache never fails a request.
type Cache struct {
	store  store
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// New creates a result cache over a key-value store.
func New(s store, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{store: s, ttl: ttl, prefix: defaultKeyPrefix, logger: logger}
}

// WithKeyPrefix overrides the cache key prefix.
func (c *Cache) WithKeyPrefix(prefix string) *Cache {
	if prefix != "" {
		c.prefix = prefix
	}
	return c
}

// Get returns the cached assessment for a request key, if present.
func (c *Cache) Get(ctx context.Context, key string) (*domain.Assessment, bool) {
	data, err := c.store.Get(ctx, c.prefix+key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached assessment", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	a, err := assessmentFromBytes(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached assessment", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return a, true
}

// Set stores an assessment under a request key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, a *domain.Assessment) {
	data, err := assessmentToBytes(a)
	if err != nil {
		c.logger.Warn("Failed to encode assessment for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, c.prefix+key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache assessment", zap.String("key", key), zap.Error(err))
	}
}
