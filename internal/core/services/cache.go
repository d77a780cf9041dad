package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driven"
	"github.com/custodia-labs/docsrag/internal/logger"
)

const (
	// CacheVersion is embedded in every cache key; bump it when the
	// payload layout changes so old entries are ignored.
	CacheVersion = "v1"

	// CacheNamespace prefixes every cached index key.
	CacheNamespace = "docs-rag:"

	// DefaultCacheMaxAge is how long a built index stays valid.
	DefaultCacheMaxAge = 72 * time.Hour
)

// CacheKey returns the storage key of a source's cached index.
func CacheKey(sourceKey string) string {
	return CacheNamespace + CacheVersion + ":" + sourceKey
}

// IndexCache persists built indices in a key-value store with a
// time-to-live. Every failure degrades to a miss or a dropped write.
type IndexCache struct {
	store  driven.KVStore
	maxAge time.Duration
	now    func() time.Time
}

// NewIndexCache creates a cache over store. A non-positive maxAge uses
// DefaultCacheMaxAge.
func NewIndexCache(store driven.KVStore, maxAge time.Duration) *IndexCache {
	if maxAge <= 0 {
		maxAge = DefaultCacheMaxAge
	}
	return &IndexCache{
		store:  store,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// SetClock replaces the time source used for staleness checks.
func (c *IndexCache) SetClock(now func() time.Time) {
	c.now = now
}

// MaxAge returns the configured time-to-live.
func (c *IndexCache) MaxAge() time.Duration {
	return c.maxAge
}

// Load returns the cached index for sourceKey. It reports a miss when the
// entry is absent, does not parse, holds no chunks, or is older than the
// maximum age.
func (c *IndexCache) Load(ctx context.Context, sourceKey string) (*domain.Index, bool) {
	raw, err := c.store.Get(ctx, CacheKey(sourceKey))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("cache: reading %s: %v", sourceKey, err)
		}
		return nil, false
	}

	var index domain.Index
	if err := json.Unmarshal([]byte(raw), &index); err != nil {
		logger.Debug("cache: %s is corrupt: %v", sourceKey, err)
		return nil, false
	}
	if len(index.Chunks) == 0 {
		logger.Debug("cache: %s has no chunks", sourceKey)
		return nil, false
	}
	if age := index.Age(c.now()); age > c.maxAge {
		logger.Debug("cache: %s is stale (%s old)", sourceKey, age.Round(time.Minute))
		return nil, false
	}

	return &index, true
}

// Save stores index under sourceKey, replacing any previous entry.
// Write failures are logged and swallowed; the result reports whether
// the index was persisted.
func (c *IndexCache) Save(ctx context.Context, sourceKey string, index *domain.Index) bool {
	payload, err := json.Marshal(index)
	if err != nil {
		logger.Warn("cache: encoding %s: %v", sourceKey, err)
		return false
	}
	if err := c.store.Set(ctx, CacheKey(sourceKey), string(payload)); err != nil {
		logger.Warn("cache: index for %s kept in memory only: %v", sourceKey, err)
		return false
	}
	return true
}

// Clear removes the cached index for sourceKey.
func (c *IndexCache) Clear(ctx context.Context, sourceKey string) error {
	if err := c.store.Delete(ctx, CacheKey(sourceKey)); err != nil {
		return fmt.Errorf("clearing cache for %s: %w", sourceKey, err)
	}
	return nil
}

// ClearAll removes every cached index, including entries written under
// older cache versions.
func (c *IndexCache) ClearAll(ctx context.Context) error {
	keys, err := c.store.Keys(ctx, CacheNamespace)
	if err != nil {
		return fmt.Errorf("listing cached indices: %w", err)
	}
	for _, key := range keys {
		if err := c.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("clearing %s: %w", key, err)
		}
	}
	return nil
}
