// internal/composite/cache.go
package composite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chunk-auditor/internal/assessment"
	"chunk-auditor/internal/common/metrics"
)

// ResultCache is the key-value store used for finished verdicts. The Redis
// client in common/database satisfies it.
type ResultCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// CachedEvaluator wraps an Evaluator with a verdict cache keyed on the chunk
// fingerprint and the orchestrator configuration. Degraded results are never
// cached: a verdict built from fewer assessors than configured should be
// recomputed on the next run instead of pinned until expiry.
type CachedEvaluator struct {
	inner  Evaluator
	cache  ResultCache
	ttl    time.Duration
	scope  string
	logger Logger
}

// NewCachedEvaluator builds the caching wrapper. The scope is typically the
// orchestrator's Fingerprint, so stale verdicts from an older weight table or
// threshold never resurface after a config change.
func NewCachedEvaluator(inner Evaluator, cache ResultCache, ttl time.Duration, scope string, log Logger) *CachedEvaluator {
	return &CachedEvaluator{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		scope:  scope,
		logger: log,
	}
}

func (c *CachedEvaluator) Evaluate(ctx context.Context, chunk *assessment.Chunk) (*CompositeResult, error) {
	key := c.cacheKey(chunk)

	if raw, err := c.cache.Get(ctx, key); err == nil {
		var cached CompositeResult
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			metrics.CacheHits.Inc()
			c.logger.Debug("verdict served from cache", map[string]interface{}{
				"chunkId": chunk.ID,
			})
			return &cached, nil
		}
		c.logger.Warn("discarding unreadable cache entry", map[string]interface{}{
			"key": key,
		})
	}
	metrics.CacheMisses.Inc()

	result, err := c.inner.Evaluate(ctx, chunk)
	if err != nil {
		return nil, err
	}

	if !result.Degraded {
		data, err := json.Marshal(result)
		if err == nil {
			if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
				c.logger.Warn("verdict cache write failed", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
			}
		}
	}

	return result, nil
}

func (c *CachedEvaluator) cacheKey(chunk *assessment.Chunk) string {
	return fmt.Sprintf("audit:%s:%s", c.scope, chunk.Fingerprint())
}
