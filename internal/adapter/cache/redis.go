// Package cache provides a Redis read-through front for computed match
// results. The application record in Postgres remains the source of
// truth; this layer only shortens the hot path for repeated lookups.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quyet5603/DATN-sub002/internal/adapter/observability"
	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// MatchCache caches MatchResult values keyed by (candidate, job).
type MatchCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewMatchCache constructs a cache front over the given Redis client.
func NewMatchCache(rdb *redis.Client, ttl time.Duration) *MatchCache {
	return &MatchCache{rdb: rdb, ttl: ttl}
}

func matchKey(candidateID, jobID string) string {
	return fmt.Sprintf("match:%s:%s", candidateID, jobID)
}

// Get returns the cached result for (candidateID, jobID), or
// domain.ErrNotFound when absent. A cached result with a non-positive
// score is treated as absent: zero marks a failed computation and must
// not be served as a hit.
func (c *MatchCache) Get(ctx domain.Context, candidateID, jobID string) (domain.MatchResult, error) {
	raw, err := c.rdb.Get(ctx, matchKey(candidateID, jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.MatchCacheOps.WithLabelValues("redis", "miss").Inc()
		return domain.MatchResult{}, fmt.Errorf("op=cache.get: %w", domain.ErrNotFound)
	}
	if err != nil {
		observability.MatchCacheOps.WithLabelValues("redis", "error").Inc()
		return domain.MatchResult{}, fmt.Errorf("op=cache.get: %w", err)
	}
	var m domain.MatchResult
	if err := json.Unmarshal(raw, &m); err != nil {
		observability.MatchCacheOps.WithLabelValues("redis", "error").Inc()
		return domain.MatchResult{}, fmt.Errorf("op=cache.get: decode: %w", err)
	}
	if m.Overall <= 0 {
		observability.MatchCacheOps.WithLabelValues("redis", "miss").Inc()
		return domain.MatchResult{}, fmt.Errorf("op=cache.get: %w", domain.ErrNotFound)
	}
	observability.MatchCacheOps.WithLabelValues("redis", "hit").Inc()
	return m, nil
}

// Put stores a result. Non-positive scores are skipped so a degraded
// outcome never suppresses a later successful recomputation.
func (c *MatchCache) Put(ctx domain.Context, m domain.MatchResult) error {
	if m.Overall <= 0 {
		observability.MatchCacheOps.WithLabelValues("redis", "skip").Inc()
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("op=cache.put: encode: %w", err)
	}
	if err := c.rdb.Set(ctx, matchKey(m.CandidateID, m.JobID), raw, c.ttl).Err(); err != nil {
		observability.MatchCacheOps.WithLabelValues("redis", "error").Inc()
		return fmt.Errorf("op=cache.put: %w", err)
	}
	observability.MatchCacheOps.WithLabelValues("redis", "store").Inc()
	return nil
}

// Invalidate drops the cached result for (candidateID, jobID).
func (c *MatchCache) Invalidate(ctx domain.Context, candidateID, jobID string) error {
	if err := c.rdb.Del(ctx, matchKey(candidateID, jobID)).Err(); err != nil {
		return fmt.Errorf("op=cache.invalidate: %w", err)
	}
	return nil
}
