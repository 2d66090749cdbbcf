package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jobscout/jobscout/internal/engine/discovery"
)

// DefaultCacheTTL is how long a discovery result stays served from cache.
const DefaultCacheTTL = time.Hour

// ResultCache keeps recent discovery results in Redis so repeated requests
// within the TTL do not burn collaborator quota.
type ResultCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewResultCache returns a ResultCache. Non-positive ttl falls back to
// DefaultCacheTTL.
func NewResultCache(rdb *redis.Client, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResultCache{rdb: rdb, ttl: ttl}
}

func cacheKey(userID string) string {
	return "jobscout:discovery:" + userID
}

// Get returns the cached result for the user, or nil on a miss.
func (c *ResultCache) Get(ctx context.Context, userID string) (*discovery.Result, error) {
	data, err := c.rdb.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var result discovery.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, nil
}

// Set stores the result under the user's key for the configured TTL.
func (c *ResultCache) Set(ctx context.Context, userID string, result *discovery.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
