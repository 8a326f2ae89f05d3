package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/optiflow/backend/internal/config"
	"github.com/optiflow/backend/internal/evaluation"
)

const (
	performanceKeyPrefix = "optiflow:performance"
	performanceKey       = performanceKeyPrefix + ":summary"
	scanBatchSize        = 100
)

// PerformanceCache holds the fleet evaluation summary between
// requests. Computing it walks every product's history, so callers
// read through the cache and only recompute on a miss.
type PerformanceCache interface {
	GetSummary(ctx context.Context) (*evaluation.Summary, bool, error)
	SetSummary(ctx context.Context, summary *evaluation.Summary) error
	Invalidate(ctx context.Context) error
}

// NewPerformanceCache picks the backend from config: redis when cache
// is enabled, an in-process TTL cache otherwise.
func NewPerformanceCache(cfg config.CacheConfig) (PerformanceCache, error) {
	ttl := time.Duration(cfg.PerformanceTTLSeconds) * time.Second
	if !cfg.Enabled {
		return NewMemoryCache(ttl, time.Now), nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &redisPerformanceCache{client: client, ttl: ttl}, nil
}

type redisPerformanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisPerformanceCache) GetSummary(ctx context.Context) (*evaluation.Summary, bool, error) {
	payload, err := c.client.Get(ctx, performanceKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summary evaluation.Summary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false, fmt.Errorf("decode performance summary cache: %w", err)
	}
	return &summary, true, nil
}

func (c *redisPerformanceCache) SetSummary(ctx context.Context, summary *evaluation.Summary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode performance summary cache: %w", err)
	}
	if err := c.client.Set(ctx, performanceKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisPerformanceCache) Invalidate(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, performanceKeyPrefix, scanBatchSize)
}

// memoryCache is the single-process fallback. The clock is injected
// so expiry is testable.
type memoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	value   *evaluation.Summary
	storedAt time.Time
}

func NewMemoryCache(ttl time.Duration, now func() time.Time) PerformanceCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &memoryCache{ttl: ttl, now: now}
}

func (c *memoryCache) GetSummary(ctx context.Context) (*evaluation.Summary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == nil {
		return nil, false, nil
	}
	if c.now().Sub(c.storedAt) >= c.ttl {
		c.value = nil
		return nil, false, nil
	}
	return c.value, true, nil
}

func (c *memoryCache) SetSummary(ctx context.Context, summary *evaluation.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = summary
	c.storedAt = c.now()
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
	return nil
}
