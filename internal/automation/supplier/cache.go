package supplier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andriipushkar/replenishment/internal/cache"
	"github.com/andriipushkar/replenishment/internal/logger"
)

// CostCacheTTL is the spec.md §4.4 refresh interval for cached
// supplier unit-cost lookups: averaging the last N months of purchase
// history is expensive enough to not redo per candidate per tick.
const CostCacheTTL = time.Hour

// CostCache memoizes SupplierPort.GetAverageUnitCost results. It
// prefers the shared Redis cache (grounded in the teacher's
// internal/cache.RedisCache, used there for product/category lookups)
// and falls back to an in-process sync.Map when Redis is unavailable,
// so a cache outage degrades selection latency rather than failing it.
type CostCache struct {
	redis *cache.RedisCache
	local sync.Map // string -> cachedCost
}

type cachedCost struct {
	value     float64
	expiresAt time.Time
}

// NewCostCache wraps an optional Redis client; pass nil to run purely
// in-process (e.g. in tests or a single-instance deployment).
func NewCostCache(redisCache *cache.RedisCache) *CostCache {
	return &CostCache{redis: redisCache}
}

func costCacheKey(tenantID, supplierID, productID string, months int) string {
	return fmt.Sprintf("supplier-cost:%s:%s:%s:%d", tenantID, supplierID, productID, months)
}

// Get returns a cached average unit cost, or (0, false) on a miss.
func (c *CostCache) Get(ctx context.Context, tenantID, supplierID, productID string, months int) (float64, bool) {
	key := costCacheKey(tenantID, supplierID, productID, months)

	if c.redis != nil {
		var v float64
		if err := c.redis.Get(ctx, key, &v); err == nil {
			return v, true
		}
	}

	if raw, ok := c.local.Load(key); ok {
		entry := raw.(cachedCost)
		if time.Now().Before(entry.expiresAt) {
			return entry.value, true
		}
		c.local.Delete(key)
	}
	return 0, false
}

// Set stores an average unit cost for CostCacheTTL.
func (c *CostCache) Set(ctx context.Context, tenantID, supplierID, productID string, months int, value float64) {
	key := costCacheKey(tenantID, supplierID, productID, months)

	if c.redis != nil {
		if err := c.redis.Set(ctx, key, value, CostCacheTTL); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("supplier cost cache: redis set failed, using local fallback")
		}
	}
	c.local.Store(key, cachedCost{value: value, expiresAt: time.Now().Add(CostCacheTTL)})
}
