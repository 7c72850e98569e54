package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache TTLs. Analysis results churn with every scrape; insights are
// cheaper to keep around.
const (
	AnalysisTTL = 5 * time.Minute
	InsightsTTL = 15 * time.Minute
)

// CacheService is a cache-aside JSON layer over Redis. A nil client turns
// every call into a no-op so the API keeps working without Redis.
type CacheService struct {
	rdb *redis.Client
}

func NewCacheService(rdb *redis.Client) *CacheService {
	return &CacheService{rdb: rdb}
}

// AnalysisKey namespaces one analysis result per client and kind.
func AnalysisKey(clientID, kind string) string {
	return "pulselytics:analysis:" + clientID + ":" + kind
}

// GetJSON loads a cached value into the given pointer. Returns false on
// miss, disabled cache, or any Redis error.
func (c *CacheService) GetJSON(ctx context.Context, key string, into any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache get failed: key=%s err=%v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, into); err != nil {
		log.Printf("cache entry unreadable, dropping: key=%s err=%v", key, err)
		c.rdb.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON stores a value with a TTL. Failures are logged and swallowed;
// caching is best effort.
func (c *CacheService) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache marshal failed: key=%s err=%v", key, err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("cache set failed: key=%s err=%v", key, err)
	}
}

// InvalidateClient drops every cached analysis for a client, called after
// training replaces a model.
func (c *CacheService) InvalidateClient(ctx context.Context, clientID string) {
	if c == nil || c.rdb == nil {
		return
	}
	pattern := "pulselytics:analysis:" + clientID + ":*"
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("cache invalidate failed: key=%s err=%v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache scan failed: pattern=%s err=%v", pattern, err)
	}
}

// Ping reports cache health for readiness checks.
func (c *CacheService) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}
