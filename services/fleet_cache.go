// file: services/fleet_cache.go
package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"CTFVM/dto"

	"github.com/redis/go-redis/v9"
)

const (
	fleetCacheKey = "ctfvm:admin_fleet"
	fleetCacheTTL = 30 * time.Second
)

// FleetCache 管理端机群视图缓存。只是性能优化：读失败按未命中处理，
// 写失败记日志放行，任何正确性判断都不依赖它。
type FleetCache interface {
	Get(ctx context.Context) ([]dto.AdminVMInfo, bool)
	Set(ctx context.Context, items []dto.AdminVMInfo)
	Invalidate(ctx context.Context)
}

type RedisFleetCache struct {
	rdb *redis.Client
}

func NewRedisFleetCache(rdb *redis.Client) *RedisFleetCache {
	return &RedisFleetCache{rdb: rdb}
}

func (c *RedisFleetCache) Get(ctx context.Context) ([]dto.AdminVMInfo, bool) {
	payload, err := c.rdb.Get(ctx, fleetCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var items []dto.AdminVMInfo
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (c *RedisFleetCache) Set(ctx context.Context, items []dto.AdminVMInfo) {
	payload, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, fleetCacheKey, payload, fleetCacheTTL).Err(); err != nil {
		log.Printf("Warning: failed to cache admin fleet view: %v", err)
	}
}

func (c *RedisFleetCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, fleetCacheKey).Err(); err != nil {
		log.Printf("Warning: failed to invalidate fleet cache: %v", err)
	}
}
