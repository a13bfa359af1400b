// internal/service/order/infrastructure/redis_cache.go
package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"orderflow/internal/pkg/logger"
	"orderflow/internal/pkg/redis"
	"orderflow/internal/service/order/domain"
)

const (
	orderCacheKeyPrefix = "orderflow:order:"
	orderCacheTTL       = 5 * time.Minute
)

// CachedOrderRepository 给 OrderRepository 套一层 read-through 的 Redis 缓存。
// 缓存是尽力而为的：Redis 不可用时所有读写直接落到底层仓储。
type CachedOrderRepository struct {
	inner domain.OrderRepository
	cache *redis.Client
}

func NewCachedOrderRepository(inner domain.OrderRepository, cache *redis.Client) *CachedOrderRepository {
	return &CachedOrderRepository{inner: inner, cache: cache}
}

func (r *CachedOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := r.inner.Create(ctx, order); err != nil {
		return err
	}
	r.fill(ctx, order)
	return nil
}

func (r *CachedOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	raw, err := r.cache.Get(ctx, orderCacheKeyPrefix+id)
	if err == nil {
		var order domain.Order
		if uerr := json.Unmarshal([]byte(raw), &order); uerr == nil {
			return &order, nil
		}
		// 缓存内容损坏，清掉后回源
		_ = r.cache.Del(ctx, orderCacheKeyPrefix+id)
	} else if !redis.IsNil(err) {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", id).Msg("order cache read failed, falling back to store")
	}

	order, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, order)
	return order, nil
}

func (r *CachedOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, processedAt *time.Time) error {
	if err := r.inner.UpdateStatus(ctx, id, status, processedAt); err != nil {
		return err
	}
	// 状态变了就让缓存失效，下次读取回源
	if err := r.cache.Del(ctx, orderCacheKeyPrefix+id); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", id).Msg("order cache invalidation failed")
	}
	return nil
}

func (r *CachedOrderRepository) fill(ctx context.Context, order *domain.Order) {
	data, err := json.Marshal(order)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, orderCacheKeyPrefix+order.ID, data, orderCacheTTL); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).Msg("order cache fill failed")
	}
}
