// internal/service/order/application/limiter.go
package application

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// ConcurrencyLimiter 限制同时在途的履约编排数量。
// 批处理在启动每笔编排之前先 Acquire，结束后 Release。
type ConcurrencyLimiter struct {
	sem *semaphore.Weighted
}

// NewConcurrencyLimiter 创建容量为 limit 的限流器。limit <= 0 时按 1 处理。
func NewConcurrencyLimiter(limit int64) *ConcurrencyLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &ConcurrencyLimiter{sem: semaphore.NewWeighted(limit)}
}

// Acquire 阻塞等待一个许可。ctx 取消时返回其错误，此时不持有许可。
func (l *ConcurrencyLimiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

// Release 归还一个许可。只能与成功的 Acquire 配对调用。
func (l *ConcurrencyLimiter) Release() {
	l.sem.Release(1)
}
