// internal/service/order/application/batch.go
package application

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"orderflow/internal/pkg/logger"
	"orderflow/internal/service/order/domain"
	"orderflow/internal/service/order/port"
)

// BatchCoordinator 并发处理一批下单请求。
// 同时在途的编排数由 limiter 限制，结果按请求下标原位写回。
type BatchCoordinator struct {
	repo      domain.OrderRepository
	validator port.OrderValidator
	fulfiller Fulfiller
	limiter   *ConcurrencyLimiter
	tracer    trace.Tracer
}

func NewBatchCoordinator(
	repo domain.OrderRepository,
	validator port.OrderValidator,
	fulfiller Fulfiller,
	limiter *ConcurrencyLimiter,
	tracer trace.Tracer,
) *BatchCoordinator {
	return &BatchCoordinator{
		repo:      repo,
		validator: validator,
		fulfiller: fulfiller,
		limiter:   limiter,
		tracer:    tracer,
	}
}

// CreateBatch 处理整批请求并等待所有条目结束。
// 返回的 Outcomes[i] 恒对应 requests[i]，与各订单实际完成的先后无关。
func (b *BatchCoordinator) CreateBatch(ctx context.Context, requests []CreateOrderRequest) *domain.BatchResult {
	ctx, span := b.tracer.Start(ctx, "batch.CreateBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(requests)))

	// 每个下标只被对应的 goroutine 写一次，无需加锁
	outcomes := make([]domain.ItemOutcome, len(requests))
	var wg sync.WaitGroup
	for i, req := range requests {
		i, req := i, req
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = b.processOne(ctx, i, req)
		}()
	}
	wg.Wait()

	result := &domain.BatchResult{Total: len(requests), Outcomes: outcomes}
	for _, oc := range outcomes {
		if oc.Outcome.Status == domain.StatusCompleted {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}
	}
	span.SetAttributes(
		attribute.Int("batch.success_count", result.SuccessCount),
		attribute.Int("batch.failure_count", result.FailureCount),
	)
	return result
}

// processOne 处理批次中的单个条目。条目之间完全隔离：
// 任何失败乃至 panic 都只体现在自己的结果槽位里，不波及兄弟条目。
func (b *BatchCoordinator) processOne(ctx context.Context, index int, req CreateOrderRequest) (out domain.ItemOutcome) {
	out = domain.ItemOutcome{Index: index}
	defer func() {
		if r := recover(); r != nil {
			logger.Ctx(ctx).Error().
				Interface("panic", r).
				Int("batch_index", index).
				Str("stack", string(debug.Stack())).
				Msg("batch item panicked")
			out.Outcome = domain.FailedOutcome(fmt.Sprintf("unexpected failure: %v", r))
		}
	}()

	// 先拿许可再启动编排，保证任一时刻最多 K 笔在途
	if err := b.limiter.Acquire(ctx); err != nil {
		out.Outcome = domain.CancelledOutcome("cancelled while waiting for admission")
		return out
	}
	defer b.limiter.Release()

	items := req.ToDomainItems()
	if err := b.validator.Validate(ctx, req.CustomerID, items); err != nil {
		out.Outcome = domain.FailedOutcome(err.Error())
		return out
	}
	order, err := domain.NewOrder(req.CustomerID, items)
	if err != nil {
		out.Outcome = domain.FailedOutcome(err.Error())
		return out
	}
	out.OrderID = order.ID

	if err := b.repo.Create(ctx, order); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).Msg("failed to persist order")
		out.Outcome = domain.FailedOutcome("failed to persist order")
		return out
	}

	out.Outcome = b.fulfiller.Fulfill(ctx, order)
	return out
}
