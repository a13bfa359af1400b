// internal/service/order/application/orchestrator.go
package application

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"orderflow/internal/pkg/logger"
	"orderflow/internal/pkg/tracing"
	"orderflow/internal/service/order/domain"
	"orderflow/internal/service/order/port"
)

// Fulfiller 是单笔订单编排的入口。批处理和队列 worker 都通过它驱动编排。
type Fulfiller interface {
	Fulfill(ctx context.Context, order *domain.Order) domain.OrchestrationOutcome
}

// FulfillmentOrchestrator 驱动一笔订单从 PENDING 走到终态：
// 并发调用库存、支付、通知三路下游，汇总结论后落库并广播。
type FulfillmentOrchestrator struct {
	repo        domain.OrderRepository
	inventory   port.InventoryChecker
	payment     port.PaymentProcessor
	notifier    port.NotificationSender
	broadcaster port.Broadcaster
	timeout     time.Duration
	tracer      trace.Tracer
}

func NewFulfillmentOrchestrator(
	repo domain.OrderRepository,
	inventory port.InventoryChecker,
	payment port.PaymentProcessor,
	notifier port.NotificationSender,
	broadcaster port.Broadcaster,
	timeout time.Duration,
	tracer trace.Tracer,
) *FulfillmentOrchestrator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FulfillmentOrchestrator{
		repo:        repo,
		inventory:   inventory,
		payment:     payment,
		notifier:    notifier,
		broadcaster: broadcaster,
		timeout:     timeout,
		tracer:      tracer,
	}
}

// Fulfill 执行一次完整的履约编排。
//
// 三路下游同时发起，之间没有先后依赖：库存不足不会阻止扣款尝试，
// 两者的业务结论各自独立得出，最后一起汇总。通知是尽力而为的，
// 它的失败（包括 panic）只记录日志，不影响订单终态。
// ctx 到期或被调用方取消时，订单进入 CANCELLED。
func (o *FulfillmentOrchestrator) Fulfill(ctx context.Context, order *domain.Order) domain.OrchestrationOutcome {
	ctx, span := o.tracer.Start(ctx, "orchestrator.Fulfill")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.Float64("order.total_amount", order.TotalAmount),
		attribute.Int("order.item_count", len(order.Items)),
	)

	orchestrationsInFlight.Inc()
	defer orchestrationsInFlight.Dec()

	if err := order.MarkProcessing(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order not in a startable state")
		return domain.FailedOutcome(err.Error())
	}
	if err := o.repo.UpdateStatus(ctx, order.ID, domain.StatusProcessing, nil); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).Msg("failed to persist processing status")
		return o.finish(ctx, span, order, domain.FailedOutcome("failed to persist processing status"))
	}

	procCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var (
		stockOK     bool
		stockReason string
		paymentOK   bool
	)

	// 库存与支付的"业务拒绝"（不足/被拒）返回 (false, nil) 而不是 error，
	// 所以一路被拒不会取消另一路，只有服务不可用级别的错误才会。
	g, gctx := errgroup.WithContext(procCtx)
	g.Go(func() (err error) {
		defer recoverAsError(gctx, &err, "inventory")
		ok, reason, cerr := o.verifyInventory(gctx, order)
		if cerr != nil {
			return cerr
		}
		stockOK, stockReason = ok, reason
		return nil
	})
	g.Go(func() (err error) {
		defer recoverAsError(gctx, &err, "payment")
		ok, perr := o.payment.ProcessPayment(gctx, order.ID, order.TotalAmount)
		if perr != nil {
			return fmt.Errorf("payment service: %w", perr)
		}
		paymentOK = ok
		return nil
	})

	notifDone := make(chan struct{})
	go func() {
		defer close(notifDone)
		defer func() {
			if r := recover(); r != nil {
				logger.Ctx(procCtx).Error().
					Interface("panic", r).
					Str("order_id", order.ID).
					Msg("notification sender panicked")
			}
		}()
		if err := o.notifier.SendOrderConfirmation(procCtx, order.CustomerID, order.ID); err != nil {
			span.AddEvent("notification delivery failed")
			logger.Ctx(procCtx).Warn().Err(err).Str("order_id", order.ID).Msg("failed to send order confirmation")
		}
	}()

	err := g.Wait()
	<-notifDone

	var outcome domain.OrchestrationOutcome
	switch {
	case err != nil && procCtx.Err() != nil:
		if ctx.Err() != nil {
			outcome = domain.CancelledOutcome("cancelled by caller")
		} else {
			outcome = domain.CancelledOutcome("fulfillment deadline exceeded")
		}
		span.SetStatus(codes.Error, outcome.Reason)
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "downstream dependency failed")
		outcome = domain.FailedOutcome(err.Error())
	case !stockOK:
		outcome = domain.FailedOutcome(stockReason)
	case !paymentOK:
		outcome = domain.FailedOutcome("payment declined")
	default:
		outcome = domain.CompletedOutcome()
	}

	return o.finish(ctx, span, order, outcome)
}

// verifyInventory 对订单的每个条目并发校验库存，全部足够才算通过。
// 返回的 reason 汇总所有不足的商品，按商品 ID 排序保证稳定。
func (o *FulfillmentOrchestrator) verifyInventory(ctx context.Context, order *domain.Order) (bool, string, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.VerifyInventory")
	defer span.End()

	var (
		mu           sync.Mutex
		insufficient []string
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, item := range order.Items {
		item := item
		g.Go(func() error {
			ok, err := o.inventory.CheckStock(gctx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("inventory service (%s): %w", item.ProductID, err)
			}
			if !ok {
				mu.Lock()
				insufficient = append(insufficient, item.ProductID)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return false, "", err
	}

	if len(insufficient) > 0 {
		sort.Strings(insufficient)
		reason := "insufficient stock: " + strings.Join(insufficient, ", ")
		span.AddEvent(reason)
		return false, reason, nil
	}
	span.AddEvent("All items in stock")
	return true, "", nil
}

// finish 将订单置入终态、落库并广播。
// 落库用脱离取消信号的上下文执行：编排本身超时了，终态仍然必须写下去。
func (o *FulfillmentOrchestrator) finish(ctx context.Context, span trace.Span, order *domain.Order, outcome domain.OrchestrationOutcome) domain.OrchestrationOutcome {
	persistCtx := tracing.DetachedContext(ctx)

	var terr error
	switch outcome.Status {
	case domain.StatusCompleted:
		terr = order.MarkCompleted()
	case domain.StatusFailed:
		terr = order.MarkFailed()
	case domain.StatusCancelled:
		terr = order.MarkCancelled()
	}
	if terr != nil {
		// 订单已在别处到达终态，保持原状
		logger.Ctx(persistCtx).Warn().Err(terr).Str("order_id", order.ID).Msg("skipping terminal transition")
	}

	if err := o.repo.UpdateStatus(persistCtx, order.ID, order.Status, order.ProcessedAt); err != nil {
		span.RecordError(err)
		logger.Ctx(persistCtx).Error().Err(err).
			Str("order_id", order.ID).
			Str("status", string(order.Status)).
			Msg("CRITICAL: failed to persist terminal status")
	}

	orchestrationsTotal.WithLabelValues(string(outcome.Status)).Inc()
	span.SetAttributes(
		attribute.String("order.status", string(order.Status)),
		attribute.String("order.outcome_reason", outcome.Reason),
	)

	if o.broadcaster != nil {
		event := domain.OrderLifecycleEvent{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Status:     order.Status,
			Reason:     outcome.Reason,
			At:         time.Now(),
		}
		if err := o.broadcaster.Publish(persistCtx, domain.EventNameFor(order.Status), event); err != nil {
			logger.Ctx(persistCtx).Warn().Err(err).Str("order_id", order.ID).Msg("failed to broadcast order event")
		}
	}

	logger.Ctx(persistCtx).Info().
		Str("order_id", order.ID).
		Str("status", string(order.Status)).
		Str("reason", outcome.Reason).
		Msg("order fulfillment finished")
	return outcome
}

// recoverAsError 把分支里的 panic 转成普通错误，让编排以 FAILED 收场
// 而不是把整个进程带崩。
func recoverAsError(ctx context.Context, errp *error, branch string) {
	if r := recover(); r != nil {
		logger.Ctx(ctx).Error().
			Interface("panic", r).
			Str("branch", branch).
			Str("stack", string(debug.Stack())).
			Msg("orchestration branch panicked")
		*errp = fmt.Errorf("%s branch panicked: %v", branch, r)
	}
}
