// internal/service/order/application/service.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"orderflow/internal/pkg/logger"
	"orderflow/internal/pkg/tracing"
	"orderflow/internal/service/order/domain"
	"orderflow/internal/service/order/port"
)

// OrderService 是订单用例的应用服务：同步下单、延迟下单、批量下单、
// 查单和订单快照流。所有下游依赖都通过端口注入。
type OrderService struct {
	repo           domain.OrderRepository
	validator      port.OrderValidator
	orchestrator   Fulfiller
	batch          *BatchCoordinator
	queue          *WorkQueue
	streamInterval time.Duration
	tracer         trace.Tracer
}

func NewOrderService(
	repo domain.OrderRepository,
	validator port.OrderValidator,
	orchestrator Fulfiller,
	batch *BatchCoordinator,
	queue *WorkQueue,
	streamInterval time.Duration,
	tracer trace.Tracer,
) *OrderService {
	return &OrderService{
		repo:           repo,
		validator:      validator,
		orchestrator:   orchestrator,
		batch:          batch,
		queue:          queue,
		streamInterval: streamInterval,
		tracer:         tracer,
	}
}

// CreateOrder 同步下单：校验、落库、就地执行编排，返回终态。
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateOrder")
	defer span.End()

	order, err := s.buildOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	outcome := s.orchestrator.Fulfill(ctx, order)
	return &CreateOrderResponse{
		OrderID: order.ID,
		Status:  outcome.Status,
		Reason:  outcome.Reason,
	}, nil
}

// CreateOrderDeferred 延迟下单：校验和落库仍是同步的（调用方要拿到订单号
// 和校验错误），编排本身入队由后台 worker 按 FIFO 执行。
// 入队的上下文已与请求的取消信号脱钩，只保留链路信息。
func (s *OrderService) CreateOrderDeferred(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateOrderDeferred")
	defer span.End()

	order, err := s.buildOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	workCtx := tracing.DetachedContext(ctx)
	s.queue.Enqueue(WorkItem{
		Ctx: workCtx,
		Run: func(ctx context.Context) error {
			s.orchestrator.Fulfill(ctx, order)
			return nil
		},
	})
	span.AddEvent("order enqueued for deferred fulfillment")
	logger.Ctx(ctx).Info().Str("order_id", order.ID).Int("queue_depth", s.queue.Len()).Msg("order enqueued")

	return &CreateOrderResponse{
		OrderID: order.ID,
		Status:  domain.StatusPending,
		Message: "Your order has been accepted and is being processed.",
	}, nil
}

// CreateOrderBatch 批量下单，等待整批结束后返回逐条结果。
func (s *OrderService) CreateOrderBatch(ctx context.Context, reqs []CreateOrderRequest) *domain.BatchResult {
	return s.batch.CreateBatch(ctx, reqs)
}

// GetOrder 按订单号查单。未找到时返回 domain.ErrOrderNotFound。
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return order, nil
}

// StreamOrder 返回某笔订单的快照流：每隔固定间隔重新查一次单。
// count <= 0 表示不限条数。每次调用都是一条全新的流。
func (s *OrderService) StreamOrder(ctx context.Context, orderID string, count int) <-chan *domain.Order {
	stream := NewEventStream(s.streamInterval, func(ctx context.Context, seq int) (*domain.Order, error) {
		return s.repo.FindByID(ctx, orderID)
	})
	return stream.Run(ctx, count)
}

// buildOrder 执行下单的公共前半程：规则校验、聚合构造、落库。
func (s *OrderService) buildOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	items := req.ToDomainItems()
	if err := s.validator.Validate(ctx, req.CustomerID, items); err != nil {
		return nil, err
	}
	order, err := domain.NewOrder(req.CustomerID, items)
	if err != nil {
		return nil, &domain.ValidationError{Rule: "order", Reason: err.Error()}
	}
	if err := s.repo.Create(ctx, order); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).Msg("failed to persist new order")
		return nil, err
	}
	return order, nil
}
