// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"orderflow/internal/pkg/logger"
	"orderflow/internal/service/order/application"
	"orderflow/internal/service/order/domain"
)

const serviceName = "order-service"

// OrderHandler 封装了订单服务的 HTTP 处理器
type OrderHandler struct {
	service *application.OrderService
}

// NewOrderHandler 创建一个新的 HTTP 处理器实例
func NewOrderHandler(service *application.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/create_order", h.createOrderHandler)
	mux.HandleFunc("/create_order_batch", h.createOrderBatchHandler)
	mux.HandleFunc("/get_order", h.getOrderHandler)
	mux.HandleFunc("/order_stream", h.orderStreamHandler)
}

// createOrderHandler 处理同步和延迟下单。请求体是 JSON 的 CreateOrderRequest，
// ?deferred=true 时走队列，立即返回 PENDING。
func (h *OrderHandler) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "http.CreateOrder")
	defer span.End()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	deferred := r.URL.Query().Get("deferred") == "true"
	span.SetAttributes(
		attribute.String("order.customer_id", req.CustomerID),
		attribute.Int("order.item_count", len(req.Items)),
		attribute.Bool("order.deferred", deferred),
	)

	var (
		resp *application.CreateOrderResponse
		err  error
	)
	if deferred {
		resp, err = h.service.CreateOrderDeferred(ctx, req)
	} else {
		resp, err = h.service.CreateOrder(ctx, req)
	}
	if err != nil {
		span.RecordError(err)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if deferred {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

// createOrderBatchHandler 处理批量下单，等待整批结束后返回逐条结果。
func (h *OrderHandler) createOrderBatchHandler(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "http.CreateOrderBatch")
	defer span.End()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req application.BatchCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Orders) == 0 {
		http.Error(w, "batch must contain at least one order", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("batch.size", len(req.Orders)))

	result := h.service.CreateOrderBatch(ctx, req.Orders)
	writeJSON(w, http.StatusOK, application.FromBatchResult(result))
}

func (h *OrderHandler) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "http.GetOrder")
	defer span.End()

	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		http.Error(w, "orderId is required", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("order.id", orderID))

	order, err := h.service.GetOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// orderStreamHandler 以 SSE 推送某笔订单的快照流。
// ?count=N 限制条数，缺省或 0 表示一直推到客户端断开。
func (h *OrderHandler) orderStreamHandler(w http.ResponseWriter, r *http.Request) {
	ctx := extractTraceContext(r)
	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "http.OrderStream")
	defer span.End()

	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		http.Error(w, "orderId is required", http.StatusBadRequest)
		return
	}
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// 客户端断开时 r.Context() 取消，流随之终止
	for order := range h.service.StreamOrder(ctx, orderID, count) {
		data, err := json.Marshal(order)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}

func extractTraceContext(r *http.Request) context.Context {
	propagator := otel.GetTextMapPropagator()
	return propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError 把领域错误映射为 HTTP 状态码：
// 校验失败 -> 400，订单不存在 -> 404，其余 -> 500。
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		logger.Ctx(ctx).Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
