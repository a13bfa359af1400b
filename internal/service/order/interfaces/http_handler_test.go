// internal/service/order/interfaces/http_handler_test.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"orderflow/internal/service/order/application"
	"orderflow/internal/service/order/domain"
)

type stubRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newStubRepo() *stubRepo {
	return &stubRepo{orders: make(map[string]*domain.Order)}
}

func (r *stubRepo) Create(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *stubRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *stubRepo) UpdateStatus(ctx context.Context, id string, status domain.Status, processedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order, ok := r.orders[id]; ok {
		order.Status = status
		order.ProcessedAt = processedAt
	}
	return nil
}

type allowAllValidator struct{}

func (allowAllValidator) Validate(ctx context.Context, customerID string, items []domain.OrderItem) error {
	if customerID == "" {
		return &domain.ValidationError{Rule: "customer_required", Reason: "customer id is required"}
	}
	return nil
}

type completeFulfiller struct{}

func (completeFulfiller) Fulfill(ctx context.Context, order *domain.Order) domain.OrchestrationOutcome {
	return domain.CompletedOutcome()
}

func newTestMux(t *testing.T) (*http.ServeMux, *stubRepo) {
	t.Helper()
	tracer := noop.NewTracerProvider().Tracer("test")
	repo := newStubRepo()
	validator := allowAllValidator{}
	fulfiller := completeFulfiller{}
	limiter := application.NewConcurrencyLimiter(2)
	batch := application.NewBatchCoordinator(repo, validator, fulfiller, limiter, tracer)
	queue := application.NewWorkQueue(8)
	service := application.NewOrderService(repo, validator, fulfiller, batch, queue, time.Millisecond, tracer)

	mux := http.NewServeMux()
	NewOrderHandler(service).RegisterRoutes(mux)
	return mux, repo
}

func TestCreateOrderEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	body := `{"customerId":"cust-1","items":[{"productId":"p-1","quantity":2,"unitPrice":9.5}]}`
	req := httptest.NewRequest(http.MethodPost, "/create_order", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp application.CreateOrderResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, domain.StatusCompleted, resp.Status)
}

func TestCreateOrderValidationMapsTo400(t *testing.T) {
	mux, _ := newTestMux(t)

	body := `{"customerId":"","items":[{"productId":"p-1","quantity":1,"unitPrice":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/create_order", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderRejectsBadBody(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/create_order", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderDeferredReturns202(t *testing.T) {
	mux, _ := newTestMux(t)

	body := `{"customerId":"cust-1","items":[{"productId":"p-1","quantity":1,"unitPrice":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/create_order?deferred=true", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp application.CreateOrderResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.StatusPending, resp.Status)
}

func TestCreateOrderBatchEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	body := `{"orders":[
		{"customerId":"cust-1","items":[{"productId":"p-1","quantity":1,"unitPrice":1}]},
		{"customerId":"cust-2","items":[{"productId":"p-2","quantity":2,"unitPrice":3}]}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/create_order_batch", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp application.BatchCreateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 2, resp.SuccessCount)
	require.Len(t, resp.Outcomes, 2)
	assert.Equal(t, 0, resp.Outcomes[0].Index)
	assert.Equal(t, 1, resp.Outcomes[1].Index)
}

func TestGetOrderEndpoint(t *testing.T) {
	mux, repo := newTestMux(t)

	order, err := domain.NewOrder("cust-1", []domain.OrderItem{{ProductID: "p-1", Quantity: 1, UnitPrice: 2}})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), order))

	req := httptest.NewRequest(http.MethodGet, "/get_order?orderId="+order.ID, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/get_order?orderId=missing", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/get_order", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderStreamEndpoint(t *testing.T) {
	mux, repo := newTestMux(t)

	order, err := domain.NewOrder("cust-1", []domain.OrderItem{{ProductID: "p-1", Quantity: 1, UnitPrice: 2}})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), order))

	req := httptest.NewRequest(http.MethodGet, "/order_stream?orderId="+order.ID+"&count=2", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, 2, strings.Count(rec.Body.String(), "data: "))
}
