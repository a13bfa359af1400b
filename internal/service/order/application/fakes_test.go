// internal/service/order/application/fakes_test.go
package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"orderflow/internal/service/order/domain"
)

// memoryRepo 是 OrderRepository 的内存实现，记录每笔订单的状态变化轨迹。
type memoryRepo struct {
	mu        sync.Mutex
	orders    map[string]*domain.Order
	statusLog map[string][]domain.Status

	failCreate error
	failUpdate error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders:    make(map[string]*domain.Order),
		statusLog: make(map[string][]domain.Status),
	}
}

func (r *memoryRepo) Create(ctx context.Context, order *domain.Order) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *memoryRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, id string, status domain.Status, processedAt *time.Time) error {
	if r.failUpdate != nil {
		return r.failUpdate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if order, ok := r.orders[id]; ok {
		order.Status = status
		order.ProcessedAt = processedAt
	}
	r.statusLog[id] = append(r.statusLog[id], status)
	return nil
}

func (r *memoryRepo) log(id string) []domain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Status(nil), r.statusLog[id]...)
}

// fakeInventory 用函数桩实现 InventoryChecker，并统计调用次数。
type fakeInventory struct {
	fn    func(ctx context.Context, productID string, quantity int) (bool, error)
	calls int32
}

func (f *fakeInventory) CheckStock(ctx context.Context, productID string, quantity int) (bool, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fn == nil {
		return true, nil
	}
	return f.fn(ctx, productID, quantity)
}

func (f *fakeInventory) callCount() int32 { return atomic.LoadInt32(&f.calls) }

type fakePayment struct {
	fn    func(ctx context.Context, orderID string, amount float64) (bool, error)
	calls int32
}

func (f *fakePayment) ProcessPayment(ctx context.Context, orderID string, amount float64) (bool, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fn == nil {
		return true, nil
	}
	return f.fn(ctx, orderID, amount)
}

func (f *fakePayment) callCount() int32 { return atomic.LoadInt32(&f.calls) }

type fakeNotifier struct {
	fn    func(ctx context.Context, customerID, orderID string) error
	calls int32
}

func (f *fakeNotifier) SendOrderConfirmation(ctx context.Context, customerID, orderID string) error {
	atomic.AddInt32(&f.calls, 1)
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, customerID, orderID)
}

func (f *fakeNotifier) callCount() int32 { return atomic.LoadInt32(&f.calls) }

type broadcastRecord struct {
	event   string
	payload interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcastRecord
}

func (f *fakeBroadcaster) Publish(ctx context.Context, event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, broadcastRecord{event: event, payload: payload})
	return nil
}

func (f *fakeBroadcaster) published() []broadcastRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]broadcastRecord(nil), f.events...)
}

// fakeValidator 用函数桩实现 port.OrderValidator，缺省放行一切。
type fakeValidator struct {
	fn func(ctx context.Context, customerID string, items []domain.OrderItem) error
}

func (f *fakeValidator) Validate(ctx context.Context, customerID string, items []domain.OrderItem) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, customerID, items)
}

// fulfillFunc 把函数适配成 Fulfiller，供批处理和服务层测试替换编排器。
type fulfillFunc func(ctx context.Context, order *domain.Order) domain.OrchestrationOutcome

func (f fulfillFunc) Fulfill(ctx context.Context, order *domain.Order) domain.OrchestrationOutcome {
	return f(ctx, order)
}

func testOrder(customerID string, items ...domain.OrderItem) *domain.Order {
	if len(items) == 0 {
		items = []domain.OrderItem{{ProductID: "p-1", Quantity: 2, UnitPrice: 9.5}}
	}
	order, err := domain.NewOrder(customerID, items)
	if err != nil {
		panic(err)
	}
	return order
}
