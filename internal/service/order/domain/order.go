// internal/service/order/domain/order.go
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderItem 是订单中的一个条目。
// UnitPrice 是下单时刻的快照价格，之后不再回读商品目录，
// 所以即使目录价变了，订单总额也是稳定的。
type OrderItem struct {
	ProductID string
	Quantity  int
	UnitPrice float64
}

// Order 是订单聚合的根实体
type Order struct {
	ID          string
	CustomerID  string
	Items       []OrderItem
	TotalAmount float64 // 创建时由条目算出，之后不可变
	Status      Status
	CreatedAt   time.Time
	ProcessedAt *time.Time // 到达终态之前为 nil
}

// NewOrder 是订单的工厂函数：校验基础字段、计算总额、生成 ID。
// 总额在这里算定一次，后续任何环节都不允许改写。
func NewOrder(customerID string, items []OrderItem) (*Order, error) {
	if customerID == "" {
		return nil, errors.New("cannot create order without customer id")
	}
	if len(items) == 0 {
		return nil, errors.New("cannot create order without items")
	}

	var total float64
	for _, item := range items {
		if item.ProductID == "" {
			return nil, errors.New("order item missing product id")
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("order item %s has non-positive quantity %d", item.ProductID, item.Quantity)
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("order item %s has negative unit price", item.ProductID)
		}
		total += item.UnitPrice * float64(item.Quantity)
	}

	return &Order{
		ID:          uuid.New().String(),
		CustomerID:  customerID,
		Items:       items,
		TotalAmount: total,
		Status:      StatusPending, // 初始状态
		CreatedAt:   time.Now(),
	}, nil
}

// MarkProcessing 将订单置为编排中。只允许从 PENDING 进入。
func (o *Order) MarkProcessing() error {
	return o.transition(StatusProcessing)
}

// MarkCompleted 将订单置为完成终态。
func (o *Order) MarkCompleted() error {
	return o.transition(StatusCompleted)
}

// MarkFailed 将订单置为失败终态。
func (o *Order) MarkFailed() error {
	return o.transition(StatusFailed)
}

// MarkCancelled 将订单置为取消终态（deadline 到期或调用方取消）。
func (o *Order) MarkCancelled() error {
	return o.transition(StatusCancelled)
}

// transition 执行单调的状态流转：终态只能到达一次，非法流转被拒绝。
func (o *Order) transition(next Status) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	if next.IsTerminal() {
		now := time.Now()
		o.ProcessedAt = &now
	}
	return nil
}
