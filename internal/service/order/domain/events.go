// internal/service/order/domain/events.go
package domain

import "time"

// 广播到 order-events topic 的事件名。
const (
	EventOrderProcessing = "order.processing"
	EventOrderCompleted  = "order.completed"
	EventOrderFailed     = "order.failed"
	EventOrderCancelled  = "order.cancelled"
)

// OrderLifecycleEvent 是订单状态变化的对外载体。
// 推送是 fire-and-forget 的，订阅方不应依赖其可达性。
type OrderLifecycleEvent struct {
	OrderID    string    `json:"orderId"`
	CustomerID string    `json:"customerId"`
	Status     Status    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	At         time.Time `json:"at"`
}

// EventNameFor 返回终态/中间态对应的事件名。
func EventNameFor(status Status) string {
	switch status {
	case StatusCompleted:
		return EventOrderCompleted
	case StatusFailed:
		return EventOrderFailed
	case StatusCancelled:
		return EventOrderCancelled
	default:
		return EventOrderProcessing
	}
}

// OrderConfirmation 是发给通知服务的订单确认消息体。
type OrderConfirmation struct {
	CustomerID string `json:"customerId"`
	OrderID    string `json:"orderId"`
	Message    string `json:"message"`
}
