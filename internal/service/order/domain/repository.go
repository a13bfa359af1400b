// internal/service/order/domain/repository.go
package domain

import (
	"context"
	"time"
)

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。持久化本身假定是可靠的，
// 编排核心不对存储做补偿。
type OrderRepository interface {
	// Create 持久化一个新建的订单。
	Create(ctx context.Context, order *Order) error

	// FindByID 根据 ID 查找订单，未命中时返回 ErrOrderNotFound。
	FindByID(ctx context.Context, id string) (*Order, error)

	// UpdateStatus 更新订单状态；processedAt 在到达终态时一并写入。
	UpdateStatus(ctx context.Context, id string, status Status, processedAt *time.Time) error
}
