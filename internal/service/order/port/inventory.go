// internal/service/order/port/inventory.go
package port

import (
	"context"
)

// InventoryChecker 是库存服务的出站端口。
type InventoryChecker interface {
	// CheckStock 校验单个商品的库存是否足够。
	// 返回 (false, nil) 表示库存不足（业务结论），返回 err 表示服务不可用。
	// 每次编排对每个条目只调用一次，不做内置重试。
	CheckStock(ctx context.Context, productID string, quantity int) (bool, error)
}
