// internal/service/order/port/broadcaster.go
package port

import (
	"context"
)

// Broadcaster 把订单生命周期事件推送给零个或多个订阅方。
// fire-and-forget：没有投递保证，调用方吞掉错误。
type Broadcaster interface {
	Publish(ctx context.Context, event string, payload interface{}) error
}
