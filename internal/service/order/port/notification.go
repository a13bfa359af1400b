// internal/service/order/port/notification.go
package port

import (
	"context"
)

// NotificationSender 是通知服务的出站端口。
// 通知是尽力而为的：发送失败只记录，绝不影响订单终态。
type NotificationSender interface {
	// SendOrderConfirmation 给客户发送订单确认。
	SendOrderConfirmation(ctx context.Context, customerID, orderID string) error
}
