// internal/service/order/port/payment.go
package port

import (
	"context"
)

// PaymentProcessor 是支付服务的出站端口。
type PaymentProcessor interface {
	// ProcessPayment 对订单总额发起一次扣款。
	// 返回 (false, nil) 表示支付被拒（业务结论），返回 err 表示服务不可用。
	// 每次编排只调用一次。
	ProcessPayment(ctx context.Context, orderID string, amount float64) (bool, error)
}
