// internal/service/order/port/validator.go
package port

import (
	"context"

	"orderflow/internal/service/order/domain"
)

// OrderValidator 在编排开始之前校验下单请求。
// 未通过时返回 *domain.ValidationError。
type OrderValidator interface {
	Validate(ctx context.Context, customerID string, items []domain.OrderItem) error
}
