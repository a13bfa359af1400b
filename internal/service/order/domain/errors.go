// internal/service/order/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound 表示按 ID 查找订单时没有命中。
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidTransition 表示一次非法的状态流转被拒绝。
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// ValidationError 表示请求在进入编排之前就被拒绝。
// 它属于客户端错误，接口层应映射为 400。
type ValidationError struct {
	Rule   string // 未通过的规则表达式或字段名
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("order validation failed: %s (%s)", e.Reason, e.Rule)
}

// IsValidationError 判断 err 是否为（或包装了）校验错误。
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
