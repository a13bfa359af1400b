// internal/service/order/domain/state.go
package domain

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusPending    Status = "PENDING"    // 订单已记录，等待编排
	StatusProcessing Status = "PROCESSING" // 编排进行中（库存、支付并发校验）
	StatusCompleted  Status = "COMPLETED"  // 库存和支付全部通过
	StatusFailed     Status = "FAILED"     // 库存不足、支付被拒或分支内部错误
	StatusCancelled  Status = "CANCELLED"  // deadline 到期或调用方主动取消
)

// IsTerminal 判断状态是否为终态。到达终态后不再发生任何状态流转。
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// 状态机：PENDING → PROCESSING → {COMPLETED | FAILED}，
// CANCELLED 是从 PROCESSING 可达的正交终态。
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
}

// CanTransitionTo 判断从当前状态到 next 是否是一次合法流转。
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
