// internal/service/order/domain/outcome.go
package domain

// OrchestrationOutcome 是一次订单编排的结果：终态加可选的失败原因。
// 只能通过下面的构造函数创建，保证不会出现"有原因没状态"的半成品。
type OrchestrationOutcome struct {
	Status Status
	Reason string
}

// CompletedOutcome 构造成功结果。
func CompletedOutcome() OrchestrationOutcome {
	return OrchestrationOutcome{Status: StatusCompleted}
}

// FailedOutcome 构造失败结果（库存不足、支付被拒、分支内部错误）。
func FailedOutcome(reason string) OrchestrationOutcome {
	return OrchestrationOutcome{Status: StatusFailed, Reason: reason}
}

// CancelledOutcome 构造取消结果（deadline 到期或调用方取消）。
func CancelledOutcome(reason string) OrchestrationOutcome {
	return OrchestrationOutcome{Status: StatusCancelled, Reason: reason}
}

// ItemOutcome 是批量下单中单个条目的结果，Index 与请求下标一一对应。
type ItemOutcome struct {
	Index   int
	OrderID string // 订单创建失败时为空
	Outcome OrchestrationOutcome
}

// BatchResult 汇总一次批量下单：Outcomes 的长度恒等于请求数，
// 且 Outcomes[i] 对应第 i 个请求，与各订单实际完成的先后无关。
type BatchResult struct {
	Total        int
	SuccessCount int
	FailureCount int
	Outcomes     []ItemOutcome
}
