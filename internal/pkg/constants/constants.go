// internal/pkg/constants/constants.go
package constants

// 注册到 Nacos 的服务名，HTTP 适配器通过服务名做发现。
const (
	OrderService        = "order-service"
	InventoryService    = "inventory-service"
	PaymentService      = "payment-service"
	NotificationService = "notification-service"
)

// 下游服务的接口路径。
const (
	InventoryCheckPath = "/check_stock"
	PaymentProcessPath = "/process_payment"
)

// Kafka topics。
const (
	NotificationTopic = "order-confirmations"
	OrderEventsTopic  = "order-events"
)
