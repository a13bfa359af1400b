// internal/service/order/infrastructure/adapter/notification_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"orderflow/internal/pkg/mq"
	"orderflow/internal/service/order/domain"
)

// NotificationKafkaAdapter 实现了 port.NotificationSender 接口。
// 确认消息发到 Kafka，由独立的通知服务消费后触达客户。
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
}

// NewNotificationKafkaAdapter 创建一个新的通知生产者适配器。
func NewNotificationKafkaAdapter(writer *kafka.Writer) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

// SendOrderConfirmation 发送订单确认消息。
// 按 customerID 做分区 key，同一客户的通知保持有序。
func (a *NotificationKafkaAdapter) SendOrderConfirmation(ctx context.Context, customerID, orderID string) error {
	event := domain.OrderConfirmation{
		CustomerID: customerID,
		OrderID:    orderID,
		Message:    fmt.Sprintf("Your order %s has been received and is being fulfilled.", orderID),
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order confirmation: %w", err)
	}

	// 调用通用的 mq.ProduceMessage，它会自动处理追踪上下文注入
	return mq.ProduceMessage(ctx, a.writer, []byte(customerID), eventBytes)
}

// Close 关闭底层的 Kafka writer。
func (a *NotificationKafkaAdapter) Close() error {
	return a.writer.Close()
}
