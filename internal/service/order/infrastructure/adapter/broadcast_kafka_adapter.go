// internal/service/order/infrastructure/adapter/broadcast_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"orderflow/internal/pkg/mq"
)

// BroadcastKafkaAdapter 实现了 port.Broadcaster 接口。
// 生命周期事件发到 order-events topic，推送网关消费后经 WebSocket 下发。
type BroadcastKafkaAdapter struct {
	writer *kafka.Writer
}

// NewBroadcastKafkaAdapter 创建一个新的事件广播适配器。
func NewBroadcastKafkaAdapter(writer *kafka.Writer) *BroadcastKafkaAdapter {
	return &BroadcastKafkaAdapter{writer: writer}
}

// Publish 把事件序列化后发往 Kafka。事件名放在消息头里，方便消费方路由。
func (a *BroadcastKafkaAdapter) Publish(ctx context.Context, event string, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast payload: %w", err)
	}
	return mq.ProduceMessageWithHeaders(ctx, a.writer, []byte(event), payloadBytes, kafka.Header{
		Key:   "event",
		Value: []byte(event),
	})
}

// Close 关闭底层的 Kafka writer。
func (a *BroadcastKafkaAdapter) Close() error {
	return a.writer.Close()
}
