// cmd/notification-service/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"orderflow/internal/pkg/bootstrap"
	"orderflow/internal/pkg/constants"
	"orderflow/internal/pkg/logger"
	"orderflow/internal/pkg/mq"
	"orderflow/internal/pkg/tracing"
	"orderflow/internal/service/order/domain"
)

const (
	serviceName     = constants.NotificationService
	consumerGroupID = "notification-group"
)

var tracer = otel.Tracer(serviceName)

func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	tp, err := tracing.InitTracerProvider(serviceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		log.Fatalf("failed to initialize tracer provider: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	reader := mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, constants.NotificationTopic, consumerGroupID)
	defer reader.Close()

	log.Println("Notification Service started as a Kafka consumer for topic:", constants.NotificationTopic)

	for {
		// 后台任务的根上下文，不依附任何请求
		msg, err := reader.ReadMessage(context.Background())
		if err != nil {
			log.Printf("could not read message: %v", err)
			continue
		}
		go processConfirmation(msg)
	}
}

// processConfirmation 处理一条订单确认消息：还原追踪上下文后模拟触达客户。
func processConfirmation(msg kafka.Message) {
	ctx := mq.ExtractTraceContext(context.Background(), msg.Headers)

	spanOpts := []trace.SpanStartOption{
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
			attribute.String("messaging.kafka.message.key", string(msg.Key)),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	}
	ctx, span := tracer.Start(ctx, "notification-service.ProcessConfirmation", spanOpts...)
	defer span.End()

	var event domain.OrderConfirmation
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("failed to unmarshal confirmation: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("customer.id", event.CustomerID),
		attribute.String("order.id", event.OrderID),
	)
	if event.CustomerID == "" {
		err := errors.New("confirmation missing customer id")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	// 模拟触达客户的耗时
	logger.Ctx(ctx).Info().
		Str("customer_id", event.CustomerID).
		Str("order_id", event.OrderID).
		Msg("sending order confirmation")
	time.Sleep(50 * time.Millisecond)
	span.AddEvent("Confirmation sent successfully")
}
