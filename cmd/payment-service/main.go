// cmd/payment-service/main.go
package main

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"orderflow/internal/pkg/bootstrap"
	"orderflow/internal/pkg/constants"
	"orderflow/internal/pkg/logger"
)

const (
	serviceName = constants.PaymentService
	servicePort = 8083

	// 单笔扣款上限，超过视为风控拒绝
	declineThreshold = 10000.0
)

var tracer = otel.Tracer(serviceName)

func main() {
	bootstrap.Init()
	logger.Init(serviceName)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.HandleFunc(constants.PaymentProcessPath, processPaymentHandler)
		},
	})
}

// processPaymentHandler 对订单总额发起一次扣款。
// 约定的故障注入开关（用于联调和演示）：
//
//	amount 超过 declineThreshold -> 402 支付被拒
//	orderId 以 "payslow-" 开头   -> 响应前睡 2s，触发上游 deadline
//	orderId 以 "payerr-" 开头    -> 500 服务不可用
func processPaymentHandler(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := tracer.Start(ctx, "payment-service.ProcessPayment")
	defer span.End()

	orderID := r.URL.Query().Get("orderId")
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.Float64("payment.amount", amount),
	)

	switch {
	case strings.HasPrefix(orderID, "payslow-"):
		log.Printf("injecting latency for order %s", orderID)
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return
		}
	case strings.HasPrefix(orderID, "payerr-"):
		ferr := fmt.Errorf("payment backend unavailable for order %s", orderID)
		span.RecordError(ferr)
		span.SetStatus(codes.Error, ferr.Error())
		http.Error(w, "payment service unavailable", http.StatusInternalServerError)
		return
	}

	if amount > declineThreshold {
		span.AddEvent("payment declined by risk control")
		log.Printf("payment declined for order %s: amount %.2f exceeds threshold", orderID, amount)
		http.Error(w, "payment declined", http.StatusPaymentRequired)
		return
	}

	span.AddEvent("Payment processed successfully")
	log.Printf("payment of %.2f processed for order %s", amount, orderID)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Payment accepted"))
}
