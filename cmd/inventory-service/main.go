// cmd/inventory-service/main.go
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
	serviceName = constants.InventoryService
	servicePort = 8082
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
			appCtx.Mux.HandleFunc(constants.InventoryCheckPath, checkStockHandler)
		},
	})
}

// checkStockHandler 校验单个商品的库存。
// 约定的故障注入开关（用于联调和演示）：
//
//	productId 以 "oos-" 开头  -> 409 库存不足
//	productId 以 "slow-" 开头 -> 响应前睡 2s，触发上游 deadline
//	productId 以 "err-" 开头  -> 500 服务不可用
func checkStockHandler(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := tracer.Start(ctx, "inventory-service.CheckStock")
	defer span.End()

	productID := r.URL.Query().Get("productId")
	quantity, _ := strconv.Atoi(r.URL.Query().Get("quantity"))

	span.SetAttributes(
		attribute.String("product.id", productID),
		attribute.Int("product.quantity", quantity),
	)

	switch {
	case strings.HasPrefix(productID, "oos-"):
		span.AddEvent("insufficient stock")
		log.Printf("insufficient stock for product %s (requested %d)", productID, quantity)
		http.Error(w, "insufficient stock", http.StatusConflict)
		return
	case strings.HasPrefix(productID, "slow-"):
		log.Printf("injecting latency for product %s", productID)
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return
		}
	case strings.HasPrefix(productID, "err-"):
		err := fmt.Errorf("inventory backend unavailable for product %s", productID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, "inventory service unavailable", http.StatusInternalServerError)
		return
	}

	span.AddEvent("Stock check successful")
	log.Printf("stock check successful for product %s (requested %d)", productID, quantity)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Stock available"))
}
