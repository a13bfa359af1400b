// internal/service/order/infrastructure/adapter/payment_http_adapter.go
package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"orderflow/internal/pkg/constants"
	"orderflow/internal/pkg/httpclient"
)

// PaymentHTTPAdapter 实现了 port.PaymentProcessor 接口。
type PaymentHTTPAdapter struct {
	client *httpclient.Client
}

// NewPaymentHTTPAdapter 创建一个新的支付服务适配器。
func NewPaymentHTTPAdapter(client *httpclient.Client) *PaymentHTTPAdapter {
	return &PaymentHTTPAdapter{client: client}
}

// ProcessPayment 调用支付服务对订单总额发起扣款。
// 200 表示扣款成功，402 表示支付被拒（业务结论），其余状态码视为服务不可用。
func (a *PaymentHTTPAdapter) ProcessPayment(ctx context.Context, orderID string, amount float64) (bool, error) {
	params := url.Values{}
	params.Set("orderId", orderID)
	params.Set("amount", strconv.FormatFloat(amount, 'f', 2, 64))

	status, err := a.client.CallService(ctx, constants.PaymentService, constants.PaymentProcessPath, params)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusPaymentRequired:
		return false, nil
	default:
		return false, fmt.Errorf("payment service returned unexpected status %d", status)
	}
}
