// internal/service/order/infrastructure/adapter/inventory_http_adapter.go
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

// InventoryHTTPAdapter 实现了 port.InventoryChecker 接口。
type InventoryHTTPAdapter struct {
	client *httpclient.Client
}

// NewInventoryHTTPAdapter 创建一个新的库存服务适配器。
func NewInventoryHTTPAdapter(client *httpclient.Client) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{client: client}
}

// CheckStock 调用库存服务校验单个商品的库存。
// 200 表示库存足够，409 表示不足（业务结论），其余状态码视为服务不可用。
func (a *InventoryHTTPAdapter) CheckStock(ctx context.Context, productID string, quantity int) (bool, error) {
	params := url.Values{}
	params.Set("productId", productID)
	params.Set("quantity", strconv.Itoa(quantity))

	status, err := a.client.CallService(ctx, constants.InventoryService, constants.InventoryCheckPath, params)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusConflict:
		return false, nil
	default:
		return false, fmt.Errorf("inventory service returned unexpected status %d", status)
	}
}
