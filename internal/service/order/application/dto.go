// internal/service/order/application/dto.go
package application

import (
	"orderflow/internal/service/order/domain"
)

type OrderItemRequest struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type CreateOrderRequest struct {
	CustomerID string             `json:"customerId"`
	Items      []OrderItemRequest `json:"items"`
}

func (r CreateOrderRequest) ToDomainItems() []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return items
}

type CreateOrderResponse struct {
	OrderID string        `json:"orderId"`
	Status  domain.Status `json:"status"`
	Reason  string        `json:"reason,omitempty"`
	Message string        `json:"message,omitempty"`
}

type BatchCreateRequest struct {
	Orders []CreateOrderRequest `json:"orders"`
}

type BatchItemResponse struct {
	Index   int           `json:"index"`
	OrderID string        `json:"orderId,omitempty"`
	Status  domain.Status `json:"status"`
	Reason  string        `json:"reason,omitempty"`
}

type BatchCreateResponse struct {
	Total        int                 `json:"total"`
	SuccessCount int                 `json:"successCount"`
	FailureCount int                 `json:"failureCount"`
	Outcomes     []BatchItemResponse `json:"outcomes"`
}

func FromBatchResult(result *domain.BatchResult) *BatchCreateResponse {
	resp := &BatchCreateResponse{
		Total:        result.Total,
		SuccessCount: result.SuccessCount,
		FailureCount: result.FailureCount,
		Outcomes:     make([]BatchItemResponse, 0, len(result.Outcomes)),
	}
	for _, oc := range result.Outcomes {
		resp.Outcomes = append(resp.Outcomes, BatchItemResponse{
			Index:   oc.Index,
			OrderID: oc.OrderID,
			Status:  oc.Outcome.Status,
			Reason:  oc.Outcome.Reason,
		})
	}
	return resp
}
