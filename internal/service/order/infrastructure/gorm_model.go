// internal/service/order/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"orderflow/internal/service/order/domain"
)

// OrderModel 对应数据库中的 orders 表
type OrderModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	CustomerID  string `gorm:"size:64;index"`
	TotalAmount float64
	Status      string `gorm:"size:16;index"`
	CreatedAt   time.Time
	ProcessedAt *time.Time
	// 关联关系
	Items []OrderItemModel `gorm:"foreignKey:OrderID"`
}

// TableName 指定 GORM 应该使用的表名
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 对应数据库中的 order_items 表
type OrderItemModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	OrderID   string `gorm:"size:36;index"`
	ProductID string `gorm:"size:64"`
	Quantity  int
	UnitPrice float64 `gorm:"type:decimal(10,2)"`
}

// TableName 指定 GORM 应该使用的表名
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToModel 将领域聚合转换为数据库模型。
func ToModel(order *domain.Order) *OrderModel {
	model := &OrderModel{
		ID:          order.ID,
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount,
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt,
		ProcessedAt: order.ProcessedAt,
	}
	for _, item := range order.Items {
		model.Items = append(model.Items, OrderItemModel{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return model
}

// ToDomain 将数据库模型还原为领域聚合。
func ToDomain(model *OrderModel) *domain.Order {
	order := &domain.Order{
		ID:          model.ID,
		CustomerID:  model.CustomerID,
		TotalAmount: model.TotalAmount,
		Status:      domain.Status(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
	for _, item := range model.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return order
}
