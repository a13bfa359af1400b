// internal/service/order/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"orderflow/internal/service/order/domain"
)

// NewMySQL 打开 MySQL 连接并迁移订单表结构。
func NewMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&OrderModel{}, &OrderItemModel{}); err != nil {
		return nil, err
	}
	return db, nil
}

// GormOrderRepository 是 domain.OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建一个新的 GORM 仓储实例
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create 在一个事务里持久化订单和它的所有条目。
func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	model := ToModel(order)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID 按订单号查单，使用 Preload 一并取回条目。
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return ToDomain(&model), nil
}

// UpdateStatus 只更新状态相关的字段，不回写订单的其他部分。
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, processedAt *time.Time) error {
	updateData := map[string]interface{}{
		"status": string(status),
	}
	if processedAt != nil {
		updateData["processed_at"] = *processedAt
	}
	result := r.db.WithContext(ctx).Model(&OrderModel{}).Where("id = ?", id).Updates(updateData)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
