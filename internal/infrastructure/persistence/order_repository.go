package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havano/pos-backend/internal/domain/ordering"
	"github.com/havano/pos-backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements ordering.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	var model models.OrderModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderNumber finds an order by its order number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*ordering.Order, error) {
	var model models.OrderModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoiceID finds the order linked to an invoice
func (r *GormOrderRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*ordering.Order, error) {
	var model models.OrderModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "invoice_id = ?", invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpenByTable finds all open orders for a table, oldest first
func (r *GormOrderRepository) FindOpenByTable(ctx context.Context, tableCode string) ([]ordering.Order, error) {
	var orderModels []models.OrderModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("table_code = ? AND order_status = ?", tableCode, string(ordering.OrderStatusOpen)).
		Order("created_at ASC").
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]ordering.Order, len(orderModels))
	for i, model := range orderModels {
		orders[i] = *model.ToDomain()
	}
	return orders, nil
}

// Create inserts a new order
func (r *GormOrderRepository) Create(ctx context.Context, order *ordering.Order) error {
	var model models.OrderModel
	model.FromDomain(order)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(&model).Error
}

// Save updates an existing order
func (r *GormOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	var model models.OrderModel
	model.FromDomain(order)
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(&model).Error
}

// Delete removes an order
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).
		Delete(&models.OrderModel{}, "id = ?", id).Error
}

// GenerateOrderNumber produces the next order number.
// Format: ORD-YYYYMMDD-NNNN, sequence resets daily.
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := fmt.Sprintf("ORD-%s-", today)

	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("order_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}
