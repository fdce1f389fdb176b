package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havano/pos-backend/internal/domain/ordering"
	"github.com/havano/pos-backend/internal/infrastructure/persistence/models"
)

// GormTableRepository implements ordering.TableRepository using GORM
type GormTableRepository struct {
	db *gorm.DB
}

// NewGormTableRepository creates a new GormTableRepository
func NewGormTableRepository(db *gorm.DB) *GormTableRepository {
	return &GormTableRepository{db: db}
}

// FindByID finds a table by ID
func (r *GormTableRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Table, error) {
	var model models.TableModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a table by its display code
func (r *GormTableRepository) FindByCode(ctx context.Context, code string) (*ordering.Table, error) {
	var model models.TableModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderID finds tables whose order list contains the given order.
// Uses the JSONB containment operator on the orders column.
func (r *GormTableRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]ordering.Table, error) {
	var tableModels []models.TableModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("orders @> ?", `["`+orderID.String()+`"]`).
		Find(&tableModels).Error; err != nil {
		return nil, err
	}
	tables := make([]ordering.Table, len(tableModels))
	for i, model := range tableModels {
		tables[i] = *model.ToDomain()
	}
	return tables, nil
}

// Save upserts a table
func (r *GormTableRepository) Save(ctx context.Context, table *ordering.Table) error {
	var model models.TableModel
	model.FromDomain(table)
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(&model).Error
}
