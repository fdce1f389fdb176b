package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/havano/pos-backend/internal/domain/ordering"
	"github.com/havano/pos-backend/internal/infrastructure/persistence/models"
)

// GormMenuItemRepository implements ordering.MenuItemRepository using GORM
type GormMenuItemRepository struct {
	db *gorm.DB
}

// NewGormMenuItemRepository creates a new GormMenuItemRepository
func NewGormMenuItemRepository(db *gorm.DB) *GormMenuItemRepository {
	return &GormMenuItemRepository{db: db}
}

// FindByCode finds a menu item by its code
func (r *GormMenuItemRepository) FindByCode(ctx context.Context, code string) (*ordering.MenuItem, error) {
	var model models.MenuItemModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCodes bulk-resolves menu items by code
func (r *GormMenuItemRepository) FindByCodes(ctx context.Context, codes []string) (map[string]ordering.MenuItem, error) {
	if len(codes) == 0 {
		return map[string]ordering.MenuItem{}, nil
	}
	var itemModels []models.MenuItemModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("code IN ?", codes).
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	items := make(map[string]ordering.MenuItem, len(itemModels))
	for _, model := range itemModels {
		items[model.Code] = *model.ToDomain()
	}
	return items, nil
}

// Search finds enabled menu items whose code or name matches the term
func (r *GormMenuItemRepository) Search(ctx context.Context, term string, limit int) ([]ordering.MenuItem, error) {
	var itemModels []models.MenuItemModel
	query := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("disabled = false")
	if term != "" {
		pattern := "%" + term + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", pattern, pattern)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Order("name ASC").Find(&itemModels).Error; err != nil {
		return nil, err
	}
	items := make([]ordering.MenuItem, len(itemModels))
	for i, model := range itemModels {
		items[i] = *model.ToDomain()
	}
	return items, nil
}

// Create inserts a new menu item
func (r *GormMenuItemRepository) Create(ctx context.Context, item *ordering.MenuItem) error {
	var model models.MenuItemModel
	model.FromDomain(item)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(&model).Error
}
