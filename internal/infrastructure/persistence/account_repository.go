package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/havano/pos-backend/internal/domain/billing"
	"github.com/havano/pos-backend/internal/infrastructure/persistence/models"
)

// GormAccountRepository implements billing.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByName finds an account by name
func (r *GormAccountRepository) FindByName(ctx context.Context, name string) (*billing.Account, error) {
	var model models.AccountModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCompanyAndType finds the first enabled account of a type for a company
func (r *GormAccountRepository) FindByCompanyAndType(ctx context.Context, company string, accountType billing.AccountType) (*billing.Account, error) {
	var model models.AccountModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("company = ? AND type = ? AND disabled = false", company, string(accountType)).
		Order("name ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new account
func (r *GormAccountRepository) Create(ctx context.Context, account *billing.Account) error {
	var model models.AccountModel
	model.FromDomain(account)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(&model).Error
}

// GormModeOfPaymentRepository implements billing.ModeOfPaymentRepository using GORM
type GormModeOfPaymentRepository struct {
	db *gorm.DB
}

// NewGormModeOfPaymentRepository creates a new GormModeOfPaymentRepository
func NewGormModeOfPaymentRepository(db *gorm.DB) *GormModeOfPaymentRepository {
	return &GormModeOfPaymentRepository{db: db}
}

// FindByName finds a mode of payment by name
func (r *GormModeOfPaymentRepository) FindByName(ctx context.Context, name string) (*billing.ModeOfPayment, error) {
	var model models.ModeOfPaymentModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns all enabled modes of payment
func (r *GormModeOfPaymentRepository) List(ctx context.Context) ([]billing.ModeOfPayment, error) {
	var modeModels []models.ModeOfPaymentModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("enabled = true").
		Order("name ASC").
		Find(&modeModels).Error; err != nil {
		return nil, err
	}
	modes := make([]billing.ModeOfPayment, len(modeModels))
	for i, model := range modeModels {
		modes[i] = *model.ToDomain()
	}
	return modes, nil
}

// Create inserts a new mode of payment
func (r *GormModeOfPaymentRepository) Create(ctx context.Context, mode *billing.ModeOfPayment) error {
	var model models.ModeOfPaymentModel
	model.FromDomain(mode)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(&model).Error
}

// Save updates an existing mode of payment
func (r *GormModeOfPaymentRepository) Save(ctx context.Context, mode *billing.ModeOfPayment) error {
	var model models.ModeOfPaymentModel
	model.FromDomain(mode)
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(&model).Error
}
