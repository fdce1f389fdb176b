package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havano/pos-backend/internal/domain/billing"
	"github.com/havano/pos-backend/internal/infrastructure/persistence/models"
)

// GormQuotationRepository implements billing.QuotationRepository using GORM
type GormQuotationRepository struct {
	db *gorm.DB
}

// NewGormQuotationRepository creates a new GormQuotationRepository
func NewGormQuotationRepository(db *gorm.DB) *GormQuotationRepository {
	return &GormQuotationRepository{db: db}
}

// FindByID finds a quotation by ID
func (r *GormQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Quotation, error) {
	var model models.QuotationModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByQuotationNumber finds a quotation by its number
func (r *GormQuotationRepository) FindByQuotationNumber(ctx context.Context, quotationNumber string) (*billing.Quotation, error) {
	var model models.QuotationModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "quotation_number = ?", quotationNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new quotation
func (r *GormQuotationRepository) Create(ctx context.Context, quotation *billing.Quotation) error {
	var model models.QuotationModel
	model.FromDomain(quotation)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(&model).Error
}

// Save updates an existing quotation
func (r *GormQuotationRepository) Save(ctx context.Context, quotation *billing.Quotation) error {
	var model models.QuotationModel
	model.FromDomain(quotation)
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(&model).Error
}

// GenerateQuotationNumber produces the next quotation number.
// Format: QTN-YYYYMMDD-NNNN, sequence resets daily.
func (r *GormQuotationRepository) GenerateQuotationNumber(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := fmt.Sprintf("QTN-%s-", today)

	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.QuotationModel{}).
		Where("quotation_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}
