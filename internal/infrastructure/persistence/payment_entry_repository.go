package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havano/pos-backend/internal/domain/billing"
	"github.com/havano/pos-backend/internal/domain/shared"
	"github.com/havano/pos-backend/internal/infrastructure/persistence/models"
)

// GormPaymentEntryRepository implements billing.PaymentEntryRepository using GORM
type GormPaymentEntryRepository struct {
	db       *gorm.DB
	accounts billing.AccountRepository
}

// NewGormPaymentEntryRepository creates a new GormPaymentEntryRepository.
// The account repository backs link validation on insert.
func NewGormPaymentEntryRepository(db *gorm.DB, accounts billing.AccountRepository) *GormPaymentEntryRepository {
	return &GormPaymentEntryRepository{db: db, accounts: accounts}
}

// FindByID finds a payment entry by ID
func (r *GormPaymentEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.PaymentEntry, error) {
	var model models.PaymentEntryModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoiceID finds all payment entries allocated to an invoice
func (r *GormPaymentEntryRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]billing.PaymentEntry, error) {
	var entryModels []models.PaymentEntryModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]billing.PaymentEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// Create inserts a new payment entry. Unless opts.SkipLinkValidation is
// set, the referenced accounts must exist; a retried insert after a
// validation failure passes the skip flag explicitly.
func (r *GormPaymentEntryRepository) Create(ctx context.Context, entry *billing.PaymentEntry, opts shared.InsertOptions) error {
	if !opts.SkipLinkValidation {
		if err := r.validateAccountLinks(ctx, entry); err != nil {
			return err
		}
	}
	var model models.PaymentEntryModel
	model.FromDomain(entry)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(&model).Error
}

// validateAccountLinks verifies the source and destination accounts exist
func (r *GormPaymentEntryRepository) validateAccountLinks(ctx context.Context, entry *billing.PaymentEntry) error {
	for _, name := range []string{entry.PaidFrom, entry.PaidTo} {
		if name == "" {
			continue
		}
		account, err := r.accounts.FindByName(ctx, name)
		if err != nil {
			return err
		}
		if account == nil {
			return shared.NewDomainError("LINK_VALIDATION", fmt.Sprintf("Account %q does not exist", name))
		}
	}
	return nil
}

// Save updates an existing payment entry
func (r *GormPaymentEntryRepository) Save(ctx context.Context, entry *billing.PaymentEntry) error {
	var model models.PaymentEntryModel
	model.FromDomain(entry)
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(&model).Error
}

// Delete removes a payment entry. Only draft entries are ever deleted;
// the settlement engine discards a failed draft before retrying.
func (r *GormPaymentEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).
		Delete(&models.PaymentEntryModel{}, "id = ?", id).Error
}

// GeneratePaymentNumber produces the next payment number.
// Format: PAY-YYYYMMDD-NNNN, sequence resets daily.
func (r *GormPaymentEntryRepository) GeneratePaymentNumber(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := fmt.Sprintf("PAY-%s-", today)

	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.PaymentEntryModel{}).
		Where("payment_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}
