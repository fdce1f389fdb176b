package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/havano/pos-backend/internal/domain/shared"
)

// InvoiceRepository persists Invoice aggregates
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)
	// FindLatestOutstandingByCustomer returns the newest submitted
	// invoice with money still owed, or nil.
	FindLatestOutstandingByCustomer(ctx context.Context, customer string) (*Invoice, error)
	Create(ctx context.Context, invoice *Invoice) error
	Save(ctx context.Context, invoice *Invoice) error
	GenerateInvoiceNumber(ctx context.Context) (string, error)
}

// PaymentEntryRepository persists PaymentEntry aggregates.
// Create honors InsertOptions so a retried entry can skip link
// validation after a first failed attempt.
type PaymentEntryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentEntry, error)
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]PaymentEntry, error)
	Create(ctx context.Context, entry *PaymentEntry, opts shared.InsertOptions) error
	Save(ctx context.Context, entry *PaymentEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	GeneratePaymentNumber(ctx context.Context) (string, error)
}

// QuotationRepository persists Quotation aggregates
type QuotationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Quotation, error)
	FindByQuotationNumber(ctx context.Context, quotationNumber string) (*Quotation, error)
	Create(ctx context.Context, quotation *Quotation) error
	Save(ctx context.Context, quotation *Quotation) error
	GenerateQuotationNumber(ctx context.Context) (string, error)
}

// AccountRepository reads ledger accounts
type AccountRepository interface {
	FindByName(ctx context.Context, name string) (*Account, error)
	FindByCompanyAndType(ctx context.Context, company string, accountType AccountType) (*Account, error)
	Create(ctx context.Context, account *Account) error
}

// ModeOfPaymentRepository persists payment methods
type ModeOfPaymentRepository interface {
	FindByName(ctx context.Context, name string) (*ModeOfPayment, error)
	List(ctx context.Context) ([]ModeOfPayment, error)
	Create(ctx context.Context, mode *ModeOfPayment) error
	Save(ctx context.Context, mode *ModeOfPayment) error
}
