package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/havano/pos-backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BaseCurrency is the fallback invoice currency when zero or more than one
// foreign payment currency is involved.
const BaseCurrency = "USD"

// DocStatus represents the lifecycle stage of a financial document
type DocStatus string

const (
	DocStatusDraft     DocStatus = "DRAFT"
	DocStatusSubmitted DocStatus = "SUBMITTED"
	DocStatusCancelled DocStatus = "CANCELLED"
)

// IsValid checks if the status is a valid DocStatus
func (s DocStatus) IsValid() bool {
	return s == DocStatusDraft || s == DocStatusSubmitted || s == DocStatusCancelled
}

// InvoiceLine is one invoice row. Rate is already expressed in the
// invoice currency; Amount = Qty * Rate.
type InvoiceLine struct {
	ItemCode string          `json:"item_code"`
	ItemName string          `json:"item_name,omitempty"`
	Unit     string          `json:"unit,omitempty"`
	Qty      decimal.Decimal `json:"qty"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
	Remark   string          `json:"remark,omitempty"`
}

// InvoiceLines is a slice of InvoiceLine implementing GORM Scanner/Valuer for JSONB storage
type InvoiceLines []InvoiceLine

// Value implements driver.Valuer for GORM to store as JSONB
func (l InvoiceLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (l *InvoiceLines) Scan(value interface{}) error {
	if value == nil {
		*l = InvoiceLines{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan InvoiceLines: unsupported type")
	}
	if len(bytes) == 0 {
		*l = InvoiceLines{}
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Invoice is the financial document representing a sale. Currency and
// conversion rate are fixed at creation; line items are immutable once
// the invoice is submitted.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber     string
	Customer          string
	Company           string
	Currency          string
	ConversionRate    decimal.Decimal // rate applied to cart rates at build time
	Lines             InvoiceLines
	GrandTotal        decimal.Decimal
	OutstandingAmount decimal.Decimal
	Status            DocStatus
	PostingDate       time.Time
	SubmittedAt       *time.Time
	CancelledAt       *time.Time
}

// NewInvoice creates a draft invoice. GrandTotal and OutstandingAmount
// are computed from the lines.
func NewInvoice(invoiceNumber, customer, company, currency string, conversionRate decimal.Decimal, lines []InvoiceLine) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if customer == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_INVOICE", "At least one item is required")
	}
	if currency == "" {
		currency = BaseCurrency
	}
	if conversionRate.LessThanOrEqual(decimal.Zero) {
		conversionRate = decimal.NewFromInt(1)
	}

	total := decimal.Zero
	for _, line := range lines {
		if line.Qty.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_LINE", fmt.Sprintf("Quantity for %s must be positive", line.ItemCode))
		}
		total = total.Add(line.Amount)
	}

	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		Customer:          customer,
		Company:           company,
		Currency:          currency,
		ConversionRate:    conversionRate,
		Lines:             append(InvoiceLines{}, lines...),
		GrandTotal:        total,
		OutstandingAmount: total,
		Status:            DocStatusDraft,
		PostingDate:       time.Now(),
	}, nil
}

// Submit transitions the invoice Draft -> Submitted. Lines become immutable.
func (inv *Invoice) Submit() error {
	if inv.Status != DocStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot submit invoice in %s status", inv.Status))
	}
	now := time.Now()
	inv.Status = DocStatusSubmitted
	inv.SubmittedAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()
	return nil
}

// Cancel transitions the invoice to Cancelled
func (inv *Invoice) Cancel() error {
	if inv.Status == DocStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already cancelled")
	}
	now := time.Now()
	inv.Status = DocStatusCancelled
	inv.CancelledAt = &now
	inv.OutstandingAmount = decimal.Zero
	inv.UpdatedAt = now
	inv.IncrementVersion()
	return nil
}

// ApplyAllocation reduces the outstanding amount by a payment allocation.
// The allocation must not exceed the current outstanding amount.
func (inv *Invoice) ApplyAllocation(amount decimal.Decimal) error {
	if inv.Status != DocStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot allocate payment to invoice in %s status", inv.Status))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Allocated amount must be positive")
	}
	if amount.GreaterThan(inv.OutstandingAmount) {
		return shared.NewDomainError("EXCEEDS_OUTSTANDING", fmt.Sprintf("Allocated amount %s exceeds outstanding amount %s", amount.StringFixed(2), inv.OutstandingAmount.StringFixed(2)))
	}
	inv.OutstandingAmount = inv.OutstandingAmount.Sub(amount)
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	return nil
}

// IsSubmitted returns true once the invoice has been submitted
func (inv *Invoice) IsSubmitted() bool {
	return inv.Status == DocStatusSubmitted
}

// IsSettled returns true when nothing remains outstanding
func (inv *Invoice) IsSettled() bool {
	return inv.Status == DocStatusSubmitted && inv.OutstandingAmount.IsZero()
}
