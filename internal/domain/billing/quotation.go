package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/havano/pos-backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Quotation is a priced offer that can later be converted into an
// invoice. Conversion is one-shot; a converted quotation keeps a link
// to the invoice it produced.
type Quotation struct {
	shared.BaseAggregateRoot
	QuotationNumber string
	Customer        string
	Company         string
	Currency        string
	Lines           InvoiceLines
	GrandTotal      decimal.Decimal
	Status          DocStatus
	ValidUntil      *time.Time
	InvoiceID       *uuid.UUID
}

// NewQuotation creates a draft quotation
func NewQuotation(quotationNumber, customer, company, currency string, lines []InvoiceLine) (*Quotation, error) {
	if quotationNumber == "" {
		return nil, shared.NewDomainError("INVALID_QUOTATION_NUMBER", "Quotation number cannot be empty")
	}
	if customer == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_QUOTATION", "At least one item is required")
	}
	if currency == "" {
		currency = BaseCurrency
	}
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}
	return &Quotation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		QuotationNumber:   quotationNumber,
		Customer:          customer,
		Company:           company,
		Currency:          currency,
		Lines:             append(InvoiceLines{}, lines...),
		GrandTotal:        total,
		Status:            DocStatusDraft,
	}, nil
}

// Submit transitions the quotation Draft -> Submitted
func (q *Quotation) Submit() error {
	if q.Status != DocStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot submit quotation in %s status", q.Status))
	}
	q.Status = DocStatusSubmitted
	q.UpdatedAt = time.Now()
	q.IncrementVersion()
	return nil
}

// MarkConverted records the invoice produced from this quotation
func (q *Quotation) MarkConverted(invoiceID uuid.UUID) error {
	if q.InvoiceID != nil {
		return shared.NewDomainError("ALREADY_CONVERTED", "Quotation has already been converted to an invoice")
	}
	if q.Status != DocStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", "Only submitted quotations can be converted")
	}
	q.InvoiceID = &invoiceID
	q.UpdatedAt = time.Now()
	q.IncrementVersion()
	return nil
}

// ReplaceLines swaps the quoted lines for the ones actually sold and
// recomputes the total. Converted quotations are immutable.
func (q *Quotation) ReplaceLines(lines []InvoiceLine) error {
	if q.InvoiceID != nil {
		return shared.NewDomainError("ALREADY_CONVERTED", "Quotation has already been converted to an invoice")
	}
	if len(lines) == 0 {
		return shared.NewDomainError("EMPTY_QUOTATION", "At least one item is required")
	}
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}
	q.Lines = append(InvoiceLines{}, lines...)
	q.GrandTotal = total
	q.UpdatedAt = time.Now()
	q.IncrementVersion()
	return nil
}

// IsExpired reports whether the quotation validity window has passed
func (q *Quotation) IsExpired(now time.Time) bool {
	return q.ValidUntil != nil && now.After(*q.ValidUntil)
}
