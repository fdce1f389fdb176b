package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/havano/pos-backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentEntry is a ledger receipt: money received from a customer
// against a sales invoice. Once submitted it is immutable; a failed
// entry is deleted and recreated, never updated.
type PaymentEntry struct {
	shared.BaseAggregateRoot
	PaymentNumber      string
	Party              string // customer
	Company            string
	ModeOfPayment      string
	PaidFrom           string // receivable account
	PaidTo             string // destination account
	PaidFromCurrency   string
	PaidToCurrency     string
	PaidAmount         decimal.Decimal // in source-account currency
	ReceivedAmount     decimal.Decimal // in destination-account currency
	SourceExchangeRate decimal.Decimal
	TargetExchangeRate decimal.Decimal
	ReferenceNo        string
	ReferenceDate      *time.Time
	InvoiceID          *uuid.UUID
	AllocatedAmount    decimal.Decimal
	Remarks            string
	Status             DocStatus
	PostingDate        time.Time
	SubmittedAt        *time.Time
}

// NewPaymentEntry creates a draft payment entry
func NewPaymentEntry(paymentNumber, party, company, modeOfPayment string, paidAmount decimal.Decimal) (*PaymentEntry, error) {
	if paymentNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if party == "" {
		return nil, shared.NewDomainError("INVALID_PARTY", "Customer is required")
	}
	if paidAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be greater than 0")
	}
	one := decimal.NewFromInt(1)
	return &PaymentEntry{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		PaymentNumber:      paymentNumber,
		Party:              party,
		Company:            company,
		ModeOfPayment:      modeOfPayment,
		PaidAmount:         paidAmount,
		ReceivedAmount:     paidAmount,
		SourceExchangeRate: one,
		TargetExchangeRate: one,
		Status:             DocStatusDraft,
		PostingDate:        time.Now(),
	}, nil
}

// SetAccounts records the resolved source/destination accounts and currencies
func (p *PaymentEntry) SetAccounts(paidFrom, paidTo, fromCurrency, toCurrency string) {
	p.PaidFrom = paidFrom
	p.PaidTo = paidTo
	p.PaidFromCurrency = fromCurrency
	p.PaidToCurrency = toCurrency
}

// SetExchange applies the exchange rate between the account currencies
// and derives the received amount.
func (p *PaymentEntry) SetExchange(targetRate decimal.Decimal) {
	if targetRate.LessThanOrEqual(decimal.Zero) {
		targetRate = decimal.NewFromInt(1)
	}
	p.TargetExchangeRate = targetRate
	p.ReceivedAmount = p.PaidAmount.Mul(targetRate)
}

// AllocateToInvoice references the invoice this payment settles
func (p *PaymentEntry) AllocateToInvoice(invoiceID uuid.UUID, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Allocated amount must be positive")
	}
	p.InvoiceID = &invoiceID
	p.AllocatedAmount = amount
	return nil
}

// EnsureReference synthesizes a reference number when the destination
// account type mandates one (bank accounts) and the caller supplied none.
func (p *PaymentEntry) EnsureReference(destinationType AccountType, now time.Time) {
	if destinationType != AccountTypeBank {
		return
	}
	if p.ReferenceNo == "" {
		p.ReferenceNo = fmt.Sprintf("POS-%s", now.Format("20060102150405"))
	}
	if p.ReferenceDate == nil {
		p.ReferenceDate = &now
	}
}

// Submit transitions the entry Draft -> Submitted
func (p *PaymentEntry) Submit() error {
	if p.Status != DocStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot submit payment entry in %s status", p.Status))
	}
	if p.PaidFrom == "" || p.PaidTo == "" {
		return shared.NewDomainError("INVALID_STATE", "Payment entry accounts are not resolved")
	}
	now := time.Now()
	p.Status = DocStatusSubmitted
	p.SubmittedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	return nil
}

// IsSubmitted returns true once the entry has been submitted
func (p *PaymentEntry) IsSubmitted() bool {
	return p.Status == DocStatusSubmitted
}
