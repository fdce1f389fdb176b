package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/havano/pos-backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for billing.Invoice
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber     string               `gorm:"type:varchar(50);uniqueIndex;not null"`
	Customer          string               `gorm:"type:varchar(140);not null;index"`
	Company           string               `gorm:"type:varchar(140)"`
	Currency          string               `gorm:"type:varchar(10);not null"`
	ConversionRate    decimal.Decimal      `gorm:"type:decimal(21,9);not null;default:1"`
	Lines             billing.InvoiceLines `gorm:"type:jsonb;not null"`
	GrandTotal        decimal.Decimal      `gorm:"type:decimal(15,2);not null"`
	OutstandingAmount decimal.Decimal      `gorm:"type:decimal(15,2);not null"`
	Status            string               `gorm:"type:varchar(20);not null;index"`
	PostingDate       time.Time            `gorm:"not null"`
	SubmittedAt       *time.Time
	CancelledAt       *time.Time
}

// TableName specifies the database table name
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the model to a domain Invoice
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		Customer:          m.Customer,
		Company:           m.Company,
		Currency:          m.Currency,
		ConversionRate:    m.ConversionRate,
		Lines:             m.Lines,
		GrandTotal:        m.GrandTotal,
		OutstandingAmount: m.OutstandingAmount,
		Status:            billing.DocStatus(m.Status),
		PostingDate:       m.PostingDate,
		SubmittedAt:       m.SubmittedAt,
		CancelledAt:       m.CancelledAt,
	}
}

// FromDomain populates the model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.Customer = inv.Customer
	m.Company = inv.Company
	m.Currency = inv.Currency
	m.ConversionRate = inv.ConversionRate
	m.Lines = inv.Lines
	m.GrandTotal = inv.GrandTotal
	m.OutstandingAmount = inv.OutstandingAmount
	m.Status = string(inv.Status)
	m.PostingDate = inv.PostingDate
	m.SubmittedAt = inv.SubmittedAt
	m.CancelledAt = inv.CancelledAt
}

// PaymentEntryModel is the persistence model for billing.PaymentEntry
type PaymentEntryModel struct {
	AggregateModel
	PaymentNumber      string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	Party              string          `gorm:"type:varchar(140);not null;index"`
	Company            string          `gorm:"type:varchar(140)"`
	ModeOfPayment      string          `gorm:"type:varchar(140);not null"`
	PaidFrom           string          `gorm:"type:varchar(140);not null"`
	PaidTo             string          `gorm:"type:varchar(140);not null"`
	PaidFromCurrency   string          `gorm:"type:varchar(10)"`
	PaidToCurrency     string          `gorm:"type:varchar(10)"`
	PaidAmount         decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	ReceivedAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	SourceExchangeRate decimal.Decimal `gorm:"type:decimal(21,9);not null;default:1"`
	TargetExchangeRate decimal.Decimal `gorm:"type:decimal(21,9);not null;default:1"`
	ReferenceNo        string          `gorm:"type:varchar(140)"`
	ReferenceDate      *time.Time
	InvoiceID          *uuid.UUID      `gorm:"type:uuid;index"`
	AllocatedAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Remarks            string          `gorm:"type:text"`
	Status             string          `gorm:"type:varchar(20);not null;index"`
	PostingDate        time.Time       `gorm:"not null"`
	SubmittedAt        *time.Time
}

// TableName specifies the database table name
func (PaymentEntryModel) TableName() string {
	return "payment_entries"
}

// ToDomain converts the model to a domain PaymentEntry
func (m *PaymentEntryModel) ToDomain() *billing.PaymentEntry {
	return &billing.PaymentEntry{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		PaymentNumber:      m.PaymentNumber,
		Party:              m.Party,
		Company:            m.Company,
		ModeOfPayment:      m.ModeOfPayment,
		PaidFrom:           m.PaidFrom,
		PaidTo:             m.PaidTo,
		PaidFromCurrency:   m.PaidFromCurrency,
		PaidToCurrency:     m.PaidToCurrency,
		PaidAmount:         m.PaidAmount,
		ReceivedAmount:     m.ReceivedAmount,
		SourceExchangeRate: m.SourceExchangeRate,
		TargetExchangeRate: m.TargetExchangeRate,
		ReferenceNo:        m.ReferenceNo,
		ReferenceDate:      m.ReferenceDate,
		InvoiceID:          m.InvoiceID,
		AllocatedAmount:    m.AllocatedAmount,
		Remarks:            m.Remarks,
		Status:             billing.DocStatus(m.Status),
		PostingDate:        m.PostingDate,
		SubmittedAt:        m.SubmittedAt,
	}
}

// FromDomain populates the model from a domain PaymentEntry
func (m *PaymentEntryModel) FromDomain(p *billing.PaymentEntry) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.Party = p.Party
	m.Company = p.Company
	m.ModeOfPayment = p.ModeOfPayment
	m.PaidFrom = p.PaidFrom
	m.PaidTo = p.PaidTo
	m.PaidFromCurrency = p.PaidFromCurrency
	m.PaidToCurrency = p.PaidToCurrency
	m.PaidAmount = p.PaidAmount
	m.ReceivedAmount = p.ReceivedAmount
	m.SourceExchangeRate = p.SourceExchangeRate
	m.TargetExchangeRate = p.TargetExchangeRate
	m.ReferenceNo = p.ReferenceNo
	m.ReferenceDate = p.ReferenceDate
	m.InvoiceID = p.InvoiceID
	m.AllocatedAmount = p.AllocatedAmount
	m.Remarks = p.Remarks
	m.Status = string(p.Status)
	m.PostingDate = p.PostingDate
	m.SubmittedAt = p.SubmittedAt
}

// QuotationModel is the persistence model for billing.Quotation
type QuotationModel struct {
	AggregateModel
	QuotationNumber string               `gorm:"type:varchar(50);uniqueIndex;not null"`
	Customer        string               `gorm:"type:varchar(140);not null;index"`
	Company         string               `gorm:"type:varchar(140)"`
	Currency        string               `gorm:"type:varchar(10);not null"`
	Lines           billing.InvoiceLines `gorm:"type:jsonb;not null"`
	GrandTotal      decimal.Decimal      `gorm:"type:decimal(15,2);not null"`
	Status          string               `gorm:"type:varchar(20);not null;index"`
	ValidUntil      *time.Time
	InvoiceID       *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName specifies the database table name
func (QuotationModel) TableName() string {
	return "quotations"
}

// ToDomain converts the model to a domain Quotation
func (m *QuotationModel) ToDomain() *billing.Quotation {
	return &billing.Quotation{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		QuotationNumber:   m.QuotationNumber,
		Customer:          m.Customer,
		Company:           m.Company,
		Currency:          m.Currency,
		Lines:             m.Lines,
		GrandTotal:        m.GrandTotal,
		Status:            billing.DocStatus(m.Status),
		ValidUntil:        m.ValidUntil,
		InvoiceID:         m.InvoiceID,
	}
}

// FromDomain populates the model from a domain Quotation
func (m *QuotationModel) FromDomain(q *billing.Quotation) {
	m.FromDomainAggregateRoot(q.BaseAggregateRoot)
	m.QuotationNumber = q.QuotationNumber
	m.Customer = q.Customer
	m.Company = q.Company
	m.Currency = q.Currency
	m.Lines = q.Lines
	m.GrandTotal = q.GrandTotal
	m.Status = string(q.Status)
	m.ValidUntil = q.ValidUntil
	m.InvoiceID = q.InvoiceID
}

// AccountModel is the persistence model for billing.Account
type AccountModel struct {
	BaseModel
	Name     string `gorm:"type:varchar(140);uniqueIndex;not null"`
	Company  string `gorm:"type:varchar(140);index"`
	Type     string `gorm:"type:varchar(20);not null;index"`
	Currency string `gorm:"type:varchar(10);not null"`
	Disabled bool   `gorm:"not null;default:false"`
}

// TableName specifies the database table name
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the model to a domain Account
func (m *AccountModel) ToDomain() *billing.Account {
	return &billing.Account{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Company:    m.Company,
		Type:       billing.AccountType(m.Type),
		Currency:   m.Currency,
		Disabled:   m.Disabled,
	}
}

// FromDomain populates the model from a domain Account
func (m *AccountModel) FromDomain(a *billing.Account) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Name = a.Name
	m.Company = a.Company
	m.Type = string(a.Type)
	m.Currency = a.Currency
	m.Disabled = a.Disabled
}

// ModeOfPaymentModel is the persistence model for billing.ModeOfPayment
type ModeOfPaymentModel struct {
	BaseModel
	Name    string `gorm:"type:varchar(140);uniqueIndex;not null"`
	Type    string `gorm:"type:varchar(20);not null"`
	Account string `gorm:"type:varchar(140)"`
	Enabled bool   `gorm:"not null;default:true"`
}

// TableName specifies the database table name
func (ModeOfPaymentModel) TableName() string {
	return "modes_of_payment"
}

// ToDomain converts the model to a domain ModeOfPayment
func (m *ModeOfPaymentModel) ToDomain() *billing.ModeOfPayment {
	return &billing.ModeOfPayment{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Type:       billing.AccountType(m.Type),
		Account:    m.Account,
		Enabled:    m.Enabled,
	}
}

// FromDomain populates the model from a domain ModeOfPayment
func (m *ModeOfPaymentModel) FromDomain(mp *billing.ModeOfPayment) {
	m.FromDomainBaseEntity(mp.BaseEntity)
	m.Name = mp.Name
	m.Type = string(mp.Type)
	m.Account = mp.Account
	m.Enabled = mp.Enabled
}
