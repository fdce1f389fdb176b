package queue

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/havano/pos-backend/internal/domain/shared"
)

// TypePaymentSettle identifies the background payment settlement task
const TypePaymentSettle = "payment:settle"

var validate = validator.New()

// PaymentAllocation is one method/amount pair of a split payment
type PaymentAllocation struct {
	ModeOfPayment string          `json:"mode_of_payment" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
}

// SettlePaymentPayload is the task payload for background settlement.
// Task payloads bypass HTTP binding, so they carry their own validation.
type SettlePaymentPayload struct {
	InvoiceID     uuid.UUID           `json:"invoice_id" validate:"required"`
	Customer      string              `json:"customer" validate:"required"`
	ModeOfPayment string              `json:"mode_of_payment" validate:"required"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      string              `json:"currency"`
	PaymentNote   string              `json:"payment_note,omitempty"`
	Breakdown     []PaymentAllocation `json:"breakdown,omitempty"`
}

// Validate checks the payload before it is handed to the settlement engine
func (p *SettlePaymentPayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return shared.NewDomainError("INVALID_PAYLOAD", err.Error())
	}
	if p.InvoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_PAYLOAD", "invoice_id is required")
	}
	if len(p.Breakdown) == 0 && p.Amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_PAYLOAD", "amount must be positive when no breakdown is given")
	}
	for _, alloc := range p.Breakdown {
		if alloc.Amount.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_PAYLOAD", "breakdown amounts must be positive")
		}
	}
	return nil
}

// NewSettlePaymentTask builds the asynq task for a settlement payload
func NewSettlePaymentTask(payload SettlePaymentPayload) (*asynq.Task, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePaymentSettle, b), nil
}
