package pos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/havano/pos-backend/internal/domain/billing"
	"github.com/havano/pos-backend/internal/domain/shared"
	"github.com/havano/pos-backend/internal/infrastructure/accounts"
	"github.com/havano/pos-backend/internal/infrastructure/config"
	"github.com/havano/pos-backend/internal/infrastructure/exchange"
)

// ModeMulti is the sentinel payment method signalling that the real
// breakdown is encoded in the note as "method:amount,method:amount".
const ModeMulti = "Multi"

// maxReportedFailures caps the per-allocation error list shown to callers
const maxReportedFailures = 5

// AccountResolver decides payment account routing
type AccountResolver interface {
	Resolve(ctx context.Context, modeOfPayment string) (*accounts.Resolution, error)
}

// Allocation is one method/amount pair of a settlement
type Allocation struct {
	ModeOfPayment string
	Amount        decimal.Decimal
}

// AllocationFailure reports one abandoned allocation
type AllocationFailure struct {
	ModeOfPayment string `json:"mode_of_payment"`
	Message       string `json:"message"`
}

// SettlementRequest asks for payments to be reconciled against an invoice
type SettlementRequest struct {
	InvoiceID     uuid.UUID
	Customer      string
	ModeOfPayment string
	Amount        decimal.Decimal
	Note          string
	Breakdown     []Allocation
}

// SettlementResult is the outcome of one settlement call
type SettlementResult struct {
	Payments []*billing.PaymentEntry
	Failures []AllocationFailure
	Settled  bool
}

// SettlementService reconciles payment allocations against invoices.
// Each allocation produces at most one payment entry; partial success
// is acceptable, but a call that produces no entries at all rolls back.
type SettlementService struct {
	invoices billing.InvoiceRepository
	payments billing.PaymentEntryRepository
	resolver AccountResolver
	rates    exchange.RateProvider
	tx       shared.TxManager
	company  *config.CompanyConfig
	logger   *zap.Logger
}

// NewSettlementService creates a settlement service
func NewSettlementService(
	invoices billing.InvoiceRepository,
	payments billing.PaymentEntryRepository,
	resolver AccountResolver,
	rates exchange.RateProvider,
	tx shared.TxManager,
	company *config.CompanyConfig,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		invoices: invoices,
		payments: payments,
		resolver: resolver,
		rates:    rates,
		tx:       tx,
		company:  company,
		logger:   logger.Named("settlement"),
	}
}

// Settle reconciles the requested allocations against the invoice.
// An already-settled invoice is a no-op, which makes redelivered
// settlement tasks harmless.
func (s *SettlementService) Settle(ctx context.Context, req SettlementRequest) (*SettlementResult, error) {
	invoice, err := s.invoices.FindByID(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.ErrNotFound
	}
	if !invoice.IsSubmitted() {
		return nil, shared.NewDomainError("PREREQUISITE_NOT_MET", "Invoice must be submitted before payment")
	}
	if invoice.OutstandingAmount.LessThanOrEqual(decimal.Zero) {
		s.logger.Info("invoice already settled, nothing to do",
			zap.String("invoice_number", invoice.InvoiceNumber))
		return &SettlementResult{Settled: true}, nil
	}

	allocations, err := normalizeAllocations(req)
	if err != nil {
		return nil, err
	}
	allocations = scaleToOutstanding(allocations, invoice.OutstandingAmount)

	result := &SettlementResult{}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		remaining := invoice.OutstandingAmount
		for _, alloc := range allocations {
			amount := alloc.Amount
			if amount.GreaterThan(remaining) {
				amount = remaining
			}
			if amount.LessThanOrEqual(decimal.Zero) {
				continue
			}

			entry, err := s.settleOne(ctx, invoice, alloc.ModeOfPayment, amount, req)
			if err != nil {
				if errors.Is(err, shared.ErrAccountConfiguration) {
					return err
				}
				result.recordFailure(alloc.ModeOfPayment, err)
				continue
			}

			if err := invoice.ApplyAllocation(amount); err != nil {
				result.recordFailure(alloc.ModeOfPayment, err)
				continue
			}
			remaining = remaining.Sub(amount)
			result.Payments = append(result.Payments, entry)
		}

		if len(result.Payments) == 0 {
			return shared.NewDomainError("SETTLEMENT_FAILED",
				fmt.Sprintf("No payment could be recorded: %s", result.failureSummary()))
		}
		return s.invoices.Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	result.Settled = invoice.IsSettled()
	s.logger.Info("settlement completed",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int("payments", len(result.Payments)),
		zap.Int("failures", len(result.Failures)),
		zap.Bool("settled", result.Settled))
	return result, nil
}

// settleOne creates and submits one payment entry. A failed submit
// deletes the draft, recreates it once without link validation, and
// retries; a second failure abandons the allocation. No half-submitted
// entry is ever left behind.
func (s *SettlementService) settleOne(ctx context.Context, invoice *billing.Invoice, mode string, amount decimal.Decimal, req SettlementRequest) (*billing.PaymentEntry, error) {
	resolution, err := s.resolver.Resolve(ctx, mode)
	if err != nil {
		return nil, err
	}

	party := req.Customer
	if party == "" {
		party = invoice.Customer
	}
	number, err := s.payments.GeneratePaymentNumber(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := billing.NewPaymentEntry(number, party, s.company.Name, mode, amount)
	if err != nil {
		return nil, err
	}
	entry.SetAccounts(resolution.PaidFrom, resolution.PaidTo, resolution.PaidFromCurrency, resolution.PaidToCurrency)

	now := time.Now()
	rate := exchange.RateOrFallback(ctx, s.rates, resolution.PaidFromCurrency, resolution.PaidToCurrency, now, s.logger)
	entry.SetExchange(rate)
	entry.EnsureReference(resolution.DestinationType, now)
	entry.Remarks = req.Note
	if err := entry.AllocateToInvoice(invoice.ID, amount); err != nil {
		return nil, err
	}

	opts := shared.InsertOptions{SkipLinkValidation: resolution.SkipLinkValidation}
	if err := s.payments.Create(ctx, entry, opts); err != nil {
		if opts.SkipLinkValidation {
			return nil, err
		}
		opts.SkipLinkValidation = true
		if err := s.payments.Create(ctx, entry, opts); err != nil {
			return nil, err
		}
	}

	if err := s.submitAndSave(ctx, entry); err != nil {
		if delErr := s.payments.Delete(ctx, entry.ID); delErr != nil {
			s.logger.Warn("failed to delete abandoned payment draft",
				zap.String("payment_number", entry.PaymentNumber), zap.Error(delErr))
		}

		retry := *entry
		retry.BaseAggregateRoot = shared.NewBaseAggregateRoot()
		retry.Status = billing.DocStatusDraft
		retry.SubmittedAt = nil
		if err := s.payments.Create(ctx, &retry, shared.InsertOptions{SkipLinkValidation: true}); err != nil {
			return nil, err
		}
		if err := s.submitAndSave(ctx, &retry); err != nil {
			if delErr := s.payments.Delete(ctx, retry.ID); delErr != nil {
				s.logger.Warn("failed to delete abandoned payment draft",
					zap.String("payment_number", retry.PaymentNumber), zap.Error(delErr))
			}
			return nil, err
		}
		return &retry, nil
	}
	return entry, nil
}

func (s *SettlementService) submitAndSave(ctx context.Context, entry *billing.PaymentEntry) error {
	if err := entry.Submit(); err != nil {
		return err
	}
	return s.payments.Save(ctx, entry)
}

func (r *SettlementResult) recordFailure(mode string, err error) {
	if len(r.Failures) >= maxReportedFailures {
		return
	}
	r.Failures = append(r.Failures, AllocationFailure{ModeOfPayment: mode, Message: err.Error()})
}

func (r *SettlementResult) failureSummary() string {
	if len(r.Failures) == 0 {
		return "no allocations were attempted"
	}
	parts := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.ModeOfPayment, f.Message))
	}
	return strings.Join(parts, "; ")
}

// normalizeAllocations turns the request into an ordered allocation
// list: an explicit breakdown wins, the Multi sentinel parses the note,
// anything else is a single pair.
func normalizeAllocations(req SettlementRequest) ([]Allocation, error) {
	if len(req.Breakdown) > 0 {
		return req.Breakdown, nil
	}
	if req.ModeOfPayment == ModeMulti {
		return parseNoteBreakdown(req.Note)
	}
	if req.ModeOfPayment == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment method is required")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment amount must be greater than 0")
	}
	return []Allocation{{ModeOfPayment: req.ModeOfPayment, Amount: req.Amount}}, nil
}

// parseNoteBreakdown parses "Cash:20,Card:15.50" into allocations
func parseNoteBreakdown(note string) ([]Allocation, error) {
	parts := strings.Split(note, ",")
	allocations := make([]Allocation, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		method, amountStr, found := strings.Cut(part, ":")
		if !found {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Cannot parse payment breakdown segment %q", part))
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(amountStr))
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid amount in payment breakdown segment %q", part))
		}
		allocations = append(allocations, Allocation{
			ModeOfPayment: strings.TrimSpace(method),
			Amount:        amount,
		})
	}
	if len(allocations) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment note contains no breakdown")
	}
	return allocations, nil
}

// scaleToOutstanding shrinks allocations proportionally when their sum
// exceeds the outstanding amount. Scaled amounts are rounded to cents;
// the last allocation absorbs the rounding residue so the sum equals
// the outstanding amount exactly.
func scaleToOutstanding(allocations []Allocation, outstanding decimal.Decimal) []Allocation {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.Amount)
	}
	if total.LessThanOrEqual(outstanding) || total.IsZero() {
		return allocations
	}

	factor := outstanding.Div(total)
	scaled := make([]Allocation, len(allocations))
	running := decimal.Zero
	for i, a := range allocations {
		if i == len(allocations)-1 {
			scaled[i] = Allocation{ModeOfPayment: a.ModeOfPayment, Amount: outstanding.Sub(running)}
			break
		}
		amount := a.Amount.Mul(factor).Round(2)
		scaled[i] = Allocation{ModeOfPayment: a.ModeOfPayment, Amount: amount}
		running = running.Add(amount)
	}
	return scaled
}
