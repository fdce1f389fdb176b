package pos

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/havano/pos-backend/internal/domain/billing"
	"github.com/havano/pos-backend/internal/domain/shared"
)

func newSettlementService(invoices *mockInvoiceRepo, payments *mockPaymentRepo, resolver AccountResolver) *SettlementService {
	return NewSettlementService(invoices, payments, resolver, fixedRates{rate: decimal.NewFromInt(1)}, passthroughTx{}, testCompany(), testLogger())
}

func TestSettlementService_Settle(t *testing.T) {
	ctx := context.Background()

	t.Run("single mode settles invoice in full", func(t *testing.T) {
		invoice := submittedInvoice("Walk-in Customer", "USD", "35.00")
		invoices := new(mockInvoiceRepo)
		payments := new(mockPaymentRepo)
		invoices.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		invoices.On("Save", ctx, invoice).Return(nil)
		payments.On("GeneratePaymentNumber", ctx).Return("PAY-20260830-0001", nil)
		payments.On("Create", ctx, mock.Anything, shared.InsertOptions{}).Return(nil)
		payments.On("Save", ctx, mock.Anything).Return(nil)

		svc := newSettlementService(invoices, payments, cashResolver())
		result, err := svc.Settle(ctx, SettlementRequest{
			InvoiceID:     invoice.ID,
			ModeOfPayment: "Cash",
			Amount:        dec("35.00"),
		})

		require.NoError(t, err)
		require.Len(t, result.Payments, 1)
		assert.True(t, result.Settled)
		assert.Empty(t, result.Failures)
		assert.Equal(t, billing.DocStatusSubmitted, result.Payments[0].Status)
		assert.True(t, invoice.OutstandingAmount.IsZero())
	})

	t.Run("overpayment is capped at the outstanding amount", func(t *testing.T) {
		invoice := submittedInvoice("Walk-in Customer", "USD", "20.00")
		invoices := new(mockInvoiceRepo)
		payments := new(mockPaymentRepo)
		invoices.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		invoices.On("Save", ctx, invoice).Return(nil)
		payments.On("GeneratePaymentNumber", ctx).Return("PAY-20260830-0002", nil)
		payments.On("Create", ctx, mock.Anything, shared.InsertOptions{}).Return(nil)
		payments.On("Save", ctx, mock.Anything).Return(nil)

		svc := newSettlementService(invoices, payments, cashResolver())
		result, err := svc.Settle(ctx, SettlementRequest{
			InvoiceID:     invoice.ID,
			ModeOfPayment: "Cash",
			Amount:        dec("50.00"),
		})

		require.NoError(t, err)
		require.Len(t, result.Payments, 1)
		assert.True(t, result.Payments[0].PaidAmount.Equal(dec("20.00")))
		assert.True(t, result.Settled)
	})

	t.Run("multi note breakdown creates one entry per method", func(t *testing.T) {
		invoice := submittedInvoice("Walk-in Customer", "USD", "35.50")
		invoices := new(mockInvoiceRepo)
		payments := new(mockPaymentRepo)
		invoices.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		invoices.On("Save", ctx, invoice).Return(nil)
		payments.On("GeneratePaymentNumber", ctx).Return("PAY-20260830-0003", nil)
		payments.On("Create", ctx, mock.Anything, shared.InsertOptions{}).Return(nil)
		payments.On("Save", ctx, mock.Anything).Return(nil)

		svc := newSettlementService(invoices, payments, cashResolver())
		result, err := svc.Settle(ctx, SettlementRequest{
			InvoiceID:     invoice.ID,
			ModeOfPayment: ModeMulti,
			Note:          "Cash:20,Card:15.50",
		})

		require.NoError(t, err)
		require.Len(t, result.Payments, 2)
		assert.Equal(t, "Cash", result.Payments[0].ModeOfPayment)
		assert.True(t, result.Payments[0].PaidAmount.Equal(dec("20")))
		assert.Equal(t, "Card", result.Payments[1].ModeOfPayment)
		assert.True(t, result.Payments[1].PaidAmount.Equal(dec("15.50")))
		assert.True(t, result.Settled)
	})

	t.Run("malformed multi note is rejected", func(t *testing.T) {
		invoice := submittedInvoice("Walk-in Customer", "USD", "10.00")
		invoices := new(mockInvoiceRepo)
		payments := new(mockPaymentRepo)
		invoices.On("FindByID", ctx, invoice.ID).Return(invoice, nil)

		svc := newSettlementService(invoices, payments, cashResolver())
		_, err := svc.Settle(ctx, SettlementRequest{
			InvoiceID:     invoice.ID,
			ModeOfPayment: ModeMulti,
			Note:          "Cash twenty",
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
		payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already settled invoice is a no-op", func(t *testing.T) {
		invoice := submittedInvoice("Walk-in Customer", "USD", "10.00")
		require.NoError(t, invoice.ApplyAllocation(dec("10.00")))
		invoices := new(mockInvoiceRepo)
		payments := new(mockPaymentRepo)
		invoices.On("FindByID", ctx, invoice.ID).Return(invoice, nil)

		svc := newSettlementService(invoices, payments, cashResolver())
		result, err := svc.Settle(ctx, SettlementRequest{
			InvoiceID:     invoice.ID,
			ModeOfPayment: "Cash",
			Amount:        dec("10.00"),
		})

		require.NoError(t, err)
		assert.True(t, result.Settled)
		assert.Empty(t, result.Payments)
		payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("draft invoice cannot be settled", func(t *testing.T) {
		invoice := submittedInvoice("Walk-in Customer", "USD", "10.00")
		invoice.Status = billing.DocStatusDraft
		invoices := new(mockInvoiceRepo)
		payments := new(mockPaymentRepo)
		invoices.On("FindByID", ctx, invoice.ID).Return(invoice, nil)

		svc := newSettlementService(invoices, payments, cashResolver())
		_, err := svc.Settle(ctx, SettlementRequest{
			InvoiceID:     invoice.ID,
			ModeOfPayment: "Cash",
			Amount:        dec("10.00"),
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "PREREQUISITE_NOT_MET", domainErr.Code)
	})

	t.Run("missing receivable account aborts the whole settlement", func(t *testing.T) {
		invoice := submittedInvoice("Walk-in Customer", "USD", "30.00")
		invoices := new(mockInvoiceRepo)
		payments := new(mockPaymentRepo)
		invoices.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		payments.On("GeneratePaymentNumber", ctx).Return("PAY-20260830-0004", nil)

		svc := newSettlementService(invoices, payments, &stubResolver{err: shared.ErrAccountConfiguration})
		_, err := svc.Settle(ctx, SettlementRequest{
			InvoiceID: invoice.ID,
			Breakdown: []Allocation{
				{ModeOfPayment: "Cash", Amount: dec("20.00")},
				{ModeOfPayment: "Card", Amount: dec("10.00")},
			},
		})

		require.ErrorIs(t, err, shared.ErrAccountConfiguration)
		payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed allocation does not block siblings", func(t *testing.T) {
		invoice := submittedInvoice("Walk-in Customer", "USD", "30.00")
		invoices := new(mockInvoiceRepo)
		payments := new(mockPaymentRepo)
		invoices.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		invoices.On("Save", ctx, invoice).Return(nil)
		payments.On("GeneratePaymentNumber", ctx).Return("PAY-20260830-0005", nil)

		// First allocation fails both with and without link validation,
		// second succeeds.
		boom := errors.New("insert failed")
		payments.On("Create", ctx, mock.MatchedBy(func(e *billing.PaymentEntry) bool {
			return e.ModeOfPayment == "Voucher"
		}), mock.Anything).Return(boom)
		payments.On("Create", ctx, mock.MatchedBy(func(e *billing.PaymentEntry) bool {
			return e.ModeOfPayment == "Cash"
		}), mock.Anything).Return(nil)
		payments.On("Save", ctx, mock.Anything).Return(nil)

		svc := newSettlementService(invoices, payments, cashResolver())
		result, err := svc.Settle(ctx, SettlementRequest{
			InvoiceID: invoice.ID,
			Breakdown: []Allocation{
				{ModeOfPayment: "Voucher", Amount: dec("10.00")},
				{ModeOfPayment: "Cash", Amount: dec("20.00")},
			},
		})

		require.NoError(t, err)
		require.Len(t, result.Payments, 1)
		assert.Equal(t, "Cash", result.Payments[0].ModeOfPayment)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "Voucher", result.Failures[0].ModeOfPayment)
		assert.False(t, result.Settled)
		assert.True(t, invoice.OutstandingAmount.Equal(dec("10.00")))
	})

	t.Run("all allocations failing rolls back", func(t *testing.T) {
		invoice := submittedInvoice("Walk-in Customer", "USD", "30.00")
		invoices := new(mockInvoiceRepo)
		payments := new(mockPaymentRepo)
		invoices.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		payments.On("GeneratePaymentNumber", ctx).Return("PAY-20260830-0006", nil)
		payments.On("Create", ctx, mock.Anything, mock.Anything).Return(errors.New("insert failed"))

		svc := newSettlementService(invoices, payments, cashResolver())
		_, err := svc.Settle(ctx, SettlementRequest{
			InvoiceID:     invoice.ID,
			ModeOfPayment: "Cash",
			Amount:        dec("30.00"),
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "SETTLEMENT_FAILED", domainErr.Code)
		invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("failed submit retries once without link validation", func(t *testing.T) {
		invoice := submittedInvoice("Walk-in Customer", "USD", "25.00")
		invoices := new(mockInvoiceRepo)
		payments := new(mockPaymentRepo)
		invoices.On("FindByID", ctx, invoice.ID).Return(invoice, nil)
		invoices.On("Save", ctx, invoice).Return(nil)
		payments.On("GeneratePaymentNumber", ctx).Return("PAY-20260830-0007", nil)
		payments.On("Create", ctx, mock.Anything, shared.InsertOptions{}).Return(nil)
		payments.On("Create", ctx, mock.Anything, shared.InsertOptions{SkipLinkValidation: true}).Return(nil)
		payments.On("Save", ctx, mock.Anything).Return(errors.New("link validation failed")).Once()
		payments.On("Save", ctx, mock.Anything).Return(nil)
		payments.On("Delete", ctx, mock.Anything).Return(nil)

		svc := newSettlementService(invoices, payments, cashResolver())
		result, err := svc.Settle(ctx, SettlementRequest{
			InvoiceID:     invoice.ID,
			ModeOfPayment: "Cash",
			Amount:        dec("25.00"),
		})

		require.NoError(t, err)
		require.Len(t, result.Payments, 1)
		assert.True(t, result.Settled)
		payments.AssertCalled(t, "Delete", ctx, mock.Anything)
		payments.AssertCalled(t, "Create", ctx, mock.Anything, shared.InsertOptions{SkipLinkValidation: true})
	})
}

func TestScaleToOutstanding(t *testing.T) {
	t.Run("sum within outstanding is untouched", func(t *testing.T) {
		allocations := []Allocation{
			{ModeOfPayment: "Cash", Amount: dec("10")},
			{ModeOfPayment: "Card", Amount: dec("15")},
		}
		scaled := scaleToOutstanding(allocations, dec("30"))
		assert.Equal(t, allocations, scaled)
	})

	t.Run("sum above outstanding scales proportionally", func(t *testing.T) {
		allocations := []Allocation{
			{ModeOfPayment: "Cash", Amount: dec("60")},
			{ModeOfPayment: "Card", Amount: dec("40")},
		}
		scaled := scaleToOutstanding(allocations, dec("50"))
		assert.True(t, scaled[0].Amount.Equal(dec("30")))
		assert.True(t, scaled[1].Amount.Equal(dec("20")))
	})

	t.Run("last allocation absorbs the rounding residue", func(t *testing.T) {
		allocations := []Allocation{
			{ModeOfPayment: "Cash", Amount: dec("10")},
			{ModeOfPayment: "Card", Amount: dec("10")},
			{ModeOfPayment: "Bank", Amount: dec("10")},
		}
		scaled := scaleToOutstanding(allocations, dec("10"))
		total := decimal.Zero
		for _, a := range scaled {
			total = total.Add(a.Amount)
		}
		assert.True(t, total.Equal(dec("10")))
		assert.True(t, scaled[2].Amount.Equal(dec("10").Sub(scaled[0].Amount).Sub(scaled[1].Amount)))
	})
}

func TestNormalizeAllocations(t *testing.T) {
	t.Run("explicit breakdown wins over mode and note", func(t *testing.T) {
		allocations, err := normalizeAllocations(SettlementRequest{
			ModeOfPayment: ModeMulti,
			Note:          "Cash:5",
			Breakdown:     []Allocation{{ModeOfPayment: "Card", Amount: dec("12")}},
		})
		require.NoError(t, err)
		require.Len(t, allocations, 1)
		assert.Equal(t, "Card", allocations[0].ModeOfPayment)
	})

	t.Run("missing mode is rejected", func(t *testing.T) {
		_, err := normalizeAllocations(SettlementRequest{Amount: dec("10")})
		require.Error(t, err)
	})

	t.Run("non positive amount is rejected", func(t *testing.T) {
		_, err := normalizeAllocations(SettlementRequest{ModeOfPayment: "Cash", Amount: dec("0")})
		require.Error(t, err)
	})

	t.Run("note segments tolerate whitespace", func(t *testing.T) {
		allocations, err := parseNoteBreakdown(" Cash : 20 , Card : 15.50 ")
		require.NoError(t, err)
		require.Len(t, allocations, 2)
		assert.Equal(t, "Cash", allocations[0].ModeOfPayment)
		assert.True(t, allocations[1].Amount.Equal(dec("15.50")))
	})
}
