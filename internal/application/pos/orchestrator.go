package pos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/havano/pos-backend/internal/domain/billing"
	"github.com/havano/pos-backend/internal/domain/ordering"
	"github.com/havano/pos-backend/internal/domain/shared"
	"github.com/havano/pos-backend/internal/infrastructure/config"
	"github.com/havano/pos-backend/internal/infrastructure/exchange"
	"github.com/havano/pos-backend/internal/infrastructure/queue"
)

// Document types accepted by transaction-level operations
const (
	DocTypeSalesInvoice = "Sales Invoice"
	DocTypeQuotation    = "Quotation"
)

// OrderPaymentRequest is the synchronous order-plus-payment payload
type OrderPaymentRequest struct {
	CreateOrderRequest
	Amount        decimal.Decimal
	ModeOfPayment string
	Note          string
}

// OrderPaymentResult reports the documents the synchronous flow created
type OrderPaymentResult struct {
	OrderID       uuid.UUID
	OrderNumber   string
	InvoiceNumber string
	PaymentNumber string
}

// TransactionPaymentRequest asks for a payment against an existing document
type TransactionPaymentRequest struct {
	DocType       string
	DocName       string
	Amount        decimal.Decimal
	ModeOfPayment string
	Note          string
	Breakdown     []Allocation
}

// InvoicePaymentRequest is the payload for invoice-plus-queued-payment
type InvoicePaymentRequest struct {
	Customer              string
	Lines                 []CartLine
	Breakdown             []Allocation
	MultiCurrencyPayments []CurrencyPayment
	Note                  string
	OrderPayload          *CreateOrderRequest
}

// InvoicePaymentResult reports the invoice, the queue job (when the
// task was queued) and the inline settlement outcome.
type InvoicePaymentResult struct {
	InvoiceNumber string
	JobID         string
	Settlement    *SettlementResult
	OrderID       uuid.UUID
}

// TransactionRequest creates a standalone financial document
type TransactionRequest struct {
	DocType      string
	Customer     string
	Lines        []CartLine
	OrderPayload *CreateOrderRequest
}

// TransactionResult reports the created document
type TransactionResult struct {
	Name    string
	OrderID uuid.UUID
}

// Orchestrator composes the invoice builder, settlement engine and
// order lifecycle into the user-facing settlement flows.
type Orchestrator struct {
	orders     ordering.OrderRepository
	invoices   billing.InvoiceRepository
	payments   billing.PaymentEntryRepository
	quotations billing.QuotationRepository
	orderSv    *OrderService
	invoiceSv  *InvoiceService
	settlement *SettlementService
	customers  *CustomerService
	resolver   AccountResolver
	rates      exchange.RateProvider
	enqueuer   queue.JobEnqueuer
	tx         shared.TxManager
	company    *config.CompanyConfig
	logger     *zap.Logger
}

// NewOrchestrator creates a settlement orchestrator. A nil enqueuer
// disables the background path; every flow then settles inline.
func NewOrchestrator(
	orders ordering.OrderRepository,
	invoices billing.InvoiceRepository,
	payments billing.PaymentEntryRepository,
	quotations billing.QuotationRepository,
	orderSv *OrderService,
	invoiceSv *InvoiceService,
	settlement *SettlementService,
	customers *CustomerService,
	resolver AccountResolver,
	rates exchange.RateProvider,
	enqueuer queue.JobEnqueuer,
	tx shared.TxManager,
	company *config.CompanyConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		orders:     orders,
		invoices:   invoices,
		payments:   payments,
		quotations: quotations,
		orderSv:    orderSv,
		invoiceSv:  invoiceSv,
		settlement: settlement,
		customers:  customers,
		resolver:   resolver,
		rates:      rates,
		enqueuer:   enqueuer,
		tx:         tx,
		company:    company,
		logger:     logger.Named("orchestrator"),
	}
}

// CreateOrderAndPayment runs the synchronous order-plus-payment flow.
// The payment draft is inserted before the order and invoice exist,
// preserving confirmed-funds-first ordering, but the whole flow lives
// in one transaction: a failure at any step leaves no document behind,
// so no orphaned payment can survive a crash.
func (o *Orchestrator) CreateOrderAndPayment(ctx context.Context, req OrderPaymentRequest) (*OrderPaymentResult, error) {
	if req.ModeOfPayment == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment method is required")
	}
	orderLines, err := toOrderLines(req.Lines)
	if err != nil {
		return nil, err
	}
	amount := req.Amount
	if amount.LessThanOrEqual(decimal.Zero) {
		amount = decimal.Zero
		for _, line := range orderLines {
			amount = amount.Add(line.Amount)
		}
	}

	customer, err := o.customers.Ensure(ctx, req.CustomerName)
	if err != nil {
		return nil, err
	}
	resolution, err := o.resolver.Resolve(ctx, req.ModeOfPayment)
	if err != nil {
		return nil, err
	}

	var result OrderPaymentResult
	err = o.tx.WithinTx(ctx, func(ctx context.Context) error {
		paymentNumber, err := o.payments.GeneratePaymentNumber(ctx)
		if err != nil {
			return err
		}
		entry, err := billing.NewPaymentEntry(paymentNumber, customer.Name, o.company.Name, req.ModeOfPayment, amount)
		if err != nil {
			return err
		}
		entry.SetAccounts(resolution.PaidFrom, resolution.PaidTo, resolution.PaidFromCurrency, resolution.PaidToCurrency)
		now := time.Now()
		entry.SetExchange(exchange.RateOrFallback(ctx, o.rates, resolution.PaidFromCurrency, resolution.PaidToCurrency, now, o.logger))
		entry.EnsureReference(resolution.DestinationType, now)
		entry.Remarks = req.Note
		if err := o.payments.Create(ctx, entry, shared.InsertOptions{SkipLinkValidation: resolution.SkipLinkValidation}); err != nil {
			return err
		}

		orderNumber, err := o.orders.GenerateOrderNumber(ctx)
		if err != nil {
			return err
		}
		order, err := ordering.NewOrder(orderNumber, req.OrderType, customer.Name, req.TableCode, req.Waiter, orderLines)
		if err != nil {
			return err
		}
		if err := o.orders.Create(ctx, order); err != nil {
			return err
		}

		invoice, err := o.invoiceSv.Build(ctx, customer.Name, req.Lines, nil, true)
		if err != nil {
			return err
		}

		allocated := amount
		if allocated.GreaterThan(invoice.OutstandingAmount) {
			allocated = invoice.OutstandingAmount
		}
		if err := entry.AllocateToInvoice(invoice.ID, allocated); err != nil {
			return err
		}
		if err := entry.Submit(); err != nil {
			return err
		}
		if err := o.payments.Save(ctx, entry); err != nil {
			return err
		}
		if err := invoice.ApplyAllocation(allocated); err != nil {
			return err
		}
		if err := o.invoices.Save(ctx, invoice); err != nil {
			return err
		}

		if err := order.AttachInvoice(invoice.ID); err != nil {
			return err
		}
		if err := order.MarkPaid(); err != nil {
			return err
		}
		order.Close()
		if err := o.orders.Save(ctx, order); err != nil {
			return err
		}

		result = OrderPaymentResult{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			InvoiceNumber: invoice.InvoiceNumber,
			PaymentNumber: entry.PaymentNumber,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.logger.Info("order and payment created",
		zap.String("order_number", result.OrderNumber),
		zap.String("invoice_number", result.InvoiceNumber))
	return &result, nil
}

// MakePaymentForTransaction settles an existing document, preferring
// the background queue. Returns the queue job identifier, or an empty
// string when the settlement ran inline.
func (o *Orchestrator) MakePaymentForTransaction(ctx context.Context, req TransactionPaymentRequest) (string, error) {
	invoice, err := o.resolveTargetInvoice(ctx, req.DocType, req.DocName)
	if err != nil {
		return "", err
	}

	payload := queue.SettlePaymentPayload{
		InvoiceID:     invoice.ID,
		Customer:      invoice.Customer,
		ModeOfPayment: req.ModeOfPayment,
		Amount:        req.Amount,
		Currency:      invoice.Currency,
		PaymentNote:   req.Note,
		Breakdown:     toPayloadBreakdown(req.Breakdown),
	}
	if payload.ModeOfPayment == "" && len(payload.Breakdown) > 0 {
		payload.ModeOfPayment = ModeMulti
	}

	return queue.TryAsyncElseInline(ctx, o.enqueuer, payload, func(ctx context.Context) error {
		return o.Settle(ctx, payload)
	}, o.logger)
}

// resolveTargetInvoice maps a document reference to its invoice.
// Quotations must already be converted; paying one directly fails.
func (o *Orchestrator) resolveTargetInvoice(ctx context.Context, docType, docName string) (*billing.Invoice, error) {
	switch docType {
	case DocTypeSalesInvoice:
		invoice, err := o.invoices.FindByInvoiceNumber(ctx, docName)
		if err != nil {
			return nil, err
		}
		if invoice == nil {
			return nil, shared.ErrNotFound
		}
		if !invoice.IsSubmitted() {
			return nil, shared.NewDomainError("PREREQUISITE_NOT_MET", "Invoice must be submitted before payment")
		}
		return invoice, nil
	case DocTypeQuotation:
		quotation, err := o.quotations.FindByQuotationNumber(ctx, docName)
		if err != nil {
			return nil, err
		}
		if quotation == nil {
			return nil, shared.ErrNotFound
		}
		if quotation.InvoiceID == nil {
			return nil, shared.NewDomainError("PREREQUISITE_NOT_MET", "Quotation must be converted to a sales invoice before payment")
		}
		invoice, err := o.invoices.FindByID(ctx, *quotation.InvoiceID)
		if err != nil {
			return nil, err
		}
		if invoice == nil {
			return nil, shared.ErrNotFound
		}
		return invoice, nil
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "Unsupported document type")
	}
}

// CreateInvoiceAndPaymentQueue creates the invoice synchronously so the
// caller always gets an invoice number, then tries to queue the payment
// and settles inline as well. Redelivery is harmless: a settled invoice
// is a settlement no-op, and order creation deduplicates on the invoice
// link.
func (o *Orchestrator) CreateInvoiceAndPaymentQueue(ctx context.Context, req InvoicePaymentRequest) (*InvoicePaymentResult, error) {
	customer, err := o.customers.Ensure(ctx, req.Customer)
	if err != nil {
		return nil, err
	}
	invoice, err := o.invoiceSv.Build(ctx, customer.Name, req.Lines, req.MultiCurrencyPayments, true)
	if err != nil {
		return nil, err
	}

	breakdown := req.Breakdown
	if len(breakdown) == 0 {
		for _, p := range req.MultiCurrencyPayments {
			breakdown = append(breakdown, Allocation{ModeOfPayment: p.ModeOfPayment, Amount: p.Amount})
		}
	}
	payload := queue.SettlePaymentPayload{
		InvoiceID:     invoice.ID,
		Customer:      customer.Name,
		ModeOfPayment: ModeMulti,
		Currency:      invoice.Currency,
		PaymentNote:   req.Note,
		Breakdown:     toPayloadBreakdown(breakdown),
	}

	result := &InvoicePaymentResult{InvoiceNumber: invoice.InvoiceNumber}
	if len(payload.Breakdown) > 0 {
		if o.enqueuer != nil {
			if jobID, err := o.enqueuer.Enqueue(ctx, payload); err == nil {
				result.JobID = jobID
			} else {
				o.logger.Warn("failed to enqueue settlement, relying on inline fallback",
					zap.String("invoice_number", invoice.InvoiceNumber), zap.Error(err))
			}
		}

		settlement, err := o.settlement.Settle(ctx, settlementRequestFromPayload(payload))
		if err != nil {
			o.logger.Error("inline settlement failed",
				zap.String("invoice_number", invoice.InvoiceNumber), zap.Error(err))
		} else {
			result.Settlement = settlement
		}
	}

	order, err := o.ensureOrderForInvoice(ctx, invoice, req.OrderPayload, result.Settlement != nil && result.Settlement.Settled)
	if err != nil {
		return nil, err
	}
	result.OrderID = order.ID
	return result, nil
}

// ensureOrderForInvoice returns the order linked to the invoice,
// creating one when none exists. The background worker and the inline
// fallback can race here; the lookup plus the duplicate recovery after
// a failed insert keep exactly one order per invoice.
func (o *Orchestrator) ensureOrderForInvoice(ctx context.Context, invoice *billing.Invoice, payload *CreateOrderRequest, paid bool) (*ordering.Order, error) {
	existing, err := o.orders.FindByInvoiceID(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	orderType := ordering.OrderTypeTakeAway
	tableCode, waiter := "", ""
	var lines []ordering.OrderLine
	if payload != nil {
		if payload.OrderType.IsValid() {
			orderType = payload.OrderType
		}
		tableCode = payload.TableCode
		waiter = payload.Waiter
		lines, err = toOrderLines(payload.Lines)
		if err != nil {
			return nil, err
		}
	} else {
		for _, line := range invoice.Lines {
			lines = append(lines, ordering.OrderLine{
				MenuItem: line.ItemCode,
				Qty:      line.Qty,
				Rate:     line.Rate,
				Amount:   line.Amount,
				Remark:   line.Remark,
			})
		}
	}

	number, err := o.orders.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}
	order, err := ordering.NewOrder(number, orderType, invoice.Customer, tableCode, waiter, lines)
	if err != nil {
		return nil, err
	}
	if err := order.AttachInvoice(invoice.ID); err != nil {
		return nil, err
	}
	if paid {
		if err := order.MarkPaid(); err != nil {
			return nil, err
		}
	}
	order.Close()

	if err := o.orders.Create(ctx, order); err != nil {
		// Unique index on invoice_id: a concurrent writer won the race.
		winner, findErr := o.orders.FindByInvoiceID(ctx, invoice.ID)
		if findErr == nil && winner != nil {
			o.logger.Info("recovered existing order after duplicate insert",
				zap.String("order_number", winner.OrderNumber),
				zap.String("invoice_number", invoice.InvoiceNumber))
			return winner, nil
		}
		return nil, err
	}

	if payload != nil && order.IsDineIn() && tableCode != "" {
		if err := o.orderSv.upsertTable(ctx, tableCode, waiter, invoice.Customer, order.ID); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// CreateTransaction creates a standalone sales invoice or quotation
func (o *Orchestrator) CreateTransaction(ctx context.Context, req TransactionRequest) (*TransactionResult, error) {
	customer, err := o.customers.Ensure(ctx, req.Customer)
	if err != nil {
		return nil, err
	}

	switch req.DocType {
	case DocTypeSalesInvoice:
		invoice, err := o.invoiceSv.Build(ctx, customer.Name, req.Lines, nil, true)
		if err != nil {
			return nil, err
		}
		order, err := o.ensureOrderForInvoice(ctx, invoice, req.OrderPayload, false)
		if err != nil {
			return nil, err
		}
		return &TransactionResult{Name: invoice.InvoiceNumber, OrderID: order.ID}, nil

	case DocTypeQuotation:
		quotationLines := toQuotationLines(req.Lines)
		number, err := o.quotations.GenerateQuotationNumber(ctx)
		if err != nil {
			return nil, err
		}
		quotation, err := billing.NewQuotation(number, customer.Name, o.company.Name, o.company.BaseCurrency, quotationLines)
		if err != nil {
			return nil, err
		}
		if err := quotation.Submit(); err != nil {
			return nil, err
		}
		if err := o.quotations.Create(ctx, quotation); err != nil {
			return nil, err
		}
		return &TransactionResult{Name: quotation.QuotationNumber}, nil

	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "Unsupported document type")
	}
}

// ConvertQuotationToSalesInvoice turns a quotation into a submitted
// invoice. Converting twice returns the invoice from the first
// conversion. Override lines and order details come from the cart
// variant of the call; both are optional. An override cart that no
// longer matches the quoted lines rebuilds the quotation first, so
// the stored quotation always mirrors the invoice it produced.
func (o *Orchestrator) ConvertQuotationToSalesInvoice(ctx context.Context, quotationNumber string, overrideLines []CartLine, orderPayload *CreateOrderRequest) (*billing.Invoice, *ordering.Order, error) {
	quotation, err := o.quotations.FindByQuotationNumber(ctx, quotationNumber)
	if err != nil {
		return nil, nil, err
	}
	if quotation == nil {
		return nil, nil, shared.ErrNotFound
	}
	if quotation.InvoiceID != nil {
		invoice, err := o.invoices.FindByID(ctx, *quotation.InvoiceID)
		if err != nil {
			return nil, nil, err
		}
		order, err := o.orders.FindByInvoiceID(ctx, *quotation.InvoiceID)
		if err != nil {
			return nil, nil, err
		}
		return invoice, order, nil
	}

	lines := overrideLines
	rebuild := false
	if len(lines) > 0 {
		rebuild = !cartMatchesQuotation(lines, quotation.Lines)
	} else {
		for _, line := range quotation.Lines {
			lines = append(lines, CartLine{
				ItemCode: line.ItemCode,
				ItemName: line.ItemName,
				Unit:     line.Unit,
				Qty:      line.Qty,
				Rate:     line.Rate,
				Remark:   line.Remark,
			})
		}
	}

	var invoice *billing.Invoice
	var order *ordering.Order
	err = o.tx.WithinTx(ctx, func(ctx context.Context) error {
		if rebuild {
			if err := quotation.ReplaceLines(toQuotationLines(lines)); err != nil {
				return err
			}
			o.logger.Info("rebuilt quotation lines from cart",
				zap.String("quotation_number", quotation.QuotationNumber))
		}
		invoice, err = o.invoiceSv.Build(ctx, quotation.Customer, lines, nil, true)
		if err != nil {
			return err
		}
		if err := quotation.MarkConverted(invoice.ID); err != nil {
			return err
		}
		if err := o.quotations.Save(ctx, quotation); err != nil {
			return err
		}
		order, err = o.ensureOrderForInvoice(ctx, invoice, orderPayload, false)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return invoice, order, nil
}

// toQuotationLines merges a cart into priced quotation lines
func toQuotationLines(lines []CartLine) []billing.InvoiceLine {
	merged := mergeCartLines(lines)
	quotationLines := make([]billing.InvoiceLine, 0, len(merged))
	for _, line := range merged {
		quotationLines = append(quotationLines, billing.InvoiceLine{
			ItemCode: line.ItemCode,
			ItemName: line.ItemName,
			Unit:     line.Unit,
			Qty:      line.Qty,
			Rate:     line.Rate,
			Amount:   line.Qty.Mul(line.Rate),
			Remark:   line.Remark,
		})
	}
	return quotationLines
}

// cartMatchesQuotation reports whether the cart carries exactly the
// quoted items, quantities and rates, regardless of line order.
func cartMatchesQuotation(lines []CartLine, quoted billing.InvoiceLines) bool {
	type key struct{ item, rate string }
	counts := make(map[key]decimal.Decimal)
	for _, line := range lines {
		k := key{line.ItemCode, line.Rate.String()}
		counts[k] = counts[k].Add(line.Qty)
	}
	for _, line := range quoted {
		k := key{line.ItemCode, line.Rate.String()}
		counts[k] = counts[k].Sub(line.Qty)
	}
	for _, qty := range counts {
		if !qty.IsZero() {
			return false
		}
	}
	return true
}

// MakeMultiCurrencyPayment settles the customer's newest outstanding
// invoice with amounts promised in several currencies. Amounts are
// converted into the invoice currency before allocation; conversion
// failures fall back to rate 1.
func (o *Orchestrator) MakeMultiCurrencyPayment(ctx context.Context, customer string, payments []CurrencyPayment) (string, error) {
	if len(payments) == 0 {
		return "", shared.NewDomainError("INVALID_INPUT", "At least one payment is required")
	}
	invoice, err := o.invoices.FindLatestOutstandingByCustomer(ctx, customer)
	if err != nil {
		return "", err
	}
	if invoice == nil {
		return "", shared.NewDomainError("NO_OUTSTANDING_INVOICE", "Customer has no outstanding invoice to settle")
	}

	now := time.Now()
	breakdown := make([]queue.PaymentAllocation, 0, len(payments))
	for _, p := range payments {
		amount := p.Amount
		if p.Currency != "" && p.Currency != invoice.Currency {
			rate := exchange.RateOrFallback(ctx, o.rates, p.Currency, invoice.Currency, now, o.logger)
			amount = amount.Mul(rate).Round(2)
		}
		breakdown = append(breakdown, queue.PaymentAllocation{ModeOfPayment: p.ModeOfPayment, Amount: amount})
	}

	payload := queue.SettlePaymentPayload{
		InvoiceID:     invoice.ID,
		Customer:      invoice.Customer,
		ModeOfPayment: ModeMulti,
		Currency:      invoice.Currency,
		Breakdown:     breakdown,
	}
	return queue.TryAsyncElseInline(ctx, o.enqueuer, payload, func(ctx context.Context) error {
		return o.Settle(ctx, payload)
	}, o.logger)
}

// Settle processes a settlement payload from the background queue,
// then marks the linked order paid when the invoice is fully settled.
// It implements queue.Settler.
func (o *Orchestrator) Settle(ctx context.Context, payload queue.SettlePaymentPayload) error {
	result, err := o.settlement.Settle(ctx, settlementRequestFromPayload(payload))
	if err != nil {
		return err
	}
	if !result.Settled {
		return nil
	}

	order, err := o.orders.FindByInvoiceID(ctx, payload.InvoiceID)
	if err != nil || order == nil {
		return err
	}
	if order.PaymentStatus == ordering.PaymentStatusPaid {
		return nil
	}
	if err := order.MarkPaid(); err != nil {
		return err
	}
	return o.orders.Save(ctx, order)
}

func settlementRequestFromPayload(payload queue.SettlePaymentPayload) SettlementRequest {
	breakdown := make([]Allocation, 0, len(payload.Breakdown))
	for _, a := range payload.Breakdown {
		breakdown = append(breakdown, Allocation{ModeOfPayment: a.ModeOfPayment, Amount: a.Amount})
	}
	return SettlementRequest{
		InvoiceID:     payload.InvoiceID,
		Customer:      payload.Customer,
		ModeOfPayment: payload.ModeOfPayment,
		Amount:        payload.Amount,
		Note:          payload.PaymentNote,
		Breakdown:     breakdown,
	}
}

func toPayloadBreakdown(allocations []Allocation) []queue.PaymentAllocation {
	if len(allocations) == 0 {
		return nil
	}
	breakdown := make([]queue.PaymentAllocation, 0, len(allocations))
	for _, a := range allocations {
		breakdown = append(breakdown, queue.PaymentAllocation{ModeOfPayment: a.ModeOfPayment, Amount: a.Amount})
	}
	return breakdown
}
