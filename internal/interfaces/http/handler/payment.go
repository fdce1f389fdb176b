package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/havano/pos-backend/internal/application/pos"
	"github.com/havano/pos-backend/internal/domain/ordering"
)

// PaymentHandler handles settlement, transaction and quotation endpoints
type PaymentHandler struct {
	BaseHandler
	orchestrator *pos.Orchestrator
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(orchestrator *pos.Orchestrator) *PaymentHandler {
	return &PaymentHandler{orchestrator: orchestrator}
}

// AllocationRequest is one method/amount pair of a payment breakdown
type AllocationRequest struct {
	ModeOfPayment string  `json:"mode_of_payment" binding:"required,min=1,max=140"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
}

// CurrencyPaymentRequest is one multi-currency payment leg
type CurrencyPaymentRequest struct {
	ModeOfPayment string  `json:"mode_of_payment" binding:"required,min=1,max=140"`
	Currency      string  `json:"currency" binding:"max=10"`
	Rate          float64 `json:"rate" binding:"min=0"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
}

// TransactionPaymentRequest pays an existing document
type TransactionPaymentRequest struct {
	Amount        float64             `json:"amount" binding:"min=0"`
	ModeOfPayment string              `json:"mode_of_payment" binding:"max=140"`
	Note          string              `json:"note" binding:"max=500"`
	Breakdown     []AllocationRequest `json:"breakdown" binding:"omitempty,dive"`
}

// CreateTransactionRequest creates a standalone document
type CreateTransactionRequest struct {
	DocType  string              `json:"doctype" binding:"required,oneof='Sales Invoice' Quotation"`
	Customer string              `json:"customer" binding:"max=140"`
	Items    []CartItemRequest   `json:"items" binding:"required,min=1,dive"`
	Order    *CreateOrderRequest `json:"order"`
}

// InvoiceWithPaymentRequest creates an invoice and queues its settlement
type InvoiceWithPaymentRequest struct {
	Customer  string                   `json:"customer" binding:"max=140"`
	Items     []CartItemRequest        `json:"items" binding:"required,min=1,dive"`
	Breakdown []AllocationRequest      `json:"breakdown" binding:"omitempty,dive"`
	Payments  []CurrencyPaymentRequest `json:"payments" binding:"omitempty,dive"`
	Note      string                   `json:"note" binding:"max=500"`
	Order     *CreateOrderRequest      `json:"order"`
}

// MultiCurrencyPaymentRequest settles the customer's latest invoice
type MultiCurrencyPaymentRequest struct {
	Customer string                   `json:"customer" binding:"required,min=1,max=140"`
	Payments []CurrencyPaymentRequest `json:"payments" binding:"required,min=1,dive"`
}

// ConvertQuotationRequest optionally overrides the quoted cart
type ConvertQuotationRequest struct {
	Items []CartItemRequest   `json:"items" binding:"omitempty,dive"`
	Order *CreateOrderRequest `json:"order"`
}

func toAllocations(reqs []AllocationRequest) []pos.Allocation {
	allocations := make([]pos.Allocation, 0, len(reqs))
	for _, r := range reqs {
		allocations = append(allocations, pos.Allocation{
			ModeOfPayment: r.ModeOfPayment,
			Amount:        decimal.NewFromFloat(r.Amount),
		})
	}
	return allocations
}

func toCurrencyPayments(reqs []CurrencyPaymentRequest) []pos.CurrencyPayment {
	payments := make([]pos.CurrencyPayment, 0, len(reqs))
	for _, r := range reqs {
		payments = append(payments, pos.CurrencyPayment{
			ModeOfPayment: r.ModeOfPayment,
			Currency:      r.Currency,
			Rate:          decimal.NewFromFloat(r.Rate),
			Amount:        decimal.NewFromFloat(r.Amount),
		})
	}
	return payments
}

func toOrderPayload(req *CreateOrderRequest) *pos.CreateOrderRequest {
	if req == nil {
		return nil
	}
	return &pos.CreateOrderRequest{
		OrderType:    ordering.OrderType(req.OrderType),
		CustomerName: req.CustomerName,
		TableCode:    req.TableCode,
		Waiter:       req.Waiter,
		Lines:        toCartLines(req.Items),
	}
}

// parseDocType maps the URL segment to a document type
func parseDocType(segment string) (string, bool) {
	switch segment {
	case "sales-invoice":
		return pos.DocTypeSalesInvoice, true
	case "quotation":
		return pos.DocTypeQuotation, true
	default:
		return "", false
	}
}

// PayTransaction settles an existing document, preferring the queue
func (h *PaymentHandler) PayTransaction(c *gin.Context) {
	docType, ok := parseDocType(c.Param("doctype"))
	if !ok {
		h.BadRequest(c, "Unknown document type")
		return
	}
	var req TransactionPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	jobID, err := h.orchestrator.MakePaymentForTransaction(c.Request.Context(), pos.TransactionPaymentRequest{
		DocType:       docType,
		DocName:       c.Param("id"),
		Amount:        decimal.NewFromFloat(req.Amount),
		ModeOfPayment: req.ModeOfPayment,
		Note:          req.Note,
		Breakdown:     toAllocations(req.Breakdown),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"job_id": jobID, "queued": jobID != ""})
}

// CreateTransaction creates a standalone sales invoice or quotation
func (h *PaymentHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orchestrator.CreateTransaction(c.Request.Context(), pos.TransactionRequest{
		DocType:      req.DocType,
		Customer:     req.Customer,
		Lines:        toCartLines(req.Items),
		OrderPayload: toOrderPayload(req.Order),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{"name": result.Name, "doctype": req.DocType})
}

// InvoiceWithPaymentQueue creates an invoice and settles it via the queue
func (h *PaymentHandler) InvoiceWithPaymentQueue(c *gin.Context) {
	var req InvoiceWithPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orchestrator.CreateInvoiceAndPaymentQueue(c.Request.Context(), pos.InvoicePaymentRequest{
		Customer:              req.Customer,
		Lines:                 toCartLines(req.Items),
		Breakdown:             toAllocations(req.Breakdown),
		MultiCurrencyPayments: toCurrencyPayments(req.Payments),
		Note:                  req.Note,
		OrderPayload:          toOrderPayload(req.Order),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	payload := gin.H{
		"invoice_number": result.InvoiceNumber,
		"job_id":         result.JobID,
		"order_id":       result.OrderID,
	}
	if result.Settlement != nil {
		payload["settled"] = result.Settlement.Settled
		if len(result.Settlement.Failures) > 0 {
			payload["failures"] = result.Settlement.Failures
		}
	}
	h.Created(c, payload)
}

// MultiCurrencyPayment settles a customer's newest outstanding invoice
func (h *PaymentHandler) MultiCurrencyPayment(c *gin.Context) {
	var req MultiCurrencyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	jobID, err := h.orchestrator.MakeMultiCurrencyPayment(c.Request.Context(), req.Customer, toCurrencyPayments(req.Payments))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"job_id": jobID, "queued": jobID != ""})
}

// ConvertQuotation turns a quotation into a submitted sales invoice
func (h *PaymentHandler) ConvertQuotation(c *gin.Context) {
	// The body is optional: converting with no overrides is the common case.
	var req ConvertQuotationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	invoice, order, err := h.orchestrator.ConvertQuotationToSalesInvoice(
		c.Request.Context(), c.Param("id"), toCartLines(req.Items), toOrderPayload(req.Order))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	payload := gin.H{
		"invoice_number":     invoice.InvoiceNumber,
		"grand_total":        invoice.GrandTotal.String(),
		"outstanding_amount": invoice.OutstandingAmount.String(),
	}
	if order != nil {
		payload["order_id"] = order.ID
		payload["order_number"] = order.OrderNumber
	}
	h.Success(c, payload)
}

// RegisterRoutes registers settlement and transaction routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/pos")
	{
		group.POST("/transactions", h.CreateTransaction)
		group.POST("/transactions/:doctype/:id/payment", h.PayTransaction)
		group.POST("/payments/multi-currency", h.MultiCurrencyPayment)
		group.POST("/invoices/with-payment-queue", h.InvoiceWithPaymentQueue)
		group.POST("/quotations/:id/convert", h.ConvertQuotation)
	}
}
