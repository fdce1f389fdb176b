package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/havano/pos-backend/internal/domain/billing"
	"github.com/havano/pos-backend/internal/domain/ordering"
	"github.com/havano/pos-backend/internal/interfaces/http/dto"
)

// BillingHandler serves read-side invoice and catalog endpoints
type BillingHandler struct {
	BaseHandler
	invoices billing.InvoiceRepository
	payments billing.PaymentEntryRepository
	menu     ordering.MenuItemRepository
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(
	invoices billing.InvoiceRepository,
	payments billing.PaymentEntryRepository,
	menu ordering.MenuItemRepository,
) *BillingHandler {
	return &BillingHandler{invoices: invoices, payments: payments, menu: menu}
}

// InvoicePrintLine is one invoice row shaped for receipt printing
type InvoicePrintLine struct {
	ItemCode string `json:"item_code"`
	ItemName string `json:"item_name"`
	Unit     string `json:"unit"`
	Qty      string `json:"qty"`
	Rate     string `json:"rate"`
	Amount   string `json:"amount"`
	Remark   string `json:"remark,omitempty"`
}

// InvoicePrintPayment is one settlement row on the receipt
type InvoicePrintPayment struct {
	ModeOfPayment string `json:"mode_of_payment"`
	Amount        string `json:"amount"`
	ReferenceNo   string `json:"reference_no,omitempty"`
}

// InvoicePrintResponse is the receipt-friendly invoice shape
type InvoicePrintResponse struct {
	InvoiceNumber     string                `json:"invoice_number"`
	Customer          string                `json:"customer"`
	Company           string                `json:"company"`
	Currency          string                `json:"currency"`
	Status            string                `json:"status"`
	Lines             []InvoicePrintLine    `json:"lines"`
	GrandTotal        string                `json:"grand_total"`
	PaidAmount        string                `json:"paid_amount"`
	OutstandingAmount string                `json:"outstanding_amount"`
	Payments          []InvoicePrintPayment `json:"payments"`
}

// Print returns an invoice with its payments shaped for receipt printing
func (h *BillingHandler) Print(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	invoice, err := h.invoices.FindByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if invoice == nil {
		h.NotFound(c, "Invoice not found")
		return
	}
	entries, err := h.payments.FindByInvoiceID(c.Request.Context(), invoice.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	lines := make([]InvoicePrintLine, 0, len(invoice.Lines))
	for _, line := range invoice.Lines {
		lines = append(lines, InvoicePrintLine{
			ItemCode: line.ItemCode,
			ItemName: line.ItemName,
			Unit:     line.Unit,
			Qty:      line.Qty.String(),
			Rate:     line.Rate.String(),
			Amount:   line.Amount.String(),
			Remark:   line.Remark,
		})
	}
	payments := make([]InvoicePrintPayment, 0, len(entries))
	for _, entry := range entries {
		if entry.Status != billing.DocStatusSubmitted {
			continue
		}
		payments = append(payments, InvoicePrintPayment{
			ModeOfPayment: entry.ModeOfPayment,
			Amount:        entry.AllocatedAmount.String(),
			ReferenceNo:   entry.ReferenceNo,
		})
	}

	h.Success(c, InvoicePrintResponse{
		InvoiceNumber:     invoice.InvoiceNumber,
		Customer:          invoice.Customer,
		Company:           invoice.Company,
		Currency:          invoice.Currency,
		Status:            string(invoice.Status),
		Lines:             lines,
		GrandTotal:        invoice.GrandTotal.String(),
		PaidAmount:        invoice.GrandTotal.Sub(invoice.OutstandingAmount).String(),
		OutstandingAmount: invoice.OutstandingAmount.String(),
		Payments:          payments,
	})
}

// MenuItemResponse is the API shape of a menu item
type MenuItemResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Rate     string `json:"rate"`
	Category string `json:"category,omitempty"`
}

// SearchMenu returns menu items matching the search term
func (h *BillingHandler) SearchMenu(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	items, err := h.menu.Search(c.Request.Context(), req.Search, req.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]MenuItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, MenuItemResponse{
			Code:     item.Code,
			Name:     item.Name,
			Unit:     item.Unit,
			Rate:     item.Rate.String(),
			Category: item.Category,
		})
	}
	h.Success(c, responses)
}

// RegisterRoutes registers invoice and menu read routes
func (h *BillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/pos")
	{
		group.GET("/invoices/:id/print", h.Print)
		group.GET("/menu-items", h.SearchMenu)
	}
}
