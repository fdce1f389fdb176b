package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/havano/pos-backend/internal/domain/billing"
	"github.com/havano/pos-backend/internal/domain/ordering"
	"github.com/havano/pos-backend/internal/domain/partner"
)

func newPaymentRouter(env *testEnv) *gin.Engine {
	r := gin.New()
	handler := NewPaymentHandler(env.orchestrator)
	handler.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func mustInvoice(t *testing.T, amount string) *billing.Invoice {
	t.Helper()
	invoice, err := billing.NewInvoice("INV-20260830-0100", "Walk-in Customer", "Havano Restaurant", "USD", decimal.NewFromInt(1), []billing.InvoiceLine{{
		ItemCode: "ITM-BURGER",
		ItemName: "Burger",
		Unit:     "Nos",
		Qty:      decimal.NewFromInt(1),
		Rate:     dec(amount),
		Amount:   dec(amount),
	}})
	require.NoError(t, err)
	require.NoError(t, invoice.Submit())
	return invoice
}

func TestPaymentHandler_PayTransaction(t *testing.T) {
	t.Run("queues the payment and returns the job id", func(t *testing.T) {
		env := newTestEnv(&stubEnqueuer{jobID: "job-7"})
		invoice := mustInvoice(t, "30.00")
		env.invoices.On("FindByInvoiceNumber", mock.Anything, invoice.InvoiceNumber).Return(invoice, nil)

		w := postJSON(newPaymentRouter(env), "/api/v1/pos/transactions/sales-invoice/"+invoice.InvoiceNumber+"/payment", gin.H{
			"amount":          30,
			"mode_of_payment": "Cash",
		})

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "job-7", data["job_id"])
		assert.Equal(t, true, data["queued"])
	})

	t.Run("unknown doctype segment returns 400", func(t *testing.T) {
		env := newTestEnv(nil)
		w := postJSON(newPaymentRouter(env), "/api/v1/pos/transactions/purchase-order/PO-1/payment", gin.H{
			"amount":          10,
			"mode_of_payment": "Cash",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing invoice returns 404", func(t *testing.T) {
		env := newTestEnv(&stubEnqueuer{jobID: "job-8"})
		env.invoices.On("FindByInvoiceNumber", mock.Anything, "INV-NOPE").Return(nil, nil)

		w := postJSON(newPaymentRouter(env), "/api/v1/pos/transactions/sales-invoice/INV-NOPE/payment", gin.H{
			"amount":          10,
			"mode_of_payment": "Cash",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unconverted quotation returns 422", func(t *testing.T) {
		env := newTestEnv(&stubEnqueuer{jobID: "job-9"})
		quotation, err := billing.NewQuotation("QTN-20260830-0100", "Walk-in Customer", "Havano Restaurant", "USD", []billing.InvoiceLine{{
			ItemCode: "ITM-BURGER", Qty: decimal.NewFromInt(1), Rate: dec("10"), Amount: dec("10"),
		}})
		require.NoError(t, err)
		require.NoError(t, quotation.Submit())
		env.quotations.On("FindByQuotationNumber", mock.Anything, quotation.QuotationNumber).Return(quotation, nil)

		w := postJSON(newPaymentRouter(env), "/api/v1/pos/transactions/quotation/"+quotation.QuotationNumber+"/payment", gin.H{
			"amount":          10,
			"mode_of_payment": "Cash",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, "PREREQUISITE_NOT_MET", resp.Error.Code)
	})
}

func TestPaymentHandler_MultiCurrencyPayment(t *testing.T) {
	t.Run("no outstanding invoice returns 422", func(t *testing.T) {
		env := newTestEnv(nil)
		env.invoices.On("FindLatestOutstandingByCustomer", mock.Anything, "Nadia Haddad").Return(nil, nil)

		w := postJSON(newPaymentRouter(env), "/api/v1/pos/payments/multi-currency", gin.H{
			"customer": "Nadia Haddad",
			"payments": []gin.H{
				{"mode_of_payment": "Cash USD", "currency": "USD", "amount": 10},
			},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, "NO_OUTSTANDING_INVOICE", resp.Error.Code)
	})

	t.Run("missing payments list returns 400", func(t *testing.T) {
		env := newTestEnv(nil)
		w := postJSON(newPaymentRouter(env), "/api/v1/pos/payments/multi-currency", gin.H{
			"customer": "Nadia Haddad",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPaymentHandler_CreateTransaction(t *testing.T) {
	t.Run("creates a quotation", func(t *testing.T) {
		env := newTestEnv(nil)
		customer, _ := partner.NewCustomer("Walk-in Customer", "")
		env.customers.On("FindByName", mock.Anything, "Walk-in Customer").Return(customer, nil)
		env.quotations.On("GenerateQuotationNumber", mock.Anything).Return("QTN-20260830-0101", nil)
		env.quotations.On("Create", mock.Anything, mock.Anything).Return(nil)

		w := postJSON(newPaymentRouter(env), "/api/v1/pos/transactions", gin.H{
			"doctype": "Quotation",
			"items":   []gin.H{{"item_code": "ITM-BURGER", "qty": 1, "rate": 8.5}},
		})

		require.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "QTN-20260830-0101", data["name"])
	})

	t.Run("unsupported doctype returns 400", func(t *testing.T) {
		env := newTestEnv(nil)
		w := postJSON(newPaymentRouter(env), "/api/v1/pos/transactions", gin.H{
			"doctype": "Purchase Order",
			"items":   []gin.H{{"item_code": "ITM-BURGER", "qty": 1, "rate": 8.5}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPaymentHandler_InvoiceWithPaymentQueue(t *testing.T) {
	t.Run("creates the invoice and reports queue and settlement state", func(t *testing.T) {
		env := newTestEnv(&stubEnqueuer{jobID: "job-10"})
		customer, _ := partner.NewCustomer("Walk-in Customer", "")
		env.customers.On("FindByName", mock.Anything, "Walk-in Customer").Return(customer, nil)
		env.invoices.On("GenerateInvoiceNumber", mock.Anything).Return("INV-20260830-0110", nil)
		env.invoices.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			built := args.Get(1).(*billing.Invoice)
			env.invoices.On("FindByID", mock.Anything, built.ID).Return(built, nil)
		}).Return(nil)
		env.invoices.On("Save", mock.Anything, mock.Anything).Return(nil)
		env.menu.On("FindByCodes", mock.Anything, mock.Anything).Return(map[string]ordering.MenuItem{}, nil)
		env.payments.On("GeneratePaymentNumber", mock.Anything).Return("PAY-20260830-0110", nil)
		env.payments.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		env.payments.On("Save", mock.Anything, mock.Anything).Return(nil)
		env.orders.On("FindByInvoiceID", mock.Anything, mock.Anything).Return(nil, nil)
		env.orders.On("GenerateOrderNumber", mock.Anything).Return("ORD-20260830-0110", nil)
		env.orders.On("Create", mock.Anything, mock.Anything).Return(nil)

		w := postJSON(newPaymentRouter(env), "/api/v1/pos/invoices/with-payment-queue", gin.H{
			"items": []gin.H{{"item_code": "ITM-BURGER", "qty": 2, "rate": 8.5}},
			"breakdown": []gin.H{
				{"mode_of_payment": "Cash", "amount": 17},
			},
		})

		require.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "INV-20260830-0110", data["invoice_number"])
		assert.Equal(t, "job-10", data["job_id"])
		assert.Equal(t, true, data["settled"])
	})
}

func TestPaymentHandler_ConvertQuotation(t *testing.T) {
	t.Run("missing quotation returns 404", func(t *testing.T) {
		env := newTestEnv(nil)
		env.quotations.On("FindByQuotationNumber", mock.Anything, "QTN-NOPE").Return(nil, nil)

		w := postJSON(newPaymentRouter(env), "/api/v1/pos/quotations/QTN-NOPE/convert", gin.H{})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("already converted quotation returns the original invoice", func(t *testing.T) {
		env := newTestEnv(nil)
		invoice := mustInvoice(t, "10.00")
		quotation, err := billing.NewQuotation("QTN-20260830-0102", "Walk-in Customer", "Havano Restaurant", "USD", []billing.InvoiceLine{{
			ItemCode: "ITM-BURGER", Qty: decimal.NewFromInt(1), Rate: dec("10"), Amount: dec("10"),
		}})
		require.NoError(t, err)
		require.NoError(t, quotation.Submit())
		require.NoError(t, quotation.MarkConverted(invoice.ID))
		env.quotations.On("FindByQuotationNumber", mock.Anything, quotation.QuotationNumber).Return(quotation, nil)
		env.invoices.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
		env.orders.On("FindByInvoiceID", mock.Anything, invoice.ID).Return(nil, nil)

		w := postJSON(newPaymentRouter(env), "/api/v1/pos/quotations/"+quotation.QuotationNumber+"/convert", gin.H{})

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, invoice.InvoiceNumber, data["invoice_number"])
	})
}

func TestBillingHandler_Print(t *testing.T) {
	t.Run("returns the receipt shape with submitted payments only", func(t *testing.T) {
		env := newTestEnv(nil)
		invoice := mustInvoice(t, "20.00")
		require.NoError(t, invoice.ApplyAllocation(dec("20.00")))

		entry, err := billing.NewPaymentEntry("PAY-20260830-0120", "Walk-in Customer", "Havano Restaurant", "Cash", dec("20.00"))
		require.NoError(t, err)
		entry.SetAccounts("Debtors - HR", "Cash - HR", "USD", "USD")
		entry.SetExchange(decimal.NewFromInt(1))
		require.NoError(t, entry.AllocateToInvoice(invoice.ID, dec("20.00")))
		require.NoError(t, entry.Submit())

		draft, err := billing.NewPaymentEntry("PAY-20260830-0121", "Walk-in Customer", "Havano Restaurant", "Card", dec("5.00"))
		require.NoError(t, err)

		env.invoices.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
		env.payments.On("FindByInvoiceID", mock.Anything, invoice.ID).Return([]billing.PaymentEntry{*entry, *draft}, nil)

		r := gin.New()
		NewBillingHandler(env.invoices, env.payments, env.menu).RegisterRoutes(r.Group("/api/v1"))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/pos/invoices/"+invoice.ID.String()+"/print", nil)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Success bool                 `json:"success"`
			Data    InvoicePrintResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, invoice.InvoiceNumber, resp.Data.InvoiceNumber)
		assert.Equal(t, "20", resp.Data.PaidAmount)
		assert.Equal(t, "0", resp.Data.OutstandingAmount)
		require.Len(t, resp.Data.Payments, 1)
		assert.Equal(t, "Cash", resp.Data.Payments[0].ModeOfPayment)
	})

	t.Run("unknown invoice returns 404", func(t *testing.T) {
		env := newTestEnv(nil)
		env.invoices.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

		r := gin.New()
		NewBillingHandler(env.invoices, env.payments, env.menu).RegisterRoutes(r.Group("/api/v1"))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/pos/invoices/"+uuid.NewString()+"/print", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
