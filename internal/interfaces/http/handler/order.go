package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/havano/pos-backend/internal/application/pos"
	"github.com/havano/pos-backend/internal/domain/ordering"
)

// OrderHandler handles order and table endpoints
type OrderHandler struct {
	BaseHandler
	orderService *pos.OrderService
	orchestrator *pos.Orchestrator
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *pos.OrderService, orchestrator *pos.Orchestrator) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		orchestrator: orchestrator,
	}
}

// CartItemRequest is one line of an incoming cart
type CartItemRequest struct {
	ItemCode string  `json:"item_code" binding:"required,min=1,max=140"`
	ItemName string  `json:"item_name" binding:"max=140"`
	Unit     string  `json:"unit" binding:"max=50"`
	Qty      float64 `json:"qty" binding:"required,gt=0"`
	Rate     float64 `json:"rate" binding:"min=0"`
	Remark   string  `json:"remark" binding:"max=500"`
}

// CreateOrderRequest is the payload for opening an order from a cart
type CreateOrderRequest struct {
	OrderType    string            `json:"order_type" binding:"required,oneof='Dine In' 'Take Away'"`
	CustomerName string            `json:"customer_name" binding:"max=140"`
	TableCode    string            `json:"table_code" binding:"max=140"`
	Waiter       string            `json:"waiter" binding:"max=140"`
	Items        []CartItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderRequest replaces the order's line items
type UpdateOrderRequest struct {
	Items []CartItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateOrderWithPaymentRequest opens an order and pays it in one call
type CreateOrderWithPaymentRequest struct {
	CreateOrderRequest
	Amount        float64 `json:"amount" binding:"min=0"`
	ModeOfPayment string  `json:"mode_of_payment" binding:"required,min=1,max=140"`
	Note          string  `json:"note" binding:"max=500"`
}

// OrderResponse is the API shape of an order
type OrderResponse struct {
	ID            uuid.UUID  `json:"id"`
	OrderNumber   string     `json:"order_number"`
	OrderType     string     `json:"order_type"`
	CustomerName  string     `json:"customer_name"`
	TableCode     string     `json:"table_code,omitempty"`
	Waiter        string     `json:"waiter,omitempty"`
	OrderStatus   string     `json:"order_status"`
	PaymentStatus string     `json:"payment_status"`
	TotalPrice    string     `json:"total_price"`
	InvoiceID     *uuid.UUID `json:"invoice_id,omitempty"`
	Items         []OrderItemResponse `json:"items"`
}

// OrderItemResponse is one order line in API shape
type OrderItemResponse struct {
	MenuItem string `json:"menu_item"`
	Qty      string `json:"qty"`
	Rate     string `json:"rate"`
	Amount   string `json:"amount"`
	Remark   string `json:"remark,omitempty"`
}

func toCartLines(items []CartItemRequest) []pos.CartLine {
	lines := make([]pos.CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, pos.CartLine{
			ItemCode: item.ItemCode,
			ItemName: item.ItemName,
			Unit:     item.Unit,
			Qty:      decimal.NewFromFloat(item.Qty),
			Rate:     decimal.NewFromFloat(item.Rate),
			Remark:   item.Remark,
		})
	}
	return lines
}

func toOrderResponse(order *ordering.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, OrderItemResponse{
			MenuItem: line.MenuItem,
			Qty:      line.Qty.String(),
			Rate:     line.Rate.String(),
			Amount:   line.Amount.String(),
			Remark:   line.Remark,
		})
	}
	return OrderResponse{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		OrderType:     string(order.OrderType),
		CustomerName:  order.CustomerName,
		TableCode:     order.TableCode,
		Waiter:        order.Waiter,
		OrderStatus:   string(order.OrderStatus),
		PaymentStatus: string(order.PaymentStatus),
		TotalPrice:    order.TotalPrice.String(),
		InvoiceID:     order.InvoiceID,
		Items:         items,
	}
}

// Create opens a new order from a cart
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.CreateFromCart(c.Request.Context(), pos.CreateOrderRequest{
		OrderType:    ordering.OrderType(req.OrderType),
		CustomerName: req.CustomerName,
		TableCode:    req.TableCode,
		Waiter:       req.Waiter,
		Lines:        toCartLines(req.Items),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toOrderResponse(order))
}

// Update replaces an order's line items
func (h *OrderHandler) Update(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), orderID, toCartLines(req.Items))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(order))
}

// Cancel removes an order and cancels its linked invoice
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	if err := h.orderService.Cancel(c.Request.Context(), orderID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"cancelled": true})
}

// MarkPaid flips an order's payment status to Paid
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	order, err := h.orderService.MarkAsPaid(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(order))
}

// SettleTable merges all open orders on a table into one invoice
func (h *OrderHandler) SettleTable(c *gin.Context) {
	tableCode := c.Param("code")
	invoice, err := h.orderService.SettleTable(c.Request.Context(), tableCode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{
		"invoice_number":     invoice.InvoiceNumber,
		"grand_total":        invoice.GrandTotal.String(),
		"outstanding_amount": invoice.OutstandingAmount.String(),
	})
}

// CreateWithPayment opens an order and settles it in one synchronous call
func (h *OrderHandler) CreateWithPayment(c *gin.Context) {
	var req CreateOrderWithPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orchestrator.CreateOrderAndPayment(c.Request.Context(), pos.OrderPaymentRequest{
		CreateOrderRequest: pos.CreateOrderRequest{
			OrderType:    ordering.OrderType(req.OrderType),
			CustomerName: req.CustomerName,
			TableCode:    req.TableCode,
			Waiter:       req.Waiter,
			Lines:        toCartLines(req.Items),
		},
		Amount:        decimal.NewFromFloat(req.Amount),
		ModeOfPayment: req.ModeOfPayment,
		Note:          req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{
		"order_id":       result.OrderID,
		"order_number":   result.OrderNumber,
		"invoice_number": result.InvoiceNumber,
		"payment_number": result.PaymentNumber,
	})
}

// RegisterRoutes registers order and table routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/pos/orders")
	{
		orders.POST("", h.Create)
		orders.POST("/with-payment", h.CreateWithPayment)
		orders.PUT("/:id", h.Update)
		orders.POST("/:id/cancel", h.Cancel)
		orders.POST("/:id/mark-paid", h.MarkPaid)
	}
	tables := rg.Group("/pos/tables")
	{
		tables.POST("/:code/settle", h.SettleTable)
	}
}
