package ordering

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/havano/pos-backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderType represents how the order is fulfilled
type OrderType string

const (
	OrderTypeDineIn   OrderType = "Dine In"
	OrderTypeTakeAway OrderType = "Take Away"
)

// IsValid checks if the order type is valid
func (t OrderType) IsValid() bool {
	return t == OrderTypeDineIn || t == OrderTypeTakeAway
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "Unpaid"
	PaymentStatusPaid   PaymentStatus = "Paid"
)

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusOpen   OrderStatus = "Open"
	OrderStatusClosed OrderStatus = "Closed"
)

// OrderLine is one row of an order: a menu item with quantity and rate.
// Lines are value objects within the Order aggregate, stored as JSONB.
type OrderLine struct {
	MenuItem string          `json:"menu_item"`
	Qty      decimal.Decimal `json:"qty"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
	Remark   string          `json:"remark,omitempty"`
}

// OrderLines is a slice of OrderLine implementing GORM Scanner/Valuer for JSONB storage
type OrderLines []OrderLine

// Value implements driver.Valuer for GORM to store as JSONB
func (l OrderLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (l *OrderLines) Scan(value interface{}) error {
	if value == nil {
		*l = OrderLines{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan OrderLines: unsupported type")
	}
	if len(bytes) == 0 {
		*l = OrderLines{}
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// NewOrderLine creates a validated order line with amount = qty * rate
func NewOrderLine(menuItem string, qty, rate decimal.Decimal, remark string) (OrderLine, error) {
	if menuItem == "" {
		return OrderLine{}, shared.NewDomainError("INVALID_LINE", "Menu item cannot be empty")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return OrderLine{}, shared.NewDomainError("INVALID_LINE", fmt.Sprintf("Quantity for %s must be positive", menuItem))
	}
	if rate.IsNegative() {
		return OrderLine{}, shared.NewDomainError("INVALID_LINE", fmt.Sprintf("Rate for %s cannot be negative", menuItem))
	}
	return OrderLine{
		MenuItem: menuItem,
		Qty:      qty,
		Rate:     rate,
		Amount:   qty.Mul(rate),
		Remark:   remark,
	}, nil
}

// Order represents one restaurant transaction, dine-in or take-away.
// TotalPrice is recomputed from the lines on every mutation so the
// total always equals sum(qty * rate).
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber   string
	OrderType     OrderType
	CustomerName  string
	TableCode     string // empty when not a dine-in order
	Waiter        string
	PaymentStatus PaymentStatus
	OrderStatus   OrderStatus
	TotalPrice    decimal.Decimal
	Lines         OrderLines
	InvoiceID     *uuid.UUID // linked sales invoice, unique per order
	ClosedAt      *time.Time
}

// NewOrder creates a new open, unpaid order from cart lines
func NewOrder(orderNumber string, orderType OrderType, customerName, tableCode, waiter string, lines []OrderLine) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if !orderType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ORDER_TYPE", fmt.Sprintf("Unknown order type %q", orderType))
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_CART", "Order must have at least one item")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		OrderType:         orderType,
		CustomerName:      truncate(customerName),
		TableCode:         truncate(tableCode),
		Waiter:            truncate(waiter),
		PaymentStatus:     PaymentStatusUnpaid,
		OrderStatus:       OrderStatusOpen,
		Lines:             append(OrderLines{}, lines...),
	}
	o.recalculateTotal()
	return o, nil
}

// truncate caps free-text fields the same way the persistence schema does
func truncate(s string) string {
	if len(s) > 140 {
		return s[:140]
	}
	return s
}

func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Amount)
	}
	o.TotalPrice = total
}

// ReplaceLines swaps all line items and recomputes the total
func (o *Order) ReplaceLines(lines []OrderLine) error {
	if o.OrderStatus == OrderStatusClosed {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a closed order")
	}
	if len(lines) == 0 {
		return shared.NewDomainError("EMPTY_CART", "Order must have at least one item")
	}
	o.Lines = append(OrderLines{}, lines...)
	o.recalculateTotal()
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// AttachInvoice links the order to its sales invoice
func (o *Order) AttachInvoice(invoiceID uuid.UUID) error {
	if o.InvoiceID != nil && *o.InvoiceID != invoiceID {
		return shared.NewDomainError("INVALID_STATE", "Order is already linked to another invoice")
	}
	o.InvoiceID = &invoiceID
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// Close transitions the order Open -> Closed. There is no way back.
func (o *Order) Close() {
	if o.OrderStatus == OrderStatusClosed {
		return
	}
	now := time.Now()
	o.OrderStatus = OrderStatusClosed
	o.ClosedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
}

// MarkPaid transitions the order Unpaid -> Paid
func (o *Order) MarkPaid() error {
	if o.PaymentStatus == PaymentStatusPaid {
		return shared.NewDomainError("ALREADY_PAID", "This order is already marked as Paid")
	}
	o.PaymentStatus = PaymentStatusPaid
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// IsOpen returns true while the order can still accept changes
func (o *Order) IsOpen() bool {
	return o.OrderStatus == OrderStatusOpen
}

// IsDineIn returns true for dine-in orders
func (o *Order) IsDineIn() bool {
	return o.OrderType == OrderTypeDineIn
}
