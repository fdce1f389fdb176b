package ordering

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository persists Order aggregates
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	// FindByInvoiceID returns the order linked to the given invoice, or nil.
	// Used for duplicate suppression when background and inline settlement
	// paths both try to create an order for the same invoice.
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*Order, error)
	FindOpenByTable(ctx context.Context, tableCode string) ([]Order, error)
	Create(ctx context.Context, order *Order) error
	Save(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	GenerateOrderNumber(ctx context.Context) (string, error)
}

// TableRepository persists Table aggregates
type TableRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Table, error)
	FindByCode(ctx context.Context, code string) (*Table, error)
	// FindByOrderID returns all tables whose order list contains the given order
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]Table, error)
	Save(ctx context.Context, table *Table) error
}
