package ordering

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/havano/pos-backend/internal/domain/shared"
)

// OrderRefs is the list of order IDs linked to a table, stored as JSONB
type OrderRefs []uuid.UUID

// Value implements driver.Valuer for GORM to store as JSONB
func (r OrderRefs) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (r *OrderRefs) Scan(value interface{}) error {
	if value == nil {
		*r = OrderRefs{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan OrderRefs: unsupported type")
	}
	if len(bytes) == 0 {
		*r = OrderRefs{}
		return nil
	}
	return json.Unmarshal(bytes, r)
}

// Table is a restaurant seating unit. It tracks the waiter and customer
// currently assigned to it and the orders opened against it.
type Table struct {
	shared.BaseAggregateRoot
	Code           string // short display code, e.g. "T1"
	AssignedWaiter string
	CustomerName   string
	Orders         OrderRefs
}

// NewTable creates a table with the given display code
func NewTable(code string) (*Table, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_TABLE", "Table code cannot be empty")
	}
	return &Table{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Orders:            OrderRefs{},
	}, nil
}

// Assign sets the waiter and customer currently seated at the table
func (t *Table) Assign(waiter, customerName string) {
	t.AssignedWaiter = truncate(waiter)
	t.CustomerName = truncate(customerName)
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

// LinkOrder records an order opened against this table
func (t *Table) LinkOrder(orderID uuid.UUID) {
	for _, id := range t.Orders {
		if id == orderID {
			return
		}
	}
	t.Orders = append(t.Orders, orderID)
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

// DetachOrder removes an order from the table's order list.
// Called when an order is deleted.
func (t *Table) DetachOrder(orderID uuid.UUID) bool {
	for i, id := range t.Orders {
		if id == orderID {
			t.Orders = append(t.Orders[:i], t.Orders[i+1:]...)
			t.UpdatedAt = time.Now()
			t.IncrementVersion()
			return true
		}
	}
	return false
}
