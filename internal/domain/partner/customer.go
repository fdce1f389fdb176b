package partner

import (
	"time"

	"github.com/havano/pos-backend/internal/domain/shared"
)

// Customer is a billing party. Names are unique; walk-in guests share
// a configured default customer.
type Customer struct {
	shared.BaseAggregateRoot
	Name     string
	Mobile   string
	Group    string
	Disabled bool
}

// NewCustomer creates a customer
func NewCustomer(name, mobile string) (*Customer, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer name cannot be empty")
	}
	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Mobile:            mobile,
		Group:             "Individual",
	}, nil
}

// UpdateContact refreshes the customer's mobile number
func (c *Customer) UpdateContact(mobile string) {
	c.Mobile = mobile
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
