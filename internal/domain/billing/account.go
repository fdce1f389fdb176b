package billing

import (
	"time"

	"github.com/havano/pos-backend/internal/domain/shared"
)

// AccountType classifies a ledger account for payment routing
type AccountType string

const (
	AccountTypeCash       AccountType = "Cash"
	AccountTypeBank       AccountType = "Bank"
	AccountTypeReceivable AccountType = "Receivable"
)

// Account is a ledger account belonging to a company. Payment routing
// uses its type and currency; balances live in the ledger, not here.
type Account struct {
	shared.BaseEntity
	Name     string
	Company  string
	Type     AccountType
	Currency string
	Disabled bool
}

// NewAccount creates a ledger account
func NewAccount(name, company string, accountType AccountType, currency string) (*Account, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account name cannot be empty")
	}
	if currency == "" {
		currency = BaseCurrency
	}
	return &Account{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Company:    company,
		Type:       accountType,
		Currency:   currency,
	}, nil
}

// ModeOfPayment maps a payment method name to the account money lands in.
// Methods unknown at settlement time are provisioned on the fly as Cash.
type ModeOfPayment struct {
	shared.BaseEntity
	Name    string
	Type    AccountType
	Account string // destination account, may be empty
	Enabled bool
}

// NewModeOfPayment creates a payment method. An empty account is allowed;
// the resolver falls back to the company cash account.
func NewModeOfPayment(name string, accountType AccountType, account string) (*ModeOfPayment, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_MODE_OF_PAYMENT", "Mode of payment name cannot be empty")
	}
	if accountType == "" {
		accountType = AccountTypeCash
	}
	return &ModeOfPayment{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Type:       accountType,
		Account:    account,
		Enabled:    true,
	}, nil
}

// SetAccount updates the destination account
func (m *ModeOfPayment) SetAccount(account string) {
	m.Account = account
	m.UpdatedAt = time.Now()
}
