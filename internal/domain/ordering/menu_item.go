package ordering

import (
	"context"

	"github.com/havano/pos-backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MenuItem is the catalog record behind an order line: display name,
// default unit and list rate for an item code.
type MenuItem struct {
	shared.BaseEntity
	Code     string
	Name     string
	Unit     string
	Rate     decimal.Decimal
	Category string
	Disabled bool
}

// NewMenuItem creates a menu item
func NewMenuItem(code, name, unit string, rate decimal.Decimal) (*MenuItem, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item code cannot be empty")
	}
	if unit == "" {
		unit = "Nos"
	}
	return &MenuItem{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
		Unit:       unit,
		Rate:       rate,
	}, nil
}

// MenuItemRepository reads catalog items
type MenuItemRepository interface {
	FindByCode(ctx context.Context, code string) (*MenuItem, error)
	// FindByCodes bulk-resolves items; unknown codes are simply absent
	// from the result.
	FindByCodes(ctx context.Context, codes []string) (map[string]MenuItem, error)
	Search(ctx context.Context, term string, limit int) ([]MenuItem, error)
	Create(ctx context.Context, item *MenuItem) error
}
