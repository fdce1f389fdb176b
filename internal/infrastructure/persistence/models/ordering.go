package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/havano/pos-backend/internal/domain/ordering"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for ordering.Order
type OrderModel struct {
	AggregateModel
	OrderNumber   string               `gorm:"type:varchar(50);uniqueIndex;not null"`
	OrderType     string               `gorm:"type:varchar(20);not null"`
	CustomerName  string               `gorm:"type:varchar(140)"`
	TableCode     string               `gorm:"type:varchar(140);index"`
	Waiter        string               `gorm:"type:varchar(140)"`
	PaymentStatus string               `gorm:"type:varchar(20);not null;default:'Unpaid'"`
	OrderStatus   string               `gorm:"type:varchar(20);not null;default:'Open';index"`
	TotalPrice    decimal.Decimal      `gorm:"type:decimal(15,2);not null"`
	Lines         ordering.OrderLines  `gorm:"type:jsonb;not null"`
	InvoiceID     *uuid.UUID           `gorm:"type:uuid;uniqueIndex"`
	ClosedAt      *time.Time
}

// TableName specifies the database table name
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the model to a domain Order
func (m *OrderModel) ToDomain() *ordering.Order {
	return &ordering.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		OrderType:         ordering.OrderType(m.OrderType),
		CustomerName:      m.CustomerName,
		TableCode:         m.TableCode,
		Waiter:            m.Waiter,
		PaymentStatus:     ordering.PaymentStatus(m.PaymentStatus),
		OrderStatus:       ordering.OrderStatus(m.OrderStatus),
		TotalPrice:        m.TotalPrice,
		Lines:             m.Lines,
		InvoiceID:         m.InvoiceID,
		ClosedAt:          m.ClosedAt,
	}
}

// FromDomain populates the model from a domain Order
func (m *OrderModel) FromDomain(o *ordering.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.OrderType = string(o.OrderType)
	m.CustomerName = o.CustomerName
	m.TableCode = o.TableCode
	m.Waiter = o.Waiter
	m.PaymentStatus = string(o.PaymentStatus)
	m.OrderStatus = string(o.OrderStatus)
	m.TotalPrice = o.TotalPrice
	m.Lines = o.Lines
	m.InvoiceID = o.InvoiceID
	m.ClosedAt = o.ClosedAt
}

// MenuItemModel is the persistence model for ordering.MenuItem
type MenuItemModel struct {
	BaseModel
	Code     string          `gorm:"type:varchar(140);uniqueIndex;not null"`
	Name     string          `gorm:"type:varchar(140)"`
	Unit     string          `gorm:"type:varchar(50)"`
	Rate     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Category string          `gorm:"type:varchar(140);index"`
	Disabled bool            `gorm:"not null;default:false"`
}

// TableName specifies the database table name
func (MenuItemModel) TableName() string {
	return "menu_items"
}

// ToDomain converts the model to a domain MenuItem
func (m *MenuItemModel) ToDomain() *ordering.MenuItem {
	return &ordering.MenuItem{
		BaseEntity: m.BaseModel.ToDomain(),
		Code:       m.Code,
		Name:       m.Name,
		Unit:       m.Unit,
		Rate:       m.Rate,
		Category:   m.Category,
		Disabled:   m.Disabled,
	}
}

// FromDomain populates the model from a domain MenuItem
func (m *MenuItemModel) FromDomain(item *ordering.MenuItem) {
	m.FromDomainBaseEntity(item.BaseEntity)
	m.Code = item.Code
	m.Name = item.Name
	m.Unit = item.Unit
	m.Rate = item.Rate
	m.Category = item.Category
	m.Disabled = item.Disabled
}

// TableModel is the persistence model for ordering.Table
type TableModel struct {
	AggregateModel
	Code           string             `gorm:"type:varchar(50);uniqueIndex;not null"`
	AssignedWaiter string             `gorm:"type:varchar(140)"`
	CustomerName   string             `gorm:"type:varchar(140)"`
	Orders         ordering.OrderRefs `gorm:"type:jsonb;not null"`
}

// TableName specifies the database table name
func (TableModel) TableName() string {
	return "restaurant_tables"
}

// ToDomain converts the model to a domain Table
func (m *TableModel) ToDomain() *ordering.Table {
	return &ordering.Table{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		AssignedWaiter:    m.AssignedWaiter,
		CustomerName:      m.CustomerName,
		Orders:            m.Orders,
	}
}

// FromDomain populates the model from a domain Table
func (m *TableModel) FromDomain(t *ordering.Table) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Code = t.Code
	m.AssignedWaiter = t.AssignedWaiter
	m.CustomerName = t.CustomerName
	m.Orders = t.Orders
}
