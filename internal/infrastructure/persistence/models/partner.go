package models

import (
	"github.com/havano/pos-backend/internal/domain/partner"
)

// CustomerModel is the persistence model for partner.Customer
type CustomerModel struct {
	AggregateModel
	Name     string `gorm:"type:varchar(140);uniqueIndex;not null"`
	Mobile   string `gorm:"type:varchar(30)"`
	Group    string `gorm:"type:varchar(50)"`
	Disabled bool   `gorm:"not null;default:false"`
}

// TableName specifies the database table name
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the model to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Mobile:            m.Mobile,
		Group:             m.Group,
		Disabled:          m.Disabled,
	}
}

// FromDomain populates the model from a domain Customer
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Mobile = c.Mobile
	m.Group = c.Group
	m.Disabled = c.Disabled
}
