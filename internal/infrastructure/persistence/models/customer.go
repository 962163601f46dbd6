package models

import (
	"time"

	"github.com/inkthread/storefront/internal/domain/customer"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	AggregateModel
	Email            string          `gorm:"type:varchar(254);not null;uniqueIndex"`
	Name             string          `gorm:"type:varchar(200)"`
	Phone            string          `gorm:"type:varchar(50)"`
	StripeCustomerID string          `gorm:"type:varchar(100)"`
	OrderCount       int             `gorm:"not null;default:0"`
	TotalSpent       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	LastOrderAt      *time.Time
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *customer.Customer {
	return &customer.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Email:             m.Email,
		Name:              m.Name,
		Phone:             m.Phone,
		StripeCustomerID:  m.StripeCustomerID,
		OrderCount:        m.OrderCount,
		TotalSpent:        m.TotalSpent,
		LastOrderAt:       m.LastOrderAt,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *customer.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Email = c.Email
	m.Name = c.Name
	m.Phone = c.Phone
	m.StripeCustomerID = c.StripeCustomerID
	m.OrderCount = c.OrderCount
	m.TotalSpent = c.TotalSpent
	m.LastOrderAt = c.LastOrderAt
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *customer.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
