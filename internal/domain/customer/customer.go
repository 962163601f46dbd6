package customer

import (
	"strings"
	"time"

	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Customer is a buyer identified by email.
// It is the aggregate root for customer-related operations.
type Customer struct {
	shared.BaseAggregateRoot
	Email            string
	Name             string
	Phone            string
	StripeCustomerID string
	OrderCount       int
	TotalSpent       decimal.Decimal
	LastOrderAt      *time.Time
}

// NewCustomer creates a customer for the given email
func NewCustomer(email, name string) (*Customer, error) {
	email = shared.NormalizeEmail(email)
	if err := shared.ValidateEmail(email); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	c := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		Name:              name,
		TotalSpent:        decimal.Zero,
	}
	c.AddDomainEvent(NewCustomerCreatedEvent(c))
	return c, nil
}

// UpdateContact fills in name and phone. Blank values keep what is stored.
func (c *Customer) UpdateContact(name, phone string) error {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	changed := false
	if name != "" && name != c.Name {
		c.Name = name
		changed = true
	}
	if phone != "" && phone != c.Phone {
		c.Phone = phone
		changed = true
	}
	if changed {
		c.MarkChanged()
	}
	return nil
}

// SetStripeCustomerID links the payment processor's customer record
func (c *Customer) SetStripeCustomerID(id string) {
	c.StripeCustomerID = id
	c.MarkChanged()
}

// RecordPurchase adds a paid order to the customer's statistics
func (c *Customer) RecordPurchase(amount decimal.Decimal, at time.Time) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Purchase amount cannot be negative")
	}
	c.OrderCount++
	c.TotalSpent = c.TotalSpent.Add(amount)
	if c.LastOrderAt == nil || at.After(*c.LastOrderAt) {
		c.LastOrderAt = &at
	}
	c.MarkChanged()
	return nil
}

// RecordRefund subtracts a refund from total spent, never below zero
func (c *Customer) RecordRefund(amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	c.TotalSpent = decimal.Max(decimal.Zero, c.TotalSpent.Sub(amount))
	c.MarkChanged()
}
