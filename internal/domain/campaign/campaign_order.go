package campaign

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Participant order quantity bounds
const (
	MinOrderQuantity = 1
	MaxOrderQuantity = 50
)

// OrderStatus represents the status of a participant's order
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
)

// IsValid checks if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPendingPayment, OrderStatusConfirmed, OrderStatusPaid,
		OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// IsLive reports whether the order still counts toward the campaign
func (s OrderStatus) IsLive() bool {
	return s == OrderStatusPendingPayment || s == OrderStatusConfirmed || s == OrderStatusPaid
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPendingPayment:
		return target == OrderStatusPaid || target == OrderStatusCancelled
	case OrderStatusConfirmed:
		return target == OrderStatusPaid || target == OrderStatusCancelled
	case OrderStatusPaid:
		return target == OrderStatusRefunded
	case OrderStatusCancelled, OrderStatusRefunded:
		return false // Terminal states
	}
	return false
}

// CampaignOrder is one participant's order within a campaign
type CampaignOrder struct {
	shared.BaseAggregateRoot
	CampaignID       uuid.UUID
	ParticipantName  string
	ParticipantEmail string
	CustomerID       *uuid.UUID
	GarmentConfigID  uuid.UUID
	GarmentID        uuid.UUID
	GarmentName      string
	Color            string
	Size             catalog.Size
	Quantity         int
	UnitPrice        decimal.Decimal
	Total            decimal.Decimal
	Status           OrderStatus
	PaymentIntentID  string
	PaidAt           *time.Time
	CancelledAt      *time.Time
}

// PlaceOrderInput is what a participant submits
type PlaceOrderInput struct {
	ParticipantName  string
	ParticipantEmail string
	CustomerID       *uuid.UUID
	GarmentConfigID  uuid.UUID
	Color            string
	Size             catalog.Size
	Quantity         int
}

// PlaceOrder creates a participant order. everyone_pays orders start in
// pending_payment, organizer_pays orders are confirmed straight away. The
// campaign's version moves, so it must be saved together with the order.
func (c *Campaign) PlaceOrder(in PlaceOrderInput, now time.Time) (*CampaignOrder, error) {
	if !c.AcceptingOrders(now) {
		return nil, shared.NewDomainError("CAMPAIGN_CLOSED", "This campaign is no longer accepting orders")
	}
	cfg, ok := c.FindGarmentConfig(in.GarmentConfigID)
	if !ok {
		return nil, shared.NewDomainError("INVALID_GARMENT_CONFIG", "Garment is not offered in this campaign")
	}
	color, ok := cfg.ResolveColor(in.Color)
	if !ok {
		return nil, shared.NewDomainError("INVALID_COLOR", fmt.Sprintf("%s is not offered in %q", cfg.GarmentName, in.Color))
	}
	if !cfg.HasSize(in.Size) {
		return nil, shared.NewDomainError("INVALID_SIZE", fmt.Sprintf("%s is not offered in size %s", cfg.GarmentName, in.Size))
	}
	if in.Quantity < MinOrderQuantity || in.Quantity > MaxOrderQuantity {
		return nil, shared.NewDomainError("INVALID_QUANTITY",
			fmt.Sprintf("Quantity must be between %d and %d", MinOrderQuantity, MaxOrderQuantity))
	}
	name := strings.TrimSpace(in.ParticipantName)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name is required")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	email := shared.NormalizeEmail(in.ParticipantEmail)
	if err := shared.ValidateEmail(email); err != nil {
		return nil, err
	}

	o := &CampaignOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CampaignID:        c.ID,
		ParticipantName:   name,
		ParticipantEmail:  email,
		CustomerID:        in.CustomerID,
		GarmentConfigID:   cfg.ID,
		GarmentID:         cfg.GarmentID,
		GarmentName:       cfg.GarmentName,
		Color:             color,
		Size:              in.Size,
		Quantity:          in.Quantity,
		UnitPrice:         cfg.Price,
		Total:             cfg.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
		Status:            OrderStatusConfirmed,
	}
	if c.PaymentStyle == PaymentStyleEveryonePays {
		o.Status = OrderStatusPendingPayment
	}
	o.AddDomainEvent(NewCampaignOrderPlacedEvent(c, o))
	// the campaign row is saved with the order so a concurrent close or
	// organizer payment conflicts instead of missing it
	c.touch()
	return o, nil
}

// NeedsPayment reports whether the participant pays for this order
func (o *CampaignOrder) NeedsPayment() bool {
	return o.Status == OrderStatusPendingPayment
}

// AttachPaymentIntent records the participant's payment intent
func (o *CampaignOrder) AttachPaymentIntent(intentID string) error {
	if o.Status != OrderStatusPendingPayment {
		return shared.NewDomainError("INVALID_STATE", "Order is not awaiting payment")
	}
	if intentID == "" {
		return shared.NewDomainError("INVALID_INPUT", "Payment intent ID cannot be empty")
	}
	o.PaymentIntentID = intentID
	o.touch()
	return nil
}

// MarkPaid records payment, from the participant's intent or the
// organizer's bulk payment. Repeating it is a no-op.
func (o *CampaignOrder) MarkPaid(intentID string, now time.Time) error {
	if o.Status == OrderStatusPaid {
		return nil
	}
	if !o.Status.CanTransitionTo(OrderStatusPaid) {
		return invalidOrderTransition(o.Status, OrderStatusPaid)
	}
	if o.PaymentIntentID == "" {
		o.PaymentIntentID = intentID
	}
	o.Status = OrderStatusPaid
	o.PaidAt = &now
	o.touch()
	o.AddDomainEvent(NewCampaignOrderPaidEvent(o))
	return nil
}

// Cancel cancels an unpaid order
func (o *CampaignOrder) Cancel(now time.Time) error {
	if o.Status == OrderStatusCancelled {
		return nil
	}
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return invalidOrderTransition(o.Status, OrderStatusCancelled)
	}
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.touch()
	return nil
}

// MarkRefunded records that a participant's payment was returned
func (o *CampaignOrder) MarkRefunded() error {
	if !o.Status.CanTransitionTo(OrderStatusRefunded) {
		return invalidOrderTransition(o.Status, OrderStatusRefunded)
	}
	o.Status = OrderStatusRefunded
	o.touch()
	return nil
}

// RefundLatePayment records the refund of a payment that arrived after the
// order was cancelled
func (o *CampaignOrder) RefundLatePayment(intentID string) error {
	if o.Status != OrderStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Only cancelled orders take late refunds")
	}
	if o.PaymentIntentID == "" {
		o.PaymentIntentID = intentID
	}
	o.Status = OrderStatusRefunded
	o.touch()
	return nil
}

func (o *CampaignOrder) touch() {
	o.MarkChanged()
}

func invalidOrderTransition(from, to OrderStatus) error {
	return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot change order status from %s to %s", from, to))
}
