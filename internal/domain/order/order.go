package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/pricing"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Status represents the status of an order
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusPaid           Status = "paid"
	StatusInProduction   Status = "in_production"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusRefunded       Status = "refunded"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingPayment, StatusPaid, StatusInProduction, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPendingPayment:
		return target == StatusPaid || target == StatusCancelled
	case StatusPaid:
		return target == StatusInProduction || target == StatusRefunded
	case StatusInProduction:
		return target == StatusShipped || target == StatusRefunded
	case StatusShipped:
		return target == StatusDelivered
	case StatusDelivered, StatusCancelled, StatusRefunded:
		return false // Terminal states
	}
	return false
}

// IsRefundable reports whether money can be returned in this status
func (s Status) IsRefundable() bool {
	switch s {
	case StatusPaid, StatusInProduction, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// Item is one garment/color line of an order
type Item struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	GarmentID   uuid.UUID
	GarmentName string
	StyleCode   string
	Color       string
	Sizes       map[catalog.Size]int
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// NewItem creates an order item from a size breakdown and line total.
// UnitPrice is the line total divided by quantity.
func NewItem(orderID, garmentID uuid.UUID, garmentName, styleCode, color string, sizes map[catalog.Size]int, lineTotal decimal.Decimal) (*Item, error) {
	qty := 0
	clean := make(map[catalog.Size]int, len(sizes))
	for size, n := range sizes {
		if n < 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
		}
		if n > 0 {
			clean[size] = n
			qty += n
		}
	}
	if qty == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Item quantity must be positive")
	}
	if lineTotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Line total cannot be negative")
	}
	return &Item{
		ID:          uuid.New(),
		OrderID:     orderID,
		GarmentID:   garmentID,
		GarmentName: garmentName,
		StyleCode:   styleCode,
		Color:       color,
		Sizes:       clean,
		Quantity:    qty,
		UnitPrice:   valueobject.RoundCents(lineTotal.Div(decimal.NewFromInt(int64(qty)))),
		LineTotal:   lineTotal,
	}, nil
}

// PrintLocation is artwork placed at one location on every item
type PrintLocation struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	Location      artwork.PrintLocation
	ArtworkFileID *uuid.UUID
	InkColors     int
	FullColor     bool
	Transform     artwork.Transform
}

// Spec returns the pricing view of this location
func (p PrintLocation) Spec() pricing.LocationSpec {
	return pricing.LocationSpec{Location: p.Location, InkColors: p.InkColors, FullColor: p.FullColor}
}

// Customer identifies who placed the order
type Customer struct {
	ID      uuid.UUID
	Email   string
	Name    string
	Address valueobject.Address
}

// Order is a paid-for print job.
// It is the aggregate root for order-related operations.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber         string
	CustomerID          uuid.UUID
	Email               string
	CustomerName        string
	ShippingAddress     valueobject.Address
	CampaignID          *uuid.UUID
	Notes               string
	Items               []Item
	PrintLocations      []PrintLocation
	TotalQuantity       int
	MerchandiseSubtotal decimal.Decimal
	SetupFees           decimal.Decimal
	Shipping            decimal.Decimal
	Total               decimal.Decimal
	RefundedAmount      decimal.Decimal
	Status              Status
	PaymentIntentID     string
	PaidAt              *time.Time
	TrackingNumber      string
	Carrier             string
	ShippedAt           *time.Time
	DeliveredAt         *time.Time
	CancelledAt         *time.Time
	CancelReason        string
}

// NewOrder creates a pending_payment order from a priced quote.
// locations must match the quote's locations; transforms are normalized.
func NewOrder(orderNumber string, cust Customer, quote *pricing.Quote, locations []PrintLocation, notes string) (*Order, error) {
	if quote == nil || len(quote.Lines) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Order must have at least one item")
	}
	o, err := newOrder(orderNumber, cust, notes)
	if err != nil {
		return nil, err
	}
	if cust.Address.IsEmpty() {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Shipping address is required")
	}

	for _, line := range quote.Lines {
		item, err := NewItem(o.ID, line.GarmentID, line.GarmentName, line.StyleCode, line.Color, line.Sizes, line.LineTotal)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, *item)
	}
	if err := o.setPrintLocations(locations); err != nil {
		return nil, err
	}

	o.SetupFees = quote.SetupFees
	o.Shipping = quote.Shipping
	o.recalculateTotals()
	if !o.MerchandiseSubtotal.Equal(quote.MerchandiseSubtotal) || !o.Total.Equal(quote.Total) {
		return nil, shared.NewDomainError("QUOTE_MISMATCH", "Order totals do not match the quote")
	}

	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// NewCampaignProductionOrder creates the already-paid order that sends a
// finished campaign to production.
func NewCampaignProductionOrder(orderNumber string, campaignID uuid.UUID, cust Customer, items []Item, locations []PrintLocation, amountCollected decimal.Decimal) (*Order, error) {
	if len(items) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Order must have at least one item")
	}
	o, err := newOrder(orderNumber, cust, "")
	if err != nil {
		return nil, err
	}
	o.CampaignID = &campaignID
	for _, item := range items {
		item.ID = uuid.New()
		item.OrderID = o.ID
		o.Items = append(o.Items, item)
	}
	if err := o.setPrintLocations(locations); err != nil {
		return nil, err
	}
	o.SetupFees = decimal.Zero
	o.Shipping = decimal.Zero
	o.recalculateTotals()
	o.Total = amountCollected

	now := time.Now()
	o.Status = StatusPaid
	o.PaidAt = &now

	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

func newOrder(orderNumber string, cust Customer, notes string) (*Order, error) {
	if !IsValidOrderNumber(orderNumber) {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Invalid order number")
	}
	email := shared.NormalizeEmail(cust.Email)
	if err := shared.ValidateEmail(email); err != nil {
		return nil, err
	}
	if cust.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer is required")
	}
	if len(notes) > 2000 {
		return nil, shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 2000 characters")
	}
	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerID:        cust.ID,
		Email:             email,
		CustomerName:      strings.TrimSpace(cust.Name),
		ShippingAddress:   cust.Address,
		Notes:             notes,
		Status:            StatusPendingPayment,
		RefundedAmount:    decimal.Zero,
		SetupFees:         decimal.Zero,
		Shipping:          decimal.Zero,
	}, nil
}

func (o *Order) setPrintLocations(locations []PrintLocation) error {
	seen := make(map[artwork.PrintLocation]bool, len(locations))
	out := make([]PrintLocation, 0, len(locations))
	for _, loc := range locations {
		if !loc.Location.IsValid() {
			return shared.NewDomainError("INVALID_LOCATION", "Unknown print location: "+string(loc.Location))
		}
		if seen[loc.Location] {
			return shared.NewDomainError("DUPLICATE_LOCATION", "Print location listed twice: "+string(loc.Location))
		}
		seen[loc.Location] = true
		if loc.Transform.IsZero() {
			loc.Transform = artwork.DefaultTransform()
		}
		t, err := loc.Transform.Normalize()
		if err != nil {
			return err
		}
		loc.Transform = t
		loc.ID = uuid.New()
		loc.OrderID = o.ID
		out = append(out, loc)
	}
	o.PrintLocations = out
	return nil
}

// recalculateTotals recomputes quantity, merchandise subtotal and total
func (o *Order) recalculateTotals() {
	o.TotalQuantity = 0
	o.MerchandiseSubtotal = decimal.Zero
	for _, item := range o.Items {
		o.TotalQuantity += item.Quantity
		o.MerchandiseSubtotal = o.MerchandiseSubtotal.Add(item.LineTotal)
	}
	o.Total = o.MerchandiseSubtotal.Add(o.SetupFees).Add(o.Shipping)
}

// AttachPaymentIntent records the gateway intent created for this order
func (o *Order) AttachPaymentIntent(intentID string) error {
	if o.Status != StatusPendingPayment {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot attach payment in %s status", o.Status))
	}
	if intentID == "" {
		return shared.NewDomainError("INVALID_INPUT", "Payment intent ID cannot be empty")
	}
	o.PaymentIntentID = intentID
	o.touch()
	return nil
}

// MarkPaid records a successful payment. Repeating it for the same intent
// is a no-op.
func (o *Order) MarkPaid(intentID string) error {
	if o.PaidAt != nil && (intentID == "" || intentID == o.PaymentIntentID) {
		return nil
	}
	if !o.Status.CanTransitionTo(StatusPaid) {
		return invalidTransition(o.Status, StatusPaid)
	}
	if o.PaymentIntentID != "" && intentID != "" && o.PaymentIntentID != intentID {
		return shared.NewDomainError("PAYMENT_MISMATCH", "Payment intent does not belong to this order")
	}
	old := o.Status
	now := time.Now()
	if intentID != "" {
		o.PaymentIntentID = intentID
	}
	o.Status = StatusPaid
	o.PaidAt = &now
	o.touch()
	o.AddDomainEvent(NewOrderPaidEvent(o))
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, old, StatusPaid))
	return nil
}

// StartProduction moves a paid order into production
func (o *Order) StartProduction() error {
	return o.transition(StatusInProduction, nil)
}

// Ship records carrier and tracking and marks the order shipped
func (o *Order) Ship(carrier, trackingNumber string) error {
	carrier = strings.TrimSpace(carrier)
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return shared.NewDomainError("INVALID_INPUT", "Tracking number is required to ship")
	}
	return o.transition(StatusShipped, func(now time.Time) {
		o.Carrier = carrier
		o.TrackingNumber = trackingNumber
		o.ShippedAt = &now
	})
}

// Deliver marks a shipped order delivered
func (o *Order) Deliver() error {
	return o.transition(StatusDelivered, func(now time.Time) {
		o.DeliveredAt = &now
	})
}

// Cancel cancels an unpaid order
func (o *Order) Cancel(reason string) error {
	if len(reason) > 500 {
		return shared.NewDomainError("INVALID_INPUT", "Cancel reason cannot exceed 500 characters")
	}
	return o.transition(StatusCancelled, func(now time.Time) {
		o.CancelledAt = &now
		o.CancelReason = strings.TrimSpace(reason)
	})
}

// RefundableAmount is what has been paid and not yet refunded
func (o *Order) RefundableAmount() decimal.Decimal {
	return o.Total.Sub(o.RefundedAmount)
}

// Refund records a refund. Partial refunds accumulate; once the whole total
// has been refunded the order becomes refunded.
func (o *Order) Refund(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_INPUT", "Refund amount must be positive")
	}
	if !o.Status.IsRefundable() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot refund order in %s status", o.Status))
	}
	if amount.GreaterThan(o.RefundableAmount()) {
		return shared.NewDomainError("INVALID_INPUT",
			"Refund exceeds the remaining "+valueobject.FormatUSD(o.RefundableAmount()))
	}
	full := o.RefundedAmount.Add(amount).Equal(o.Total)
	if full && !o.Status.CanTransitionTo(StatusRefunded) {
		return invalidTransition(o.Status, StatusRefunded)
	}

	o.RefundedAmount = o.RefundedAmount.Add(amount)
	o.AddDomainEvent(NewOrderRefundedEvent(o, amount))
	if full {
		return o.transition(StatusRefunded, nil)
	}
	o.touch()
	return nil
}

// StatusUpdate carries the extra data some transitions need
type StatusUpdate struct {
	Carrier        string
	TrackingNumber string
	Reason         string
	PaymentIntent  string
}

// UpdateStatus dispatches an admin status write to the matching operation.
// Refunds go through Refund because they move money.
func (o *Order) UpdateStatus(target Status, data StatusUpdate) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+string(target))
	}
	switch target {
	case StatusPaid:
		return o.MarkPaid(data.PaymentIntent)
	case StatusInProduction:
		return o.StartProduction()
	case StatusShipped:
		return o.Ship(data.Carrier, data.TrackingNumber)
	case StatusDelivered:
		return o.Deliver()
	case StatusCancelled:
		return o.Cancel(data.Reason)
	case StatusRefunded:
		return o.Refund(o.RefundableAmount())
	}
	return invalidTransition(o.Status, target)
}

// IsCampaignOrder reports whether the order came from a campaign
func (o *Order) IsCampaignOrder() bool {
	return o.CampaignID != nil
}

func (o *Order) transition(target Status, apply func(now time.Time)) error {
	if !o.Status.CanTransitionTo(target) {
		return invalidTransition(o.Status, target)
	}
	old := o.Status
	now := time.Now()
	o.Status = target
	if apply != nil {
		apply(now)
	}
	o.touch()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, old, target))
	return nil
}

func (o *Order) touch() {
	o.MarkChanged()
}

func invalidTransition(from, to Status) error {
	return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot change order status from %s to %s", from, to))
}
