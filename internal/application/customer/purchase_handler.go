package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/campaign"
	"github.com/inkthread/storefront/internal/domain/customer"
	"github.com/inkthread/storefront/internal/domain/order"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PurchaseRecorder updates customer statistics when orders are paid.
// Each paid order must be delivered once; wrap it in an idempotent handler.
type PurchaseRecorder struct {
	customerRepo customer.CustomerRepository
	logger       *zap.Logger
}

// NewPurchaseRecorder creates a new PurchaseRecorder
func NewPurchaseRecorder(customerRepo customer.CustomerRepository, logger *zap.Logger) *PurchaseRecorder {
	return &PurchaseRecorder{customerRepo: customerRepo, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *PurchaseRecorder) EventTypes() []string {
	return []string{order.EventTypeOrderPaid, campaign.EventTypeCampaignOrderPaid}
}

// Handle records the purchase on the paying customer
func (h *PurchaseRecorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	var (
		customerID uuid.UUID
		amount     decimal.Decimal
	)
	switch e := event.(type) {
	case *order.OrderPaidEvent:
		customerID, amount = e.CustomerID, e.Amount
	case *campaign.CampaignOrderPaidEvent:
		if e.CustomerID == nil {
			return nil
		}
		customerID, amount = *e.CustomerID, e.Total
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	if customerID == uuid.Nil {
		return nil
	}

	c, err := h.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.logger.Warn("paid order references unknown customer",
				zap.String("customer_id", customerID.String()),
				zap.String("event_type", event.EventType()))
			return nil
		}
		return fmt.Errorf("failed to load customer: %w", err)
	}
	if err := c.RecordPurchase(amount, event.OccurredAt()); err != nil {
		return err
	}
	if err := h.customerRepo.Save(ctx, c); err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}
	h.logger.Debug("recorded purchase",
		zap.String("customer_id", c.ID.String()),
		zap.String("amount", amount.String()),
		zap.Int("order_count", c.OrderCount))
	return nil
}

// RefundRecorder lowers customer spend when orders are refunded
type RefundRecorder struct {
	customerRepo customer.CustomerRepository
	logger       *zap.Logger
}

// NewRefundRecorder creates a new RefundRecorder
func NewRefundRecorder(customerRepo customer.CustomerRepository, logger *zap.Logger) *RefundRecorder {
	return &RefundRecorder{customerRepo: customerRepo, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *RefundRecorder) EventTypes() []string {
	return []string{order.EventTypeOrderRefunded}
}

// Handle subtracts the refunded amount
func (h *RefundRecorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*order.OrderRefundedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	if e.CustomerID == uuid.Nil {
		return nil
	}
	c, err := h.customerRepo.FindByID(ctx, e.CustomerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load customer: %w", err)
	}
	c.RecordRefund(e.Amount)
	return h.customerRepo.Save(ctx, c)
}
