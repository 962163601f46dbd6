package campaign

import (
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeCampaign      = "Campaign"
	AggregateTypeCampaignOrder = "CampaignOrder"
)

// Event type constants
const (
	EventTypeCampaignCreated     = "CampaignCreated"
	EventTypeCampaignOrderPlaced = "CampaignOrderPlaced"
	EventTypeCampaignOrderPaid   = "CampaignOrderPaid"
	EventTypeCampaignClosed      = "CampaignClosed"
	EventTypeCampaignPaid        = "CampaignPaid"
	EventTypeCampaignCompleted   = "CampaignCompleted"
	EventTypeCampaignCancelled   = "CampaignCancelled"
)

// CampaignCreatedEvent is published when an organizer creates a campaign
type CampaignCreatedEvent struct {
	shared.BaseDomainEvent
	CampaignID   uuid.UUID    `json:"campaign_id"`
	Slug         string       `json:"slug"`
	PaymentStyle PaymentStyle `json:"payment_style"`
	Deadline     time.Time    `json:"deadline"`
}

// NewCampaignCreatedEvent creates a new CampaignCreatedEvent
func NewCampaignCreatedEvent(c *Campaign) *CampaignCreatedEvent {
	return &CampaignCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCampaignCreated, AggregateTypeCampaign, c.ID),
		CampaignID:      c.ID,
		Slug:            c.Slug,
		PaymentStyle:    c.PaymentStyle,
		Deadline:        c.Deadline,
	}
}

// CampaignOrderPlacedEvent is published when a participant orders
type CampaignOrderPlacedEvent struct {
	shared.BaseDomainEvent
	CampaignOrderID uuid.UUID       `json:"campaign_order_id"`
	CampaignID      uuid.UUID       `json:"campaign_id"`
	Slug            string          `json:"slug"`
	Quantity        int             `json:"quantity"`
	Total           decimal.Decimal `json:"total"`
	Status          OrderStatus     `json:"status"`
}

// NewCampaignOrderPlacedEvent creates a new CampaignOrderPlacedEvent
func NewCampaignOrderPlacedEvent(c *Campaign, o *CampaignOrder) *CampaignOrderPlacedEvent {
	return &CampaignOrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCampaignOrderPlaced, AggregateTypeCampaignOrder, o.ID),
		CampaignOrderID: o.ID,
		CampaignID:      c.ID,
		Slug:            c.Slug,
		Quantity:        o.Quantity,
		Total:           o.Total,
		Status:          o.Status,
	}
}

// CampaignOrderPaidEvent is published when a participant order is paid
type CampaignOrderPaidEvent struct {
	shared.BaseDomainEvent
	CampaignOrderID uuid.UUID       `json:"campaign_order_id"`
	CampaignID      uuid.UUID       `json:"campaign_id"`
	CustomerID      *uuid.UUID      `json:"customer_id,omitempty"`
	Total           decimal.Decimal `json:"total"`
}

// NewCampaignOrderPaidEvent creates a new CampaignOrderPaidEvent
func NewCampaignOrderPaidEvent(o *CampaignOrder) *CampaignOrderPaidEvent {
	return &CampaignOrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCampaignOrderPaid, AggregateTypeCampaignOrder, o.ID),
		CampaignOrderID: o.ID,
		CampaignID:      o.CampaignID,
		CustomerID:      o.CustomerID,
		Total:           o.Total,
	}
}

// CampaignStatusEvent carries a campaign lifecycle change
type CampaignStatusEvent struct {
	shared.BaseDomainEvent
	CampaignID uuid.UUID       `json:"campaign_id"`
	Slug       string          `json:"slug"`
	Status     Status          `json:"status"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Reason     string          `json:"reason,omitempty"`
}

func newCampaignStatusEvent(eventType string, c *Campaign) *CampaignStatusEvent {
	return &CampaignStatusEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCampaign, c.ID),
		CampaignID:      c.ID,
		Slug:            c.Slug,
		Status:          c.Status,
		AmountPaid:      c.AmountPaid,
		Reason:          c.CancelReason,
	}
}

// NewCampaignClosedEvent creates the event for a campaign that stopped taking orders
func NewCampaignClosedEvent(c *Campaign) *CampaignStatusEvent {
	return newCampaignStatusEvent(EventTypeCampaignClosed, c)
}

// NewCampaignPaidEvent creates the event for a received organizer payment
func NewCampaignPaidEvent(c *Campaign) *CampaignStatusEvent {
	return newCampaignStatusEvent(EventTypeCampaignPaid, c)
}

// NewCampaignCompletedEvent creates the event for a campaign sent to production
func NewCampaignCompletedEvent(c *Campaign) *CampaignStatusEvent {
	return newCampaignStatusEvent(EventTypeCampaignCompleted, c)
}

// NewCampaignCancelledEvent creates the event for a cancelled campaign
func NewCampaignCancelledEvent(c *Campaign) *CampaignStatusEvent {
	return newCampaignStatusEvent(EventTypeCampaignCancelled, c)
}
