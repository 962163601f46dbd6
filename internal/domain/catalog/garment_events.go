package catalog

import (
	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeGarment = "Garment"

// Event type constants
const (
	EventTypeGarmentCreated = "GarmentCreated"
	EventTypeGarmentUpdated = "GarmentUpdated"
)

// GarmentCreatedEvent is published when a new garment is added to the catalog
type GarmentCreatedEvent struct {
	shared.BaseDomainEvent
	GarmentID uuid.UUID       `json:"garment_id"`
	StyleCode string          `json:"style_code"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
}

// NewGarmentCreatedEvent creates a new GarmentCreatedEvent
func NewGarmentCreatedEvent(g *Garment) *GarmentCreatedEvent {
	return &GarmentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGarmentCreated, AggregateTypeGarment, g.ID),
		GarmentID:       g.ID,
		StyleCode:       g.StyleCode,
		Name:            g.Name,
		BasePrice:       g.BasePrice,
	}
}

// GarmentUpdatedEvent is published when a garment changes
type GarmentUpdatedEvent struct {
	shared.BaseDomainEvent
	GarmentID uuid.UUID `json:"garment_id"`
	StyleCode string    `json:"style_code"`
	Active    bool      `json:"active"`
}

// NewGarmentUpdatedEvent creates a new GarmentUpdatedEvent
func NewGarmentUpdatedEvent(g *Garment) *GarmentUpdatedEvent {
	return &GarmentUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGarmentUpdated, AggregateTypeGarment, g.ID),
		GarmentID:       g.ID,
		StyleCode:       g.StyleCode,
		Active:          g.Active,
	}
}
