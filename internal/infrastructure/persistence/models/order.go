package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/order"
	"github.com/inkthread/storefront/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	AggregateModel
	OrderNumber         string              `gorm:"type:varchar(20);not null;uniqueIndex"`
	CustomerID          uuid.UUID           `gorm:"type:uuid;not null;index"`
	Email               string              `gorm:"type:varchar(254);not null;index"`
	CustomerName        string              `gorm:"type:varchar(200)"`
	ShippingAddress     valueobject.Address `gorm:"type:jsonb"`
	CampaignID          *uuid.UUID          `gorm:"type:uuid;index"`
	Notes               string              `gorm:"type:text"`
	TotalQuantity       int                 `gorm:"not null;default:0"`
	MerchandiseSubtotal decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	SetupFees           decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	Shipping            decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	Total               decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	RefundedAmount      decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	Status              order.Status        `gorm:"type:varchar(20);not null;default:'pending_payment';index"`
	PaymentIntentID     string              `gorm:"type:varchar(100);index"`
	PaidAt              *time.Time
	TrackingNumber      string `gorm:"type:varchar(100)"`
	Carrier             string `gorm:"type:varchar(50)"`
	ShippedAt           *time.Time
	DeliveredAt         *time.Time
	CancelledAt         *time.Time
	CancelReason        string                    `gorm:"type:varchar(500)"`
	Items               []OrderItemModel          `gorm:"foreignKey:OrderID"`
	PrintLocations      []OrderPrintLocationModel `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		OrderNumber:         m.OrderNumber,
		CustomerID:          m.CustomerID,
		Email:               m.Email,
		CustomerName:        m.CustomerName,
		ShippingAddress:     m.ShippingAddress,
		CampaignID:          m.CampaignID,
		Notes:               m.Notes,
		TotalQuantity:       m.TotalQuantity,
		MerchandiseSubtotal: m.MerchandiseSubtotal,
		SetupFees:           m.SetupFees,
		Shipping:            m.Shipping,
		Total:               m.Total,
		RefundedAmount:      m.RefundedAmount,
		Status:              m.Status,
		PaymentIntentID:     m.PaymentIntentID,
		PaidAt:              m.PaidAt,
		TrackingNumber:      m.TrackingNumber,
		Carrier:             m.Carrier,
		ShippedAt:           m.ShippedAt,
		DeliveredAt:         m.DeliveredAt,
		CancelledAt:         m.CancelledAt,
		CancelReason:        m.CancelReason,
		Items:               make([]order.Item, len(m.Items)),
		PrintLocations:      make([]order.PrintLocation, len(m.PrintLocations)),
	}
	for i := range m.Items {
		o.Items[i] = m.Items[i].ToDomain()
	}
	for i := range m.PrintLocations {
		o.PrintLocations[i] = m.PrintLocations[i].ToDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.Email = o.Email
	m.CustomerName = o.CustomerName
	m.ShippingAddress = o.ShippingAddress
	m.CampaignID = o.CampaignID
	m.Notes = o.Notes
	m.TotalQuantity = o.TotalQuantity
	m.MerchandiseSubtotal = o.MerchandiseSubtotal
	m.SetupFees = o.SetupFees
	m.Shipping = o.Shipping
	m.Total = o.Total
	m.RefundedAmount = o.RefundedAmount
	m.Status = o.Status
	m.PaymentIntentID = o.PaymentIntentID
	m.PaidAt = o.PaidAt
	m.TrackingNumber = o.TrackingNumber
	m.Carrier = o.Carrier
	m.ShippedAt = o.ShippedAt
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.Items = make([]OrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i].FromDomain(&o.Items[i])
	}
	m.PrintLocations = make([]OrderPrintLocationModel, len(o.PrintLocations))
	for i := range o.PrintLocations {
		m.PrintLocations[i].FromDomain(&o.PrintLocations[i])
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for order lines.
type OrderItemModel struct {
	ID          uuid.UUID            `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	GarmentID   uuid.UUID            `gorm:"type:uuid;not null"`
	GarmentName string               `gorm:"type:varchar(200);not null"`
	StyleCode   string               `gorm:"type:varchar(50)"`
	Color       string               `gorm:"type:varchar(100);not null"`
	Sizes       map[catalog.Size]int `gorm:"type:jsonb;serializer:json;not null"`
	Quantity    int                  `gorm:"not null"`
	UnitPrice   decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	LineTotal   decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain order Item.
func (m *OrderItemModel) ToDomain() order.Item {
	return order.Item{
		ID:          m.ID,
		OrderID:     m.OrderID,
		GarmentID:   m.GarmentID,
		GarmentName: m.GarmentName,
		StyleCode:   m.StyleCode,
		Color:       m.Color,
		Sizes:       m.Sizes,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		LineTotal:   m.LineTotal,
	}
}

// FromDomain populates the persistence model from a domain order Item.
func (m *OrderItemModel) FromDomain(it *order.Item) {
	m.ID = it.ID
	m.OrderID = it.OrderID
	m.GarmentID = it.GarmentID
	m.GarmentName = it.GarmentName
	m.StyleCode = it.StyleCode
	m.Color = it.Color
	m.Sizes = it.Sizes
	m.Quantity = it.Quantity
	m.UnitPrice = it.UnitPrice
	m.LineTotal = it.LineTotal
}

// OrderPrintLocationModel is the persistence model for order print locations.
type OrderPrintLocationModel struct {
	ID            uuid.UUID             `gorm:"type:uuid;primary_key"`
	OrderID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	Location      artwork.PrintLocation `gorm:"type:varchar(20);not null"`
	ArtworkFileID *uuid.UUID            `gorm:"type:uuid"`
	InkColors     int                   `gorm:"not null;default:1"`
	FullColor     bool                  `gorm:"not null;default:false"`
	Transform     artwork.Transform     `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (OrderPrintLocationModel) TableName() string {
	return "order_print_locations"
}

// ToDomain converts the persistence model to a domain PrintLocation.
func (m *OrderPrintLocationModel) ToDomain() order.PrintLocation {
	return order.PrintLocation{
		ID:            m.ID,
		OrderID:       m.OrderID,
		Location:      m.Location,
		ArtworkFileID: m.ArtworkFileID,
		InkColors:     m.InkColors,
		FullColor:     m.FullColor,
		Transform:     m.Transform,
	}
}

// FromDomain populates the persistence model from a domain PrintLocation.
func (m *OrderPrintLocationModel) FromDomain(pl *order.PrintLocation) {
	m.ID = pl.ID
	m.OrderID = pl.OrderID
	m.Location = pl.Location
	m.ArtworkFileID = pl.ArtworkFileID
	m.InkColors = pl.InkColors
	m.FullColor = pl.FullColor
	m.Transform = pl.Transform
}
