package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/campaign"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CampaignModel is the persistence model for the Campaign aggregate root.
type CampaignModel struct {
	AggregateModel
	Slug              string                `gorm:"type:varchar(60);not null;uniqueIndex"`
	Name              string                `gorm:"type:varchar(120);not null"`
	Description       string                `gorm:"type:text"`
	OrganizerName     string                `gorm:"type:varchar(200);not null"`
	OrganizerEmail    string                `gorm:"type:varchar(254);not null;index"`
	Deadline          time.Time             `gorm:"not null;index"`
	PaymentStyle      campaign.PaymentStyle `gorm:"type:varchar(20);not null"`
	Status            campaign.Status       `gorm:"type:varchar(20);not null;default:'active';index"`
	ClosedAt          *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	CancelReason      string                      `gorm:"type:varchar(500)"`
	ExpectedQuantity  int                         `gorm:"not null;default:24"`
	Artwork           []campaign.ArtworkPlacement `gorm:"type:jsonb;serializer:json"`
	Notes             string                      `gorm:"type:text"`
	ProductionOrderID *uuid.UUID                  `gorm:"type:uuid"`
	PaymentStatus     campaign.PaymentStatus      `gorm:"type:varchar(20);not null;default:'unpaid'"`
	PaymentIntentID   string                      `gorm:"type:varchar(100);index"`
	PaymentAmount     decimal.Decimal             `gorm:"type:decimal(12,2);not null;default:0"`
	AmountPaid        decimal.Decimal             `gorm:"type:decimal(12,2);not null;default:0"`
	PaidAt            *time.Time
	GarmentConfigs    []CampaignGarmentConfigModel `gorm:"foreignKey:CampaignID"`
}

// TableName returns the table name for GORM
func (CampaignModel) TableName() string {
	return "campaigns"
}

// ToDomain converts the persistence model to a domain Campaign entity.
func (m *CampaignModel) ToDomain() *campaign.Campaign {
	c := &campaign.Campaign{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Slug:              m.Slug,
		Name:              m.Name,
		Description:       m.Description,
		OrganizerName:     m.OrganizerName,
		OrganizerEmail:    m.OrganizerEmail,
		Deadline:          m.Deadline,
		PaymentStyle:      m.PaymentStyle,
		Status:            m.Status,
		ClosedAt:          m.ClosedAt,
		CompletedAt:       m.CompletedAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		ExpectedQuantity:  m.ExpectedQuantity,
		Artwork:           m.Artwork,
		Notes:             m.Notes,
		ProductionOrderID: m.ProductionOrderID,
		PaymentStatus:     m.PaymentStatus,
		PaymentIntentID:   m.PaymentIntentID,
		PaymentAmount:     m.PaymentAmount,
		AmountPaid:        m.AmountPaid,
		PaidAt:            m.PaidAt,
		GarmentConfigs:    make([]campaign.GarmentConfig, len(m.GarmentConfigs)),
	}
	for i := range m.GarmentConfigs {
		c.GarmentConfigs[i] = m.GarmentConfigs[i].ToDomain()
	}
	return c
}

// FromDomain populates the persistence model from a domain Campaign entity.
func (m *CampaignModel) FromDomain(c *campaign.Campaign) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Slug = c.Slug
	m.Name = c.Name
	m.Description = c.Description
	m.OrganizerName = c.OrganizerName
	m.OrganizerEmail = c.OrganizerEmail
	m.Deadline = c.Deadline
	m.PaymentStyle = c.PaymentStyle
	m.Status = c.Status
	m.ClosedAt = c.ClosedAt
	m.CompletedAt = c.CompletedAt
	m.CancelledAt = c.CancelledAt
	m.CancelReason = c.CancelReason
	m.ExpectedQuantity = c.ExpectedQuantity
	m.Artwork = c.Artwork
	m.Notes = c.Notes
	m.ProductionOrderID = c.ProductionOrderID
	m.PaymentStatus = c.PaymentStatus
	m.PaymentIntentID = c.PaymentIntentID
	m.PaymentAmount = c.PaymentAmount
	m.AmountPaid = c.AmountPaid
	m.PaidAt = c.PaidAt
	m.GarmentConfigs = make([]CampaignGarmentConfigModel, len(c.GarmentConfigs))
	for i := range c.GarmentConfigs {
		m.GarmentConfigs[i].FromDomain(&c.GarmentConfigs[i])
	}
}

// CampaignModelFromDomain creates a new persistence model from a domain Campaign entity.
func CampaignModelFromDomain(c *campaign.Campaign) *CampaignModel {
	m := &CampaignModel{}
	m.FromDomain(c)
	return m
}

// CampaignGarmentConfigModel is the persistence model for campaign garment configs.
type CampaignGarmentConfigModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	CampaignID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	GarmentID   uuid.UUID       `gorm:"type:uuid;not null"`
	GarmentName string          `gorm:"type:varchar(200);not null"`
	StyleCode   string          `gorm:"type:varchar(50)"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Colors      []string        `gorm:"type:jsonb;serializer:json;not null"`
	Sizes       []catalog.Size  `gorm:"type:jsonb;serializer:json;not null"`
	SortOrder   int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CampaignGarmentConfigModel) TableName() string {
	return "campaign_garment_configs"
}

// ToDomain converts the persistence model to a domain GarmentConfig.
func (m *CampaignGarmentConfigModel) ToDomain() campaign.GarmentConfig {
	return campaign.GarmentConfig{
		ID:          m.ID,
		CampaignID:  m.CampaignID,
		GarmentID:   m.GarmentID,
		GarmentName: m.GarmentName,
		StyleCode:   m.StyleCode,
		Price:       m.Price,
		Colors:      m.Colors,
		Sizes:       m.Sizes,
		SortOrder:   m.SortOrder,
	}
}

// FromDomain populates the persistence model from a domain GarmentConfig.
func (m *CampaignGarmentConfigModel) FromDomain(g *campaign.GarmentConfig) {
	m.ID = g.ID
	m.CampaignID = g.CampaignID
	m.GarmentID = g.GarmentID
	m.GarmentName = g.GarmentName
	m.StyleCode = g.StyleCode
	m.Price = g.Price
	m.Colors = g.Colors
	m.Sizes = g.Sizes
	m.SortOrder = g.SortOrder
}

// CampaignOrderModel is the persistence model for participant orders.
type CampaignOrderModel struct {
	AggregateModel
	CampaignID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	ParticipantName  string               `gorm:"type:varchar(200);not null"`
	ParticipantEmail string               `gorm:"type:varchar(254);not null;index"`
	CustomerID       *uuid.UUID           `gorm:"type:uuid"`
	GarmentConfigID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	GarmentID        uuid.UUID            `gorm:"type:uuid;not null"`
	GarmentName      string               `gorm:"type:varchar(200);not null"`
	Color            string               `gorm:"type:varchar(100);not null"`
	Size             catalog.Size         `gorm:"type:varchar(10);not null"`
	Quantity         int                  `gorm:"not null"`
	UnitPrice        decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	Total            decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	Status           campaign.OrderStatus `gorm:"type:varchar(20);not null;index"`
	PaymentIntentID  string               `gorm:"type:varchar(100);index"`
	PaidAt           *time.Time
	CancelledAt      *time.Time
}

// TableName returns the table name for GORM
func (CampaignOrderModel) TableName() string {
	return "campaign_orders"
}

// ToDomain converts the persistence model to a domain CampaignOrder entity.
func (m *CampaignOrderModel) ToDomain() *campaign.CampaignOrder {
	return &campaign.CampaignOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CampaignID:        m.CampaignID,
		ParticipantName:   m.ParticipantName,
		ParticipantEmail:  m.ParticipantEmail,
		CustomerID:        m.CustomerID,
		GarmentConfigID:   m.GarmentConfigID,
		GarmentID:         m.GarmentID,
		GarmentName:       m.GarmentName,
		Color:             m.Color,
		Size:              m.Size,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
		Total:             m.Total,
		Status:            m.Status,
		PaymentIntentID:   m.PaymentIntentID,
		PaidAt:            m.PaidAt,
		CancelledAt:       m.CancelledAt,
	}
}

// FromDomain populates the persistence model from a domain CampaignOrder entity.
func (m *CampaignOrderModel) FromDomain(o *campaign.CampaignOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.CampaignID = o.CampaignID
	m.ParticipantName = o.ParticipantName
	m.ParticipantEmail = o.ParticipantEmail
	m.CustomerID = o.CustomerID
	m.GarmentConfigID = o.GarmentConfigID
	m.GarmentID = o.GarmentID
	m.GarmentName = o.GarmentName
	m.Color = o.Color
	m.Size = o.Size
	m.Quantity = o.Quantity
	m.UnitPrice = o.UnitPrice
	m.Total = o.Total
	m.Status = o.Status
	m.PaymentIntentID = o.PaymentIntentID
	m.PaidAt = o.PaidAt
	m.CancelledAt = o.CancelledAt
}

// CampaignOrderModelFromDomain creates a new persistence model from a domain CampaignOrder entity.
func CampaignOrderModelFromDomain(o *campaign.CampaignOrder) *CampaignOrderModel {
	m := &CampaignOrderModel{}
	m.FromDomain(o)
	return m
}

// AllModels lists every persistence model, for AutoMigrate in tests and
// local SQLite runs.
func AllModels() []any {
	return []any{
		&GarmentModel{},
		&ArtworkFileModel{},
		&SavedArtworkModel{},
		&CustomerModel{},
		&OrderModel{},
		&OrderItemModel{},
		&OrderPrintLocationModel{},
		&CampaignModel{},
		&CampaignGarmentConfigModel{},
		&CampaignOrderModel{},
		&AdminUserModel{},
	}
}
