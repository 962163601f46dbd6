package models

import (
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// GarmentModel is the persistence model for the Garment domain entity.
type GarmentModel struct {
	AggregateModel
	Name           string                           `gorm:"type:varchar(200);not null"`
	Brand          string                           `gorm:"type:varchar(100)"`
	StyleCode      string                           `gorm:"type:varchar(50);not null;uniqueIndex"`
	Category       catalog.GarmentCategory          `gorm:"type:varchar(30);not null;index"`
	Description    string                           `gorm:"type:text"`
	BasePrice      decimal.Decimal                  `gorm:"type:decimal(12,2);not null;default:0"`
	Colors         []catalog.Color                  `gorm:"type:jsonb;serializer:json;not null"`
	Sizes          []catalog.Size                   `gorm:"type:jsonb;serializer:json;not null"`
	SizeUpcharges  map[catalog.Size]decimal.Decimal `gorm:"type:jsonb;serializer:json"`
	PrintLocations []string                         `gorm:"type:jsonb;serializer:json"`
	Active         bool                             `gorm:"not null;index"`
	SortOrder      int                              `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (GarmentModel) TableName() string {
	return "garments"
}

// ToDomain converts the persistence model to a domain Garment entity.
func (m *GarmentModel) ToDomain() *catalog.Garment {
	upcharges := m.SizeUpcharges
	if upcharges == nil {
		upcharges = make(map[catalog.Size]decimal.Decimal)
	}
	return &catalog.Garment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Brand:             m.Brand,
		StyleCode:         m.StyleCode,
		Category:          m.Category,
		Description:       m.Description,
		BasePrice:         m.BasePrice,
		Colors:            m.Colors,
		Sizes:             m.Sizes,
		SizeUpcharges:     upcharges,
		PrintLocations:    m.PrintLocations,
		Active:            m.Active,
		SortOrder:         m.SortOrder,
	}
}

// FromDomain populates the persistence model from a domain Garment entity.
func (m *GarmentModel) FromDomain(g *catalog.Garment) {
	m.FromDomainAggregateRoot(g.BaseAggregateRoot)
	m.Name = g.Name
	m.Brand = g.Brand
	m.StyleCode = g.StyleCode
	m.Category = g.Category
	m.Description = g.Description
	m.BasePrice = g.BasePrice
	m.Colors = g.Colors
	m.Sizes = g.Sizes
	m.SizeUpcharges = g.SizeUpcharges
	m.PrintLocations = g.PrintLocations
	m.Active = g.Active
	m.SortOrder = g.SortOrder
}

// GarmentModelFromDomain creates a new persistence model from a domain Garment entity.
func GarmentModelFromDomain(g *catalog.Garment) *GarmentModel {
	m := &GarmentModel{}
	m.FromDomain(g)
	return m
}
