package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ColorInput is a color option in garment requests
type ColorInput struct {
	Name     string `json:"name" binding:"required,min=1,max=50"`
	Hex      string `json:"hex" binding:"required,hexcolor"`
	ImageURL string `json:"image_url" binding:"omitempty,url,max=500"`
}

// CreateGarmentRequest represents a request to add a garment to the catalog
type CreateGarmentRequest struct {
	Name           string                     `json:"name" binding:"required,min=1,max=200"`
	Brand          string                     `json:"brand" binding:"max=100"`
	StyleCode      string                     `json:"style_code" binding:"required,min=1,max=50"`
	Category       string                     `json:"category" binding:"required"`
	Description    string                     `json:"description" binding:"max=2000"`
	BasePrice      decimal.Decimal            `json:"base_price"`
	Colors         []ColorInput               `json:"colors" binding:"required,min=1,dive"`
	Sizes          []string                   `json:"sizes" binding:"required,min=1"`
	SizeUpcharges  map[string]decimal.Decimal `json:"size_upcharges"`
	PrintLocations []string                   `json:"print_locations"`
	Active         *bool                      `json:"active"`
	SortOrder      int                        `json:"sort_order"`
}

// UpdateGarmentRequest represents a partial garment update. Nil fields are left unchanged.
type UpdateGarmentRequest struct {
	Name           *string                    `json:"name" binding:"omitempty,min=1,max=200"`
	Brand          *string                    `json:"brand" binding:"omitempty,max=100"`
	Category       *string                    `json:"category"`
	Description    *string                    `json:"description" binding:"omitempty,max=2000"`
	BasePrice      *decimal.Decimal           `json:"base_price"`
	Colors         []ColorInput               `json:"colors" binding:"omitempty,dive"`
	Sizes          []string                   `json:"sizes"`
	SizeUpcharges  map[string]decimal.Decimal `json:"size_upcharges"`
	PrintLocations []string                   `json:"print_locations"`
	Active         *bool                      `json:"active"`
	SortOrder      *int                       `json:"sort_order"`
}

// GarmentListFilter holds list query parameters
type GarmentListFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// GarmentResponse represents a garment in API responses
type GarmentResponse struct {
	ID             uuid.UUID                  `json:"id"`
	Name           string                     `json:"name"`
	Brand          string                     `json:"brand"`
	StyleCode      string                     `json:"style_code"`
	Category       string                     `json:"category"`
	Description    string                     `json:"description"`
	BasePrice      decimal.Decimal            `json:"base_price"`
	Colors         []catalog.Color            `json:"colors"`
	Sizes          []string                   `json:"sizes"`
	SizeUpcharges  map[string]decimal.Decimal `json:"size_upcharges"`
	PrintLocations []string                   `json:"print_locations"`
	Active         bool                       `json:"active"`
	SortOrder      int                        `json:"sort_order"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
	Version        int                        `json:"version"`
}

// ToGarmentResponse converts a domain garment to a response
func ToGarmentResponse(g *catalog.Garment) GarmentResponse {
	sizes := make([]string, len(g.Sizes))
	for i, s := range g.Sizes {
		sizes[i] = string(s)
	}
	upcharges := make(map[string]decimal.Decimal, len(g.SizeUpcharges))
	for s, amount := range g.SizeUpcharges {
		upcharges[string(s)] = amount
	}
	return GarmentResponse{
		ID:             g.ID,
		Name:           g.Name,
		Brand:          g.Brand,
		StyleCode:      g.StyleCode,
		Category:       string(g.Category),
		Description:    g.Description,
		BasePrice:      g.BasePrice,
		Colors:         g.Colors,
		Sizes:          sizes,
		SizeUpcharges:  upcharges,
		PrintLocations: g.PrintLocations,
		Active:         g.Active,
		SortOrder:      g.SortOrder,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
		Version:        g.Version,
	}
}

// ToGarmentResponses converts a slice of garments
func ToGarmentResponses(garments []catalog.Garment) []GarmentResponse {
	out := make([]GarmentResponse, len(garments))
	for i := range garments {
		out[i] = ToGarmentResponse(&garments[i])
	}
	return out
}
