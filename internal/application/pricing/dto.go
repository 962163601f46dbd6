package pricing

import (
	"github.com/google/uuid"
)

// LocationRequest is a print location in quote and checkout requests
type LocationRequest struct {
	Location  string `json:"location" binding:"required"`
	InkColors int    `json:"ink_colors" binding:"omitempty,min=1,max=6"`
	FullColor bool   `json:"full_color"`
}

// LineRequest is one garment/color with a size breakdown
type LineRequest struct {
	GarmentID uuid.UUID      `json:"garment_id" binding:"required"`
	Color     string         `json:"color" binding:"required"`
	Sizes     map[string]int `json:"sizes" binding:"required,min=1,dive,gte=0,lte=10000"`
}

// QuoteRequest represents a request for a price quote
type QuoteRequest struct {
	Lines     []LineRequest     `json:"lines" binding:"required,min=1,max=20,dive"`
	Locations []LocationRequest `json:"locations" binding:"required,min=1,max=6,dive"`
}
