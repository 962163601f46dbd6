package campaign

import (
	"time"

	"github.com/google/uuid"
	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/campaign"
	"github.com/shopspring/decimal"
)

// GarmentConfigRequest offers one garment in a campaign. A nil Price is
// replaced by the suggested campaign price; empty Sizes offers every size.
type GarmentConfigRequest struct {
	GarmentID uuid.UUID        `json:"garment_id" binding:"required"`
	Price     *decimal.Decimal `json:"price"`
	Colors    []string         `json:"colors" binding:"required,min=1,max=20"`
	Sizes     []string         `json:"sizes" binding:"max=10"`
}

// CreateCampaignRequest creates a campaign. Slug is generated from Name when empty.
type CreateCampaignRequest struct {
	Name             string                        `json:"name" binding:"required,min=1,max=120"`
	Slug             string                        `json:"slug" binding:"omitempty,min=3,max=60"`
	Description      string                        `json:"description" binding:"max=5000"`
	OrganizerName    string                        `json:"organizer_name" binding:"required,max=200"`
	OrganizerEmail   string                        `json:"organizer_email" binding:"required,email"`
	Deadline         time.Time                     `json:"deadline" binding:"required"`
	PaymentStyle     string                        `json:"payment_style" binding:"required,oneof=organizer_pays everyone_pays"`
	ExpectedQuantity int                           `json:"expected_quantity" binding:"omitempty,min=1,max=10000"`
	Artwork          []artworkapp.PlacementRequest `json:"artwork" binding:"required,min=1,max=6,dive"`
	GarmentConfigs   []GarmentConfigRequest        `json:"garment_configs" binding:"required,min=1,max=10,dive"`
	Notes            string                        `json:"notes" binding:"max=5000"`
}

// CreateCampaignResponse is the new campaign and the organizer's token
type CreateCampaignResponse struct {
	Campaign                CampaignResponse `json:"campaign"`
	OrganizerToken          string           `json:"organizer_token"`
	OrganizerTokenExpiresAt time.Time        `json:"organizer_token_expires_at"`
}

// UpdateCampaignRequest edits an active campaign. Nil fields are unchanged.
type UpdateCampaignRequest struct {
	Name           *string                       `json:"name" binding:"omitempty,min=1,max=120"`
	Description    *string                       `json:"description" binding:"omitempty,max=5000"`
	Deadline       *time.Time                    `json:"deadline"`
	Artwork        []artworkapp.PlacementRequest `json:"artwork" binding:"omitempty,min=1,max=6,dive"`
	GarmentConfigs []GarmentConfigRequest        `json:"garment_configs" binding:"omitempty,min=1,max=10,dive"`
	Notes          *string                       `json:"notes" binding:"omitempty,max=5000"`
}

// CampaignListFilter holds admin list query parameters
type CampaignListFilter struct {
	Search       string `form:"search"`
	Status       string `form:"status"`
	PaymentStyle string `form:"payment_style"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir"`
}

// PlaceOrderRequest is a participant's order
type PlaceOrderRequest struct {
	ParticipantName  string    `json:"participant_name" binding:"required,max=200"`
	ParticipantEmail string    `json:"participant_email" binding:"required,email"`
	GarmentConfigID  uuid.UUID `json:"garment_config_id" binding:"required"`
	Color            string    `json:"color" binding:"required"`
	Size             string    `json:"size" binding:"required"`
	Quantity         int       `json:"quantity" binding:"required,min=1,max=50"`
}

// PlaceOrderResponse is the placed order, plus a client secret when the participant pays
type PlaceOrderResponse struct {
	Order           CampaignOrderResponse `json:"order"`
	PaymentIntentID string                `json:"payment_intent_id,omitempty"`
	ClientSecret    string                `json:"client_secret,omitempty"`
}

// CampaignOrderListFilter holds organizer list query parameters
type CampaignOrderListFilter struct {
	Status          string     `form:"status"`
	GarmentConfigID *uuid.UUID `form:"garment_config_id"`
	Page            int        `form:"page"`
	PageSize        int        `form:"page_size"`
	OrderBy         string     `form:"order_by"`
	OrderDir        string     `form:"order_dir"`
}

// PayResponse is the organizer's payment intent
type PayResponse struct {
	Amount          decimal.Decimal `json:"amount"`
	PaymentIntentID string          `json:"payment_intent_id"`
	ClientSecret    string          `json:"client_secret"`
	Reused          bool            `json:"reused"`
}

// CancelCampaignRequest cancels a campaign
type CancelCampaignRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// GarmentConfigResponse is a garment offered by a campaign
type GarmentConfigResponse struct {
	ID          uuid.UUID       `json:"id"`
	GarmentID   uuid.UUID       `json:"garment_id"`
	GarmentName string          `json:"garment_name"`
	StyleCode   string          `json:"style_code"`
	Price       decimal.Decimal `json:"price"`
	Colors      []string        `json:"colors"`
	Sizes       []string        `json:"sizes"`
}

// PlacementResponse is artwork printed at one location
type PlacementResponse struct {
	Location      string            `json:"location"`
	ArtworkFileID *uuid.UUID        `json:"artwork_file_id,omitempty"`
	InkColors     int               `json:"ink_colors"`
	FullColor     bool              `json:"full_color"`
	Transform     artwork.Transform `json:"transform"`
}

// CampaignResponse represents a campaign. Organizer email, notes and
// payment details are left out of the public view.
type CampaignResponse struct {
	ID                uuid.UUID               `json:"id"`
	Slug              string                  `json:"slug"`
	Name              string                  `json:"name"`
	Description       string                  `json:"description"`
	OrganizerName     string                  `json:"organizer_name"`
	OrganizerEmail    string                  `json:"organizer_email,omitempty"`
	Deadline          time.Time               `json:"deadline"`
	PaymentStyle      string                  `json:"payment_style"`
	Status            string                  `json:"status"`
	AcceptingOrders   bool                    `json:"accepting_orders"`
	ExpectedQuantity  int                     `json:"expected_quantity"`
	Artwork           []PlacementResponse     `json:"artwork"`
	GarmentConfigs    []GarmentConfigResponse `json:"garment_configs"`
	Notes             string                  `json:"notes,omitempty"`
	ClosedAt          *time.Time              `json:"closed_at,omitempty"`
	CompletedAt       *time.Time              `json:"completed_at,omitempty"`
	CancelledAt       *time.Time              `json:"cancelled_at,omitempty"`
	CancelReason      string                  `json:"cancel_reason,omitempty"`
	ProductionOrderID *uuid.UUID              `json:"production_order_id,omitempty"`
	PaymentStatus     string                  `json:"payment_status,omitempty"`
	AmountPaid        *decimal.Decimal        `json:"amount_paid,omitempty"`
	PaidAt            *time.Time              `json:"paid_at,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// CampaignOrderResponse represents a participant order
type CampaignOrderResponse struct {
	ID               uuid.UUID       `json:"id"`
	CampaignID       uuid.UUID       `json:"campaign_id"`
	ParticipantName  string          `json:"participant_name"`
	ParticipantEmail string          `json:"participant_email"`
	GarmentConfigID  uuid.UUID       `json:"garment_config_id"`
	GarmentName      string          `json:"garment_name"`
	Color            string          `json:"color"`
	Size             string          `json:"size"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Total            decimal.Decimal `json:"total"`
	Status           string          `json:"status"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// StatsResponse is the organizer dashboard
type StatsResponse struct {
	Slug          string    `json:"slug"`
	Status        string    `json:"status"`
	PaymentStyle  string    `json:"payment_style"`
	PaymentStatus string    `json:"payment_status"`
	Deadline      time.Time `json:"deadline"`
	campaign.Stats
}

// ToCampaignResponse converts a campaign to its organizer and admin view
func ToCampaignResponse(c *campaign.Campaign, now time.Time) CampaignResponse {
	resp := ToPublicCampaignResponse(c, now)
	resp.OrganizerEmail = c.OrganizerEmail
	resp.Notes = c.Notes
	resp.ProductionOrderID = c.ProductionOrderID
	resp.PaymentStatus = string(c.PaymentStatus)
	paid := c.AmountPaid
	resp.AmountPaid = &paid
	resp.PaidAt = c.PaidAt
	return resp
}

// ToPublicCampaignResponse converts a campaign to the participant view
func ToPublicCampaignResponse(c *campaign.Campaign, now time.Time) CampaignResponse {
	placements := make([]PlacementResponse, len(c.Artwork))
	for i, p := range c.Artwork {
		placements[i] = PlacementResponse{
			Location:      string(p.Location),
			ArtworkFileID: p.ArtworkFileID,
			InkColors:     p.InkColors,
			FullColor:     p.FullColor,
			Transform:     p.Transform,
		}
	}
	configs := make([]GarmentConfigResponse, len(c.GarmentConfigs))
	for i, cfg := range c.GarmentConfigs {
		sizes := make([]string, len(cfg.Sizes))
		for j, s := range cfg.Sizes {
			sizes[j] = string(s)
		}
		configs[i] = GarmentConfigResponse{
			ID:          cfg.ID,
			GarmentID:   cfg.GarmentID,
			GarmentName: cfg.GarmentName,
			StyleCode:   cfg.StyleCode,
			Price:       cfg.Price,
			Colors:      cfg.Colors,
			Sizes:       sizes,
		}
	}
	return CampaignResponse{
		ID:               c.ID,
		Slug:             c.Slug,
		Name:             c.Name,
		Description:      c.Description,
		OrganizerName:    c.OrganizerName,
		Deadline:         c.Deadline,
		PaymentStyle:     string(c.PaymentStyle),
		Status:           c.Status.String(),
		AcceptingOrders:  c.AcceptingOrders(now),
		ExpectedQuantity: c.ExpectedQuantity,
		Artwork:          placements,
		GarmentConfigs:   configs,
		ClosedAt:         c.ClosedAt,
		CompletedAt:      c.CompletedAt,
		CancelledAt:      c.CancelledAt,
		CancelReason:     c.CancelReason,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// ToCampaignOrderResponse converts a participant order to a response
func ToCampaignOrderResponse(o *campaign.CampaignOrder) CampaignOrderResponse {
	return CampaignOrderResponse{
		ID:               o.ID,
		CampaignID:       o.CampaignID,
		ParticipantName:  o.ParticipantName,
		ParticipantEmail: o.ParticipantEmail,
		GarmentConfigID:  o.GarmentConfigID,
		GarmentName:      o.GarmentName,
		Color:            o.Color,
		Size:             string(o.Size),
		Quantity:         o.Quantity,
		UnitPrice:        o.UnitPrice,
		Total:            o.Total,
		Status:           string(o.Status),
		PaidAt:           o.PaidAt,
		CreatedAt:        o.CreatedAt,
	}
}
