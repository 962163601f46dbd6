package order

import (
	"time"

	"github.com/google/uuid"
	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
	pricingapp "github.com/inkthread/storefront/internal/application/pricing"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/order"
	"github.com/inkthread/storefront/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AddressRequest is a shipping address in checkout requests
type AddressRequest struct {
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"max=50"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	Country    string `json:"country" binding:"omitempty,len=2"`
}

// CheckoutRequest places a shop order
type CheckoutRequest struct {
	Email           string                        `json:"email" binding:"required,email"`
	Name            string                        `json:"name" binding:"required,max=200"`
	Phone           string                        `json:"phone" binding:"max=50"`
	ShippingAddress AddressRequest                `json:"shipping_address" binding:"required"`
	Lines           []pricingapp.LineRequest      `json:"lines" binding:"required,min=1,max=20,dive"`
	Locations       []artworkapp.PlacementRequest `json:"locations" binding:"required,min=1,max=6,dive"`
	Notes           string                        `json:"notes" binding:"max=2000"`
}

// CheckoutResponse is the created order and the secret the browser confirms payment with
type CheckoutResponse struct {
	Order           OrderResponse `json:"order"`
	PaymentIntentID string        `json:"payment_intent_id"`
	ClientSecret    string        `json:"client_secret"`
}

// LookupRequest identifies an order for public status tracking
type LookupRequest struct {
	OrderNumber string `form:"order_number" binding:"required"`
	Email       string `form:"email" binding:"required,email"`
}

// OrderListFilter holds admin list query parameters
type OrderListFilter struct {
	Search     string     `form:"search"`
	Status     string     `form:"status"`
	CampaignID *uuid.UUID `form:"campaign_id"`
	CustomerID *uuid.UUID `form:"customer_id"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir"`
}

// UpdateStatusRequest moves an order through its lifecycle
type UpdateStatusRequest struct {
	Status         string `json:"status" binding:"required"`
	Carrier        string `json:"carrier" binding:"max=50"`
	TrackingNumber string `json:"tracking_number" binding:"max=100"`
	Reason         string `json:"reason" binding:"max=500"`
}

// RefundRequest returns money for an order. A nil Amount refunds what remains.
type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason" binding:"max=500"`
}

// ItemResponse is one garment/color line
type ItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	GarmentID   uuid.UUID       `json:"garment_id"`
	GarmentName string          `json:"garment_name"`
	StyleCode   string          `json:"style_code"`
	Color       string          `json:"color"`
	Sizes       map[string]int  `json:"sizes"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// PrintLocationResponse is artwork placed at one location
type PrintLocationResponse struct {
	Location      string            `json:"location"`
	ArtworkFileID *uuid.UUID        `json:"artwork_file_id,omitempty"`
	InkColors     int               `json:"ink_colors"`
	FullColor     bool              `json:"full_color"`
	Transform     artwork.Transform `json:"transform"`
}

// OrderResponse represents an order in admin and checkout responses
type OrderResponse struct {
	ID                  uuid.UUID               `json:"id"`
	OrderNumber         string                  `json:"order_number"`
	CustomerID          uuid.UUID               `json:"customer_id"`
	Email               string                  `json:"email"`
	CustomerName        string                  `json:"customer_name"`
	ShippingAddress     valueobject.Address     `json:"shipping_address"`
	CampaignID          *uuid.UUID              `json:"campaign_id,omitempty"`
	Notes               string                  `json:"notes,omitempty"`
	Items               []ItemResponse          `json:"items"`
	PrintLocations      []PrintLocationResponse `json:"print_locations"`
	TotalQuantity       int                     `json:"total_quantity"`
	MerchandiseSubtotal decimal.Decimal         `json:"merchandise_subtotal"`
	SetupFees           decimal.Decimal         `json:"setup_fees"`
	Shipping            decimal.Decimal         `json:"shipping"`
	Total               decimal.Decimal         `json:"total"`
	RefundedAmount      decimal.Decimal         `json:"refunded_amount"`
	Status              string                  `json:"status"`
	PaymentIntentID     string                  `json:"payment_intent_id,omitempty"`
	PaidAt              *time.Time              `json:"paid_at,omitempty"`
	Carrier             string                  `json:"carrier,omitempty"`
	TrackingNumber      string                  `json:"tracking_number,omitempty"`
	ShippedAt           *time.Time              `json:"shipped_at,omitempty"`
	DeliveredAt         *time.Time              `json:"delivered_at,omitempty"`
	CancelledAt         *time.Time              `json:"cancelled_at,omitempty"`
	CancelReason        string                  `json:"cancel_reason,omitempty"`
	CreatedAt           time.Time               `json:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at"`
}

// OrderStatusResponse is the public tracking view of an order
type OrderStatusResponse struct {
	OrderNumber    string          `json:"order_number"`
	Status         string          `json:"status"`
	Items          []ItemResponse  `json:"items"`
	TotalQuantity  int             `json:"total_quantity"`
	Total          decimal.Decimal `json:"total"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	Carrier        string          `json:"carrier,omitempty"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	ShippedAt      *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toItemResponses(items []order.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i, item := range items {
		out[i] = ItemResponse{
			ID:          item.ID,
			GarmentID:   item.GarmentID,
			GarmentName: item.GarmentName,
			StyleCode:   item.StyleCode,
			Color:       item.Color,
			Sizes:       sizeLabels(item.Sizes),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		}
	}
	return out
}

func sizeLabels(sizes map[catalog.Size]int) map[string]int {
	out := make(map[string]int, len(sizes))
	for size, n := range sizes {
		out[string(size)] = n
	}
	return out
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *order.Order) OrderResponse {
	locations := make([]PrintLocationResponse, len(o.PrintLocations))
	for i, loc := range o.PrintLocations {
		locations[i] = PrintLocationResponse{
			Location:      string(loc.Location),
			ArtworkFileID: loc.ArtworkFileID,
			InkColors:     loc.InkColors,
			FullColor:     loc.FullColor,
			Transform:     loc.Transform,
		}
	}
	return OrderResponse{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		CustomerID:          o.CustomerID,
		Email:               o.Email,
		CustomerName:        o.CustomerName,
		ShippingAddress:     o.ShippingAddress,
		CampaignID:          o.CampaignID,
		Notes:               o.Notes,
		Items:               toItemResponses(o.Items),
		PrintLocations:      locations,
		TotalQuantity:       o.TotalQuantity,
		MerchandiseSubtotal: o.MerchandiseSubtotal,
		SetupFees:           o.SetupFees,
		Shipping:            o.Shipping,
		Total:               o.Total,
		RefundedAmount:      o.RefundedAmount,
		Status:              o.Status.String(),
		PaymentIntentID:     o.PaymentIntentID,
		PaidAt:              o.PaidAt,
		Carrier:             o.Carrier,
		TrackingNumber:      o.TrackingNumber,
		ShippedAt:           o.ShippedAt,
		DeliveredAt:         o.DeliveredAt,
		CancelledAt:         o.CancelledAt,
		CancelReason:        o.CancelReason,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

// ToOrderStatusResponse converts a domain order to its public tracking view
func ToOrderStatusResponse(o *order.Order) OrderStatusResponse {
	return OrderStatusResponse{
		OrderNumber:    o.OrderNumber,
		Status:         o.Status.String(),
		Items:          toItemResponses(o.Items),
		TotalQuantity:  o.TotalQuantity,
		Total:          o.Total,
		PaidAt:         o.PaidAt,
		Carrier:        o.Carrier,
		TrackingNumber: o.TrackingNumber,
		ShippedAt:      o.ShippedAt,
		DeliveredAt:    o.DeliveredAt,
		CreatedAt:      o.CreatedAt,
	}
}
