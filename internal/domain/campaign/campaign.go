package campaign

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/pricing"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentStyle decides who pays for a campaign
type PaymentStyle string

const (
	PaymentStyleOrganizerPays PaymentStyle = "organizer_pays"
	PaymentStyleEveryonePays  PaymentStyle = "everyone_pays"
)

// IsValid checks if the payment style is valid
func (p PaymentStyle) IsValid() bool {
	return p == PaymentStyleOrganizerPays || p == PaymentStyleEveryonePays
}

// Status represents the lifecycle of a campaign
type Status string

const (
	StatusActive    Status = "active"
	StatusClosed    Status = "closed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusClosed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusActive:
		return target == StatusClosed || target == StatusCancelled
	case StatusClosed:
		return target == StatusCompleted || target == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false // Terminal states
	}
	return false
}

// PaymentStatus tracks the organizer's bulk payment
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// ArtworkPlacement is artwork printed at one location on every garment
type ArtworkPlacement struct {
	Location      artwork.PrintLocation `json:"location"`
	ArtworkFileID *uuid.UUID            `json:"artwork_file_id,omitempty"`
	InkColors     int                   `json:"ink_colors"`
	FullColor     bool                  `json:"full_color"`
	Transform     artwork.Transform     `json:"transform"`
}

// Spec returns the pricing view of this placement
func (a ArtworkPlacement) Spec() pricing.LocationSpec {
	return pricing.LocationSpec{Location: a.Location, InkColors: a.InkColors, FullColor: a.FullColor}
}

// Campaign is an organizer's shareable group order page.
// It is the aggregate root for campaigns; orders are a separate aggregate.
type Campaign struct {
	shared.BaseAggregateRoot
	Slug              string
	Name              string
	Description       string
	OrganizerName     string
	OrganizerEmail    string
	Deadline          time.Time
	PaymentStyle      PaymentStyle
	Status            Status
	ClosedAt          *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	CancelReason      string
	ExpectedQuantity  int
	Artwork           []ArtworkPlacement
	GarmentConfigs    []GarmentConfig
	Notes             string
	ProductionOrderID *uuid.UUID
	PaymentStatus     PaymentStatus
	PaymentIntentID   string
	PaymentAmount     decimal.Decimal
	AmountPaid        decimal.Decimal
	PaidAt            *time.Time
}

// NewCampaignInput holds the fields needed to create a campaign
type NewCampaignInput struct {
	Slug             string
	Name             string
	Description      string
	OrganizerName    string
	OrganizerEmail   string
	Deadline         time.Time
	PaymentStyle     PaymentStyle
	ExpectedQuantity int
	Artwork          []ArtworkPlacement
	GarmentConfigs   []GarmentConfig
}

// DefaultExpectedQuantity is used when the organizer gives no estimate
const DefaultExpectedQuantity = 24

// NewCampaign creates an active campaign
func NewCampaign(in NewCampaignInput, now time.Time) (*Campaign, error) {
	if err := ValidateSlug(in.Slug); err != nil {
		return nil, err
	}
	if !in.PaymentStyle.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_STYLE", "Payment style must be organizer_pays or everyone_pays")
	}
	email := shared.NormalizeEmail(in.OrganizerEmail)
	if err := shared.ValidateEmail(email); err != nil {
		return nil, err
	}
	organizer := strings.TrimSpace(in.OrganizerName)
	if organizer == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Organizer name is required")
	}
	if in.ExpectedQuantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Expected quantity cannot be negative")
	}
	if in.ExpectedQuantity == 0 {
		in.ExpectedQuantity = DefaultExpectedQuantity
	}

	c := &Campaign{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Slug:              in.Slug,
		OrganizerName:     organizer,
		OrganizerEmail:    email,
		PaymentStyle:      in.PaymentStyle,
		Status:            StatusActive,
		ExpectedQuantity:  in.ExpectedQuantity,
		PaymentStatus:     PaymentStatusUnpaid,
		PaymentAmount:     decimal.Zero,
		AmountPaid:        decimal.Zero,
	}
	if err := c.applyDetails(in.Name, in.Description, in.Deadline, now); err != nil {
		return nil, err
	}
	if err := c.SetArtwork(in.Artwork); err != nil {
		return nil, err
	}
	if err := c.SetGarmentConfigs(in.GarmentConfigs, nil); err != nil {
		return nil, err
	}
	c.ClearDomainEvents()
	c.Version = 1
	c.AddDomainEvent(NewCampaignCreatedEvent(c))
	return c, nil
}

func (c *Campaign) applyDetails(name, description string, deadline, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Campaign name cannot be empty")
	}
	if len(name) > 120 {
		return shared.NewDomainError("INVALID_NAME", "Campaign name cannot exceed 120 characters")
	}
	if len(description) > 5000 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 5000 characters")
	}
	if !deadline.After(now) {
		return shared.NewDomainError("INVALID_DEADLINE", "Deadline must be in the future")
	}
	c.Name = name
	c.Description = description
	c.Deadline = deadline
	return nil
}

// UpdateDetails changes name, description and deadline while active
func (c *Campaign) UpdateDetails(name, description string, deadline, now time.Time) error {
	if c.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active campaigns can be edited")
	}
	if err := c.applyDetails(name, description, deadline, now); err != nil {
		return err
	}
	c.touch()
	return nil
}

// SetNotes sets admin-only notes
func (c *Campaign) SetNotes(notes string) error {
	if len(notes) > 5000 {
		return shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 5000 characters")
	}
	c.Notes = notes
	c.touch()
	return nil
}

// SetArtwork replaces the print placements. Transforms are normalized.
func (c *Campaign) SetArtwork(placements []ArtworkPlacement) error {
	if c.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active campaigns can be edited")
	}
	if len(placements) == 0 {
		return shared.NewDomainError("INVALID_LOCATION", "At least one print location is required")
	}
	seen := make(map[artwork.PrintLocation]bool, len(placements))
	out := make([]ArtworkPlacement, 0, len(placements))
	for _, p := range placements {
		if !p.Location.IsValid() {
			return shared.NewDomainError("INVALID_LOCATION", "Unknown print location: "+string(p.Location))
		}
		if seen[p.Location] {
			return shared.NewDomainError("DUPLICATE_LOCATION", "Print location listed twice: "+string(p.Location))
		}
		seen[p.Location] = true
		if !p.FullColor && (p.InkColors < 1 || p.InkColors > pricing.MaxInkColors) {
			return shared.NewDomainError("INVALID_INK_COLORS",
				fmt.Sprintf("Ink colors for %s must be between 1 and %d", p.Location, pricing.MaxInkColors))
		}
		if p.Transform.IsZero() {
			p.Transform = artwork.DefaultTransform()
		}
		t, err := p.Transform.Normalize()
		if err != nil {
			return err
		}
		p.Transform = t
		out = append(out, p)
	}
	c.Artwork = out
	c.touch()
	return nil
}

// LocationSpecs returns the pricing view of the artwork placements
func (c *Campaign) LocationSpecs() []pricing.LocationSpec {
	specs := make([]pricing.LocationSpec, 0, len(c.Artwork))
	for _, a := range c.Artwork {
		specs = append(specs, a.Spec())
	}
	return specs
}

// SetGarmentConfigs replaces the offered garments. Configs whose ID is in
// inUse (referenced by orders) must be kept.
func (c *Campaign) SetGarmentConfigs(configs []GarmentConfig, inUse map[uuid.UUID]bool) error {
	if c.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active campaigns can be edited")
	}
	if len(configs) < MinGarmentConfigs || len(configs) > MaxGarmentConfigs {
		return shared.NewDomainError("INVALID_GARMENT_CONFIGS",
			fmt.Sprintf("A campaign offers between %d and %d garments", MinGarmentConfigs, MaxGarmentConfigs))
	}
	kept := make(map[uuid.UUID]bool, len(configs))
	garments := make(map[uuid.UUID]bool, len(configs))
	out := make([]GarmentConfig, 0, len(configs))
	for i, cfg := range configs {
		if cfg.ID == uuid.Nil {
			cfg.ID = uuid.New()
		}
		if garments[cfg.GarmentID] {
			return shared.NewDomainError("INVALID_GARMENT_CONFIGS", cfg.GarmentName+" is listed twice")
		}
		garments[cfg.GarmentID] = true
		if !cfg.Price.IsPositive() {
			return shared.NewDomainError("INVALID_PRICE", "Campaign price must be positive")
		}
		if len(cfg.Colors) == 0 || len(cfg.Sizes) == 0 {
			return shared.NewDomainError("INVALID_GARMENT_CONFIGS", cfg.GarmentName+" needs colors and sizes")
		}
		cfg.CampaignID = c.ID
		cfg.SortOrder = i
		kept[cfg.ID] = true
		out = append(out, cfg)
	}
	for id, used := range inUse {
		if used && !kept[id] {
			return shared.NewDomainError("GARMENT_CONFIG_IN_USE", "A garment with existing orders cannot be removed")
		}
	}
	c.GarmentConfigs = out
	c.touch()
	return nil
}

// FindGarmentConfig returns the config with the given ID
func (c *Campaign) FindGarmentConfig(id uuid.UUID) (*GarmentConfig, bool) {
	for i := range c.GarmentConfigs {
		if c.GarmentConfigs[i].ID == id {
			return &c.GarmentConfigs[i], true
		}
	}
	return nil, false
}

// AcceptingOrders reports whether participants can still order
func (c *Campaign) AcceptingOrders(now time.Time) bool {
	return c.Status == StatusActive && now.Before(c.Deadline)
}

// IsExpired reports an active campaign whose deadline has passed
func (c *Campaign) IsExpired(now time.Time) bool {
	return c.Status == StatusActive && !now.Before(c.Deadline)
}

// Close stops accepting orders
func (c *Campaign) Close(now time.Time) error {
	if !c.Status.CanTransitionTo(StatusClosed) {
		return invalidTransition(c.Status, StatusClosed)
	}
	c.Status = StatusClosed
	c.ClosedAt = &now
	c.touch()
	c.AddDomainEvent(NewCampaignClosedEvent(c))
	return nil
}

// BeginOrganizerPayment validates an organizer payment of amount. It
// returns true when the pending intent already covers that amount and can
// be reused.
func (c *Campaign) BeginOrganizerPayment(amount decimal.Decimal) (bool, error) {
	if c.PaymentStyle != PaymentStyleOrganizerPays {
		return false, shared.NewDomainError("INVALID_STATE", "Participants pay individually in this campaign")
	}
	if c.PaymentStatus == PaymentStatusPaid {
		return false, shared.NewDomainError("ALREADY_PAID", "This campaign has already been paid")
	}
	if c.Status == StatusCancelled || c.Status == StatusCompleted {
		return false, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay for a %s campaign", c.Status))
	}
	if !amount.IsPositive() {
		return false, shared.NewDomainError("NO_ORDERS", "There are no confirmed orders to pay for")
	}
	reuse := c.PaymentStatus == PaymentStatusPending && c.PaymentIntentID != "" && c.PaymentAmount.Equal(amount)
	return reuse, nil
}

// MarkPaymentPending records the intent created for the organizer
func (c *Campaign) MarkPaymentPending(intentID string, amount decimal.Decimal) error {
	if _, err := c.BeginOrganizerPayment(amount); err != nil {
		return err
	}
	if intentID == "" {
		return shared.NewDomainError("INVALID_INPUT", "Payment intent ID cannot be empty")
	}
	c.PaymentStatus = PaymentStatusPending
	c.PaymentIntentID = intentID
	c.PaymentAmount = amount
	c.touch()
	return nil
}

// MarkPaid records the organizer's successful payment. Repeating it for
// the same intent is a no-op.
func (c *Campaign) MarkPaid(intentID string, amount decimal.Decimal, now time.Time) error {
	if c.PaymentStatus == PaymentStatusPaid {
		if c.PaymentIntentID == intentID {
			return nil
		}
		return shared.NewDomainError("ALREADY_PAID", "This campaign has already been paid")
	}
	if c.PaymentIntentID != "" && c.PaymentIntentID != intentID {
		return shared.NewDomainError("PAYMENT_MISMATCH", "Payment intent does not belong to this campaign")
	}
	c.PaymentStatus = PaymentStatusPaid
	c.PaymentIntentID = intentID
	c.AmountPaid = amount
	c.PaidAt = &now
	c.touch()
	c.AddDomainEvent(NewCampaignPaidEvent(c))
	return nil
}

// MarkPaymentFailed returns a pending payment to unpaid so it can be retried
func (c *Campaign) MarkPaymentFailed(intentID string) {
	if c.PaymentStatus != PaymentStatusPending || c.PaymentIntentID != intentID {
		return
	}
	c.PaymentStatus = PaymentStatusUnpaid
	c.PaymentIntentID = ""
	c.PaymentAmount = decimal.Zero
	c.touch()
}

// Complete links the production order and finishes the campaign
func (c *Campaign) Complete(productionOrderID uuid.UUID, now time.Time) error {
	if !c.Status.CanTransitionTo(StatusCompleted) {
		return invalidTransition(c.Status, StatusCompleted)
	}
	if c.PaymentStyle == PaymentStyleOrganizerPays && c.PaymentStatus != PaymentStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Organizer payment has not been received")
	}
	c.Status = StatusCompleted
	c.ProductionOrderID = &productionOrderID
	c.CompletedAt = &now
	c.touch()
	c.AddDomainEvent(NewCampaignCompletedEvent(c))
	return nil
}

// Cancel cancels the campaign
func (c *Campaign) Cancel(reason string, now time.Time) error {
	if !c.Status.CanTransitionTo(StatusCancelled) {
		return invalidTransition(c.Status, StatusCancelled)
	}
	if len(reason) > 500 {
		return shared.NewDomainError("INVALID_INPUT", "Cancel reason cannot exceed 500 characters")
	}
	c.Status = StatusCancelled
	c.CancelledAt = &now
	c.CancelReason = strings.TrimSpace(reason)
	c.touch()
	c.AddDomainEvent(NewCampaignCancelledEvent(c))
	return nil
}

func (c *Campaign) touch() {
	c.MarkChanged()
}

func invalidTransition(from, to Status) error {
	return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot change campaign status from %s to %s", from, to))
}
