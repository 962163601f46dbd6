package campaign

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/shared"
)

// CampaignRepository defines the interface for campaign persistence.
// FindAll filters: "status", "payment_style".
type CampaignRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Campaign, error)
	FindBySlug(ctx context.Context, slug string) (*Campaign, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*Campaign, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Campaign, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindExpired lists active campaigns whose deadline is at or before now
	FindExpired(ctx context.Context, now time.Time, limit int) ([]Campaign, error)

	// Save creates or updates a campaign with its garment configs
	Save(ctx context.Context, c *Campaign) error
}

// CampaignOrderRepository defines the interface for participant order persistence.
// FindByCampaign filters: "status", "garment_config_id".
type CampaignOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CampaignOrder, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*CampaignOrder, error)
	FindByCampaign(ctx context.Context, campaignID uuid.UUID, filter shared.Filter) ([]CampaignOrder, int64, error)

	// FindAllByCampaign returns every order of a campaign, oldest first
	FindAllByCampaign(ctx context.Context, campaignID uuid.UUID) ([]CampaignOrder, error)

	// ConfigsInUse returns the garment config IDs referenced by live orders
	ConfigsInUse(ctx context.Context, campaignID uuid.UUID) (map[uuid.UUID]bool, error)

	Save(ctx context.Context, o *CampaignOrder) error
	SaveBatch(ctx context.Context, orders []*CampaignOrder) error
}
