package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/campaign"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCampaignRepository implements campaign.CampaignRepository using GORM
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GormCampaignRepository
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

func (r *GormCampaignRepository) withConfigs(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("GarmentConfigs", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	})
}

func (r *GormCampaignRepository) findOne(ctx context.Context, query string, args ...any) (*campaign.Campaign, error) {
	var model models.CampaignModel
	if err := r.withConfigs(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a campaign by ID with its garment configs
func (r *GormCampaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindBySlug finds a campaign by its public slug
func (r *GormCampaignRepository) FindBySlug(ctx context.Context, slug string) (*campaign.Campaign, error) {
	return r.findOne(ctx, "slug = ?", slug)
}

// FindByPaymentIntentID finds the campaign an organizer payment intent belongs to
func (r *GormCampaignRepository) FindByPaymentIntentID(ctx context.Context, intentID string) (*campaign.Campaign, error) {
	if intentID == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, "payment_intent_id = ?", intentID)
}

// ExistsBySlug checks if a slug is taken
func (r *GormCampaignRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CampaignModel{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll finds all campaigns matching the filter
func (r *GormCampaignRepository) FindAll(ctx context.Context, filter shared.Filter) ([]campaign.Campaign, error) {
	var campaignModels []models.CampaignModel
	query := r.applyFilter(r.withConfigs(ctx).Model(&models.CampaignModel{}), filter)
	query = applyOrderAndPage(query, filter, campaignSortColumns)

	if err := query.Find(&campaignModels).Error; err != nil {
		return nil, err
	}
	campaigns := make([]campaign.Campaign, len(campaignModels))
	for i := range campaignModels {
		campaigns[i] = *campaignModels[i].ToDomain()
	}
	return campaigns, nil
}

// Count counts campaigns matching the filter
func (r *GormCampaignRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CampaignModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindExpired lists active campaigns whose deadline has passed, earliest deadline first
func (r *GormCampaignRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]campaign.Campaign, error) {
	var campaignModels []models.CampaignModel
	query := r.withConfigs(ctx).
		Where("status = ? AND deadline <= ?", campaign.StatusActive, now).
		Order("deadline ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&campaignModels).Error; err != nil {
		return nil, err
	}
	campaigns := make([]campaign.Campaign, len(campaignModels))
	for i := range campaignModels {
		campaigns[i] = *campaignModels[i].ToDomain()
	}
	return campaigns, nil
}

// Save creates or updates a campaign with its garment configs
func (r *GormCampaignRepository) Save(ctx context.Context, c *campaign.Campaign) error {
	model := models.CampaignModelFromDomain(c)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model, c); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError("SLUG_TAKEN", "This campaign URL is already taken")
			}
			return err
		}

		configIDs := make([]uuid.UUID, len(model.GarmentConfigs))
		for i := range model.GarmentConfigs {
			model.GarmentConfigs[i].CampaignID = model.ID
			configIDs[i] = model.GarmentConfigs[i].ID
		}
		if err := deleteStaleChildren(tx, &models.CampaignGarmentConfigModel{}, "campaign_id", model.ID, configIDs); err != nil {
			return err
		}
		for i := range model.GarmentConfigs {
			if err := tx.Save(&model.GarmentConfigs[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.MarkPersisted()
	return nil
}

func (r *GormCampaignRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(slug) LIKE ? OR LOWER(organizer_email) LIKE ?", pattern, pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if style, ok := filter.Filters["payment_style"]; ok && style != "" {
		query = query.Where("payment_style = ?", style)
	}
	return query
}

// GormCampaignOrderRepository implements campaign.CampaignOrderRepository using GORM
type GormCampaignOrderRepository struct {
	db *gorm.DB
}

// NewGormCampaignOrderRepository creates a new GormCampaignOrderRepository
func NewGormCampaignOrderRepository(db *gorm.DB) *GormCampaignOrderRepository {
	return &GormCampaignOrderRepository{db: db}
}

// FindByID finds a campaign order by ID
func (r *GormCampaignOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*campaign.CampaignOrder, error) {
	var model models.CampaignOrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPaymentIntentID finds the participant order a payment intent belongs to
func (r *GormCampaignOrderRepository) FindByPaymentIntentID(ctx context.Context, intentID string) (*campaign.CampaignOrder, error) {
	if intentID == "" {
		return nil, shared.ErrNotFound
	}
	var model models.CampaignOrderModel
	if err := r.db.WithContext(ctx).Where("payment_intent_id = ?", intentID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCampaign lists a campaign's orders with the total match count
func (r *GormCampaignOrderRepository) FindByCampaign(ctx context.Context, campaignID uuid.UUID, filter shared.Filter) ([]campaign.CampaignOrder, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.CampaignOrderModel{}).Where("campaign_id = ?", campaignID)
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			q = q.Where("LOWER(participant_name) LIKE ? OR LOWER(participant_email) LIKE ?", pattern, pattern)
		}
		if status, ok := filter.Filters["status"]; ok && status != "" {
			q = q.Where("status = ?", status)
		}
		if configID, ok := filter.Filters["garment_config_id"]; ok {
			q = q.Where("garment_config_id = ?", configID)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orderModels []models.CampaignOrderModel
	if err := applyOrderAndPage(scoped(), filter, campaignOrderSortColumns).Find(&orderModels).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]campaign.CampaignOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, total, nil
}

// FindAllByCampaign returns every order of a campaign, oldest first
func (r *GormCampaignOrderRepository) FindAllByCampaign(ctx context.Context, campaignID uuid.UUID) ([]campaign.CampaignOrder, error) {
	var orderModels []models.CampaignOrderModel
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC, id ASC").
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]campaign.CampaignOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// ConfigsInUse returns the garment config IDs referenced by live orders
func (r *GormCampaignOrderRepository) ConfigsInUse(ctx context.Context, campaignID uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.CampaignOrderModel{}).
		Where("campaign_id = ? AND status IN ?", campaignID, []campaign.OrderStatus{
			campaign.OrderStatusPendingPayment,
			campaign.OrderStatusConfirmed,
			campaign.OrderStatusPaid,
		}).
		Distinct().
		Pluck("garment_config_id", &ids).Error; err != nil {
		return nil, err
	}
	inUse := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		inUse[id] = true
	}
	return inUse, nil
}

// Save creates or updates a campaign order
func (r *GormCampaignOrderRepository) Save(ctx context.Context, o *campaign.CampaignOrder) error {
	return r.SaveBatch(ctx, []*campaign.CampaignOrder{o})
}

// SaveBatch saves several orders in one transaction. One stale order fails
// the whole batch with shared.ErrConcurrencyConflict.
func (r *GormCampaignOrderRepository) SaveBatch(ctx context.Context, orders []*campaign.CampaignOrder) error {
	if len(orders) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range orders {
			if err := saveVersioned(tx, models.CampaignOrderModelFromDomain(o), o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, o := range orders {
		o.MarkPersisted()
	}
	return nil
}

var (
	_ campaign.CampaignRepository      = (*GormCampaignRepository)(nil)
	_ campaign.CampaignOrderRepository = (*GormCampaignOrderRepository)(nil)
)
