package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/order"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// maxOrderNumberAttempts bounds collisions before GenerateOrderNumber gives up
const maxOrderNumberAttempts = 5

// GormOrderRepository implements order.OrderRepository using GORM
type GormOrderRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db, now: time.Now}
}

func (r *GormOrderRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items").
		Preload("PrintLocations")
}

func (r *GormOrderRepository) findOne(ctx context.Context, query string, args ...any) (*order.Order, error) {
	var model models.OrderModel
	if err := r.withChildren(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds an order by ID with items and print locations
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByOrderNumber finds an order by its order number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	return r.findOne(ctx, "order_number = ?", orderNumber)
}

// FindByPaymentIntentID finds the order a payment intent was created for
func (r *GormOrderRepository) FindByPaymentIntentID(ctx context.Context, intentID string) (*order.Order, error) {
	if intentID == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, "payment_intent_id = ?", intentID)
}

// FindAll finds all orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var orderModels []models.OrderModel
	query := r.applyFilter(r.withChildren(ctx).Model(&models.OrderModel{}), filter)
	query = applyOrderAndPage(query, filter, orderSortColumns)

	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]order.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByOrderNumber checks if an order number is taken
func (r *GormOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateOrderNumber returns a random order number not yet in use
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	for range maxOrderNumberAttempts {
		number := order.NewOrderNumber(r.now())
		exists, err := r.ExistsByOrderNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not allocate an unused order number after %d attempts", maxOrderNumberAttempts)
}

// Save creates or updates an order with its items and print locations
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	model := models.OrderModelFromDomain(o)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model, o); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError("ORDER_NUMBER_EXISTS", "Order number already exists")
			}
			return err
		}

		itemIDs := make([]uuid.UUID, len(model.Items))
		for i := range model.Items {
			model.Items[i].OrderID = model.ID
			itemIDs[i] = model.Items[i].ID
		}
		if err := deleteStaleChildren(tx, &models.OrderItemModel{}, "order_id", model.ID, itemIDs); err != nil {
			return err
		}
		for i := range model.Items {
			if err := tx.Save(&model.Items[i]).Error; err != nil {
				return err
			}
		}

		locationIDs := make([]uuid.UUID, len(model.PrintLocations))
		for i := range model.PrintLocations {
			model.PrintLocations[i].OrderID = model.ID
			locationIDs[i] = model.PrintLocations[i].ID
		}
		if err := deleteStaleChildren(tx, &models.OrderPrintLocationModel{}, "order_id", model.ID, locationIDs); err != nil {
			return err
		}
		for i := range model.PrintLocations {
			if err := tx.Save(&model.PrintLocations[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	o.MarkPersisted()
	return nil
}

// applyFilter applies filters without ordering or paging
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(email) LIKE ? OR LOWER(customer_name) LIKE ?", pattern, pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if campaignID, ok := filter.Filters["campaign_id"]; ok {
		query = query.Where("campaign_id = ?", campaignID)
	}
	if customerID, ok := filter.Filters["customer_id"]; ok {
		query = query.Where("customer_id = ?", customerID)
	}
	if from, ok := filter.Filters["from"].(time.Time); ok && !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if to, ok := filter.Filters["to"].(time.Time); ok && !to.IsZero() {
		query = query.Where("created_at < ?", to)
	}
	return query
}

// deleteStaleChildren removes child rows of parentID whose IDs are not in keep
func deleteStaleChildren(tx *gorm.DB, model any, parentColumn string, parentID uuid.UUID, keep []uuid.UUID) error {
	query := tx.Where(parentColumn+" = ?", parentID)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}
	return query.Delete(model).Error
}

var _ order.OrderRepository = (*GormOrderRepository)(nil)
