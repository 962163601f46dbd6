package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormGarmentRepository implements catalog.GarmentRepository using GORM
type GormGarmentRepository struct {
	db *gorm.DB
}

// NewGormGarmentRepository creates a new GormGarmentRepository
func NewGormGarmentRepository(db *gorm.DB) *GormGarmentRepository {
	return &GormGarmentRepository{db: db}
}

// FindByID finds a garment by its ID
func (r *GormGarmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Garment, error) {
	var model models.GarmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStyleCode finds a garment by its style code
func (r *GormGarmentRepository) FindByStyleCode(ctx context.Context, styleCode string) (*catalog.Garment, error) {
	var model models.GarmentModel
	if err := r.db.WithContext(ctx).
		Where("style_code = ?", strings.ToUpper(strings.TrimSpace(styleCode))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple garments by their IDs
func (r *GormGarmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Garment, error) {
	if len(ids) == 0 {
		return []catalog.Garment{}, nil
	}
	var garmentModels []models.GarmentModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&garmentModels).Error; err != nil {
		return nil, err
	}
	garments := make([]catalog.Garment, len(garmentModels))
	for i := range garmentModels {
		garments[i] = *garmentModels[i].ToDomain()
	}
	return garments, nil
}

// FindAll finds all garments matching the filter
func (r *GormGarmentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Garment, error) {
	var garmentModels []models.GarmentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.GarmentModel{}), filter)
	query = applyOrderAndPage(query, filter, garmentSortColumns)

	if err := query.Find(&garmentModels).Error; err != nil {
		return nil, err
	}

	garments := make([]catalog.Garment, len(garmentModels))
	for i := range garmentModels {
		garments[i] = *garmentModels[i].ToDomain()
	}
	return garments, nil
}

// Count counts garments matching the filter
func (r *GormGarmentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.GarmentModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a garment
func (r *GormGarmentRepository) Save(ctx context.Context, garment *catalog.Garment) error {
	if err := saveVersioned(r.db.WithContext(ctx), models.GarmentModelFromDomain(garment), garment); err != nil {
		return err
	}
	garment.MarkPersisted()
	return nil
}

// Delete deletes a garment
func (r *GormGarmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.GarmentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies search and column filters without ordering or paging
func (r *GormGarmentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(style_code) LIKE ? OR LOWER(brand) LIKE ?", pattern, pattern, pattern)
	}
	if active, ok := filter.Filters["active"].(bool); ok {
		query = query.Where("active = ?", active)
	}
	if category, ok := filter.Filters["category"].(string); ok && category != "" {
		query = query.Where("category = ?", category)
	}
	return query
}

var _ catalog.GarmentRepository = (*GormGarmentRepository)(nil)
