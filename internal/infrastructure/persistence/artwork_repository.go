package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormArtworkFileRepository implements artwork.ArtworkFileRepository using GORM
type GormArtworkFileRepository struct {
	db *gorm.DB
}

// NewGormArtworkFileRepository creates a new GormArtworkFileRepository
func NewGormArtworkFileRepository(db *gorm.DB) *GormArtworkFileRepository {
	return &GormArtworkFileRepository{db: db}
}

// FindByID finds an artwork file by its ID
func (r *GormArtworkFileRepository) FindByID(ctx context.Context, id uuid.UUID) (*artwork.ArtworkFile, error) {
	var model models.ArtworkFileModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple artwork files by their IDs
func (r *GormArtworkFileRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]artwork.ArtworkFile, error) {
	if len(ids) == 0 {
		return []artwork.ArtworkFile{}, nil
	}
	var fileModels []models.ArtworkFileModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&fileModels).Error; err != nil {
		return nil, err
	}
	files := make([]artwork.ArtworkFile, len(fileModels))
	for i := range fileModels {
		files[i] = *fileModels[i].ToDomain()
	}
	return files, nil
}

// FindByVectorStatus lists artwork in the given vectorization state, oldest first
func (r *GormArtworkFileRepository) FindByVectorStatus(ctx context.Context, status artwork.VectorStatus, limit int) ([]artwork.ArtworkFile, error) {
	var fileModels []models.ArtworkFileModel
	query := r.db.WithContext(ctx).
		Where("vector_status = ?", status).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&fileModels).Error; err != nil {
		return nil, err
	}
	files := make([]artwork.ArtworkFile, len(fileModels))
	for i := range fileModels {
		files[i] = *fileModels[i].ToDomain()
	}
	return files, nil
}

// Save creates or updates an artwork file
func (r *GormArtworkFileRepository) Save(ctx context.Context, a *artwork.ArtworkFile) error {
	if err := saveVersioned(r.db.WithContext(ctx), models.ArtworkFileModelFromDomain(a), a); err != nil {
		return err
	}
	a.MarkPersisted()
	return nil
}

// GormSavedArtworkRepository implements artwork.SavedArtworkRepository using GORM
type GormSavedArtworkRepository struct {
	db *gorm.DB
}

// NewGormSavedArtworkRepository creates a new GormSavedArtworkRepository
func NewGormSavedArtworkRepository(db *gorm.DB) *GormSavedArtworkRepository {
	return &GormSavedArtworkRepository{db: db}
}

// FindByID finds a saved artwork entry by its ID
func (r *GormSavedArtworkRepository) FindByID(ctx context.Context, id uuid.UUID) (*artwork.SavedArtwork, error) {
	var model models.SavedArtworkModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOwnerAndFile finds the entry an email holds for an artwork file
func (r *GormSavedArtworkRepository) FindByOwnerAndFile(ctx context.Context, ownerEmail string, artworkFileID uuid.UUID) (*artwork.SavedArtwork, error) {
	var model models.SavedArtworkModel
	if err := r.db.WithContext(ctx).
		Where("owner_email = ? AND artwork_file_id = ?", shared.NormalizeEmail(ownerEmail), artworkFileID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOwner lists saved artwork for an email with the total match count
func (r *GormSavedArtworkRepository) FindByOwner(ctx context.Context, ownerEmail string, filter shared.Filter) ([]artwork.SavedArtwork, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.SavedArtworkModel{}).
			Where("owner_email = ?", shared.NormalizeEmail(ownerEmail))
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var savedModels []models.SavedArtworkModel
	if err := applyOrderAndPage(scoped(), filter, savedArtworkSortColumns).Find(&savedModels).Error; err != nil {
		return nil, 0, err
	}
	saved := make([]artwork.SavedArtwork, len(savedModels))
	for i := range savedModels {
		saved[i] = *savedModels[i].ToDomain()
	}
	return saved, total, nil
}

// Save creates or updates an entry
func (r *GormSavedArtworkRepository) Save(ctx context.Context, s *artwork.SavedArtwork) error {
	err := r.db.WithContext(ctx).Save(models.SavedArtworkModelFromDomain(s)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}

// Delete deletes an entry
func (r *GormSavedArtworkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SavedArtworkModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var (
	_ artwork.ArtworkFileRepository  = (*GormArtworkFileRepository)(nil)
	_ artwork.SavedArtworkRepository = (*GormSavedArtworkRepository)(nil)
)
