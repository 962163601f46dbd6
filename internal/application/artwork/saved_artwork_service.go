package artwork

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/shared"
	"go.uber.org/zap"
)

// SavedArtworkSortFields are the order_by values accepted by List
var SavedArtworkSortFields = []string{"name", "last_used_at", "updated_at"}

// SavedArtworkService manages per-email artwork libraries
type SavedArtworkService struct {
	savedRepo   artwork.SavedArtworkRepository
	artworkRepo artwork.ArtworkFileRepository
	logger      *zap.Logger
}

// NewSavedArtworkService creates a new SavedArtworkService
func NewSavedArtworkService(savedRepo artwork.SavedArtworkRepository, artworkRepo artwork.ArtworkFileRepository, logger *zap.Logger) *SavedArtworkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SavedArtworkService{
		savedRepo:   savedRepo,
		artworkRepo: artworkRepo,
		logger:      logger,
	}
}

// Save adds artwork to an email's library. Saving the same file again
// updates the existing entry.
func (s *SavedArtworkService) Save(ctx context.Context, req SaveArtworkRequest) (*SavedArtworkResponse, error) {
	a, err := s.artworkRepo.FindByID(ctx, req.ArtworkFileID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_ARTWORK", "Artwork not found")
		}
		return nil, err
	}
	if a.UploadStatus != artwork.UploadStatusUploaded {
		return nil, shared.NewDomainError("INVALID_ARTWORK", "Artwork upload has not completed")
	}

	email := shared.NormalizeEmail(req.Email)
	entry, err := s.savedRepo.FindByOwnerAndFile(ctx, email, a.ID)
	switch {
	case err == nil:
		if err := entry.Rename(req.Name); err != nil {
			return nil, err
		}
		if req.Tags != nil {
			if err := entry.SetTags(req.Tags); err != nil {
				return nil, err
			}
		}
		entry.Touch()
	case errors.Is(err, shared.ErrNotFound):
		entry, err = artwork.NewSavedArtwork(email, req.Name, a.ID, req.Tags)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.savedRepo.Save(ctx, entry); err != nil {
		return nil, err
	}
	resp := ToSavedArtworkResponse(entry)
	art := ToArtworkResponse(a)
	resp.Artwork = &art
	return &resp, nil
}

// List returns an email's saved artwork
func (s *SavedArtworkService) List(ctx context.Context, filter SavedArtworkListFilter) (*shared.Paginated[SavedArtworkResponse], error) {
	email := shared.NormalizeEmail(filter.Email)
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email is required")
	}
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   strings.TrimSpace(filter.Search),
	}.Normalize(SavedArtworkSortFields...)

	entries, total, err := s.savedRepo.FindByOwner(ctx, email, f)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(entries))
	for i := range entries {
		ids[i] = entries[i].ArtworkFileID
	}
	files := map[uuid.UUID]*artwork.ArtworkFile{}
	if len(ids) > 0 {
		found, err := s.artworkRepo.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range found {
			files[found[i].ID] = &found[i]
		}
	}

	items := make([]SavedArtworkResponse, len(entries))
	for i := range entries {
		items[i] = ToSavedArtworkResponse(&entries[i])
		if a, ok := files[entries[i].ArtworkFileID]; ok {
			art := ToArtworkResponse(a)
			items[i].Artwork = &art
		}
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Update renames or retags an entry owned by the requesting email
func (s *SavedArtworkService) Update(ctx context.Context, id uuid.UUID, req UpdateSavedArtworkRequest) (*SavedArtworkResponse, error) {
	entry, err := s.owned(ctx, id, req.Email)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if err := entry.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Tags != nil {
		if err := entry.SetTags(*req.Tags); err != nil {
			return nil, err
		}
	}
	if err := s.savedRepo.Save(ctx, entry); err != nil {
		return nil, err
	}
	resp := ToSavedArtworkResponse(entry)
	return &resp, nil
}

// Delete removes an entry owned by the requesting email
func (s *SavedArtworkService) Delete(ctx context.Context, id uuid.UUID, email string) error {
	if _, err := s.owned(ctx, id, email); err != nil {
		return err
	}
	return s.savedRepo.Delete(ctx, id)
}

// Touch records reuse of saved artwork for the given files. Files the
// email has not saved are ignored.
func (s *SavedArtworkService) Touch(ctx context.Context, email string, artworkIDs []uuid.UUID) {
	email = shared.NormalizeEmail(email)
	if email == "" {
		return
	}
	for _, id := range artworkIDs {
		entry, err := s.savedRepo.FindByOwnerAndFile(ctx, email, id)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				s.logger.Warn("Failed to load saved artwork", zap.String("artwork_id", id.String()), zap.Error(err))
			}
			continue
		}
		entry.Touch()
		if err := s.savedRepo.Save(ctx, entry); err != nil {
			s.logger.Warn("Failed to touch saved artwork", zap.String("saved_id", entry.ID.String()), zap.Error(err))
		}
	}
}

func (s *SavedArtworkService) owned(ctx context.Context, id uuid.UUID, email string) (*artwork.SavedArtwork, error) {
	entry, err := s.savedRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entry.OwnedBy(email) {
		return nil, shared.ErrForbidden
	}
	return entry, nil
}
