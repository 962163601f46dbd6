package artwork

import (
	"context"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/shared"
)

// ArtworkFileRepository defines the interface for artwork file persistence
type ArtworkFileRepository interface {
	// FindByID finds an artwork file by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ArtworkFile, error)

	// FindByIDs finds multiple artwork files by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ArtworkFile, error)

	// FindByVectorStatus lists artwork in the given vectorization state
	FindByVectorStatus(ctx context.Context, status VectorStatus, limit int) ([]ArtworkFile, error)

	// Save creates or updates an artwork file
	Save(ctx context.Context, a *ArtworkFile) error
}

// SavedArtworkRepository defines the interface for saved artwork persistence
type SavedArtworkRepository interface {
	// FindByID finds a saved artwork entry by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SavedArtwork, error)

	// FindByOwnerAndFile finds the entry for (email, artwork file)
	FindByOwnerAndFile(ctx context.Context, ownerEmail string, artworkFileID uuid.UUID) (*SavedArtwork, error)

	// FindByOwner lists saved artwork for an email
	FindByOwner(ctx context.Context, ownerEmail string, filter shared.Filter) ([]SavedArtwork, int64, error)

	// Save creates or updates an entry
	Save(ctx context.Context, s *SavedArtwork) error

	// Delete deletes an entry
	Delete(ctx context.Context, id uuid.UUID) error
}
