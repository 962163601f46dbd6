package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/shared"
)

// GarmentRepository defines the interface for garment persistence
type GarmentRepository interface {
	// FindByID finds a garment by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Garment, error)

	// FindByStyleCode finds a garment by its style code
	FindByStyleCode(ctx context.Context, styleCode string) (*Garment, error)

	// FindByIDs finds multiple garments by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Garment, error)

	// FindAll finds garments matching the filter.
	// Supported filters: "active" (bool), "category" (string).
	FindAll(ctx context.Context, filter shared.Filter) ([]Garment, error)

	// Count counts garments matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a garment
	Save(ctx context.Context, garment *Garment) error

	// Delete deletes a garment
	Delete(ctx context.Context, id uuid.UUID) error
}
