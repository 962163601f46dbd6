package identity

import (
	"context"

	"github.com/google/uuid"
)

// AdminUserRepository defines the interface for admin user persistence
type AdminUserRepository interface {
	// FindByID finds an admin user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*AdminUser, error)

	// FindByEmail finds an admin user by normalized email
	FindByEmail(ctx context.Context, email string) (*AdminUser, error)

	// ExistsByEmail checks if an email is already registered
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Save creates or updates an admin user
	Save(ctx context.Context, user *AdminUser) error
}
