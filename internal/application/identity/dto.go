package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/infrastructure/auth"
)

// LoginInput contains the input for admin login
type LoginInput struct {
	Email    string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult is a fresh token pair and the admin it belongs to
type LoginResult struct {
	Tokens auth.TokenPair
	User   AdminInfo
}

// AdminInfo contains the admin profile returned by login and /me
type AdminInfo struct {
	ID          uuid.UUID
	Email       string
	Name        string
	LastLoginAt *time.Time
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult carries the rotated token pair
type RefreshTokenResult struct {
	Tokens auth.TokenPair
}

// LogoutInput identifies the tokens to revoke
type LogoutInput struct {
	UserID       uuid.UUID
	TokenJTI     string
	TokenTTL     time.Duration
	RefreshToken string // optional, revoked too when present
}
