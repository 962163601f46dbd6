package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/application/identity"
	"github.com/inkthread/storefront/internal/infrastructure/auth"
)

// LoginRequest represents the request body for admin login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally names the refresh token to revoke with the session
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AdminResponse represents the signed-in admin
type AdminResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	Token auth.TokenPair `json:"token"`
	User  AdminResponse  `json:"user"`
}

// RefreshTokenResponse represents the response body for successful token refresh
type RefreshTokenResponse struct {
	Token auth.TokenPair `json:"token"`
}

func toAdminResponse(info identity.AdminInfo) AdminResponse {
	return AdminResponse{
		ID:          info.ID,
		Email:       info.Email,
		Name:        info.Name,
		LastLoginAt: info.LastLoginAt,
	}
}
