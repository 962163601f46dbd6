package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/identity"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// ErrInvalidCredentials is returned for every failed login, whatever the cause
var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")

// AuthService handles admin authentication
type AuthService struct {
	userRepo   identity.AdminUserRepository
	jwtService *auth.JWTService
	revoker    auth.TokenRevoker
	config     AuthServiceConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service. revoker may be nil,
// in which case logout only clears client state.
func NewAuthService(
	userRepo identity.AdminUserRepository,
	jwtService *auth.JWTService,
	revoker auth.TokenRevoker,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		revoker:    revoker,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// Login authenticates an admin and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := shared.NormalizeEmail(input.Email)
	now := s.now()

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown email", zap.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CanLogin(now) {
		s.logger.Warn("Login for locked or inactive account",
			zap.String("email", email),
			zap.Bool("active", user.Active),
			zap.Bool("locked", user.IsLocked(now)))
		return nil, ErrInvalidCredentials
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration, now)
		if err := s.userRepo.Save(ctx, user); err != nil {
			s.logger.Error("Failed to update admin after login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("email", email),
				zap.Int("attempts", s.config.MaxLoginAttempts))
		}
		return nil, ErrInvalidCredentials
	}

	pair, err := s.jwtService.GenerateTokenPair(auth.AdminIdentity{UserID: user.ID, Email: user.Email})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, err
	}

	user.RecordLoginSuccess(input.IP, now)
	if err := s.userRepo.Save(ctx, user); err != nil {
		// the tokens are valid either way
		s.logger.Error("Failed to update admin after successful login", zap.Error(err))
	}

	s.logger.Info("Admin logged in", zap.String("user_id", user.ID.String()))
	return &LoginResult{Tokens: *pair, User: toAdminInfo(user)}, nil
}

// RefreshToken exchanges a refresh token for a new pair. The old refresh
// token is revoked so it cannot be replayed.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*RefreshTokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
		}
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
	if err := auth.CheckRevoked(ctx, s.revoker, claims); err != nil {
		if errors.Is(err, auth.ErrTokenRevoked) {
			return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
		}
		return nil, err
	}

	userID, err := claims.SubjectUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid user ID in token")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
		}
		return nil, err
	}
	if !user.CanLogin(s.now()) {
		s.logger.Warn("Token refresh for inactive admin", zap.String("user_id", userID.String()))
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	}

	pair, err := s.jwtService.GenerateTokenPair(auth.AdminIdentity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, err
	}
	if s.revoker != nil {
		if err := s.revoker.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
			s.logger.Warn("Failed to revoke rotated refresh token", zap.Error(err))
		}
	}

	return &RefreshTokenResult{Tokens: *pair}, nil
}

// Me returns the profile of the signed-in admin
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*AdminInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	}
	info := toAdminInfo(user)
	return &info, nil
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("Admin logout", zap.String("user_id", input.UserID.String()))
	if s.revoker == nil {
		return nil
	}
	if input.TokenJTI != "" && input.TokenTTL > 0 {
		if err := s.revoker.Revoke(ctx, input.TokenJTI, input.TokenTTL); err != nil {
			return err
		}
	}
	if input.RefreshToken == "" {
		return nil
	}
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		// already unusable
		return nil
	}
	if claims.Subject != input.UserID.String() {
		return shared.ErrForbidden
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.RemainingTTL())
}

func toAdminInfo(u *identity.AdminUser) AdminInfo {
	return AdminInfo{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		LastLoginAt: u.LastLoginAt,
	}
}
