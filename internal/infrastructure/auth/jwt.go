package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/infrastructure/config"
)

// TokenType distinguishes the three kinds of bearer token the storefront issues.
type TokenType string

const (
	TokenTypeAccess    TokenType = "access"
	TokenTypeRefresh   TokenType = "refresh"
	TokenTypeOrganizer TokenType = "organizer"
)

const (
	RoleAdmin     = "admin"
	RoleOrganizer = "organizer"
)

// organizer tokens outlive the campaign deadline by this much
const defaultOrganizerGrace = 30 * 24 * time.Hour

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrMissingSlug      = errors.New("organizer token has no campaign slug")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// Claims represents custom JWT claims. Subject is the admin user id for
// access and refresh tokens and the campaign id for organizer tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role      string    `json:"role"`
	Email     string    `json:"email,omitempty"`
	Slug      string    `json:"slug,omitempty"`
	TokenType TokenType `json:"token_type"`
}

func (c *Claims) IsAdmin() bool {
	return c.TokenType == TokenTypeAccess && c.Role == RoleAdmin
}

// CanManageCampaign reports whether the bearer may act as organizer of slug
func (c *Claims) CanManageCampaign(slug string) bool {
	if c.IsAdmin() {
		return true
	}
	return c.TokenType == TokenTypeOrganizer && c.Slug == slug
}

func (c *Claims) SubjectUUID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// RemainingTTL returns the time until the token expires
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"` // Bearer
}

// OrganizerToken is issued to whoever creates a campaign
type OrganizerToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// JWTService signs and validates every token the API accepts.
type JWTService struct {
	accessSecret      []byte
	refreshSecret     []byte
	accessExpiration  time.Duration
	refreshExpiration time.Duration
	organizerGrace    time.Duration
	issuer            string
	now               func() time.Time
}

// NewJWTService falls back to the access secret when no refresh secret is set.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	refreshSecret := []byte(cfg.RefreshSecret)
	if cfg.RefreshSecret == "" {
		refreshSecret = []byte(cfg.Secret)
	}
	grace := cfg.OrganizerTokenGrace
	if grace <= 0 {
		grace = defaultOrganizerGrace
	}

	return &JWTService{
		accessSecret:      []byte(cfg.Secret),
		refreshSecret:     refreshSecret,
		accessExpiration:  cfg.AccessTokenExpiration,
		refreshExpiration: cfg.RefreshTokenExpiration,
		organizerGrace:    grace,
		issuer:            cfg.Issuer,
		now:               time.Now,
	}
}

// AdminIdentity is what gets embedded in an admin's tokens
type AdminIdentity struct {
	UserID uuid.UUID
	Email  string
}

// GenerateTokenPair signs an access token and a refresh token for an admin.
// The refresh token carries no email; it is reloaded on refresh.
func (s *JWTService) GenerateTokenPair(id AdminIdentity) (*TokenPair, error) {
	now := s.now()
	subject := id.UserID.String()

	access, accessExp, err := s.issue(s.accessSecret, now, now.Add(s.accessExpiration), Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Role:             RoleAdmin,
		Email:            id.Email,
		TokenType:        TokenTypeAccess,
	})
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.issue(s.refreshSecret, now, now.Add(s.refreshExpiration), Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Role:             RoleAdmin,
		TokenType:        TokenTypeRefresh,
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
		TokenType:             "Bearer",
	}, nil
}

// GenerateOrganizerToken issues a token scoped to one campaign, valid until
// the grace period after its deadline. A deadline already in the past is
// measured from now instead.
func (s *JWTService) GenerateOrganizerToken(campaignID uuid.UUID, slug string, deadline time.Time) (*OrganizerToken, error) {
	if slug == "" {
		return nil, ErrMissingSlug
	}
	now := s.now()
	exp := deadline.Add(s.organizerGrace)
	if !exp.After(now) {
		exp = now.Add(s.organizerGrace)
	}

	token, exp, err := s.issue(s.accessSecret, now, exp, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: campaignID.String()},
		Role:             RoleOrganizer,
		Slug:             slug,
		TokenType:        TokenTypeOrganizer,
	})
	if err != nil {
		return nil, err
	}
	return &OrganizerToken{Token: token, ExpiresAt: exp}, nil
}

// ValidateAccessToken validates an admin access token
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.accessSecret, TokenTypeAccess)
}

// ValidateRefreshToken validates an admin refresh token
func (s *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.refreshSecret, TokenTypeRefresh)
}

// ValidateBearer accepts either an admin access token or an organizer token
func (s *JWTService) ValidateBearer(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.accessSecret, TokenTypeAccess, TokenTypeOrganizer)
}

func (s *JWTService) AccessTokenExpiration() time.Duration {
	return s.accessExpiration
}

// issue fills the registered claims around c and signs it with HS256.
func (s *JWTService) issue(secret []byte, now, exp time.Time, c Claims) (string, time.Time, error) {
	c.ID = uuid.NewString()
	c.Issuer = s.issuer
	c.Audience = jwt.ClaimStrings{s.issuer}
	c.IssuedAt = jwt.NewNumericDate(now)
	c.NotBefore = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(exp)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &c).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", c.TokenType, err)
	}
	return signed, exp, nil
}

func (s *JWTService) validate(raw string, secret []byte, allowed ...TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.issuer),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	default:
		return nil, ErrInvalidToken
	}

	switch {
	case !slices.Contains(allowed, claims.TokenType):
		return nil, ErrInvalidTokenType
	case claims.Subject == "":
		return nil, ErrInvalidToken
	case claims.TokenType == TokenTypeOrganizer && claims.Slug == "":
		return nil, ErrMissingSlug
	}
	return claims, nil
}
