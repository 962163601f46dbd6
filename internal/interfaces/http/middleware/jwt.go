package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkthread/storefront/internal/infrastructure/auth"
	"github.com/inkthread/storefront/internal/infrastructure/logger"
	"github.com/inkthread/storefront/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTActorKey   = "jwt_actor"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator validates bearer tokens. *auth.JWTService implements it.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*auth.Claims, error)
	ValidateBearer(tokenString string) (*auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// Validator is required for token validation
	Validator TokenValidator
	// Revoker is optional; revoked tokens are rejected when set
	Revoker auth.TokenRevoker
	// Logger for middleware logging
	Logger *zap.Logger
}

// AdminAuth requires an admin access token
func AdminAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return authenticate(cfg, cfg.Validator.ValidateAccessToken, true)
}

// BearerAuth requires an admin access token or an organizer token
func BearerAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return authenticate(cfg, cfg.Validator.ValidateBearer, true)
}

// OptionalAuth stores the claims of a valid bearer token and lets every
// request through. Handlers use it to unlock admin-only fields.
func OptionalAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return authenticate(cfg, cfg.Validator.ValidateBearer, false)
}

func authenticate(cfg JWTMiddlewareConfig, validate func(string) (*auth.Claims, error), required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			if !required {
				c.Next()
				return
			}
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing or malformed authorization header")
			return
		}

		claims, err := validate(tokenString)
		if err != nil {
			if !required {
				c.Next()
				return
			}
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		if err := auth.CheckRevoked(c.Request.Context(), cfg.Revoker, claims); err != nil {
			if errors.Is(err, auth.ErrTokenRevoked) {
				if !required {
					c.Next()
					return
				}
				handleAuthError(c, cfg, err, "Token has been revoked")
				return
			}
			// fail open when the revocation store is down
			if cfg.Logger != nil {
				cfg.Logger.Error("Failed to check token revocation",
					zap.String("jti", claims.ID),
					zap.Error(err))
			}
		}

		actor := actorOf(claims)
		c.Set(JWTClaimsKey, claims)
		c.Set(JWTActorKey, actor)
		c.Request = c.Request.WithContext(logger.WithActor(c.Request.Context(), actor))

		if cfg.Logger != nil {
			cfg.Logger.Debug("JWT authentication successful",
				zap.String("actor", actor),
				zap.String("token_type", string(claims.TokenType)))
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func actorOf(claims *auth.Claims) string {
	if claims.TokenType == auth.TokenTypeOrganizer {
		return "organizer:" + claims.Slug
	}
	return "admin:" + claims.Subject
}

// RequireCampaignManager allows admins and the organizer of the campaign
// named by the :slug path parameter. It must run after BearerAuth.
func RequireCampaignManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil || !claims.CanManageCampaign(c.Param("slug")) {
			abortForbidden(c, "You do not manage this campaign")
			return
		}
		c.Next()
	}
}

// RequireOrganizer allows only the organizer token of the :slug campaign
func RequireOrganizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil || claims.TokenType != auth.TokenTypeOrganizer || claims.Slug != c.Param("slug") {
			abortForbidden(c, "Only the campaign organizer can do this")
			return
		}
		c.Next()
	}
}

func abortForbidden(c *gin.Context, message string) {
	abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, message)
}

// handleAuthError handles authentication errors
func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	errorCode := dto.ErrCodeUnauthorized
	errorMessage := "Authentication required"

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		errorCode = dto.ErrCodeTokenExpired
		errorMessage = "Token has expired"
	case errors.Is(err, auth.ErrInvalidTokenType):
		errorCode = dto.ErrCodeTokenInvalid
		errorMessage = "Invalid token type"
	case errors.Is(err, auth.ErrTokenRevoked):
		errorCode = dto.ErrCodeTokenRevoked
		errorMessage = "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
		errorCode = dto.ErrCodeTokenInvalid
		errorMessage = "Invalid token"
	}

	abortWithError(c, http.StatusUnauthorized, errorCode, errorMessage)
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// IsAdmin reports whether the request carries a valid admin access token
func IsAdmin(c *gin.Context) bool {
	claims := GetJWTClaims(c)
	return claims != nil && claims.IsAdmin()
}

// GetActor returns "admin:<id>" or "organizer:<slug>" for authenticated requests
func GetActor(c *gin.Context) string {
	return c.GetString(JWTActorKey)
}
