package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/application/identity"
	"github.com/inkthread/storefront/internal/interfaces/http/middleware"
)

// AuthService is the admin authentication use case set. *identity.AuthService implements it.
type AuthService interface {
	Login(ctx context.Context, input identity.LoginInput) (*identity.LoginResult, error)
	RefreshToken(ctx context.Context, input identity.RefreshTokenInput) (*identity.RefreshTokenResult, error)
	Me(ctx context.Context, userID uuid.UUID) (*identity.AdminInfo, error)
	Logout(ctx context.Context, input identity.LogoutInput) error
}

// AuthHandler serves admin sign-in and session routes
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
//
//	@ID				login
//	@Summary		Admin login
//	@Description	Authenticate an admin with email and password
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	LoginRequest	true	"Credentials"
//	@Success		200	{object}	dto.Response{data=LoginResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		429	{object}	dto.Response
//	@Router			/api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LoginResponse{Token: result.Tokens, User: toAdminResponse(result.User)})
}

// RefreshToken godoc
//
//	@ID				refreshToken
//	@Summary		Refresh tokens
//	@Description	Exchange a refresh token for a new token pair. The old refresh token is revoked.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	RefreshTokenRequest	true	"Refresh token"
//	@Success		200	{object}	dto.Response{data=RefreshTokenResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		429	{object}	dto.Response
//	@Router			/api/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), identity.RefreshTokenInput{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, RefreshTokenResponse{Token: result.Tokens})
}

// Logout godoc
//
//	@ID				logout
//	@Summary		Logout
//	@Description	Revoke the current access token and, when given, the refresh token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	LogoutRequest	false	"Refresh token to revoke"
//	@Success		200	{object}	dto.Response{data=MessageResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := claims.SubjectUUID()
	if err != nil {
		h.Unauthorized(c, "Invalid token subject")
		return
	}

	var req LogoutRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	err = h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		UserID:       userID,
		TokenJTI:     claims.ID,
		TokenTTL:     claims.RemainingTTL(),
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageResponse{Message: "Logged out successfully"})
}

// Me godoc
//
//	@ID				getCurrentAdmin
//	@Summary		Current admin
//	@Description	Returns the signed-in admin
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	dto.Response{data=AdminResponse}
//	@Failure		401	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getAdminID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	info, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toAdminResponse(*info))
}
