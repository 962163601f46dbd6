package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/application/identity"
	"github.com/inkthread/storefront/internal/infrastructure/auth"
	"github.com/inkthread/storefront/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func authRouter(svc *MockAuthService, mw ...gin.HandlerFunc) *gin.Engine {
	h := NewAuthHandler(svc)
	router := newEngine(mw...)
	router.POST("/api/auth/login", h.Login)
	router.POST("/api/auth/refresh", h.RefreshToken)
	router.POST("/api/auth/logout", h.Logout)
	router.GET("/api/auth/me", h.Me)
	return router
}

func TestAuthHandler_Login(t *testing.T) {
	adminID := uuid.New()
	expires := time.Date(2026, 10, 19, 12, 15, 0, 0, time.UTC)

	t.Run("returns tokens and the admin", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, mock.MatchedBy(func(in identity.LoginInput) bool {
			return in.Email == "ops@inkthread.test" && in.Password == "s3cret-pass" && in.IP != ""
		})).Return(&identity.LoginResult{
			Tokens: auth.TokenPair{
				AccessToken:          "access",
				RefreshToken:         "refresh",
				AccessTokenExpiresAt: expires,
				TokenType:            "Bearer",
			},
			User: identity.AdminInfo{ID: adminID, Email: "ops@inkthread.test", Name: "Ops"},
		}, nil)

		w := perform(authRouter(svc), http.MethodPost, "/api/auth/login",
			jsonBody(t, LoginRequest{Email: "ops@inkthread.test", Password: "s3cret-pass"}))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp LoginResponse
		decodeData(t, w, &resp)
		assert.Equal(t, "access", resp.Token.AccessToken)
		assert.Equal(t, "Bearer", resp.Token.TokenType)
		assert.Equal(t, adminID, resp.User.ID)
		svc.AssertExpectations(t)
	})

	t.Run("wrong password is a uniform 401", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, mock.Anything).Return(nil, identity.ErrInvalidCredentials)

		w := perform(authRouter(svc), http.MethodPost, "/api/auth/login",
			jsonBody(t, LoginRequest{Email: "ops@inkthread.test", Password: "nope"}))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInvalidCredentials, resp.Code)
		assert.Equal(t, "Invalid email or password", resp.Error)
	})

	t.Run("malformed email never reaches the service", func(t *testing.T) {
		svc := new(MockAuthService)

		w := perform(authRouter(svc), http.MethodPost, "/api/auth/login",
			jsonBody(t, `{"email":"not-an-email","password":"x"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Code)
		require.NotEmpty(t, resp.Details)
		assert.Equal(t, "email", resp.Details[0].Field)
		svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("RefreshToken", mock.Anything, identity.RefreshTokenInput{RefreshToken: "old"}).
		Return(&identity.RefreshTokenResult{Tokens: auth.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh", TokenType: "Bearer"}}, nil)

	w := perform(authRouter(svc), http.MethodPost, "/api/auth/refresh", jsonBody(t, RefreshTokenRequest{RefreshToken: "old"}))

	require.Equal(t, http.StatusOK, w.Code)
	var resp RefreshTokenResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "new-refresh", resp.Token.RefreshToken)
}

func TestAuthHandler_Me(t *testing.T) {
	claims := adminClaims(t)
	adminID, err := claims.SubjectUUID()
	require.NoError(t, err)

	t.Run("returns the signed in admin", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Me", mock.Anything, adminID).Return(&identity.AdminInfo{ID: adminID, Email: "ops@inkthread.test"}, nil)

		w := perform(authRouter(svc, withClaims(claims)), http.MethodGet, "/api/auth/me", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp AdminResponse
		decodeData(t, w, &resp)
		assert.Equal(t, "ops@inkthread.test", resp.Email)
	})

	t.Run("organizer claims are not an admin", func(t *testing.T) {
		svc := new(MockAuthService)
		w := perform(authRouter(svc, withClaims(organizerClaims(t, "robotics-club"))), http.MethodGet, "/api/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	claims := adminClaims(t)
	adminID, err := claims.SubjectUUID()
	require.NoError(t, err)

	t.Run("revokes the access token and the refresh token", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Logout", mock.Anything, mock.MatchedBy(func(in identity.LogoutInput) bool {
			return in.UserID == adminID && in.TokenJTI == claims.ID && in.RefreshToken == "refresh" && in.TokenTTL > 0
		})).Return(nil)

		w := perform(authRouter(svc, withClaims(claims)), http.MethodPost, "/api/auth/logout", jsonBody(t, LogoutRequest{RefreshToken: "refresh"}))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("body is optional", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Logout", mock.Anything, mock.MatchedBy(func(in identity.LogoutInput) bool {
			return in.RefreshToken == ""
		})).Return(nil)

		w := perform(authRouter(svc, withClaims(claims)), http.MethodPost, "/api/auth/logout", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("requires claims", func(t *testing.T) {
		w := perform(authRouter(new(MockAuthService)), http.MethodPost, "/api/auth/logout", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
