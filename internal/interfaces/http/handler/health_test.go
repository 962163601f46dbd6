package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/inkthread/storefront/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		router := newEngine()
		router.GET("/health", NewHealthHandler(stubPinger{}, "1.4.0").Health)

		w := perform(router, http.MethodGet, "/health", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp HealthResponse
		decodeData(t, w, &resp)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "ok", resp.Database)
		assert.Equal(t, "1.4.0", resp.Version)
	})

	t.Run("database down", func(t *testing.T) {
		router := newEngine()
		router.GET("/health", NewHealthHandler(stubPinger{err: errors.New("connection refused")}, "1.4.0").Health)

		w := perform(router, http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decodeResponse(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeServiceUnavailable, resp.Code)
	})
}
