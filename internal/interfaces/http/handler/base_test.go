package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/interfaces/http/dto"
	"github.com/inkthread/storefront/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound, "Resource not found"},
		{"wrapped domain error", fmt.Errorf("place order: %w", shared.NewDomainError("GARMENT_UNAVAILABLE", "That size is sold out")),
			http.StatusUnprocessableEntity, dto.ErrCodeGarmentUnavailable, "That size is sold out"},
		{"unmapped business rule", shared.NewDomainError("DEADLINE_TOO_SOON", "Deadline must be at least 3 days away"),
			http.StatusUnprocessableEntity, "DEADLINE_TOO_SOON", "Deadline must be at least 3 days away"},
		{"unmapped field error", shared.NewDomainError("INVALID_COLOR", "Color is not offered"),
			http.StatusBadRequest, "INVALID_COLOR", "Color is not offered"},
		{"internal domain error is hidden", shared.NewDomainError("PASSWORD_HASH_ERROR", "bcrypt: cost out of range"),
			http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
		{"plain error is hidden", errors.New("pq: connection reset"),
			http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			router := newEngine(middleware.RequestID())
			router.GET("/x", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := perform(router, http.MethodGet, "/x", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantMessage, resp.Error)
			assert.Equal(t, w.Header().Get(middleware.RequestIDHeader), resp.RequestID)
		})
	}
}

func TestBaseHandler_BindJSONTooLarge(t *testing.T) {
	h := &BaseHandler{}
	router := newEngine(middleware.BodyLimit(16))
	router.POST("/x", func(c *gin.Context) {
		var body struct {
			Name string `json:"name"`
		}
		if !h.bindJSON(c, &body) {
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"`+strings.Repeat("a", 64)+`"}`))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, dto.ErrCodeRequestTooLarge, decodeResponse(t, w).Code)
}
