package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	post := func(router *gin.Engine, path string, size int) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(bytes.Repeat([]byte("x"), size)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("allows request within limit", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimit(1024))
		router.POST("/api/quotes", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		assert.Equal(t, http.StatusOK, post(router, "/api/quotes", 10).Code)
	})

	t.Run("rejects request exceeding Content-Length limit", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimit(100))
		router.POST("/api/quotes", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		w := post(router, "/api/quotes", 200)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_REQUEST_TOO_LARGE")
	})

	t.Run("override raises limit for upload route only", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimitWithOverrides(100, map[string]int64{"/api/artwork": 1000}))
		ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
		router.POST("/api/artwork", ok)
		router.POST("/api/artwork/:id/vectorize", ok)

		assert.Equal(t, http.StatusOK, post(router, "/api/artwork", 500).Code)
		assert.Equal(t, http.StatusRequestEntityTooLarge, post(router, "/api/artwork", 1500).Code)
		assert.Equal(t, http.StatusRequestEntityTooLarge, post(router, "/api/artwork/abc/vectorize", 500).Code)
	})

	t.Run("uses MaxBytesReader for streaming protection", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimit(50))
		router.POST("/api/orders", func(c *gin.Context) {
			if _, err := io.ReadAll(c.Request.Body); err != nil {
				c.String(http.StatusBadRequest, "body too large")
				return
			}
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(strings.Repeat("x", 100)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
