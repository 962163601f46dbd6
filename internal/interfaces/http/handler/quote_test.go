package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	pricingapp "github.com/inkthread/storefront/internal/application/pricing"
	"github.com/inkthread/storefront/internal/domain/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func quoteRouter(svc QuoteService) *gin.Engine {
	h := NewQuoteHandler(svc)
	r := newEngine()
	r.POST("/api/quotes", h.Quote)
	return r
}

func TestQuoteHandler_Quote(t *testing.T) {
	garmentID := uuid.New()

	t.Run("prices the request", func(t *testing.T) {
		svc := new(MockQuoteService)
		svc.On("Quote", mock.Anything, mock.MatchedBy(func(req pricingapp.QuoteRequest) bool {
			return len(req.Lines) == 1 && req.Lines[0].Sizes["M"] == 24
		})).Return(&pricing.Quote{TotalQuantity: 24}, nil)

		w := perform(quoteRouter(svc), http.MethodPost, "/api/quotes", jsonBody(t, map[string]any{
			"lines":     []map[string]any{{"garment_id": garmentID, "color": "Black", "sizes": map[string]int{"M": 24}}},
			"locations": []map[string]any{{"location": "front", "ink_colors": 2}},
		}))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("rejects out of range size quantities", func(t *testing.T) {
		for _, sizes := range []string{
			`{"S": 9223372036854775807, "M": 1}`,
			`{"M": -1}`,
			`{"M": 10001}`,
		} {
			svc := new(MockQuoteService)
			body := `{"lines":[{"garment_id":"` + garmentID.String() + `","color":"Black","sizes":` + sizes + `}],` +
				`"locations":[{"location":"front","ink_colors":1}]}`

			w := perform(quoteRouter(svc), http.MethodPost, "/api/quotes", jsonBody(t, body))

			assert.Equal(t, http.StatusBadRequest, w.Code, sizes)
			svc.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
		}
	})
}
