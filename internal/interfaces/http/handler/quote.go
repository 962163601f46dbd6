package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	pricingapp "github.com/inkthread/storefront/internal/application/pricing"
	"github.com/inkthread/storefront/internal/domain/pricing"
)

// QuoteService prices garment orders. *pricingapp.QuoteService implements it.
type QuoteService interface {
	Quote(ctx context.Context, req pricingapp.QuoteRequest) (*pricing.Quote, error)
}

// QuoteHandler handles price quotes
type QuoteHandler struct {
	BaseHandler
	quoteService QuoteService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quoteService QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

// Quote godoc
//
//	@ID				createQuote
//	@Summary		Price quote
//	@Description	Prices garments, print locations, setup fees and shipping from the rate tables
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			request	body	pricingapp.QuoteRequest	true	"Lines to price"
//	@Success		200	{object}	dto.Response{data=pricing.Quote}
//	@Failure		400	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		429	{object}	dto.Response
//	@Router			/api/quotes [post]
func (h *QuoteHandler) Quote(c *gin.Context) {
	var req pricingapp.QuoteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	quote, err := h.quoteService.Quote(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quote)
}
