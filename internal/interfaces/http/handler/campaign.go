package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	campaignapp "github.com/inkthread/storefront/internal/application/campaign"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/interfaces/http/middleware"
)

// CampaignService is the group order use case set. *campaignapp.CampaignService implements it.
type CampaignService interface {
	Create(ctx context.Context, req campaignapp.CreateCampaignRequest, admin bool) (*campaignapp.CreateCampaignResponse, error)
	GetPublic(ctx context.Context, slug string) (*campaignapp.CampaignResponse, error)
	Get(ctx context.Context, slug string) (*campaignapp.CampaignResponse, error)
	List(ctx context.Context, filter campaignapp.CampaignListFilter) (*shared.Paginated[campaignapp.CampaignResponse], error)
	Update(ctx context.Context, slug string, req campaignapp.UpdateCampaignRequest, admin bool) (*campaignapp.CampaignResponse, error)
	PlaceOrder(ctx context.Context, slug string, req campaignapp.PlaceOrderRequest) (*campaignapp.PlaceOrderResponse, error)
	ListOrders(ctx context.Context, slug string, filter campaignapp.CampaignOrderListFilter) (*shared.Paginated[campaignapp.CampaignOrderResponse], error)
	Pay(ctx context.Context, slug string) (*campaignapp.PayResponse, error)
	Stats(ctx context.Context, slug string) (*campaignapp.StatsResponse, error)
	End(ctx context.Context, slug string) (*campaignapp.CampaignResponse, error)
	Cancel(ctx context.Context, slug string, req campaignapp.CancelCampaignRequest) (*campaignapp.CampaignResponse, error)
	OrderSheet(ctx context.Context, slug string) ([]byte, string, error)
}

// CampaignHandler handles campaign endpoints for the public, organizers and admins
type CampaignHandler struct {
	BaseHandler
	campaignService CampaignService
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(campaignService CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

// Create godoc
//
//	@ID				createCampaign
//	@Summary		Create campaign
//	@Description	Anyone may create a campaign. The response carries the organizer token, shown once.
//	@Description	Only admins may attach notes.
//	@Tags			campaigns
//	@Accept			json
//	@Produce		json
//	@Param			request	body	campaignapp.CreateCampaignRequest	true	"Campaign"
//	@Success		201	{object}	dto.Response{data=campaignapp.CreateCampaignResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	var req campaignapp.CreateCampaignRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.campaignService.Create(c.Request.Context(), req, middleware.IsAdmin(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get godoc
//
//	@ID				getCampaign
//	@Summary		Get campaign
//	@Description	Public view by slug. The organizer and admins get the full view.
//	@Tags			campaigns
//	@Produce		json
//	@Param			slug	path	string	true	"Campaign slug"
//	@Success		200	{object}	dto.Response{data=campaignapp.CampaignResponse}
//	@Failure		404	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/campaigns/{slug} [get]
func (h *CampaignHandler) Get(c *gin.Context) {
	slug := c.Param("slug")
	get := h.campaignService.GetPublic
	if claims := middleware.GetJWTClaims(c); claims != nil && claims.CanManageCampaign(slug) {
		get = h.campaignService.Get
	}

	campaign, err := get(c.Request.Context(), slug)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, campaign)
}

// List godoc
//
//	@ID				listCampaigns
//	@Summary		List campaigns
//	@Description	Campaigns filtered by status and payment style
//	@Tags			campaigns
//	@Produce		json
//	@Param			filter	query	campaignapp.CampaignListFilter	false	"Filter"
//	@Success		200	{object}	dto.Response{data=[]campaignapp.CampaignResponse,meta=dto.Meta}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	var filter campaignapp.CampaignListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.campaignService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update godoc
//
//	@ID				updateCampaign
//	@Summary		Update campaign
//	@Description	Edits an active campaign. Garment configs with orders cannot be removed.
//	@Tags			campaigns
//	@Accept			json
//	@Produce		json
//	@Param			slug	path	string	true	"Campaign slug"
//	@Param			request	body	campaignapp.UpdateCampaignRequest	true	"Changes"
//	@Success		200	{object}	dto.Response{data=campaignapp.CampaignResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/campaigns/{slug} [put]
func (h *CampaignHandler) Update(c *gin.Context) {
	var req campaignapp.UpdateCampaignRequest
	if !h.bindJSON(c, &req) {
		return
	}

	campaign, err := h.campaignService.Update(c.Request.Context(), c.Param("slug"), req, middleware.IsAdmin(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, campaign)
}

// PlaceOrder godoc
//
//	@ID				placeCampaignOrder
//	@Summary		Place campaign order
//	@Description	Places a participant order. For everyone_pays campaigns the response carries a client secret.
//	@Tags			campaigns
//	@Accept			json
//	@Produce		json
//	@Param			slug	path	string	true	"Campaign slug"
//	@Param			request	body	campaignapp.PlaceOrderRequest	true	"Participant order"
//	@Success		201	{object}	dto.Response{data=campaignapp.PlaceOrderResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Failure		502	{object}	dto.Response
//	@Router			/api/campaigns/{slug}/orders [post]
func (h *CampaignHandler) PlaceOrder(c *gin.Context) {
	var req campaignapp.PlaceOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.campaignService.PlaceOrder(c.Request.Context(), c.Param("slug"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// ListOrders godoc
//
//	@ID				listCampaignOrders
//	@Summary		List campaign orders
//	@Description	Participant orders of the campaign
//	@Tags			campaigns
//	@Produce		json
//	@Param			slug	path	string	true	"Campaign slug"
//	@Param			filter	query	campaignapp.CampaignOrderListFilter	false	"Filter"
//	@Success		200	{object}	dto.Response{data=[]campaignapp.CampaignOrderResponse,meta=dto.Meta}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/campaigns/{slug}/orders [get]
func (h *CampaignHandler) ListOrders(c *gin.Context) {
	var filter campaignapp.CampaignOrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.campaignService.ListOrders(c.Request.Context(), c.Param("slug"), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Pay godoc
//
//	@ID				payCampaign
//	@Summary		Pay for campaign
//	@Description	Creates or reuses the payment intent for the whole campaign
//	@Tags			campaigns
//	@Produce		json
//	@Param			slug	path	string	true	"Campaign slug"
//	@Success		200	{object}	dto.Response{data=campaignapp.PayResponse}
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Failure		502	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/campaigns/{slug}/pay [post]
func (h *CampaignHandler) Pay(c *gin.Context) {
	resp, err := h.campaignService.Pay(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Stats godoc
//
//	@ID				campaignStats
//	@Summary		Campaign stats
//	@Description	Order totals and breakdowns for the organizer dashboard
//	@Tags			campaigns
//	@Produce		json
//	@Param			slug	path	string	true	"Campaign slug"
//	@Success		200	{object}	dto.Response{data=campaignapp.StatsResponse}
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/campaigns/{slug}/stats [get]
func (h *CampaignHandler) Stats(c *gin.Context) {
	stats, err := h.campaignService.Stats(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// End godoc
//
//	@ID				endCampaign
//	@Summary		End campaign
//	@Description	Closes the campaign now and, when payment is settled, creates the production order
//	@Tags			campaigns
//	@Produce		json
//	@Param			slug	path	string	true	"Campaign slug"
//	@Success		200	{object}	dto.Response{data=campaignapp.CampaignResponse}
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/campaigns/{slug}/end [post]
func (h *CampaignHandler) End(c *gin.Context) {
	campaign, err := h.campaignService.End(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, campaign)
}

// Cancel godoc
//
//	@ID				cancelCampaign
//	@Summary		Cancel campaign
//	@Description	Refunds every paid participant and revokes the organizer token
//	@Tags			campaigns
//	@Accept			json
//	@Produce		json
//	@Param			slug	path	string	true	"Campaign slug"
//	@Param			request	body	campaignapp.CancelCampaignRequest	false	"Reason"
//	@Success		200	{object}	dto.Response{data=campaignapp.CampaignResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Failure		502	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/campaigns/{slug}/cancel [post]
func (h *CampaignHandler) Cancel(c *gin.Context) {
	var req campaignapp.CancelCampaignRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	campaign, err := h.campaignService.Cancel(c.Request.Context(), c.Param("slug"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, campaign)
}

// OrderSheet godoc
//
//	@ID				campaignOrderSheet
//	@Summary		Campaign order sheet
//	@Description	PDF of every participant order for production
//	@Tags			campaigns
//	@Produce		application/pdf
//	@Param			slug	path	string	true	"Campaign slug"
//	@Success		200	{file}	file
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/campaigns/{slug}/order-sheet [get]
func (h *CampaignHandler) OrderSheet(c *gin.Context) {
	pdf, filename, err := h.campaignService.OrderSheet(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.PDF(c, filename, pdf)
}
