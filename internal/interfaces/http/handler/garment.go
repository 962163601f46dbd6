package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/inkthread/storefront/internal/application/catalog"
	"github.com/inkthread/storefront/internal/domain/shared"
)

// GarmentService is the catalog use case set. *catalogapp.GarmentService implements it.
type GarmentService interface {
	ListPublic(ctx context.Context, filter catalogapp.GarmentListFilter) (*shared.Paginated[catalogapp.GarmentResponse], error)
	GetPublic(ctx context.Context, id uuid.UUID) (*catalogapp.GarmentResponse, error)
	List(ctx context.Context, filter catalogapp.GarmentListFilter) (*shared.Paginated[catalogapp.GarmentResponse], error)
	GetByID(ctx context.Context, id uuid.UUID) (*catalogapp.GarmentResponse, error)
	Create(ctx context.Context, req catalogapp.CreateGarmentRequest) (*catalogapp.GarmentResponse, error)
	Update(ctx context.Context, id uuid.UUID, req catalogapp.UpdateGarmentRequest) (*catalogapp.GarmentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// GarmentHandler handles garment catalog endpoints
type GarmentHandler struct {
	BaseHandler
	garmentService GarmentService
}

// NewGarmentHandler creates a new GarmentHandler
func NewGarmentHandler(garmentService GarmentService) *GarmentHandler {
	return &GarmentHandler{
		garmentService: garmentService,
	}
}

// ListPublic godoc
//
//	@ID				listGarments
//	@Summary		List garments
//	@Description	Active garments shown in the storefront
//	@Tags			catalog
//	@Produce		json
//	@Param			filter	query	catalogapp.GarmentListFilter	false	"Filter"
//	@Success		200	{object}	dto.Response{data=[]catalogapp.GarmentResponse,meta=dto.Meta}
//	@Failure		400	{object}	dto.Response
//	@Router			/api/garments [get]
func (h *GarmentHandler) ListPublic(c *gin.Context) {
	var filter catalogapp.GarmentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.garmentService.ListPublic(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetPublic godoc
//
//	@ID				getGarment
//	@Summary		Get garment
//	@Description	Active garment by ID
//	@Tags			catalog
//	@Produce		json
//	@Param			id	path	string	true	"Garment ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=catalogapp.GarmentResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Router			/api/garments/{id} [get]
func (h *GarmentHandler) GetPublic(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	garment, err := h.garmentService.GetPublic(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, garment)
}

// List godoc
//
//	@ID				adminListGarments
//	@Summary		List all garments
//	@Description	Every garment, inactive ones included
//	@Tags			admin-garments
//	@Produce		json
//	@Param			filter	query	catalogapp.GarmentListFilter	false	"Filter"
//	@Success		200	{object}	dto.Response{data=[]catalogapp.GarmentResponse,meta=dto.Meta}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/admin/garments [get]
func (h *GarmentHandler) List(c *gin.Context) {
	var filter catalogapp.GarmentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.garmentService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
//
//	@ID				adminGetGarment
//	@Summary		Get garment
//	@Description	Garment by ID regardless of its active flag
//	@Tags			admin-garments
//	@Produce		json
//	@Param			id	path	string	true	"Garment ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=catalogapp.GarmentResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/admin/garments/{id} [get]
func (h *GarmentHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	garment, err := h.garmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, garment)
}

// Create godoc
//
//	@ID				createGarment
//	@Summary		Create garment
//	@Description	Adds a garment with its colors, sizes and base price
//	@Tags			admin-garments
//	@Accept			json
//	@Produce		json
//	@Param			request	body	catalogapp.CreateGarmentRequest	true	"Garment"
//	@Success		201	{object}	dto.Response{data=catalogapp.GarmentResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/admin/garments [post]
func (h *GarmentHandler) Create(c *gin.Context) {
	var req catalogapp.CreateGarmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	garment, err := h.garmentService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, garment)
}

// Update godoc
//
//	@ID				updateGarment
//	@Summary		Update garment
//	@Description	Partial update. Omitted fields are left unchanged.
//	@Tags			admin-garments
//	@Accept			json
//	@Produce		json
//	@Param			id	path	string	true	"Garment ID"	format(uuid)
//	@Param			request	body	catalogapp.UpdateGarmentRequest	true	"Changes"
//	@Success		200	{object}	dto.Response{data=catalogapp.GarmentResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/admin/garments/{id} [put]
func (h *GarmentHandler) Update(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateGarmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	garment, err := h.garmentService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, garment)
}

// Delete godoc
//
//	@ID				deleteGarment
//	@Summary		Delete garment
//	@Description	Soft-deletes a garment
//	@Tags			admin-garments
//	@Param			id	path	string	true	"Garment ID"	format(uuid)
//	@Success		204
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/admin/garments/{id} [delete]
func (h *GarmentHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.garmentService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
