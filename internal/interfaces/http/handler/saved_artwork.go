package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
	"github.com/inkthread/storefront/internal/domain/shared"
)

// SavedArtworkService is the artwork library use case set. *artworkapp.SavedArtworkService implements it.
type SavedArtworkService interface {
	Save(ctx context.Context, req artworkapp.SaveArtworkRequest) (*artworkapp.SavedArtworkResponse, error)
	List(ctx context.Context, filter artworkapp.SavedArtworkListFilter) (*shared.Paginated[artworkapp.SavedArtworkResponse], error)
	Update(ctx context.Context, id uuid.UUID, req artworkapp.UpdateSavedArtworkRequest) (*artworkapp.SavedArtworkResponse, error)
	Delete(ctx context.Context, id uuid.UUID, email string) error
}

// SavedArtworkHandler handles a customer's saved artwork library
type SavedArtworkHandler struct {
	BaseHandler
	savedService SavedArtworkService
}

// NewSavedArtworkHandler creates a new SavedArtworkHandler
func NewSavedArtworkHandler(savedService SavedArtworkService) *SavedArtworkHandler {
	return &SavedArtworkHandler{savedService: savedService}
}

// DeleteSavedArtworkRequest names the library owner
type DeleteSavedArtworkRequest struct {
	Email string `form:"email" binding:"required,email"`
}

// List godoc
//
//	@ID				listSavedArtwork
//	@Summary		List saved artwork
//	@Description	A customer's saved artwork library
//	@Tags			saved-artwork
//	@Produce		json
//	@Param			filter	query	artworkapp.SavedArtworkListFilter	false	"Owner and paging"
//	@Success		200	{object}	dto.Response{data=[]artworkapp.SavedArtworkResponse,meta=dto.Meta}
//	@Failure		400	{object}	dto.Response
//	@Router			/api/saved-artwork [get]
func (h *SavedArtworkHandler) List(c *gin.Context) {
	var filter artworkapp.SavedArtworkListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.savedService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Save godoc
//
//	@ID				saveArtwork
//	@Summary		Save artwork
//	@Description	Adds uploaded artwork to a customer's library
//	@Tags			saved-artwork
//	@Accept			json
//	@Produce		json
//	@Param			request	body	artworkapp.SaveArtworkRequest	true	"Entry"
//	@Success		201	{object}	dto.Response{data=artworkapp.SavedArtworkResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Router			/api/saved-artwork [post]
func (h *SavedArtworkHandler) Save(c *gin.Context) {
	var req artworkapp.SaveArtworkRequest
	if !h.bindJSON(c, &req) {
		return
	}

	saved, err := h.savedService.Save(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, saved)
}

// Update godoc
//
//	@ID				updateSavedArtwork
//	@Summary		Update saved artwork
//	@Description	Renames or retags an entry. The email must own it.
//	@Tags			saved-artwork
//	@Accept			json
//	@Produce		json
//	@Param			id	path	string	true	"Saved artwork ID"	format(uuid)
//	@Param			request	body	artworkapp.UpdateSavedArtworkRequest	true	"Changes"
//	@Success		200	{object}	dto.Response{data=artworkapp.SavedArtworkResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Router			/api/saved-artwork/{id} [patch]
func (h *SavedArtworkHandler) Update(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req artworkapp.UpdateSavedArtworkRequest
	if !h.bindJSON(c, &req) {
		return
	}

	saved, err := h.savedService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, saved)
}

// Delete godoc
//
//	@ID				deleteSavedArtwork
//	@Summary		Delete saved artwork
//	@Description	Removes an entry. The email query parameter must own it.
//	@Tags			saved-artwork
//	@Param			id	path	string	true	"Saved artwork ID"	format(uuid)
//	@Param			email	query	string	true	"Owner email"
//	@Success		204
//	@Failure		400	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Router			/api/saved-artwork/{id} [delete]
func (h *SavedArtworkHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req DeleteSavedArtworkRequest
	if !h.bindQuery(c, &req) {
		return
	}

	if err := h.savedService.Delete(c.Request.Context(), id, req.Email); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
