package handler

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
)

// uploadFormField is the multipart field carrying the artwork file
const uploadFormField = "file"

// ArtworkService is the artwork use case set. *artworkapp.ArtworkService implements it.
type ArtworkService interface {
	Upload(ctx context.Context, in artworkapp.UploadInput) (*artworkapp.ArtworkResponse, error)
	RequestUpload(ctx context.Context, req artworkapp.PresignRequest) (*artworkapp.PresignResponse, error)
	ConfirmUpload(ctx context.Context, id uuid.UUID) (*artworkapp.ArtworkResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*artworkapp.ArtworkResponse, error)
	RequestVectorization(ctx context.Context, id uuid.UUID) (*artworkapp.ArtworkResponse, error)
	Generate(ctx context.Context, req artworkapp.GenerateRequest) (*artworkapp.ArtworkResponse, error)
	ValidateTransforms(ctx context.Context, req artworkapp.ValidateTransformsRequest) (*artworkapp.ValidateTransformsResponse, error)
}

// ArtworkHandler handles artwork uploads, vectorization and generation
type ArtworkHandler struct {
	BaseHandler
	artworkService ArtworkService
}

// NewArtworkHandler creates a new ArtworkHandler
func NewArtworkHandler(artworkService ArtworkService) *ArtworkHandler {
	return &ArtworkHandler{artworkService: artworkService}
}

// Upload godoc
//
//	@ID				uploadArtwork
//	@Summary		Upload artwork
//	@Description	Multipart upload of PNG, JPEG, WebP, SVG or PDF artwork up to 25 MiB
//	@Tags			artwork
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"Artwork file"
//	@Param			email	formData	string	false	"Uploader email"
//	@Success		201	{object}	dto.Response{data=artworkapp.ArtworkResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		413	{object}	dto.Response
//	@Router			/api/artwork [post]
func (h *ArtworkHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile(uploadFormField)
	if errors.Is(err, http.ErrMissingFile) {
		h.BadRequest(c, "Missing artwork file")
		return
	}
	if err != nil {
		h.bindError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Unreadable artwork file")
		return
	}
	defer file.Close()

	artwork, err := h.artworkService.Upload(c.Request.Context(), artworkapp.UploadInput{
		Body:        file,
		FileName:    fileHeader.Filename,
		ContentType: uploadContentType(fileHeader.Header.Get("Content-Type"), fileHeader.Filename),
		Size:        fileHeader.Size,
		Email:       strings.TrimSpace(c.PostForm("email")),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, artwork)
}

// uploadContentType prefers the part's declared type and falls back to the extension
func uploadContentType(declared, filename string) string {
	if declared != "" && declared != "application/octet-stream" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
			return mediaType
		}
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
			return mediaType
		}
	}
	return declared
}

// Presign godoc
//
//	@ID				presignArtwork
//	@Summary		Request upload URL
//	@Description	Creates a pending artwork row and returns a URL the browser PUTs the file to
//	@Tags			artwork
//	@Accept			json
//	@Produce		json
//	@Param			request	body	artworkapp.PresignRequest	true	"File to upload"
//	@Success		201	{object}	dto.Response{data=artworkapp.PresignResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		503	{object}	dto.Response
//	@Router			/api/artwork/presign [post]
func (h *ArtworkHandler) Presign(c *gin.Context) {
	var req artworkapp.PresignRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.artworkService.RequestUpload(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Confirm godoc
//
//	@ID				confirmArtwork
//	@Summary		Confirm upload
//	@Description	Checks the uploaded object and marks the artwork uploaded
//	@Tags			artwork
//	@Produce		json
//	@Param			id	path	string	true	"Artwork ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=artworkapp.ArtworkResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Router			/api/artwork/{id}/confirm [post]
func (h *ArtworkHandler) Confirm(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	artwork, err := h.artworkService.ConfirmUpload(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, artwork)
}

// Get godoc
//
//	@ID				getArtwork
//	@Summary		Get artwork
//	@Description	Artwork with presigned download URLs and vectorization status
//	@Tags			artwork
//	@Produce		json
//	@Param			id	path	string	true	"Artwork ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=artworkapp.ArtworkResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Router			/api/artwork/{id} [get]
func (h *ArtworkHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	artwork, err := h.artworkService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, artwork)
}

// Vectorize godoc
//
//	@ID				vectorizeArtwork
//	@Summary		Vectorize artwork
//	@Description	Queues raster artwork for conversion to SVG. Poll GET /api/artwork/{id} for the result.
//	@Tags			artwork
//	@Produce		json
//	@Param			id	path	string	true	"Artwork ID"	format(uuid)
//	@Success		202	{object}	dto.Response{data=artworkapp.ArtworkResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Failure		503	{object}	dto.Response
//	@Router			/api/artwork/{id}/vectorize [post]
func (h *ArtworkHandler) Vectorize(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	artwork, err := h.artworkService.RequestVectorization(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, artwork)
}

// Generate godoc
//
//	@ID				generateArtwork
//	@Summary		Generate artwork
//	@Description	Generates artwork from a text prompt
//	@Tags			artwork
//	@Accept			json
//	@Produce		json
//	@Param			request	body	artworkapp.GenerateRequest	true	"Prompt"
//	@Success		201	{object}	dto.Response{data=artworkapp.ArtworkResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		429	{object}	dto.Response
//	@Failure		502	{object}	dto.Response
//	@Failure		503	{object}	dto.Response
//	@Router			/api/artwork/generate [post]
func (h *ArtworkHandler) Generate(c *gin.Context) {
	var req artworkapp.GenerateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	artwork, err := h.artworkService.Generate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, artwork)
}

// ValidateTransforms godoc
//
//	@ID				validateTransforms
//	@Summary		Validate placements
//	@Description	Checks each placement's location and transform and returns the normalized values
//	@Tags			artwork
//	@Accept			json
//	@Produce		json
//	@Param			request	body	artworkapp.ValidateTransformsRequest	true	"Placements"
//	@Success		200	{object}	dto.Response{data=artworkapp.ValidateTransformsResponse}
//	@Failure		400	{object}	dto.Response
//	@Router			/api/artwork/transforms/validate [post]
func (h *ArtworkHandler) ValidateTransforms(c *gin.Context) {
	var req artworkapp.ValidateTransformsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.artworkService.ValidateTransforms(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
