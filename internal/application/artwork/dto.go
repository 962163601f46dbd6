package artwork

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/artwork"
)

// UploadInput carries a direct (multipart) upload
type UploadInput struct {
	Body        io.Reader
	FileName    string
	ContentType string
	Size        int64
	Email       string
}

// PresignRequest asks for a presigned upload URL
type PresignRequest struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required,min=1"`
	Email       string `json:"email" binding:"omitempty,email"`
}

// PresignResponse is a pending artwork row plus where to PUT the bytes
type PresignResponse struct {
	Artwork   ArtworkResponse   `json:"artwork"`
	UploadURL string            `json:"upload_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// GenerateRequest asks the image generator for new artwork
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required,min=3,max=1000"`
	Email  string `json:"email" binding:"omitempty,email"`
}

// PlacementRequest is artwork placed at one print location
type PlacementRequest struct {
	Location      string             `json:"location" binding:"required"`
	ArtworkFileID *uuid.UUID         `json:"artwork_file_id"`
	InkColors     int                `json:"ink_colors" binding:"omitempty,min=1,max=6"`
	FullColor     bool               `json:"full_color"`
	Transform     *artwork.Transform `json:"transform"`
}

// ValidateTransformsRequest is a set of placements to check
type ValidateTransformsRequest struct {
	Placements []PlacementRequest `json:"placements" binding:"required,min=1,max=6,dive"`
}

// PlacementResult is a validated placement with its normalized transform
type PlacementResult struct {
	Location      string            `json:"location"`
	ArtworkFileID *uuid.UUID        `json:"artwork_file_id,omitempty"`
	InkColors     int               `json:"ink_colors"`
	FullColor     bool              `json:"full_color"`
	Transform     artwork.Transform `json:"transform"`
}

// ValidateTransformsResponse holds the normalized placements
type ValidateTransformsResponse struct {
	Valid      bool              `json:"valid"`
	Placements []PlacementResult `json:"placements"`
}

// ArtworkResponse represents an artwork file in API responses
type ArtworkResponse struct {
	ID             uuid.UUID  `json:"id"`
	FileName       string     `json:"file_name"`
	ContentType    string     `json:"content_type"`
	SizeBytes      int64      `json:"size_bytes"`
	Source         string     `json:"source"`
	Prompt         string     `json:"prompt,omitempty"`
	UploadStatus   string     `json:"upload_status"`
	VectorStatus   string     `json:"vector_status"`
	VectorError    string     `json:"vector_error,omitempty"`
	VectorAttempts int        `json:"vector_attempts"`
	WidthPx        int        `json:"width_px,omitempty"`
	HeightPx       int        `json:"height_px,omitempty"`
	OriginalURL    string     `json:"original_url,omitempty"`
	VectorURL      string     `json:"vector_url,omitempty"`
	URLExpiresAt   *time.Time `json:"url_expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToArtworkResponse converts a domain artwork file to a response without URLs
func ToArtworkResponse(a *artwork.ArtworkFile) ArtworkResponse {
	return ArtworkResponse{
		ID:             a.ID,
		FileName:       a.FileName,
		ContentType:    a.ContentType,
		SizeBytes:      a.SizeBytes,
		Source:         string(a.Source),
		Prompt:         a.Prompt,
		UploadStatus:   string(a.UploadStatus),
		VectorStatus:   string(a.VectorStatus),
		VectorError:    a.VectorError,
		VectorAttempts: a.VectorAttempts,
		WidthPx:        a.WidthPx,
		HeightPx:       a.HeightPx,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// SaveArtworkRequest adds artwork to an email's library
type SaveArtworkRequest struct {
	Email         string    `json:"email" binding:"required,email"`
	Name          string    `json:"name" binding:"required,max=100"`
	ArtworkFileID uuid.UUID `json:"artwork_file_id" binding:"required"`
	Tags          []string  `json:"tags" binding:"omitempty,max=10"`
}

// UpdateSavedArtworkRequest renames or retags a saved entry
type UpdateSavedArtworkRequest struct {
	Email string    `json:"email" binding:"required,email"`
	Name  *string   `json:"name" binding:"omitempty,max=100"`
	Tags  *[]string `json:"tags"`
}

// SavedArtworkListFilter holds list query parameters
type SavedArtworkListFilter struct {
	Email    string `form:"email" binding:"required,email"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// SavedArtworkResponse represents a saved artwork entry
type SavedArtworkResponse struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	ArtworkFileID uuid.UUID        `json:"artwork_file_id"`
	Tags          []string         `json:"tags"`
	LastUsedAt    *time.Time       `json:"last_used_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	Artwork       *ArtworkResponse `json:"artwork,omitempty"`
}

// ToSavedArtworkResponse converts a domain saved artwork entry
func ToSavedArtworkResponse(s *artwork.SavedArtwork) SavedArtworkResponse {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return SavedArtworkResponse{
		ID:            s.ID,
		Name:          s.Name,
		ArtworkFileID: s.ArtworkFileID,
		Tags:          tags,
		LastUsedAt:    s.LastUsedAt,
		CreatedAt:     s.CreatedAt,
	}
}
