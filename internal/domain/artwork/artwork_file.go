package artwork

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/shared"
)

// MaxFileSize is the largest artwork upload accepted (25 MiB)
const MaxFileSize int64 = 25 << 20

// maxVectorErrorLen bounds the stored vectorization error in bytes
const maxVectorErrorLen = 500

// Source tells how an artwork file came to exist
type Source string

const (
	SourceUpload      Source = "upload"
	SourceAIGenerated Source = "ai_generated"
)

// UploadStatus tracks presigned uploads
type UploadStatus string

const (
	UploadStatusPending  UploadStatus = "pending"
	UploadStatusUploaded UploadStatus = "uploaded"
)

// VectorStatus tracks vectorization progress
type VectorStatus string

const (
	VectorStatusNone       VectorStatus = "none"
	VectorStatusQueued     VectorStatus = "queued"
	VectorStatusProcessing VectorStatus = "processing"
	VectorStatusCompleted  VectorStatus = "completed"
	VectorStatusFailed     VectorStatus = "failed"
)

// IsValid checks if the vector status is valid
func (s VectorStatus) IsValid() bool {
	switch s {
	case VectorStatusNone, VectorStatusQueued, VectorStatusProcessing,
		VectorStatusCompleted, VectorStatusFailed:
		return true
	}
	return false
}

// IsInFlight reports whether a vectorization job is queued or running
func (s VectorStatus) IsInFlight() bool {
	return s == VectorStatusQueued || s == VectorStatusProcessing
}

// Accepted content types and the file extension used for their storage keys
var allowedContentTypes = map[string]string{
	"image/png":       "png",
	"image/jpeg":      "jpg",
	"image/svg+xml":   "svg",
	"image/webp":      "webp",
	"application/pdf": "pdf",
}

// IsAllowedContentType reports whether artwork of this MIME type is accepted
func IsAllowedContentType(contentType string) bool {
	_, ok := allowedContentTypes[normalizeContentType(contentType)]
	return ok
}

// ArtworkFile is an uploaded or generated image used for printing.
// It is the aggregate root for artwork.
type ArtworkFile struct {
	shared.BaseAggregateRoot
	OwnerEmail       string
	FileName         string
	ContentType      string
	SizeBytes        int64
	StorageKey       string
	Source           Source
	Prompt           string
	UploadStatus     UploadStatus
	VectorStatus     VectorStatus
	VectorStorageKey string
	VectorError      string
	VectorAttempts   int
	WidthPx          int
	HeightPx         int
}

// NewUploadedArtwork creates an artwork row for bytes already stored
func NewUploadedArtwork(fileName, contentType string, size int64, ownerEmail string) (*ArtworkFile, error) {
	a, err := newArtwork(fileName, contentType, size, ownerEmail, SourceUpload)
	if err != nil {
		return nil, err
	}
	a.UploadStatus = UploadStatusUploaded
	a.AddDomainEvent(NewArtworkUploadedEvent(a))
	return a, nil
}

// NewPendingArtwork creates an artwork row awaiting a presigned upload
func NewPendingArtwork(fileName, contentType string, size int64, ownerEmail string) (*ArtworkFile, error) {
	a, err := newArtwork(fileName, contentType, size, ownerEmail, SourceUpload)
	if err != nil {
		return nil, err
	}
	a.UploadStatus = UploadStatusPending
	return a, nil
}

// NewGeneratedArtwork creates an artwork row for an AI-generated image
func NewGeneratedArtwork(prompt, contentType string, size int64, ownerEmail string) (*ArtworkFile, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, shared.NewDomainError("INVALID_PROMPT", "Prompt cannot be empty")
	}
	a, err := newArtwork("generated."+allowedContentTypes[normalizeContentType(contentType)], contentType, size, ownerEmail, SourceAIGenerated)
	if err != nil {
		return nil, err
	}
	a.Prompt = prompt
	a.UploadStatus = UploadStatusUploaded
	a.AddDomainEvent(NewArtworkUploadedEvent(a))
	return a, nil
}

func newArtwork(fileName, contentType string, size int64, ownerEmail string, source Source) (*ArtworkFile, error) {
	fileName = sanitizeFileName(fileName)
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	contentType = normalizeContentType(contentType)
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return nil, shared.NewDomainError("UNSUPPORTED_FILE_TYPE", "Artwork must be PNG, JPEG, SVG, WebP or PDF")
	}
	if size <= 0 {
		return nil, shared.NewDomainError("INVALID_FILE_SIZE", "File is empty")
	}
	if size > MaxFileSize {
		return nil, shared.NewDomainError("FILE_TOO_LARGE", "Artwork cannot exceed 25 MB")
	}

	a := &ArtworkFile{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerEmail:        strings.ToLower(strings.TrimSpace(ownerEmail)),
		FileName:          fileName,
		ContentType:       contentType,
		SizeBytes:         size,
		Source:            source,
		VectorStatus:      VectorStatusNone,
	}
	a.StorageKey = fmt.Sprintf("artwork/%s/original.%s", a.ID, ext)
	return a, nil
}

// VectorKey is where the vectorized SVG for an artwork is stored
func VectorKey(id uuid.UUID) string {
	return fmt.Sprintf("artwork/%s/vector.svg", id)
}

// ConfirmUpload marks a presigned upload as complete
func (a *ArtworkFile) ConfirmUpload() error {
	if a.UploadStatus == UploadStatusUploaded {
		return nil
	}
	a.UploadStatus = UploadStatusUploaded
	a.MarkChanged()
	a.AddDomainEvent(NewArtworkUploadedEvent(a))
	return nil
}

// IsVector reports whether the artwork is already a vector format
func (a *ArtworkFile) IsVector() bool {
	return a.ContentType == "image/svg+xml" || a.ContentType == "application/pdf"
}

// QueueVectorization marks the artwork for background vectorization
func (a *ArtworkFile) QueueVectorization() error {
	if a.UploadStatus != UploadStatusUploaded {
		return shared.NewDomainError("INVALID_STATE", "Artwork upload has not completed")
	}
	if a.IsVector() {
		return shared.NewDomainError("INVALID_STATE", "Artwork is already a vector file")
	}
	if a.VectorStatus.IsInFlight() {
		return shared.NewDomainError("INVALID_STATE", "Vectorization is already in progress")
	}
	if a.VectorStatus == VectorStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Artwork has already been vectorized")
	}
	a.VectorStatus = VectorStatusQueued
	a.VectorError = ""
	a.VectorAttempts = 0
	a.MarkChanged()
	return nil
}

// StartVectorization records a worker picking up the job
func (a *ArtworkFile) StartVectorization() error {
	if !a.VectorStatus.IsInFlight() {
		return shared.NewDomainError("INVALID_STATE", "Vectorization was not queued")
	}
	a.VectorStatus = VectorStatusProcessing
	a.VectorAttempts++
	a.MarkChanged()
	return nil
}

// CompleteVectorization stores the location of the produced SVG
func (a *ArtworkFile) CompleteVectorization(key string) error {
	if a.VectorStatus != VectorStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", "Vectorization is not in progress")
	}
	if key == "" {
		return shared.NewDomainError("INVALID_INPUT", "Vector storage key cannot be empty")
	}
	a.VectorStatus = VectorStatusCompleted
	a.VectorStorageKey = key
	a.VectorError = ""
	a.MarkChanged()
	a.AddDomainEvent(NewArtworkVectorizedEvent(a))
	return nil
}

// FailVectorization records a permanent vectorization failure
func (a *ArtworkFile) FailVectorization(msg string) error {
	if !a.VectorStatus.IsInFlight() {
		return shared.NewDomainError("INVALID_STATE", "Vectorization is not in progress")
	}
	if len(msg) > maxVectorErrorLen {
		cut := maxVectorErrorLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	a.VectorStatus = VectorStatusFailed
	a.VectorError = msg
	a.MarkChanged()
	a.AddDomainEvent(NewArtworkVectorizationFailedEvent(a))
	return nil
}

// SetDimensions records the pixel size of a raster image
func (a *ArtworkFile) SetDimensions(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	a.WidthPx = width
	a.HeightPx = height
	a.MarkChanged()
}

func normalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" {
		ct = "image/jpeg"
	}
	return ct
}

func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	if len(name) > 255 {
		name = name[len(name)-255:]
	}
	return name
}
