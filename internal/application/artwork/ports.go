package artwork

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ObjectStorageService defines the object storage operations artwork needs.
// It is implemented by the infrastructure layer (S3-compatible or memory).
type ObjectStorageService interface {
	// GenerateUploadURL generates a presigned PUT URL and its expiry
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL generates a presigned GET URL and its expiry
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// Upload stores size bytes read from body
	Upload(ctx context.Context, storageKey string, body io.Reader, size int64, contentType string) error

	// Download returns the whole object
	Download(ctx context.Context, storageKey string) ([]byte, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// ErrVectorizeRejected marks a vectorizer failure that retrying cannot fix
var ErrVectorizeRejected = errors.New("vectorizer rejected the image")

// Vectorizer converts a raster image into SVG through an external service
type Vectorizer interface {
	Vectorize(ctx context.Context, image []byte, fileName, contentType string) ([]byte, error)
}

// GeneratedImage is the output of an image generator
type GeneratedImage struct {
	Data     []byte
	MIMEType string
}

// ImageGenerator creates artwork from a text prompt
type ImageGenerator interface {
	// Enabled reports whether generation is configured
	Enabled() bool
	Generate(ctx context.Context, prompt string) (*GeneratedImage, error)
}

// VectorizeJob asks a worker to vectorize one artwork file
type VectorizeJob struct {
	ArtworkID uuid.UUID
}

// JobQueue hands vectorization jobs to background workers
type JobQueue interface {
	Submit(ctx context.Context, job VectorizeJob) error
}
