package artwork

import (
	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeArtwork = "ArtworkFile"

// Event type constants
const (
	EventTypeArtworkUploaded            = "ArtworkUploaded"
	EventTypeArtworkVectorized          = "ArtworkVectorized"
	EventTypeArtworkVectorizationFailed = "ArtworkVectorizationFailed"
)

// ArtworkUploadedEvent is published when artwork bytes are in storage
type ArtworkUploadedEvent struct {
	shared.BaseDomainEvent
	ArtworkID   uuid.UUID `json:"artwork_id"`
	Source      Source    `json:"source"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
}

// NewArtworkUploadedEvent creates a new ArtworkUploadedEvent
func NewArtworkUploadedEvent(a *ArtworkFile) *ArtworkUploadedEvent {
	return &ArtworkUploadedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeArtworkUploaded, AggregateTypeArtwork, a.ID),
		ArtworkID:       a.ID,
		Source:          a.Source,
		ContentType:     a.ContentType,
		SizeBytes:       a.SizeBytes,
	}
}

// ArtworkVectorizedEvent is published when an SVG is available
type ArtworkVectorizedEvent struct {
	shared.BaseDomainEvent
	ArtworkID        uuid.UUID `json:"artwork_id"`
	VectorStorageKey string    `json:"vector_storage_key"`
	Attempts         int       `json:"attempts"`
}

// NewArtworkVectorizedEvent creates a new ArtworkVectorizedEvent
func NewArtworkVectorizedEvent(a *ArtworkFile) *ArtworkVectorizedEvent {
	return &ArtworkVectorizedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeArtworkVectorized, AggregateTypeArtwork, a.ID),
		ArtworkID:        a.ID,
		VectorStorageKey: a.VectorStorageKey,
		Attempts:         a.VectorAttempts,
	}
}

// ArtworkVectorizationFailedEvent is published when retries are exhausted
type ArtworkVectorizationFailedEvent struct {
	shared.BaseDomainEvent
	ArtworkID uuid.UUID `json:"artwork_id"`
	Error     string    `json:"error"`
	Attempts  int       `json:"attempts"`
}

// NewArtworkVectorizationFailedEvent creates a new ArtworkVectorizationFailedEvent
func NewArtworkVectorizationFailedEvent(a *ArtworkFile) *ArtworkVectorizationFailedEvent {
	return &ArtworkVectorizationFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeArtworkVectorizationFailed, AggregateTypeArtwork, a.ID),
		ArtworkID:       a.ID,
		Error:           a.VectorError,
		Attempts:        a.VectorAttempts,
	}
}
