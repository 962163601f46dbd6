package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/shared"
)

// ArtworkFileModel is the persistence model for the ArtworkFile domain entity.
type ArtworkFileModel struct {
	AggregateModel
	OwnerEmail       string               `gorm:"type:varchar(254);index"`
	FileName         string               `gorm:"type:varchar(255);not null"`
	ContentType      string               `gorm:"type:varchar(100);not null"`
	SizeBytes        int64                `gorm:"not null;default:0"`
	StorageKey       string               `gorm:"type:varchar(500);not null"`
	Source           artwork.Source       `gorm:"type:varchar(20);not null;default:'upload'"`
	Prompt           string               `gorm:"type:text"`
	UploadStatus     artwork.UploadStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	VectorStatus     artwork.VectorStatus `gorm:"type:varchar(20);not null;default:'none';index"`
	VectorStorageKey string               `gorm:"type:varchar(500)"`
	VectorError      string               `gorm:"type:varchar(500)"`
	VectorAttempts   int                  `gorm:"not null;default:0"`
	WidthPx          int                  `gorm:"not null;default:0"`
	HeightPx         int                  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ArtworkFileModel) TableName() string {
	return "artwork_files"
}

// ToDomain converts the persistence model to a domain ArtworkFile entity.
func (m *ArtworkFileModel) ToDomain() *artwork.ArtworkFile {
	return &artwork.ArtworkFile{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OwnerEmail:        m.OwnerEmail,
		FileName:          m.FileName,
		ContentType:       m.ContentType,
		SizeBytes:         m.SizeBytes,
		StorageKey:        m.StorageKey,
		Source:            m.Source,
		Prompt:            m.Prompt,
		UploadStatus:      m.UploadStatus,
		VectorStatus:      m.VectorStatus,
		VectorStorageKey:  m.VectorStorageKey,
		VectorError:       m.VectorError,
		VectorAttempts:    m.VectorAttempts,
		WidthPx:           m.WidthPx,
		HeightPx:          m.HeightPx,
	}
}

// FromDomain populates the persistence model from a domain ArtworkFile entity.
func (m *ArtworkFileModel) FromDomain(a *artwork.ArtworkFile) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.OwnerEmail = a.OwnerEmail
	m.FileName = a.FileName
	m.ContentType = a.ContentType
	m.SizeBytes = a.SizeBytes
	m.StorageKey = a.StorageKey
	m.Source = a.Source
	m.Prompt = a.Prompt
	m.UploadStatus = a.UploadStatus
	m.VectorStatus = a.VectorStatus
	m.VectorStorageKey = a.VectorStorageKey
	m.VectorError = a.VectorError
	m.VectorAttempts = a.VectorAttempts
	m.WidthPx = a.WidthPx
	m.HeightPx = a.HeightPx
}

// ArtworkFileModelFromDomain creates a new persistence model from a domain ArtworkFile entity.
func ArtworkFileModelFromDomain(a *artwork.ArtworkFile) *ArtworkFileModel {
	m := &ArtworkFileModel{}
	m.FromDomain(a)
	return m
}

// SavedArtworkModel is the persistence model for the SavedArtwork entity.
type SavedArtworkModel struct {
	BaseModel
	OwnerEmail    string     `gorm:"type:varchar(254);not null;uniqueIndex:idx_saved_artwork_owner_file,priority:1"`
	Name          string     `gorm:"type:varchar(100);not null"`
	ArtworkFileID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_saved_artwork_owner_file,priority:2"`
	Tags          []string   `gorm:"type:jsonb;serializer:json"`
	LastUsedAt    *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (SavedArtworkModel) TableName() string {
	return "saved_artwork"
}

// ToDomain converts the persistence model to a domain SavedArtwork entity.
func (m *SavedArtworkModel) ToDomain() *artwork.SavedArtwork {
	return &artwork.SavedArtwork{
		BaseEntity:    shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		OwnerEmail:    m.OwnerEmail,
		Name:          m.Name,
		ArtworkFileID: m.ArtworkFileID,
		Tags:          m.Tags,
		LastUsedAt:    m.LastUsedAt,
	}
}

// FromDomain populates the persistence model from a domain SavedArtwork entity.
func (m *SavedArtworkModel) FromDomain(s *artwork.SavedArtwork) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.OwnerEmail = s.OwnerEmail
	m.Name = s.Name
	m.ArtworkFileID = s.ArtworkFileID
	m.Tags = s.Tags
	m.LastUsedAt = s.LastUsedAt
}

// SavedArtworkModelFromDomain creates a new persistence model from a domain SavedArtwork entity.
func SavedArtworkModelFromDomain(s *artwork.SavedArtwork) *SavedArtworkModel {
	m := &SavedArtworkModel{}
	m.FromDomain(s)
	return m
}
