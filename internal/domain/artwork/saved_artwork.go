package artwork

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/shared"
)

// MaxSavedTags caps tags per saved artwork
const MaxSavedTags = 10

// SavedArtwork is a customer's named reference to an artwork file
type SavedArtwork struct {
	shared.BaseEntity
	OwnerEmail    string
	Name          string
	ArtworkFileID uuid.UUID
	Tags          []string
	LastUsedAt    *time.Time
}

// NewSavedArtwork creates a saved artwork entry
func NewSavedArtwork(ownerEmail, name string, artworkFileID uuid.UUID, tags []string) (*SavedArtwork, error) {
	ownerEmail = strings.ToLower(strings.TrimSpace(ownerEmail))
	if ownerEmail == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email is required to save artwork")
	}
	if artworkFileID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Artwork file is required")
	}
	s := &SavedArtwork{
		BaseEntity:    shared.NewBaseEntity(),
		OwnerEmail:    ownerEmail,
		ArtworkFileID: artworkFileID,
	}
	if err := s.Rename(name); err != nil {
		return nil, err
	}
	if err := s.SetTags(tags); err != nil {
		return nil, err
	}
	return s, nil
}

// Rename changes the display name
func (s *SavedArtwork) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 100 characters")
	}
	s.Name = name
	s.UpdatedAt = time.Now()
	return nil
}

// SetTags replaces tags, lowercased and de-duplicated
func (s *SavedArtwork) SetTags(tags []string) error {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		if len(t) > 30 {
			return shared.NewDomainError("INVALID_TAG", "Tags cannot exceed 30 characters")
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) > MaxSavedTags {
		return shared.NewDomainError("INVALID_TAG", "Too many tags")
	}
	s.Tags = out
	s.UpdatedAt = time.Now()
	return nil
}

// OwnedBy reports whether email owns this entry (case-insensitive)
func (s *SavedArtwork) OwnedBy(email string) bool {
	return strings.EqualFold(s.OwnerEmail, strings.TrimSpace(email))
}

// Touch records reuse of the artwork
func (s *SavedArtwork) Touch() {
	now := time.Now()
	s.LastUsedAt = &now
	s.UpdatedAt = now
}
