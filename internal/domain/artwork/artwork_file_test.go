package artwork

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUploadedArtwork(t *testing.T) {
	t.Run("creates uploaded artwork", func(t *testing.T) {
		a, err := NewUploadedArtwork("C:\\designs\\logo.PNG", "image/png; charset=binary", 2048, " Ana@Example.com ")
		require.NoError(t, err)

		assert.Equal(t, "logo.PNG", a.FileName)
		assert.Equal(t, "image/png", a.ContentType)
		assert.Equal(t, "ana@example.com", a.OwnerEmail)
		assert.Equal(t, UploadStatusUploaded, a.UploadStatus)
		assert.Equal(t, VectorStatusNone, a.VectorStatus)
		assert.Equal(t, "artwork/"+a.ID.String()+"/original.png", a.StorageKey)

		events := a.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeArtworkUploaded, events[0].EventType())
	})

	t.Run("normalizes image/jpg", func(t *testing.T) {
		a, err := NewUploadedArtwork("x.jpg", "image/jpg", 10, "")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", a.ContentType)
		assert.True(t, strings.HasSuffix(a.StorageKey, ".jpg"))
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		_, err := NewUploadedArtwork("x.gif", "image/gif", 10, "")
		assert.ErrorContains(t, err, "PNG, JPEG")
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		_, err := NewUploadedArtwork("x.png", "image/png", MaxFileSize+1, "")
		assert.ErrorContains(t, err, "25 MB")
	})

	t.Run("rejects empty file", func(t *testing.T) {
		_, err := NewUploadedArtwork("x.png", "image/png", 0, "")
		assert.ErrorContains(t, err, "empty")
	})
}

func TestNewPendingArtwork_ConfirmUpload(t *testing.T) {
	a, err := NewPendingArtwork("art.svg", "image/svg+xml", 100, "")
	require.NoError(t, err)
	assert.Equal(t, UploadStatusPending, a.UploadStatus)
	assert.Empty(t, a.GetDomainEvents())

	require.NoError(t, a.ConfirmUpload())
	assert.Equal(t, UploadStatusUploaded, a.UploadStatus)
	require.NoError(t, a.ConfirmUpload())
	assert.Len(t, a.GetDomainEvents(), 1)
}

func TestNewGeneratedArtwork(t *testing.T) {
	a, err := NewGeneratedArtwork("  a fox in a hat ", "image/png", 5000, "")
	require.NoError(t, err)
	assert.Equal(t, SourceAIGenerated, a.Source)
	assert.Equal(t, "a fox in a hat", a.Prompt)
	assert.Equal(t, "generated.png", a.FileName)

	_, err = NewGeneratedArtwork(" ", "image/png", 5000, "")
	assert.ErrorContains(t, err, "Prompt")
}

func TestArtworkFile_VectorizationLifecycle(t *testing.T) {
	a, err := NewUploadedArtwork("logo.png", "image/png", 100, "")
	require.NoError(t, err)

	require.NoError(t, a.QueueVectorization())
	assert.Equal(t, VectorStatusQueued, a.VectorStatus)
	assert.ErrorContains(t, a.QueueVectorization(), "already in progress")

	require.NoError(t, a.StartVectorization())
	assert.Equal(t, VectorStatusProcessing, a.VectorStatus)
	assert.Equal(t, 1, a.VectorAttempts)

	require.NoError(t, a.CompleteVectorization(VectorKey(a.ID)))
	assert.Equal(t, VectorStatusCompleted, a.VectorStatus)
	assert.Equal(t, "artwork/"+a.ID.String()+"/vector.svg", a.VectorStorageKey)
	assert.ErrorContains(t, a.QueueVectorization(), "already been vectorized")
}

func TestArtworkFile_VectorizationFailure(t *testing.T) {
	a, err := NewUploadedArtwork("logo.png", "image/png", 100, "")
	require.NoError(t, err)
	require.NoError(t, a.QueueVectorization())
	require.NoError(t, a.StartVectorization())
	require.NoError(t, a.FailVectorization(strings.Repeat("x", 600)))

	assert.Equal(t, VectorStatusFailed, a.VectorStatus)
	assert.Len(t, a.VectorError, 500)

	// failed artwork may be queued again
	require.NoError(t, a.QueueVectorization())
	assert.Equal(t, 0, a.VectorAttempts)
	assert.Empty(t, a.VectorError)
}

func TestArtworkFile_VectorizationFailure_KeepsRunesWhole(t *testing.T) {
	a, err := NewUploadedArtwork("logo.png", "image/png", 100, "")
	require.NoError(t, err)
	require.NoError(t, a.QueueVectorization())
	require.NoError(t, a.StartVectorization())

	// the two-byte rune straddles the 500 byte limit
	msg := strings.Repeat("x", 499) + "é" + strings.Repeat("ü", 50)
	require.NoError(t, a.FailVectorization(msg))

	assert.True(t, utf8.ValidString(a.VectorError))
	assert.Equal(t, strings.Repeat("x", 499), a.VectorError)
}

func TestArtworkFile_QueueVectorizationRejects(t *testing.T) {
	svg, err := NewUploadedArtwork("logo.svg", "image/svg+xml", 100, "")
	require.NoError(t, err)
	assert.True(t, svg.IsVector())
	assert.ErrorContains(t, svg.QueueVectorization(), "already a vector")

	pending, err := NewPendingArtwork("logo.png", "image/png", 100, "")
	require.NoError(t, err)
	assert.ErrorContains(t, pending.QueueVectorization(), "not completed")

	fresh, err := NewUploadedArtwork("logo.png", "image/png", 100, "")
	require.NoError(t, err)
	assert.Error(t, fresh.StartVectorization())
	assert.Error(t, fresh.CompleteVectorization("k"))
	assert.Error(t, fresh.FailVectorization("boom"))
}

func TestSavedArtwork(t *testing.T) {
	fileID := uuid.New()

	s, err := NewSavedArtwork("Bo@Example.com", " Team Logo ", fileID, []string{"Soccer", "soccer", " ", "2024"})
	require.NoError(t, err)
	assert.Equal(t, "bo@example.com", s.OwnerEmail)
	assert.Equal(t, "Team Logo", s.Name)
	assert.Equal(t, []string{"soccer", "2024"}, s.Tags)
	assert.True(t, s.OwnedBy("BO@example.com"))
	assert.False(t, s.OwnedBy("other@example.com"))
	assert.Nil(t, s.LastUsedAt)

	s.Touch()
	assert.NotNil(t, s.LastUsedAt)

	assert.Error(t, s.Rename(""))

	_, err = NewSavedArtwork("", "x", fileID, nil)
	assert.ErrorContains(t, err, "Email")
	_, err = NewSavedArtwork("a@b.co", "x", uuid.Nil, nil)
	assert.ErrorContains(t, err, "Artwork file")

	many := make([]string, MaxSavedTags+1)
	for i := range many {
		many[i] = string(rune('a' + i))
	}
	_, err = NewSavedArtwork("a@b.co", "x", fileID, many)
	assert.ErrorContains(t, err, "Too many tags")
}
