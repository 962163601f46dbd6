package artwork

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

// ==================== Upload ====================

func TestArtworkService_Upload_StoresBytesAndDimensions(t *testing.T) {
	repo := new(MockArtworkFileRepository)
	store := newFakeStorage()
	svc := NewArtworkService(repo, store, nil, nil, zap.NewNop())
	data := pngBytes(t, 40, 30)

	repo.On("Save", mock.Anything, mock.AnythingOfType("*artwork.ArtworkFile")).Return(nil)

	resp, err := svc.Upload(context.Background(), UploadInput{
		Body:        bytes.NewReader(data),
		FileName:    "C:\\designs\\logo.png",
		ContentType: "image/png",
		Size:        int64(len(data)),
		Email:       "Fan@Example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "logo.png", resp.FileName)
	assert.Equal(t, 40, resp.WidthPx)
	assert.Equal(t, 30, resp.HeightPx)
	assert.NotEmpty(t, resp.OriginalURL)
	stored, err := store.Download(context.Background(), "artwork/"+resp.ID.String()+"/original.png")
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestArtworkService_Upload_RejectsUnsupportedType(t *testing.T) {
	svc := NewArtworkService(new(MockArtworkFileRepository), newFakeStorage(), nil, nil, nil)

	_, err := svc.Upload(context.Background(), UploadInput{
		Body: bytes.NewReader([]byte("GIF89a")), FileName: "a.gif", ContentType: "image/gif", Size: 6,
	})
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", domainCode(t, err))
}

func TestArtworkService_Upload_RemovesObjectWhenSaveFails(t *testing.T) {
	repo := new(MockArtworkFileRepository)
	store := newFakeStorage()
	svc := NewArtworkService(repo, store, nil, nil, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.Upload(context.Background(), UploadInput{
		Body: bytes.NewReader([]byte("<svg/>")), FileName: "a.svg", ContentType: "image/svg+xml", Size: 6,
	})
	require.Error(t, err)
	assert.Empty(t, store.objects)
}

// ==================== Presigned flow ====================

func TestArtworkService_PresignAndConfirm(t *testing.T) {
	repo := new(MockArtworkFileRepository)
	store := newFakeStorage()
	svc := NewArtworkService(repo, store, nil, nil, nil)

	var saved *artwork.ArtworkFile
	repo.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*artwork.ArtworkFile)
	}).Return(nil)

	presign, err := svc.RequestUpload(context.Background(), PresignRequest{FileName: "shirt.jpg", ContentType: "image/jpg", Size: 2048})
	require.NoError(t, err)
	assert.Equal(t, "PUT", presign.Method)
	assert.Equal(t, "image/jpeg", presign.Headers["Content-Type"])
	assert.Equal(t, "pending", presign.Artwork.UploadStatus)
	assert.Empty(t, presign.Artwork.OriginalURL)

	repo.On("FindByID", mock.Anything, saved.ID).Return(saved, nil)

	_, err = svc.ConfirmUpload(context.Background(), saved.ID)
	assert.Equal(t, "INVALID_STATE", domainCode(t, err))

	store.objects[saved.StorageKey] = []byte("jpeg")
	resp, err := svc.ConfirmUpload(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "uploaded", resp.UploadStatus)
	assert.NotEmpty(t, resp.OriginalURL)
}

// ==================== Vectorization ====================

func TestArtworkService_RequestVectorization(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		svc := NewArtworkService(new(MockArtworkFileRepository), newFakeStorage(), nil, nil, nil)
		_, err := svc.RequestVectorization(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})

	t.Run("queued", func(t *testing.T) {
		repo := new(MockArtworkFileRepository)
		queue := new(MockJobQueue)
		svc := NewArtworkService(repo, newFakeStorage(), new(MockVectorizer), nil, nil)
		svc.SetJobQueue(queue)
		a := uploadedArtwork(t, "image/png")

		repo.On("FindByID", mock.Anything, a.ID).Return(a, nil)
		repo.On("Save", mock.Anything, a).Return(nil)
		queue.On("Submit", mock.Anything, VectorizeJob{ArtworkID: a.ID}).Return(nil)

		resp, err := svc.RequestVectorization(context.Background(), a.ID)
		require.NoError(t, err)
		assert.Equal(t, "queued", resp.VectorStatus)
		queue.AssertExpectations(t)
	})

	t.Run("svg is already vector", func(t *testing.T) {
		repo := new(MockArtworkFileRepository)
		svc := NewArtworkService(repo, newFakeStorage(), new(MockVectorizer), nil, nil)
		svc.SetJobQueue(new(MockJobQueue))
		a := uploadedArtwork(t, "image/svg+xml")
		repo.On("FindByID", mock.Anything, a.ID).Return(a, nil)

		_, err := svc.RequestVectorization(context.Background(), a.ID)
		assert.Equal(t, "INVALID_STATE", domainCode(t, err))
	})

	t.Run("queue full", func(t *testing.T) {
		repo := new(MockArtworkFileRepository)
		queue := new(MockJobQueue)
		svc := NewArtworkService(repo, newFakeStorage(), new(MockVectorizer), nil, nil)
		svc.SetJobQueue(queue)
		a := uploadedArtwork(t, "image/png")

		repo.On("FindByID", mock.Anything, a.ID).Return(a, nil)
		repo.On("Save", mock.Anything, a).Return(nil)
		queue.On("Submit", mock.Anything, mock.Anything).Return(errors.New("queue full"))

		_, err := svc.RequestVectorization(context.Background(), a.ID)
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
		assert.Equal(t, artwork.VectorStatusFailed, a.VectorStatus)
	})
}

func TestArtworkService_ProcessVectorization_Success(t *testing.T) {
	repo := new(MockArtworkFileRepository)
	store := newFakeStorage()
	vec := new(MockVectorizer)
	svc := NewArtworkService(repo, store, vec, nil, nil)
	a := uploadedArtwork(t, "image/png")
	require.NoError(t, a.QueueVectorization())
	store.objects[a.StorageKey] = []byte("png-bytes")

	repo.On("FindByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("Save", mock.Anything, a).Return(nil)
	vec.On("Vectorize", mock.Anything, []byte("png-bytes"), "logo.png", "image/png").Return([]byte("<svg/>"), nil)

	require.NoError(t, svc.ProcessVectorization(context.Background(), a.ID))

	assert.Equal(t, artwork.VectorStatusCompleted, a.VectorStatus)
	assert.Equal(t, artwork.VectorKey(a.ID), a.VectorStorageKey)
	assert.Equal(t, 1, a.VectorAttempts)
	assert.Equal(t, []byte("<svg/>"), store.objects[artwork.VectorKey(a.ID)])

	resp, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Contains(t, resp.VectorURL, "vector.svg")
}

func TestArtworkService_ProcessVectorization_Errors(t *testing.T) {
	t.Run("missing artwork is permanent", func(t *testing.T) {
		repo := new(MockArtworkFileRepository)
		svc := NewArtworkService(repo, newFakeStorage(), new(MockVectorizer), nil, nil)
		id := uuid.New()
		repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		err := svc.ProcessVectorization(context.Background(), id)
		assert.ErrorIs(t, err, ErrVectorizeRejected)
	})

	t.Run("transient vectorizer error is returned for retry", func(t *testing.T) {
		repo := new(MockArtworkFileRepository)
		store := newFakeStorage()
		vec := new(MockVectorizer)
		svc := NewArtworkService(repo, store, vec, nil, nil)
		a := uploadedArtwork(t, "image/png")
		require.NoError(t, a.QueueVectorization())
		store.objects[a.StorageKey] = []byte("png")

		repo.On("FindByID", mock.Anything, a.ID).Return(a, nil)
		repo.On("Save", mock.Anything, a).Return(nil)
		vec.On("Vectorize", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("503"))

		err := svc.ProcessVectorization(context.Background(), a.ID)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrVectorizeRejected)
		assert.Equal(t, artwork.VectorStatusProcessing, a.VectorStatus)

		// retries keep counting attempts
		_ = svc.ProcessVectorization(context.Background(), a.ID)
		assert.Equal(t, 2, a.VectorAttempts)

		require.NoError(t, svc.FailVectorization(context.Background(), a.ID, "503"))
		assert.Equal(t, artwork.VectorStatusFailed, a.VectorStatus)
		assert.Equal(t, "503", a.VectorError)
	})
}

func TestArtworkService_ResumePending(t *testing.T) {
	repo := new(MockArtworkFileRepository)
	queue := new(MockJobQueue)
	svc := NewArtworkService(repo, newFakeStorage(), new(MockVectorizer), nil, nil)
	svc.SetJobQueue(queue)
	queued := uploadedArtwork(t, "image/png")
	processing := uploadedArtwork(t, "image/jpeg")

	repo.On("FindByVectorStatus", mock.Anything, artwork.VectorStatusQueued, resumeBatch).Return([]artwork.ArtworkFile{*queued}, nil)
	repo.On("FindByVectorStatus", mock.Anything, artwork.VectorStatusProcessing, resumeBatch).Return([]artwork.ArtworkFile{*processing}, nil)
	queue.On("Submit", mock.Anything, mock.Anything).Return(nil)

	n, err := svc.ResumePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	queue.AssertNumberOfCalls(t, "Submit", 2)
}

// ==================== Generation ====================

func TestArtworkService_Generate(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		svc := NewArtworkService(new(MockArtworkFileRepository), newFakeStorage(), nil, &MockImageGenerator{}, nil)
		_, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "a tiger"})
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})

	t.Run("stores png", func(t *testing.T) {
		repo := new(MockArtworkFileRepository)
		store := newFakeStorage()
		gen := &MockImageGenerator{enabled: true}
		svc := NewArtworkService(repo, store, nil, gen, nil)
		data := pngBytes(t, 16, 16)

		gen.On("Generate", mock.Anything, "retro sunset over mountains").Return(&GeneratedImage{Data: data, MIMEType: "image/png"}, nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "retro sunset over mountains", Email: "a@b.test"})
		require.NoError(t, err)
		assert.Equal(t, "ai_generated", resp.Source)
		assert.Equal(t, "retro sunset over mountains", resp.Prompt)
		assert.Equal(t, 16, resp.WidthPx)
		assert.Len(t, store.objects, 1)
	})

	t.Run("generator error", func(t *testing.T) {
		gen := &MockImageGenerator{enabled: true}
		svc := NewArtworkService(new(MockArtworkFileRepository), newFakeStorage(), nil, gen, nil)
		gen.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

		_, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "owl"})
		assert.EqualError(t, err, "quota exceeded")
	})
}

// ==================== Transforms ====================

func TestArtworkService_ValidateTransforms(t *testing.T) {
	repo := new(MockArtworkFileRepository)
	svc := NewArtworkService(repo, newFakeStorage(), nil, nil, nil)
	a := uploadedArtwork(t, "image/png")
	repo.On("FindByIDs", mock.Anything, []uuid.UUID{a.ID}).Return([]artwork.ArtworkFile{*a}, nil)

	resp, err := svc.ValidateTransforms(context.Background(), ValidateTransformsRequest{Placements: []PlacementRequest{
		{Location: "front", ArtworkFileID: &a.ID, InkColors: 2, Transform: &artwork.Transform{X: 0.5, Y: 0.4, Scale: 0.8, Rotation: -90, Width: 0.6, Height: 0.4}},
		{Location: "back"},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Placements, 2)
	assert.InDelta(t, 270, resp.Placements[0].Transform.Rotation, 1e-9)
	assert.Equal(t, artwork.DefaultTransform(), resp.Placements[1].Transform)
	assert.Equal(t, 1, resp.Placements[1].InkColors)
}

func TestArtworkService_ValidateTransforms_Errors(t *testing.T) {
	repo := new(MockArtworkFileRepository)
	svc := NewArtworkService(repo, newFakeStorage(), nil, nil, nil)
	missing := uuid.New()
	repo.On("FindByIDs", mock.Anything, []uuid.UUID{missing}).Return([]artwork.ArtworkFile{}, nil)

	tests := []struct {
		name       string
		placements []PlacementRequest
		code       string
	}{
		{"unknown location", []PlacementRequest{{Location: "pocket"}}, "INVALID_LOCATION"},
		{"duplicate", []PlacementRequest{{Location: "front"}, {Location: "front"}}, "DUPLICATE_LOCATION"},
		{"scale too large", []PlacementRequest{{Location: "front", Transform: &artwork.Transform{X: 0.5, Y: 0.5, Scale: 9, Width: 0.1, Height: 0.1}}}, "INVALID_TRANSFORM"},
		{"unknown artwork", []PlacementRequest{{Location: "front", ArtworkFileID: &missing}}, "INVALID_ARTWORK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateTransforms(context.Background(), ValidateTransformsRequest{Placements: tt.placements})
			assert.Equal(t, tt.code, domainCode(t, err))
		})
	}
}
