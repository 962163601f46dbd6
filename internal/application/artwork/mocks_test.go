package artwork

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockArtworkFileRepository is a mock implementation of ArtworkFileRepository
type MockArtworkFileRepository struct {
	mock.Mock
}

func (m *MockArtworkFileRepository) FindByID(ctx context.Context, id uuid.UUID) (*artwork.ArtworkFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*artwork.ArtworkFile), args.Error(1)
}

func (m *MockArtworkFileRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]artwork.ArtworkFile, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]artwork.ArtworkFile), args.Error(1)
}

func (m *MockArtworkFileRepository) FindByVectorStatus(ctx context.Context, status artwork.VectorStatus, limit int) ([]artwork.ArtworkFile, error) {
	args := m.Called(ctx, status, limit)
	return args.Get(0).([]artwork.ArtworkFile), args.Error(1)
}

func (m *MockArtworkFileRepository) Save(ctx context.Context, a *artwork.ArtworkFile) error {
	return m.Called(ctx, a).Error(0)
}

// MockSavedArtworkRepository is a mock implementation of SavedArtworkRepository
type MockSavedArtworkRepository struct {
	mock.Mock
}

func (m *MockSavedArtworkRepository) FindByID(ctx context.Context, id uuid.UUID) (*artwork.SavedArtwork, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*artwork.SavedArtwork), args.Error(1)
}

func (m *MockSavedArtworkRepository) FindByOwnerAndFile(ctx context.Context, ownerEmail string, artworkFileID uuid.UUID) (*artwork.SavedArtwork, error) {
	args := m.Called(ctx, ownerEmail, artworkFileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*artwork.SavedArtwork), args.Error(1)
}

func (m *MockSavedArtworkRepository) FindByOwner(ctx context.Context, ownerEmail string, filter shared.Filter) ([]artwork.SavedArtwork, int64, error) {
	args := m.Called(ctx, ownerEmail, filter)
	return args.Get(0).([]artwork.SavedArtwork), args.Get(1).(int64), args.Error(2)
}

func (m *MockSavedArtworkRepository) Save(ctx context.Context, s *artwork.SavedArtwork) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSavedArtworkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockVectorizer is a mock implementation of Vectorizer
type MockVectorizer struct {
	mock.Mock
}

func (m *MockVectorizer) Vectorize(ctx context.Context, img []byte, fileName, contentType string) ([]byte, error) {
	args := m.Called(ctx, img, fileName, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockImageGenerator is a mock implementation of ImageGenerator
type MockImageGenerator struct {
	mock.Mock
	enabled bool
}

func (m *MockImageGenerator) Enabled() bool { return m.enabled }

func (m *MockImageGenerator) Generate(ctx context.Context, prompt string) (*GeneratedImage, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GeneratedImage), args.Error(1)
}

// MockJobQueue is a mock implementation of JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) Submit(ctx context.Context, job VectorizeJob) error {
	return m.Called(ctx, job).Error(0)
}

// fakeStorage keeps objects in memory
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) GenerateUploadURL(_ context.Context, key, _ string, exp time.Duration) (string, time.Time, error) {
	return "https://storage.test/put/" + key, time.Now().Add(exp), nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, key string, exp time.Duration) (string, time.Time, error) {
	return "https://storage.test/get/" + key, time.Now().Add(exp), nil
}

func (f *fakeStorage) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	if f.failPut {
		return io.ErrUnexpectedEOF
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) Download(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return data, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func uploadedArtwork(t *testing.T, contentType string) *artwork.ArtworkFile {
	t.Helper()
	a, err := artwork.NewUploadedArtwork("logo.png", contentType, 1024, "fan@example.com")
	require.NoError(t, err)
	a.ClearDomainEvents()
	return a
}
