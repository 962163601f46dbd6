package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
)

var _ artworkapp.ObjectStorageService = (*MemoryObjectStorage)(nil)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryObjectStorage keeps objects in process memory. It backs local
// development and tests; presigned URLs point at BaseURL and are not
// servable.
type MemoryObjectStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryObjectStorage creates an empty store
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	if baseURL == "" {
		baseURL = "memory://artwork"
	}
	return &MemoryObjectStorage{
		BaseURL: baseURL,
		objects: make(map[string]memoryObject),
	}
}

func (m *MemoryObjectStorage) signedURL(op, key string, expiresAt time.Time) string {
	q := url.Values{}
	q.Set("op", op)
	q.Set("expires", expiresAt.UTC().Format(time.RFC3339))
	return m.BaseURL + "/" + key + "?" + q.Encode()
}

// GenerateUploadURL returns a placeholder PUT URL
func (m *MemoryObjectStorage) GenerateUploadURL(_ context.Context, storageKey, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyKey
	}
	expiresAt := time.Now().Add(expiresIn)
	return m.signedURL("put", storageKey, expiresAt), expiresAt, nil
}

// GenerateDownloadURL returns a placeholder GET URL
func (m *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyKey
	}
	expiresAt := time.Now().Add(expiresIn)
	return m.signedURL("get", storageKey, expiresAt), expiresAt, nil
}

// Upload stores the object
func (m *MemoryObjectStorage) Upload(_ context.Context, storageKey string, body io.Reader, _ int64, contentType string) error {
	if storageKey == "" {
		return errEmptyKey
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read upload body: %w", err)
	}
	m.mu.Lock()
	m.objects[storageKey] = memoryObject{data: data, contentType: contentType}
	m.mu.Unlock()
	return nil
}

// Download returns a copy of the object
func (m *MemoryObjectStorage) Download(_ context.Context, storageKey string) ([]byte, error) {
	m.mu.RLock()
	obj, ok := m.objects[storageKey]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("object %s not found", storageKey)
	}
	return bytes.Clone(obj.data), nil
}

// DeleteObject removes the object if present
func (m *MemoryObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errEmptyKey
	}
	m.mu.Lock()
	delete(m.objects, storageKey)
	m.mu.Unlock()
	return nil
}

// ObjectExists checks if an object is stored
func (m *MemoryObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errEmptyKey
	}
	m.mu.RLock()
	_, ok := m.objects[storageKey]
	m.mu.RUnlock()
	return ok, nil
}

// ContentType returns the stored content type of an object
func (m *MemoryObjectStorage) ContentType(storageKey string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[storageKey].contentType
}
