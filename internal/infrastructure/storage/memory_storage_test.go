package storage

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inkthread/storefront/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryObjectStorage_RoundTrip(t *testing.T) {
	m := NewMemoryObjectStorage("")
	ctx := context.Background()

	exists, err := m.ObjectExists(ctx, "artwork/1/original.png")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, m.Upload(ctx, "artwork/1/original.png", strings.NewReader("data"), 4, "image/png"))

	exists, err = m.ObjectExists(ctx, "artwork/1/original.png")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "image/png", m.ContentType("artwork/1/original.png"))

	data, err := m.Download(ctx, "artwork/1/original.png")
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	// returned slice is a copy
	data[0] = 'X'
	again, _ := m.Download(ctx, "artwork/1/original.png")
	assert.Equal(t, "data", string(again))

	require.NoError(t, m.DeleteObject(ctx, "artwork/1/original.png"))
	_, err = m.Download(ctx, "artwork/1/original.png")
	assert.ErrorContains(t, err, "not found")
}

func TestMemoryObjectStorage_URLs(t *testing.T) {
	m := NewMemoryObjectStorage("http://files.local")
	ctx := context.Background()

	url, expiresAt, err := m.GenerateUploadURL(ctx, "artwork/2/original.svg", "image/svg+xml", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://files.local/artwork/2/original.svg?"))
	assert.Contains(t, url, "op=put")
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	url, _, err = m.GenerateDownloadURL(ctx, "artwork/2/original.svg", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "op=get")

	_, _, err = m.GenerateUploadURL(ctx, "", "image/png", time.Minute)
	assert.Error(t, err)
}

func TestMemoryObjectStorage_ConcurrentUploads(t *testing.T) {
	m := NewMemoryObjectStorage("")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "artwork/" + string(rune('a'+i%26)) + "/original.png"
			_ = m.Upload(ctx, key, strings.NewReader("x"), 1, "image/png")
			_, _ = m.ObjectExists(ctx, key)
		}(i)
	}
	wg.Wait()

	m.mu.RLock()
	defer m.mu.RUnlock()
	assert.Len(t, m.objects, 26)
}

func TestNew_SelectsProvider(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, &config.StorageConfig{Provider: "memory"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryObjectStorage{}, s)

	s, err = New(ctx, testStorageConfig("http://localhost:9000"), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &S3ObjectStorage{}, s)

	_, err = New(ctx, &config.StorageConfig{Provider: "gcs"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported storage provider")
}
