package vectorize

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
	"github.com/inkthread/storefront/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSVG = `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"><path d="M0 0"/></svg>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.VectorizerConfig{
		Enabled:   true,
		Endpoint:  srv.URL,
		APIID:     "id",
		APISecret: "secret",
		Mode:      "test",
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(config.VectorizerConfig{})
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewClient(config.VectorizerConfig{Enabled: true, APIID: "id"})
	assert.ErrorContains(t, err, "api_secret")

	c, err := NewClient(config.VectorizerConfig{Enabled: true, APIID: "id", APISecret: "s"})
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, c.endpoint)
}

func TestClient_Vectorize(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "test", r.FormValue("mode"))
		assert.Equal(t, "svg", r.FormValue("output.file_format"))

		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "logo.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		assert.Equal(t, []byte("png-bytes"), data)

		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte(sampleSVG))
	})

	svg, err := c.Vectorize(context.Background(), []byte("png-bytes"), "logo.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, sampleSVG, string(svg))
}

func TestClient_Vectorize_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		permanent bool
		contains  string
	}{
		{name: "bad image is permanent", status: http.StatusBadRequest, body: `{"error":{"code":1001,"message":"Image could not be decoded"}}`, permanent: true, contains: "could not be decoded"},
		{name: "rate limit is retryable", status: http.StatusTooManyRequests, body: "slow down", contains: "429"},
		{name: "server error is retryable", status: http.StatusBadGateway, body: "", contains: "502"},
		{name: "non svg body is permanent", status: http.StatusOK, body: "<html></html>", permanent: true, contains: "not an SVG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Vectorize(context.Background(), []byte("x"), "a.png", "image/png")
			require.Error(t, err)
			assert.Equal(t, tt.permanent, errors.Is(err, artworkapp.ErrVectorizeRejected))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}

	t.Run("empty image", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})
		_, err := c.Vectorize(context.Background(), nil, "a.png", "image/png")
		assert.ErrorIs(t, err, artworkapp.ErrVectorizeRejected)
	})
}
