// Package vectorize calls the hosted raster-to-SVG service.
package vectorize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/goccy/go-json"
	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
	"github.com/inkthread/storefront/internal/infrastructure/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// DefaultEndpoint is the vectorizer.ai v1 endpoint
const DefaultEndpoint = "https://api.vectorizer.ai/api/v1/vectorize"

// maxResponseSize bounds the SVG we accept back
const maxResponseSize = 32 << 20

var _ artworkapp.Vectorizer = (*Client)(nil)

// ErrDisabled is returned when vectorization is not configured
var ErrDisabled = errors.New("vectorizer is disabled")

// Client posts images as multipart form data and returns the SVG body
type Client struct {
	endpoint   string
	apiID      string
	apiSecret  string
	mode       string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// NewClient creates a client from configuration. Outbound requests get an
// otelhttp span.
func NewClient(cfg config.VectorizerConfig, opts ...Option) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if cfg.APIID == "" || cfg.APISecret == "" {
		return nil, errors.New("vectorizer api_id and api_secret are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	c := &Client{
		endpoint:  endpoint,
		apiID:     cfg.APIID,
		apiSecret: cfg.APISecret,
		mode:      cfg.Mode,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return "vectorizer " + r.Method
				}),
			),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Vectorize uploads image and returns the SVG document. Client errors
// (4xx other than 429) wrap artworkapp.ErrVectorizeRejected.
func (c *Client) Vectorize(ctx context.Context, image []byte, fileName, contentType string) ([]byte, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", artworkapp.ErrVectorizeRejected)
	}

	body, formType, err := c.buildForm(image, fileName, contentType)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build vectorizer request: %w", err)
	}
	req.SetBasicAuth(c.apiID, c.apiSecret)
	req.Header.Set("Content-Type", formType)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vectorizer request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read vectorizer response: %w", err)
	}

	c.logger.Debug("Vectorizer responded",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(data))
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: status %d: %s", artworkapp.ErrVectorizeRejected, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("vectorizer returned status %d: %s", resp.StatusCode, msg)
	}

	if !bytes.Contains(data[:min(len(data), 512)], []byte("<svg")) {
		return nil, fmt.Errorf("%w: response is not an SVG document", artworkapp.ErrVectorizeRejected)
	}
	return data, nil
}

func (c *Client) buildForm(image []byte, fileName, contentType string) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	if fileName == "" {
		fileName = "image"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, fileName))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build vectorizer form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("failed to build vectorizer form: %w", err)
	}

	if c.mode != "" {
		if err := w.WriteField("mode", c.mode); err != nil {
			return nil, "", fmt.Errorf("failed to build vectorizer form: %w", err)
		}
	}
	if err := w.WriteField("output.file_format", "svg"); err != nil {
		return nil, "", fmt.Errorf("failed to build vectorizer form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to build vectorizer form: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
