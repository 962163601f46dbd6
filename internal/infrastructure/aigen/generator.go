// Package aigen generates artwork from text prompts with Google Imagen.
package aigen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
	"github.com/inkthread/storefront/internal/infrastructure/config"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is used when aigen.model is empty
const DefaultModel = "imagen-3.0-generate-002"

// MaxPromptLength bounds the prompt sent upstream
const MaxPromptLength = 1000

var _ artworkapp.ImageGenerator = (*Generator)(nil)

var (
	ErrEmptyPrompt    = errors.New("prompt is required")
	ErrPromptTooLong  = fmt.Errorf("prompt exceeds %d characters", MaxPromptLength)
	ErrNoImage        = errors.New("image generation returned no image")
	ErrContentBlocked = errors.New("prompt was blocked by the safety filter")
)

// imageModels is the slice of *genai.Models the generator uses
type imageModels interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Generator implements artworkapp.ImageGenerator. A zero-config Generator
// reports Enabled() == false and refuses to generate.
type Generator struct {
	models      imageModels
	model       string
	aspectRatio string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewGenerator creates a generator. When cfg.Enabled is false it returns a
// disabled generator rather than an error so wiring stays uniform.
func NewGenerator(ctx context.Context, cfg config.AIGenConfig, logger *zap.Logger) (*Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Generator{
		model:       cfg.Model,
		aspectRatio: cfg.AspectRatio,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.aspectRatio == "" {
		g.aspectRatio = "1:1"
	}
	if g.timeout <= 0 {
		g.timeout = 90 * time.Second
	}
	if !cfg.Enabled {
		return g, nil
	}
	if cfg.APIKey == "" {
		return nil, errors.New("aigen api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	g.models = client.Models
	return g, nil
}

// Enabled reports whether a client is configured
func (g *Generator) Enabled() bool {
	return g.models != nil
}

// Generate returns one PNG for prompt
func (g *Generator) Generate(ctx context.Context, prompt string) (*artworkapp.GeneratedImage, error) {
	if !g.Enabled() {
		return nil, errors.New("image generation is disabled")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if len([]rune(prompt)) > MaxPromptLength {
		return nil, ErrPromptTooLong
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.models.GenerateImages(ctx, g.model, printablePrompt(prompt), &genai.GenerateImagesConfig{
		NumberOfImages:   1,
		AspectRatio:      g.aspectRatio,
		OutputMIMEType:   "image/png",
		IncludeRAIReason: true,
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI image generation failed: %w", err)
	}

	g.logger.Info("Generated artwork image",
		zap.String("model", g.model),
		zap.Int("prompt_length", len(prompt)),
		zap.Duration("duration", time.Since(start)))

	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, ErrNoImage
	}
	img := resp.GeneratedImages[0]
	if img.Image == nil || len(img.Image.ImageBytes) == 0 {
		if img.RAIFilteredReason != "" {
			return nil, fmt.Errorf("%w: %s", ErrContentBlocked, img.RAIFilteredReason)
		}
		return nil, ErrNoImage
	}

	mime := img.Image.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return &artworkapp.GeneratedImage{Data: img.Image.ImageBytes, MIMEType: mime}, nil
}

// printablePrompt steers the model toward artwork that prints cleanly on fabric
func printablePrompt(prompt string) string {
	return prompt + ". Flat graphic design for screen printing on a t-shirt, " +
		"bold clean shapes, limited color palette, plain white background, no mockup, no text artifacts."
}
