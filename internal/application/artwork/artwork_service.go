package artwork

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/shared"
	"github.com/inkthread/storefront/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultPresignExpiration is the lifetime of presigned URLs
const DefaultPresignExpiration = 15 * time.Minute

// resumeBatch caps how many queued jobs are resubmitted at startup
const resumeBatch = 500

// headerPeek is enough of a PNG or JPEG to read its dimensions
const headerPeek = 64 << 10

var (
	// ErrVectorizerDisabled is returned when no vectorizer is configured
	ErrVectorizerDisabled = shared.NewDomainError("SERVICE_UNAVAILABLE", "Vectorization is not available")
	// ErrGeneratorDisabled is returned when no image generator is configured
	ErrGeneratorDisabled = shared.NewDomainError("SERVICE_UNAVAILABLE", "AI artwork generation is not available")
)

// ArtworkService handles uploads, generation and vectorization
type ArtworkService struct {
	artworkRepo    artwork.ArtworkFileRepository
	storage        ObjectStorageService
	vectorizer     Vectorizer
	generator      ImageGenerator
	queue          JobQueue
	presignTTL     time.Duration
	eventPublisher shared.EventPublisher
	metrics        *telemetry.StoreMetrics
	logger         *zap.Logger
}

// NewArtworkService creates a new ArtworkService. vectorizer and generator may be nil.
func NewArtworkService(
	artworkRepo artwork.ArtworkFileRepository,
	storage ObjectStorageService,
	vectorizer Vectorizer,
	generator ImageGenerator,
	logger *zap.Logger,
) *ArtworkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtworkService{
		artworkRepo: artworkRepo,
		storage:     storage,
		vectorizer:  vectorizer,
		generator:   generator,
		presignTTL:  DefaultPresignExpiration,
		logger:      logger,
	}
}

// SetJobQueue sets the queue vectorization jobs are submitted to
func (s *ArtworkService) SetJobQueue(queue JobQueue) {
	s.queue = queue
}

// SetPresignExpiration overrides the presigned URL lifetime
func (s *ArtworkService) SetPresignExpiration(d time.Duration) {
	if d > 0 {
		s.presignTTL = d
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *ArtworkService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *ArtworkService) SetMetrics(m *telemetry.StoreMetrics) {
	s.metrics = m
}

// Upload stores the uploaded bytes and creates the artwork row
func (s *ArtworkService) Upload(ctx context.Context, in UploadInput) (*ArtworkResponse, error) {
	a, err := artwork.NewUploadedArtwork(in.FileName, in.ContentType, in.Size, in.Email)
	if err != nil {
		return nil, err
	}

	body := bufio.NewReaderSize(in.Body, headerPeek)
	if !a.IsVector() {
		if w, h, ok := peekDimensions(body); ok {
			a.SetDimensions(w, h)
		}
	}

	if err := s.storage.Upload(ctx, a.StorageKey, io.LimitReader(body, artwork.MaxFileSize), a.SizeBytes, a.ContentType); err != nil {
		return nil, fmt.Errorf("store artwork: %w", err)
	}
	if err := s.artworkRepo.Save(ctx, a); err != nil {
		if delErr := s.storage.DeleteObject(ctx, a.StorageKey); delErr != nil {
			s.logger.Warn("Failed to remove orphaned artwork object", zap.String("key", a.StorageKey), zap.Error(delErr))
		}
		return nil, err
	}
	s.publish(ctx, a)

	s.logger.Info("Artwork uploaded",
		zap.String("artwork_id", a.ID.String()),
		zap.String("content_type", a.ContentType),
		zap.Int64("size", a.SizeBytes))
	return s.withURLs(ctx, a), nil
}

// RequestUpload creates a pending artwork row and a presigned PUT URL
func (s *ArtworkService) RequestUpload(ctx context.Context, req PresignRequest) (*PresignResponse, error) {
	a, err := artwork.NewPendingArtwork(req.FileName, req.ContentType, req.Size, req.Email)
	if err != nil {
		return nil, err
	}
	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, a.StorageKey, a.ContentType, s.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	if err := s.artworkRepo.Save(ctx, a); err != nil {
		return nil, err
	}
	return &PresignResponse{
		Artwork:   ToArtworkResponse(a),
		UploadURL: url,
		Method:    "PUT",
		Headers:   map[string]string{"Content-Type": a.ContentType},
		ExpiresAt: expiresAt,
	}, nil
}

// ConfirmUpload marks a presigned upload complete once the object exists
func (s *ArtworkService) ConfirmUpload(ctx context.Context, id uuid.UUID) (*ArtworkResponse, error) {
	a, err := s.artworkRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UploadStatus == artwork.UploadStatusUploaded {
		return s.withURLs(ctx, a), nil
	}
	exists, err := s.storage.ObjectExists(ctx, a.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("check artwork object: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("INVALID_STATE", "Artwork has not been uploaded yet")
	}
	if err := a.ConfirmUpload(); err != nil {
		return nil, err
	}
	if err := s.artworkRepo.Save(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, a)
	return s.withURLs(ctx, a), nil
}

// Get returns an artwork row with presigned download URLs
func (s *ArtworkService) Get(ctx context.Context, id uuid.UUID) (*ArtworkResponse, error) {
	a, err := s.artworkRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withURLs(ctx, a), nil
}

// EnsureUsable checks that every id refers to uploaded artwork
func (s *ArtworkService) EnsureUsable(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	files, err := s.artworkRepo.FindByIDs(ctx, unique)
	if err != nil {
		return err
	}
	found := make(map[uuid.UUID]*artwork.ArtworkFile, len(files))
	for i := range files {
		found[files[i].ID] = &files[i]
	}
	for _, id := range unique {
		a, ok := found[id]
		if !ok {
			return shared.NewDomainError("INVALID_ARTWORK", "Artwork not found: "+id.String())
		}
		if a.UploadStatus != artwork.UploadStatusUploaded {
			return shared.NewDomainError("INVALID_ARTWORK", "Artwork upload has not completed: "+id.String())
		}
	}
	return nil
}

// RequestVectorization queues an artwork for background vectorization
func (s *ArtworkService) RequestVectorization(ctx context.Context, id uuid.UUID) (*ArtworkResponse, error) {
	if s.vectorizer == nil || s.queue == nil {
		return nil, ErrVectorizerDisabled
	}
	a, err := s.artworkRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.QueueVectorization(); err != nil {
		return nil, err
	}
	if err := s.artworkRepo.Save(ctx, a); err != nil {
		return nil, err
	}

	if err := s.queue.Submit(ctx, VectorizeJob{ArtworkID: a.ID}); err != nil {
		s.logger.Error("Failed to submit vectorization job", zap.String("artwork_id", a.ID.String()), zap.Error(err))
		if failErr := a.FailVectorization("could not be queued: " + err.Error()); failErr == nil {
			if saveErr := s.artworkRepo.Save(ctx, a); saveErr != nil {
				s.logger.Error("Failed to record queue failure", zap.Error(saveErr))
			}
		}
		return nil, shared.NewDomainError("SERVICE_UNAVAILABLE", "Vectorization queue is full, try again shortly")
	}
	return s.withURLs(ctx, a), nil
}

// ProcessVectorization runs one vectorization attempt. Errors wrapping
// ErrVectorizeRejected are permanent; other errors are retried by the pool.
func (s *ArtworkService) ProcessVectorization(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "artwork", "vectorize", telemetry.SpanAttrArtworkID, id.String())
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if s.vectorizer == nil {
		return fmt.Errorf("%w: no vectorizer configured", ErrVectorizeRejected)
	}
	a, err := s.artworkRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: artwork %s no longer exists", ErrVectorizeRejected, id)
		}
		return err
	}
	if a.VectorStatus == artwork.VectorStatusCompleted {
		return nil
	}
	if err := a.StartVectorization(); err != nil {
		return fmt.Errorf("%w: %v", ErrVectorizeRejected, err)
	}
	if err := s.artworkRepo.Save(ctx, a); err != nil {
		return err
	}

	start := time.Now()
	original, err := s.storage.Download(ctx, a.StorageKey)
	if err != nil {
		s.metrics.RecordVectorize(ctx, telemetry.OutcomeFailure, time.Since(start))
		return fmt.Errorf("download original: %w", err)
	}
	svg, err := s.vectorizer.Vectorize(ctx, original, a.FileName, a.ContentType)
	if err != nil {
		outcome := telemetry.OutcomeFailure
		if errors.Is(err, ErrVectorizeRejected) {
			outcome = telemetry.OutcomeRejected
		}
		s.metrics.RecordVectorize(ctx, outcome, time.Since(start))
		return err
	}

	key := artwork.VectorKey(a.ID)
	if err := s.storage.Upload(ctx, key, bytes.NewReader(svg), int64(len(svg)), "image/svg+xml"); err != nil {
		s.metrics.RecordVectorize(ctx, telemetry.OutcomeFailure, time.Since(start))
		return fmt.Errorf("store vector: %w", err)
	}
	if err := a.CompleteVectorization(key); err != nil {
		return err
	}
	if err := s.artworkRepo.Save(ctx, a); err != nil {
		return err
	}
	s.metrics.RecordVectorize(ctx, telemetry.OutcomeSuccess, time.Since(start))
	s.publish(ctx, a)

	s.logger.Info("Artwork vectorized",
		zap.String("artwork_id", a.ID.String()),
		zap.Int("attempts", a.VectorAttempts),
		zap.Int("svg_bytes", len(svg)))
	return nil
}

// FailVectorization records that retries are exhausted
func (s *ArtworkService) FailVectorization(ctx context.Context, id uuid.UUID, reason string) error {
	a, err := s.artworkRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if !a.VectorStatus.IsInFlight() {
		return nil
	}
	if err := a.FailVectorization(reason); err != nil {
		return err
	}
	if err := s.artworkRepo.Save(ctx, a); err != nil {
		return err
	}
	s.publish(ctx, a)
	s.logger.Warn("Artwork vectorization failed",
		zap.String("artwork_id", a.ID.String()),
		zap.Int("attempts", a.VectorAttempts),
		zap.String("reason", reason))
	return nil
}

// ResumePending resubmits jobs left queued or processing by a previous run
func (s *ArtworkService) ResumePending(ctx context.Context) (int, error) {
	if s.queue == nil {
		return 0, nil
	}
	submitted := 0
	for _, status := range []artwork.VectorStatus{artwork.VectorStatusQueued, artwork.VectorStatusProcessing} {
		files, err := s.artworkRepo.FindByVectorStatus(ctx, status, resumeBatch)
		if err != nil {
			return submitted, err
		}
		for i := range files {
			if err := s.queue.Submit(ctx, VectorizeJob{ArtworkID: files[i].ID}); err != nil {
				return submitted, err
			}
			submitted++
		}
	}
	if submitted > 0 {
		s.logger.Info("Resumed vectorization jobs", zap.Int("count", submitted))
	}
	return submitted, nil
}

// Generate creates artwork from a prompt with the image generator
func (s *ArtworkService) Generate(ctx context.Context, req GenerateRequest) (resp *ArtworkResponse, err error) {
	if s.generator == nil || !s.generator.Enabled() {
		return nil, ErrGeneratorDisabled
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "artwork", "generate")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
		s.metrics.RecordGeneration(ctx, telemetry.OutcomeOf(err))
	}()

	img, err := s.generator.Generate(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}
	contentType := img.MIMEType
	if contentType == "" {
		contentType = "image/png"
	}
	a, err := artwork.NewGeneratedArtwork(req.Prompt, contentType, int64(len(img.Data)), req.Email)
	if err != nil {
		return nil, err
	}
	if cfg, _, decErr := image.DecodeConfig(bytes.NewReader(img.Data)); decErr == nil {
		a.SetDimensions(cfg.Width, cfg.Height)
	}

	if err := s.storage.Upload(ctx, a.StorageKey, bytes.NewReader(img.Data), a.SizeBytes, a.ContentType); err != nil {
		return nil, fmt.Errorf("store generated artwork: %w", err)
	}
	if err := s.artworkRepo.Save(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, a)

	s.logger.Info("Artwork generated", zap.String("artwork_id", a.ID.String()), zap.Int64("size", a.SizeBytes))
	return s.withURLs(ctx, a), nil
}

// ValidateTransforms checks a set of placements and returns them normalized.
// Locations must be known and unique; missing transforms get the default.
func (s *ArtworkService) ValidateTransforms(ctx context.Context, req ValidateTransformsRequest) (*ValidateTransformsResponse, error) {
	seen := make(map[artwork.PrintLocation]bool, len(req.Placements))
	out := make([]PlacementResult, 0, len(req.Placements))
	var ids []uuid.UUID
	for _, p := range req.Placements {
		loc := artwork.PrintLocation(p.Location)
		if !loc.IsValid() {
			return nil, shared.NewDomainError("INVALID_LOCATION", "Unknown print location: "+p.Location)
		}
		if seen[loc] {
			return nil, shared.NewDomainError("DUPLICATE_LOCATION", "Print location listed twice: "+p.Location)
		}
		seen[loc] = true

		t := artwork.DefaultTransform()
		if p.Transform != nil {
			var err error
			if t, err = p.Transform.Normalize(); err != nil {
				return nil, err
			}
		}
		inks := p.InkColors
		if inks == 0 && !p.FullColor {
			inks = 1
		}
		if p.ArtworkFileID != nil {
			ids = append(ids, *p.ArtworkFileID)
		}
		out = append(out, PlacementResult{
			Location:      p.Location,
			ArtworkFileID: p.ArtworkFileID,
			InkColors:     inks,
			FullColor:     p.FullColor,
			Transform:     t,
		})
	}
	if err := s.EnsureUsable(ctx, ids); err != nil {
		return nil, err
	}
	return &ValidateTransformsResponse{Valid: true, Placements: out}, nil
}

func (s *ArtworkService) withURLs(ctx context.Context, a *artwork.ArtworkFile) *ArtworkResponse {
	resp := ToArtworkResponse(a)
	if a.UploadStatus != artwork.UploadStatusUploaded {
		return &resp
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, a.StorageKey, s.presignTTL)
	if err != nil {
		s.logger.Warn("Failed to presign artwork download", zap.String("artwork_id", a.ID.String()), zap.Error(err))
		return &resp
	}
	resp.OriginalURL = url
	resp.URLExpiresAt = &expiresAt
	if a.VectorStatus == artwork.VectorStatusCompleted && a.VectorStorageKey != "" {
		if vurl, _, err := s.storage.GenerateDownloadURL(ctx, a.VectorStorageKey, s.presignTTL); err == nil {
			resp.VectorURL = vurl
		}
	}
	return &resp
}

func (s *ArtworkService) publish(ctx context.Context, a *artwork.ArtworkFile) {
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, a.GetDomainEvents()...); err != nil {
			s.logger.Warn("Failed to publish artwork events", zap.String("artwork_id", a.ID.String()), zap.Error(err))
		}
	}
	a.ClearDomainEvents()
}

// peekDimensions reads the image header without consuming the reader
func peekDimensions(r *bufio.Reader) (int, int, bool) {
	head, _ := r.Peek(headerPeek)
	if len(head) == 0 {
		return 0, 0, false
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(head))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}
