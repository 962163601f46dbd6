// Package storage provides object storage for artwork files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
	"github.com/inkthread/storefront/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ artworkapp.ObjectStorageService = (*S3ObjectStorage)(nil)

var (
	errEmptyKey = errors.New("storage key is required")
	// ErrObjectTooLarge is returned by Download when an object exceeds the read cap
	ErrObjectTooLarge = errors.New("stored object exceeds download limit")
)

const (
	defaultPresignExpiration = 15 * time.Minute
	defaultMaxDownloadBytes  = 64 << 20
	// artwork keys embed the artwork id and variant, so objects never change in place
	artworkCacheControl = "private, max-age=31536000, immutable"
)

// S3ObjectStorage keeps artwork originals and vectors in an S3-compatible
// bucket (AWS S3, MinIO, R2).
type S3ObjectStorage struct {
	client            *s3.Client
	presign           *s3.PresignClient
	bucket            string
	presignExpiration time.Duration
	maxDownloadBytes  int64
	logger            *zap.Logger
}

// S3ObjectStorageOption configures S3ObjectStorage
type S3ObjectStorageOption func(*S3ObjectStorage)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) S3ObjectStorageOption {
	return func(s *S3ObjectStorage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxDownloadSize caps how many bytes Download reads into memory
func WithMaxDownloadSize(n int64) S3ObjectStorageOption {
	return func(s *S3ObjectStorage) {
		if n > 0 {
			s.maxDownloadBytes = n
		}
	}
}

// NewS3ObjectStorage builds the client. An empty endpoint means AWS itself;
// without static keys the SDK's default credential chain is used.
func NewS3ObjectStorage(ctx context.Context, cfg *config.StorageConfig, opts ...S3ObjectStorageOption) (*S3ObjectStorage, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("storage configuration is required")
	case cfg.Bucket == "":
		return nil, errors.New("storage bucket is required")
	case (cfg.AccessKey == "") != (cfg.SecretKey == ""):
		return nil, errors.New("storage access key and secret key must be set together")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		static := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(static))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	s := &S3ObjectStorage{
		client:            client,
		presign:           s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		presignExpiration: cfg.PresignExpiration,
		maxDownloadBytes:  defaultMaxDownloadBytes,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.presignExpiration <= 0 {
		s.presignExpiration = defaultPresignExpiration
	}
	return s, nil
}

// normalizeEndpoint adds a scheme to bare host:port endpoints such as "minio:9000"
func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", nil
	}
	if !strings.Contains(endpoint, "://") {
		scheme := "http://"
		if useSSL {
			scheme = "https://"
		}
		endpoint = scheme + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid storage endpoint %q", endpoint)
	}
	return endpoint, nil
}

// isNotFound matches the 404 variants S3-compatible servers return
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404
}

func (s *S3ObjectStorage) key(storageKey string) (*string, error) {
	if strings.TrimSpace(storageKey) == "" {
		return nil, errEmptyKey
	}
	return aws.String(storageKey), nil
}

func (s *S3ObjectStorage) expiry(d time.Duration) time.Duration {
	if d <= 0 {
		return s.presignExpiration
	}
	return d
}

// EnsureBucket creates the bucket on first boot
func (s *S3ObjectStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}

	s.logger.Info("Creating artwork bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "BucketAlreadyOwnedByYou" {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// GenerateUploadURL presigns a browser PUT of an artwork original
func (s *S3ObjectStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	key, err := s.key(storageKey)
	if err != nil {
		return "", time.Time{}, err
	}
	expiresIn = s.expiry(expiresIn)
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         key,
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign upload %s: %w", storageKey, err)
	}
	return req.URL, time.Now().Add(expiresIn), nil
}

// GenerateDownloadURL presigns a GET for an artwork file
func (s *S3ObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	key, err := s.key(storageKey)
	if err != nil {
		return "", time.Time{}, err
	}
	expiresIn = s.expiry(expiresIn)
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    key,
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign download %s: %w", storageKey, err)
	}
	return req.URL, time.Now().Add(expiresIn), nil
}

// Upload stores body under storageKey
func (s *S3ObjectStorage) Upload(ctx context.Context, storageKey string, body io.Reader, size int64, contentType string) error {
	key, err := s.key(storageKey)
	if err != nil {
		return err
	}
	input := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          key,
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(artworkCacheControl),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("upload %s: %w", storageKey, err)
	}
	return nil
}

// Download reads a whole object, refusing objects above the download cap
func (s *S3ObjectStorage) Download(ctx context.Context, storageKey string) ([]byte, error) {
	key, err := s.key(storageKey)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: key})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", storageKey, err)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && *out.ContentLength > s.maxDownloadBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrObjectTooLarge, storageKey, *out.ContentLength)
	}
	data, err := io.ReadAll(io.LimitReader(out.Body, s.maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", storageKey, err)
	}
	if int64(len(data)) > s.maxDownloadBytes {
		return nil, fmt.Errorf("%w: %s", ErrObjectTooLarge, storageKey)
	}
	return data, nil
}

// DeleteObject removes an object; deleting a missing key is not an error
func (s *S3ObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	key, err := s.key(storageKey)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: key})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %s: %w", storageKey, err)
	}
	return nil
}

// ObjectExists reports whether storageKey is present
func (s *S3ObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	key, err := s.key(storageKey)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: key})
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, fmt.Errorf("check %s: %w", storageKey, err)
	}
}

// Bucket returns the bucket name
func (s *S3ObjectStorage) Bucket() string {
	return s.bucket
}
