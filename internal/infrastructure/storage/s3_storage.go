// Package storage keeps PD application documents in an S3-compatible bucket.
// The API never proxies file bytes: applicants PUT to a presigned URL and
// reviewers GET from one.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	partnerapp "github.com/pathway/backend/internal/application/partner"
	"github.com/pathway/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultRegion        = "eu-west-2"
	defaultPresignExpiry = 15 * time.Minute
)

var (
	ErrKeyRequired = errors.New("storage key is required")
	ErrInvalidKey  = errors.New("storage key must be relative and must not contain '..'")
)

var _ partnerapp.DocumentStorage = (*S3DocumentStore)(nil)

// S3DocumentStore presigns uploads and downloads against AWS S3 or MinIO
type S3DocumentStore struct {
	client        *s3.Client
	presigner     *s3.PresignClient
	bucket        string
	defaultExpiry time.Duration
	maxSize       int64
	logger        *zap.Logger
}

type Option func(*S3DocumentStore)

func WithLogger(logger *zap.Logger) Option {
	return func(s *S3DocumentStore) {
		s.logger = logger
	}
}

func NewS3DocumentStore(ctx context.Context, cfg *config.StorageConfig, opts ...Option) (*S3DocumentStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	switch {
	case cfg.Bucket == "":
		return nil, errors.New("storage bucket is required")
	case cfg.AccessKeyID == "":
		return nil, errors.New("storage access key is required")
	case cfg.SecretAccessKey == "":
		return nil, errors.New("storage secret key is required")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	store := &S3DocumentStore{
		client:        client,
		presigner:     s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		defaultExpiry: cfg.PresignExpiry,
		maxSize:       cfg.MaxUploadSize,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.defaultExpiry <= 0 {
		store.defaultExpiry = defaultPresignExpiry
	}
	return store, nil
}

// normalizeEndpoint accepts "host:port" as well as a full URL. Empty means
// the AWS endpoint for the region.
func normalizeEndpoint(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid storage endpoint %q", raw)
	}
	return raw, nil
}

func validateKey(key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}

// EnsureBucket creates the bucket when it is missing. Used against local
// MinIO in development.
func (s *S3DocumentStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}

	s.logger.Info("Creating document bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// PresignUpload signs a PUT for doc. Content-Type and Content-Length are part
// of the signature, so the client must send exactly what it declared.
func (s *S3DocumentStore) PresignUpload(ctx context.Context, doc partnerapp.DocumentUpload, expiresIn time.Duration) (string, time.Time, error) {
	if err := validateKey(doc.Key); err != nil {
		return "", time.Time{}, err
	}
	if s.maxSize > 0 && doc.Size > s.maxSize {
		return "", time.Time{}, fmt.Errorf("document of %d bytes exceeds the %d byte limit", doc.Size, s.maxSize)
	}
	expiresIn = s.expiry(expiresIn)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(doc.Key),
		ContentType: aws.String(doc.ContentType),
	}
	if doc.Size > 0 {
		input.ContentLength = aws.Int64(doc.Size)
	}
	req, err := s.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign upload: %w", err)
	}
	return req.URL, time.Now().Add(expiresIn), nil
}

// PresignDownload signs a GET that is served as an attachment
func (s *S3DocumentStore) PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if err := validateKey(key); err != nil {
		return "", time.Time{}, err
	}
	expiresIn = s.expiry(expiresIn)

	name := key[strings.LastIndex(key, "/")+1:]
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", name)),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign download: %w", err)
	}
	return req.URL, time.Now().Add(expiresIn), nil
}

func (s *S3DocumentStore) expiry(d time.Duration) time.Duration {
	if d <= 0 {
		return s.defaultExpiry
	}
	return d
}

func (s *S3DocumentStore) Bucket() string {
	return s.bucket
}
