package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	partnerapp "github.com/pathway/backend/internal/application/partner"
	"github.com/pathway/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		MaxUploadSize:   1 << 20,
		Bucket:          "pd-documents",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Region:          "eu-west-2",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
		PresignExpiry:   10 * time.Minute,
	}
}

func TestNewS3DocumentStore_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3DocumentStore(ctx, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.Bucket = ""
		_, err := NewS3DocumentStore(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.AccessKeyID = ""
		_, err := NewS3DocumentStore(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.SecretAccessKey = ""
		_, err := NewS3DocumentStore(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("valid config", func(t *testing.T) {
		s, err := NewS3DocumentStore(ctx, testStorageConfig())
		require.NoError(t, err)
		assert.Equal(t, "pd-documents", s.Bucket())
		assert.Equal(t, 10*time.Minute, s.defaultExpiry)
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.Endpoint = "http://"
		_, err := NewS3DocumentStore(ctx, cfg)
		assert.ErrorContains(t, err, "invalid storage endpoint")
	})

	t.Run("default presign expiry", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.PresignExpiry = 0
		s, err := NewS3DocumentStore(ctx, cfg)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, s.defaultExpiry)
	})
}

// Presigning is computed locally, so no server is needed
func TestS3DocumentStore_PresignUpload(t *testing.T) {
	ctx := context.Background()
	s, err := NewS3DocumentStore(ctx, testStorageConfig())
	require.NoError(t, err)

	doc := partnerapp.DocumentUpload{Key: "applications/123/cv.pdf", ContentType: "application/pdf", Size: 2048}
	raw, expiresAt, err := s.PresignUpload(ctx, doc, 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, 2*time.Second)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/pd-documents/applications/123/cv.pdf", u.Path)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	t.Run("rejects oversized documents", func(t *testing.T) {
		big := doc
		big.Size = 2 << 20
		_, _, err := s.PresignUpload(ctx, big, 0)
		assert.ErrorContains(t, err, "exceeds")
	})

	t.Run("rejects bad keys", func(t *testing.T) {
		for _, key := range []string{"", "/applications/x.pdf", "applications/../x.pdf"} {
			bad := doc
			bad.Key = key
			_, _, err := s.PresignUpload(ctx, bad, 0)
			assert.Error(t, err, key)
		}
	})
}

func TestS3DocumentStore_PresignDownload(t *testing.T) {
	ctx := context.Background()
	s, err := NewS3DocumentStore(ctx, testStorageConfig())
	require.NoError(t, err)

	raw, _, err := s.PresignDownload(ctx, "applications/123/cv.pdf", time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "60", u.Query().Get("X-Amz-Expires"))
	assert.Equal(t, `attachment; filename="cv.pdf"`, u.Query().Get("response-content-disposition"))

	_, _, err = s.PresignDownload(ctx, "", 0)
	assert.ErrorIs(t, err, ErrKeyRequired)
}
