package storage

import (
	"context"
	"testing"
	"time"

	partnerapp "github.com/pathway/backend/internal/application/partner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubDocumentStore(t *testing.T) {
	s := NewStubDocumentStore()
	ctx := context.Background()

	url, expiresAt, err := s.PresignUpload(ctx, partnerapp.DocumentUpload{
		Key: "applications/abc/cv.pdf", ContentType: "application/pdf", Size: 1024,
	}, time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "https://storage.invalid/upload/applications%2Fabc%2Fcv.pdf?expires=")
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Second)

	url, _, err = s.PresignDownload(ctx, "applications/abc/cv.pdf", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "/download/")

	_, _, err = s.PresignUpload(ctx, partnerapp.DocumentUpload{}, time.Hour)
	assert.ErrorIs(t, err, ErrKeyRequired)
	_, _, err = s.PresignDownload(ctx, "../secrets", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidKey)
}
