package storage

import (
	"context"
	"net/url"
	"time"

	partnerapp "github.com/pathway/backend/internal/application/partner"
)

// StubDocumentStore hands out fake URLs when no bucket is configured, so
// the application flow works in development
type StubDocumentStore struct {
	BaseURL string
}

func NewStubDocumentStore() *StubDocumentStore {
	return &StubDocumentStore{BaseURL: "https://storage.invalid"}
}

var _ partnerapp.DocumentStorage = (*StubDocumentStore)(nil)

func (s *StubDocumentStore) PresignUpload(_ context.Context, doc partnerapp.DocumentUpload, expiresIn time.Duration) (string, time.Time, error) {
	return s.url("upload", doc.Key, expiresIn)
}

func (s *StubDocumentStore) PresignDownload(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return s.url("download", key, expiresIn)
}

func (s *StubDocumentStore) url(op, key string, expiresIn time.Duration) (string, time.Time, error) {
	if err := validateKey(key); err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().Add(expiresIn)
	q := url.Values{"expires": {expiresAt.UTC().Format(time.RFC3339)}}
	return s.BaseURL + "/" + op + "/" + url.PathEscape(key) + "?" + q.Encode(), expiresAt, nil
}
