package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	crmapp "github.com/anycrm/backend/internal/application/crm"
)

var errEmptyStorageKey = errors.New("storage key is required")

// StubObjectStorage stands in for an S3-compatible backend during
// local development. URLs are fake but well formed, and deletions are
// remembered so ObjectExists stays truthful within a process.
type StubObjectStorage struct {
	BaseURL string

	mu      sync.Mutex
	deleted map[string]struct{}

	now func() time.Time
}

// NewStubObjectStorage creates a stub storage backend.
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{
		BaseURL: "https://storage.example.com",
		deleted: make(map[string]struct{}),
		now:     time.Now,
	}
}

var _ crmapp.ObjectStorageService = (*StubObjectStorage)(nil)

func (s *StubObjectStorage) signedURL(op, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyStorageKey
	}
	expiresAt := s.now().Add(expiresIn)
	return s.BaseURL + "/" + op + "/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339), expiresAt, nil
}

// GenerateUploadURL returns a fake presigned upload URL.
func (s *StubObjectStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	return s.signedURL("upload", storageKey, expiresIn)
}

// GenerateDownloadURL returns a fake presigned download URL.
func (s *StubObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	return s.signedURL("download", storageKey, expiresIn)
}

// DeleteObject marks the key deleted.
func (s *StubObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errEmptyStorageKey
	}

	s.mu.Lock()
	s.deleted[storageKey] = struct{}{}
	s.mu.Unlock()
	return nil
}

// ObjectExists reports true for any key that has not been deleted, so
// the upload confirmation flow works without a real backend.
func (s *StubObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errEmptyStorageKey
	}

	s.mu.Lock()
	_, gone := s.deleted[storageKey]
	s.mu.Unlock()
	return !gone, nil
}
