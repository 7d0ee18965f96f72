package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
)

var errEmptyStorageKey = errors.New("storage key is required")

// StubObjectStorage hands out deterministic fake URLs so the media flow
// works in development before a bucket is configured.
type StubObjectStorage struct {
	// BaseURL prefixes every generated URL.
	BaseURL string
}

func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{BaseURL: "https://storage.example.com"}
}

func (s *StubObjectStorage) signedURL(kind, storageKey string, expiresIn time.Duration) (string, time.Time) {
	expiresAt := time.Now().Add(expiresIn)
	u := fmt.Sprintf("%s/%s/%s?expires=%s",
		s.BaseURL, kind, storageKey, url.QueryEscape(expiresAt.Format(time.RFC3339)))
	return u, expiresAt
}

// GenerateUploadURL returns a fake presigned upload URL.
func (s *StubObjectStorage) GenerateUploadURL(
	ctx context.Context,
	storageKey, contentType string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyStorageKey
	}
	u, expiresAt := s.signedURL("upload", storageKey, expiresIn)
	return u, expiresAt, nil
}

// GenerateDownloadURL returns a fake presigned download URL.
func (s *StubObjectStorage) GenerateDownloadURL(
	ctx context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyStorageKey
	}
	u, expiresAt := s.signedURL("download", storageKey, expiresIn)
	return u, expiresAt, nil
}

// DeleteObject always succeeds for a non-empty key.
func (s *StubObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errEmptyStorageKey
	}
	return nil
}

// ObjectExists reports true for every non-empty key so the upload
// confirmation flow can complete without a real bucket.
func (s *StubObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errEmptyStorageKey
	}
	return true, nil
}
