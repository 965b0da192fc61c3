package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	catalogapp "github.com/medico/backend/internal/application/catalog"
)

// StubObjectStorage keeps uploads in memory. It backs local development when
// no bucket is configured; URLs point at BaseURL and are not served.
type StubObjectStorage struct {
	// BaseURL prefixes public URLs; defaults to "https://storage.example.com"
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string][]byte),
	}
}

// Ensure StubObjectStorage implements ObjectStorageService
var _ catalogapp.ObjectStorageService = (*StubObjectStorage)(nil)

// Upload reads body fully and keeps it under storageKey
func (s *StubObjectStorage) Upload(_ context.Context, storageKey string, body io.Reader, _ int64, _ string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = data
	return nil
}

// PublicURL returns BaseURL/storageKey
func (s *StubObjectStorage) PublicURL(storageKey string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(storageKey, "/")
}

// DeleteObject forgets storageKey; unknown keys are not an error
func (s *StubObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// Object returns what was uploaded under storageKey
func (s *StubObjectStorage) Object(storageKey string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[storageKey]
	return data, ok
}
