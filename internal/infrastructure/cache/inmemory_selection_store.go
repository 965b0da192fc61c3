package cache

import (
	"context"
	"sync"
	"time"

	"github.com/medico/backend/internal/domain/checkout"
)

type selectionEntry struct {
	ids       []string
	expiresAt time.Time
}

// InMemorySelectionStore implements checkout.SelectionStore with a map.
// Suitable for single-instance deployments and testing.
type InMemorySelectionStore struct {
	mu        sync.RWMutex
	entries   map[string]selectionEntry
	ttl       time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySelectionStore creates a store and starts its expiry sweeper; call Close to stop it
func NewInMemorySelectionStore(ttl time.Duration) *InMemorySelectionStore {
	if ttl <= 0 {
		ttl = DefaultSelectionTTL
	}
	s := &InMemorySelectionStore{
		entries:  make(map[string]selectionEntry),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// Load implements checkout.SelectionStore
func (s *InMemorySelectionStore) Load(_ context.Context, owner string) (*checkout.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[owner]
	if !ok || s.now().After(e.expiresAt) {
		return checkout.NewSelection(), nil
	}
	return checkout.NewSelection(e.ids...), nil
}

// Save implements checkout.SelectionStore
func (s *InMemorySelectionStore) Save(_ context.Context, owner string, sel *checkout.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sel == nil || sel.IsEmpty() {
		delete(s.entries, owner)
		return nil
	}
	s.entries[owner] = selectionEntry{ids: sel.IDs(), expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemorySelectionStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of stored selections, expired ones included until swept
func (s *InMemorySelectionStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *InMemorySelectionStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemorySelectionStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for owner, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, owner)
		}
	}
}

var _ checkout.SelectionStore = (*InMemorySelectionStore)(nil)
