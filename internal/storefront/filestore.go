package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/medico/backend/internal/domain/checkout"
)

// FileSelectionStore keeps selections in one JSON file, keyed by owner.
// It implements checkout.SelectionStore for the command-line storefront.
type FileSelectionStore struct {
	path string
	mu   sync.Mutex
}

var _ checkout.SelectionStore = (*FileSelectionStore)(nil)

// NewFileSelectionStore creates a store backed by path. The file is created on first save.
func NewFileSelectionStore(path string) *FileSelectionStore {
	return &FileSelectionStore{path: path}
}

// Path returns the backing file
func (s *FileSelectionStore) Path() string {
	return s.path
}

// Load returns the owner's saved selection, or an empty one
func (s *FileSelectionStore) Load(_ context.Context, owner string) (*checkout.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	sel, ok := all[owner]
	if !ok || sel == nil {
		return checkout.NewSelection(), nil
	}
	return sel, nil
}

// Save replaces the owner's selection; an empty selection removes the entry
func (s *FileSelectionStore) Save(_ context.Context, owner string, sel *checkout.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	if sel == nil || sel.IsEmpty() {
		delete(all, owner)
	} else {
		all[owner] = sel
	}
	return s.write(all)
}

func (s *FileSelectionStore) read() (map[string]*checkout.Selection, error) {
	all := make(map[string]*checkout.Selection)

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return all, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading selection file: %w", err)
	}
	if len(raw) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("decoding selection file %s: %w", s.path, err)
	}
	return all, nil
}

// write replaces the file atomically through a temp file in the same directory
func (s *FileSelectionStore) write(all map[string]*checkout.Selection) error {
	raw, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding selections: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating selection directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".selection-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("writing selections: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing selection file: %w", err)
	}
	return nil
}
