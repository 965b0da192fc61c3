package checkout

import (
	"context"
	"encoding/json"
)

// Selection is the set of item ids a customer picked. Ids are unique;
// insertion order is kept for display only.
type Selection struct {
	ids []string
	set map[string]struct{}
}

// NewSelection builds a selection from ids, dropping duplicates and blanks
func NewSelection(ids ...string) *Selection {
	s := &Selection{set: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" && !s.Contains(id) {
			s.add(id)
		}
	}
	return s
}

// Toggle adds id when absent and removes it when present. It reports whether id is selected afterwards.
func (s *Selection) Toggle(id string) bool {
	if s.set == nil {
		s.set = make(map[string]struct{})
	}
	if s.Contains(id) {
		s.remove(id)
		return false
	}
	s.add(id)
	return true
}

// Contains reports whether id is selected
func (s *Selection) Contains(id string) bool {
	_, ok := s.set[id]
	return ok
}

// IDs returns a copy of the selected ids in insertion order
func (s *Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of selected ids
func (s *Selection) Len() int {
	return len(s.ids)
}

// IsEmpty reports whether nothing is selected
func (s *Selection) IsEmpty() bool {
	return len(s.ids) == 0
}

// Clear empties the selection
func (s *Selection) Clear() {
	s.ids = nil
	s.set = make(map[string]struct{})
}

func (s *Selection) add(id string) {
	s.ids = append(s.ids, id)
	s.set[id] = struct{}{}
}

func (s *Selection) remove(id string) {
	delete(s.set, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			return
		}
	}
}

// MarshalJSON encodes the selection as a JSON array of ids
func (s *Selection) MarshalJSON() ([]byte, error) {
	if s.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ids)
}

// UnmarshalJSON accepts a JSON array of ids, numbers or strings
func (s *Selection) UnmarshalJSON(data []byte) error {
	ids, err := ParseIDList(data)
	if err != nil {
		return err
	}
	*s = *NewSelection(ids...)
	return nil
}

// SelectionStore persists selections between requests or sessions.
// Load returns an empty selection for an owner with nothing saved.
type SelectionStore interface {
	Load(ctx context.Context, owner string) (*Selection, error)
	Save(ctx context.Context, owner string, selection *Selection) error
}
