package directory

import (
	"context"
	"sync"
)

// MemoryStore keeps the allow-list in process memory, keyed by group.
type MemoryStore struct {
	mu     sync.RWMutex
	groups map[string][]string
}

// NewMemoryStore creates a store seeded with the given groups.
func NewMemoryStore(groups map[string][]string) *MemoryStore {
	s := &MemoryStore{groups: make(map[string][]string, len(groups))}
	for name, ids := range groups {
		s.groups[name] = append([]string(nil), ids...)
	}
	return s
}

// Add appends placeID to group
func (s *MemoryStore) Add(group, placeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group] = append(s.groups[group], placeID)
}

// Refs returns a copy of every row in the store.
func (s *MemoryStore) Refs() []PlaceRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return groupRefs(s.groups)
}

// ListAllCuratedPlaceIDs implements Store.
func (s *MemoryStore) ListAllCuratedPlaceIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return uniqueIDs(s.Refs()), nil
}

// FilterToKnownIDs implements Store.
func (s *MemoryStore) FilterToKnownIDs(ctx context.Context, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return []string{}, nil
	}
	known, err := s.ListAllCuratedPlaceIDs(ctx)
	if err != nil {
		return nil, err
	}
	return intersect(known, candidates), nil
}
