package draft

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sungrove/voiceboard-go/internal/compile"
)

// MemoryStore is an in-memory implementation of Store for testing.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
}

// NewMemoryStore creates a new in-memory draft store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]*Draft)}
}

// Initialize implements Store.
func (s *MemoryStore) Initialize(path string, readOnly bool) error {
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts = nil
	return nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, key string, cfg *compile.AgentConfig) error {
	if key == "" {
		return fmt.Errorf("draft key must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[key] = &Draft{Key: key, SavedAt: time.Now().UTC(), Config: cfg}
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) (*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.drafts[key]
	if !ok {
		return nil, ErrNotFound
	}
	return record, nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Draft, 0, len(s.drafts))
	for _, record := range s.drafts {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, key)
	return nil
}
