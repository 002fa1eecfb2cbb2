package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/sungrove/voiceboard-go/internal/compile"
)

// Key prefix for draft records.
const prefixDraft = "d:"

// BadgerStore is a BadgerDB-backed draft store.
type BadgerStore struct {
	mu          sync.RWMutex
	db          *badger.DB
	initialized bool
}

// NewBadgerStore creates a new BadgerDB draft store.
func NewBadgerStore() *BadgerStore {
	return &BadgerStore{}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (s *BadgerStore) Initialize(path string, readOnly bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	var err error
	s.db, err = badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	s.initialized = true
	return nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.initialized = false
	return err
}

func draftKey(key string) []byte {
	return []byte(prefixDraft + key)
}

// Put implements Store.
func (s *BadgerStore) Put(ctx context.Context, key string, cfg *compile.AgentConfig) error {
	if key == "" {
		return fmt.Errorf("draft key must not be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return fmt.Errorf("draft store not initialized")
	}

	record := Draft{Key: key, SavedAt: time.Now().UTC(), Config: cfg}
	data, err := json.Marshal(&record)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(draftKey(key), data)
	})
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context, key string) (*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, fmt.Errorf("draft store not initialized")
	}

	var record Draft
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(draftKey(key))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List implements Store.
func (s *BadgerStore) List(ctx context.Context) ([]*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, fmt.Errorf("draft store not initialized")
	}

	var drafts []*Draft
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixDraft)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var record Draft
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				continue
			}
			drafts = append(drafts, &record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].SavedAt.After(drafts[j].SavedAt)
	})
	return drafts, nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return fmt.Errorf("draft store not initialized")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(draftKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}
