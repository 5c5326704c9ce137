package storage

import (
	"context"
	"sync"

	sferrors "github.com/storefront-labs/storefront/internal/errors"
)

// MemoryStore is an in-memory implementation of SessionStore.
// It is thread-safe, copies values on the way in and out, and respects context
// cancellation. Its contents do not survive the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte

	// Test helpers for simulating failures
	connectivityFailure bool
	persistenceFailure  bool
	commits             int
}

// NewMemoryStore creates a new empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
	}
}

// Get returns a copy of the value stored under key.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return cloneBytes(v), nil
}

// Set stores a copy of value under key.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persistenceFailure {
		return sferrors.NewStoreUnavailable("persistence failure (simulated)", nil)
	}
	s.entries[key] = cloneBytes(value)
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persistenceFailure {
		return sferrors.NewStoreUnavailable("persistence failure (simulated)", nil)
	}
	delete(s.entries, key)
	return nil
}

// Commit applies the batch under a single lock.
func (s *MemoryStore) Commit(ctx context.Context, batch Batch) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persistenceFailure {
		return sferrors.NewStoreUnavailable("persistence failure (simulated)", nil)
	}
	for k, v := range batch.Puts {
		s.entries[k] = cloneBytes(v)
	}
	for _, k := range batch.Deletes {
		delete(s.entries, k)
	}
	s.commits++
	return nil
}

// CheckConnectivity always succeeds unless a failure is simulated.
func (s *MemoryStore) CheckConnectivity(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.connectivityFailure {
		return sferrors.NewStoreUnavailable("mock connectivity failure", nil)
	}
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// Keys returns the keys currently stored, in no particular order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// SetConnectivityFailure configures the store to simulate connectivity failures.
func (s *MemoryStore) SetConnectivityFailure(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectivityFailure = fail
}

// SetPersistenceFailure configures the store to simulate write failures.
func (s *MemoryStore) SetPersistenceFailure(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistenceFailure = fail
}

// Commits returns how many batches were committed.
func (s *MemoryStore) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Verify MemoryStore implements SessionStore interface.
var _ SessionStore = (*MemoryStore)(nil)
