package cache

import (
	"context"
	"time"
)

// TTLStore wraps a MemoryStore and expires entries older than a
// default TTL. Expiry is lazy: an entry is checked only when it is
// looked up, and an expired entry is removed at that point and
// reported as a miss. Nothing sweeps expired entries proactively, so
// an entry that is never looked up again occupies capacity until the
// LRU path or Clear removes it. TTL alone does not bound memory;
// combine with a max size for a hard bound.
type TTLStore struct {
	inner      *MemoryStore
	defaultTTL time.Duration
}

// NewTTLStore creates an unbounded store whose entries expire after
// defaultTTL. Returns ErrInvalidTTL if defaultTTL <= 0.
func NewTTLStore(defaultTTL time.Duration) (*TTLStore, error) {
	if defaultTTL <= 0 {
		return nil, ErrInvalidTTL
	}
	return &TTLStore{
		inner:      NewMemoryStore(),
		defaultTTL: defaultTTL,
	}, nil
}

// NewTTLStoreWithMaxSize creates a bounded store whose entries expire
// after defaultTTL.
func NewTTLStoreWithMaxSize(defaultTTL time.Duration, maxSize int) (*TTLStore, error) {
	if defaultTTL <= 0 {
		return nil, ErrInvalidTTL
	}
	inner, err := NewMemoryStoreWithMaxSize(maxSize)
	if err != nil {
		return nil, err
	}
	return &TTLStore{inner: inner, defaultTTL: defaultTTL}, nil
}

// DefaultTTL returns the expiry applied to entries.
func (s *TTLStore) DefaultTTL() time.Duration {
	return s.defaultTTL
}

// Lookup returns the payload cached for fingerprint if present and not
// expired. An expired entry is evicted immediately and counted as a
// miss.
func (s *TTLStore) Lookup(_ context.Context, fingerprint string) (Payload, bool) {
	s.inner.mu.Lock()
	defer s.inner.mu.Unlock()
	return s.lookupLocked(fingerprint)
}

// TryLookup is Lookup without waiting for the lock.
func (s *TTLStore) TryLookup(fingerprint string) (Payload, bool, error) {
	if !s.inner.mu.TryLock() {
		return nil, false, ErrContended
	}
	defer s.inner.mu.Unlock()
	value, ok := s.lookupLocked(fingerprint)
	return value, ok, nil
}

func (s *TTLStore) lookupLocked(fingerprint string) (Payload, bool) {
	e, ok := s.inner.entries[fingerprint]
	if !ok {
		s.inner.stats.Misses++
		return nil, false
	}
	if time.Since(e.createdAt) > s.defaultTTL {
		delete(s.inner.entries, fingerprint)
		s.inner.stats.Misses++
		return nil, false
	}
	e.lastAccessed = time.Now()
	e.accessCount++
	s.inner.stats.Hits++
	return e.value, true
}

// Update inserts or replaces the entry for fingerprint, resetting its
// creation time.
func (s *TTLStore) Update(ctx context.Context, fingerprint string, value Payload) error {
	return s.inner.Update(ctx, fingerprint, value)
}

// TryUpdate is Update without waiting for the lock.
func (s *TTLStore) TryUpdate(fingerprint string, value Payload) error {
	return s.inner.TryUpdate(fingerprint, value)
}

// Clear removes all entries.
func (s *TTLStore) Clear(ctx context.Context) error {
	return s.inner.Clear(ctx)
}

// TryClear is Clear without waiting for the lock.
func (s *TTLStore) TryClear() error {
	return s.inner.TryClear()
}

// Stats returns a snapshot of store activity.
func (s *TTLStore) Stats() Stats {
	return s.inner.Stats()
}

// Len returns the number of entries currently stored, expired entries
// included until they are looked up.
func (s *TTLStore) Len() int {
	return s.inner.Len()
}

// Ensure TTLStore implements Store
var _ Store = (*TTLStore)(nil)
