package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation with optional LRU
// bounding. A single mutex guards the entry map and the statistics
// together, so a stats snapshot always agrees with the map state it
// describes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	maxSize int // 0 means unbounded
	stats   Stats
}

type entry struct {
	value        Payload
	createdAt    time.Time
	lastAccessed time.Time
	accessCount  uint64
}

// NewMemoryStore creates an unbounded in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*entry)}
}

// NewMemoryStoreWithMaxSize creates an in-memory store holding at most
// maxSize entries. Returns ErrInvalidMaxSize if maxSize < 1.
func NewMemoryStoreWithMaxSize(maxSize int) (*MemoryStore, error) {
	if maxSize < 1 {
		return nil, ErrInvalidMaxSize
	}
	return &MemoryStore{
		entries: make(map[string]*entry),
		maxSize: maxSize,
	}, nil
}

// MaxSize returns the configured entry limit, or 0 when unbounded.
func (s *MemoryStore) MaxSize() int {
	return s.maxSize
}

// Lookup returns the payload cached for fingerprint, or (nil, false)
// on miss. A hit refreshes the entry's last-accessed time and access
// count and increments the hit counter; a miss increments the miss
// counter.
func (s *MemoryStore) Lookup(_ context.Context, fingerprint string) (Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(fingerprint)
}

// TryLookup is Lookup without waiting for the lock. Returns
// ErrContended if a concurrent operation holds it.
func (s *MemoryStore) TryLookup(fingerprint string) (Payload, bool, error) {
	if !s.mu.TryLock() {
		return nil, false, ErrContended
	}
	defer s.mu.Unlock()
	value, ok := s.lookupLocked(fingerprint)
	return value, ok, nil
}

func (s *MemoryStore) lookupLocked(fingerprint string) (Payload, bool) {
	e, ok := s.entries[fingerprint]
	if !ok {
		s.stats.Misses++
		return nil, false
	}
	e.lastAccessed = time.Now()
	e.accessCount++
	s.stats.Hits++
	return e.value, true
}

// Update inserts or replaces the entry for fingerprint. When the store
// is at capacity, the entry with the oldest last-accessed time is
// evicted before the insert.
func (s *MemoryStore) Update(_ context.Context, fingerprint string, value Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateLocked(fingerprint, value)
	return nil
}

// TryUpdate is Update without waiting for the lock.
func (s *MemoryStore) TryUpdate(fingerprint string, value Payload) error {
	if !s.mu.TryLock() {
		return ErrContended
	}
	defer s.mu.Unlock()
	s.updateLocked(fingerprint, value)
	return nil
}

func (s *MemoryStore) updateLocked(fingerprint string, value Payload) {
	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldestLocked()
	}

	now := time.Now()
	s.entries[fingerprint] = &entry{
		value:        value,
		createdAt:    now,
		lastAccessed: now,
	}

	s.stats.Updates++
	if len(s.entries) > s.stats.MaxSizeReached {
		s.stats.MaxSizeReached = len(s.entries)
	}
}

// evictOldestLocked removes the least recently used entry. Linear scan
// over all entries; fine for the working-set sizes this store targets.
// TODO: swap in an ordered recency list if stores grow past a few
// thousand entries.
func (s *MemoryStore) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	first := true

	for key, e := range s.entries {
		if first || e.lastAccessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastAccessed
			first = false
		}
	}

	if !first {
		delete(s.entries, oldestKey)
	}
}

// Clear removes all entries and increments the clear counter. The
// hit, miss, and update counters survive.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	return nil
}

// TryClear is Clear without waiting for the lock.
func (s *MemoryStore) TryClear() error {
	if !s.mu.TryLock() {
		return ErrContended
	}
	defer s.mu.Unlock()
	s.clearLocked()
	return nil
}

func (s *MemoryStore) clearLocked() {
	s.entries = make(map[string]*entry)
	s.stats.Clears++
}

// Stats returns a snapshot of store activity.
func (s *MemoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.stats
	snapshot.CurrentSize = len(s.entries)
	return snapshot
}

// Len returns the number of entries currently stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
