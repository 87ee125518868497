package cache

import (
	"context"
	"errors"
)

// Payload is the opaque value list stored against a fingerprint.
// Elements are typically serialized generations produced by the
// invocation layer; the store never inspects them.
type Payload [][]byte

// Sentinel errors for store operations.
var (
	// ErrContended is returned by the Try variants when the store lock
	// is held by a concurrent writer. The caller decides whether to
	// retry; the store never retries on its own.
	ErrContended = errors.New("cache: store lock is contended")

	// ErrInvalidMaxSize is returned when a bounded store is constructed
	// with a max size below 1.
	ErrInvalidMaxSize = errors.New("cache: max size must be at least 1")

	// ErrInvalidTTL is returned when a TTL store is constructed with a
	// non-positive TTL.
	ErrInvalidTTL = errors.New("cache: ttl must be positive")
)

// Store is the interface for fingerprint-keyed result stores.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Locking: Lookup, Update, and Clear wait for the store lock; the
//   Try variants attempt it once and return ErrContended on contention.
// - Errors: Lookup never fails; it returns (nil, false) on miss.
type Store interface {
	// Lookup returns the payload cached for fingerprint, or
	// (nil, false) on miss. A hit refreshes the entry's recency.
	Lookup(ctx context.Context, fingerprint string) (Payload, bool)

	// Update inserts or replaces the entry for fingerprint. When the
	// store is at capacity, the least recently used entry is evicted
	// first. Eviction happens only here, never on Lookup.
	Update(ctx context.Context, fingerprint string, value Payload) error

	// Clear removes all entries. Activity counters survive a clear.
	Clear(ctx context.Context) error

	// TryLookup is Lookup without waiting for the lock.
	TryLookup(fingerprint string) (Payload, bool, error)

	// TryUpdate is Update without waiting for the lock.
	TryUpdate(fingerprint string, value Payload) error

	// TryClear is Clear without waiting for the lock.
	TryClear() error

	// Stats returns a snapshot of store activity.
	Stats() Stats

	// Len returns the number of entries currently stored.
	Len() int
}
