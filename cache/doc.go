// Package cache provides a fingerprint-keyed in-memory store for
// expensive, idempotent call results.
//
// It provides a Store interface with a memory implementation, optional
// LRU bounding and lazy TTL expiry, activity statistics, and
// deterministic fingerprint derivation.
package cache
