// Package govern wires the governance flow around a language-model
// invocation: fingerprint the request, serve it from the cache on a
// hit, and otherwise acquire a rate limit token before making the real
// call and caching its result.
//
// Concurrent misses for the same fingerprint are coalesced into a
// single upstream call; the other callers share its result.
package govern
