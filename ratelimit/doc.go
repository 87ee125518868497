// Package ratelimit throttles outbound calls to a rate-limited
// external service.
//
// TokenBucket is a continuous-refill token bucket: permits accumulate
// at a fixed rate up to a cap and each allowed call consumes one. Its
// blocking acquire path polls without bound; RetryLimiter wraps a
// bucket to turn that unbounded wait into a fail-fast contract with
// bounded retries and backoff.
//
// The limiter is in-process only. It cannot rate limit across
// processes, and it is time-based only: nothing about the size or
// content of a request influences the decision.
package ratelimit
