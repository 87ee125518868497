package ratelimit

import "errors"

// Sentinel errors for rate limiter operations.
var (
	// ErrRateLimitExceeded is returned by RetryLimiter when the retry
	// budget is exhausted without acquiring a token. Fatal to the
	// current call; the caller may queue and retry at a higher level.
	ErrRateLimitExceeded = errors.New("ratelimit: rate limit exceeded")

	// ErrInvalidConfig is returned when a limiter configuration is
	// rejected at construction.
	ErrInvalidConfig = errors.New("ratelimit: invalid config")
)
