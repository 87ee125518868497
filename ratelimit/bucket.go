package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Config configures a TokenBucket. All fields are required and
// validated at construction; invalid values are rejected, never
// clamped.
type Config struct {
	// RequestsPerSecond is the token refill rate. Must be > 0.
	RequestsPerSecond float64

	// CheckInterval is how long a blocking Acquire sleeps between
	// attempts. Must be > 0.
	CheckInterval time.Duration

	// MaxBucketSize caps how many tokens the bucket can hold, bounding
	// bursts. Must be >= 1.
	MaxBucketSize float64
}

// Validate checks the configuration. All failures wrap
// ErrInvalidConfig.
func (c Config) Validate() error {
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: requests per second must be > 0, got %v", ErrInvalidConfig, c.RequestsPerSecond)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("%w: check interval must be > 0, got %v", ErrInvalidConfig, c.CheckInterval)
	}
	if c.MaxBucketSize < 1 {
		return fmt.Errorf("%w: max bucket size must be at least 1, got %v", ErrInvalidConfig, c.MaxBucketSize)
	}
	return nil
}

// TokenBucket is an in-process token bucket rate limiter.
//
// The bucket starts with exactly one token rather than a full bucket,
// so the very first call proceeds immediately without granting a
// freshly constructed limiter a burst it never accumulated.
//
// The token count and last-refill timestamp are guarded as a single
// unit: refill and consume happen together under one critical section,
// so concurrent callers cannot double-count elapsed time or lose a
// refill. No fairness is guaranteed between concurrent waiters.
type TokenBucket struct {
	config Config

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time // zero until the first consume
}

// NewTokenBucket creates a token bucket limiter. The configuration is
// validated; construct one limiter per governed resource.
func NewTokenBucket(config Config) (*TokenBucket, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TokenBucket{
		config: config,
		tokens: 1, // allow the first request without an initial burst
	}, nil
}

// consume attempts to take one token, refilling first. Refill is
// skipped entirely while the elapsed time amounts to less than one
// whole token at the configured rate; sub-token elapsed time is not
// banked.
func (b *TokenBucket) consume() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if b.lastRefill.IsZero() {
		b.lastRefill = now
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed*b.config.RequestsPerSecond >= 1.0 {
		b.tokens += elapsed * b.config.RequestsPerSecond
		b.lastRefill = now
	}

	if b.tokens > b.config.MaxBucketSize {
		b.tokens = b.config.MaxBucketSize
	}

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true
	}
	return false
}

// Allow reports whether a call may proceed right now, consuming a
// token when it may.
func (b *TokenBucket) Allow() bool {
	return b.consume()
}

// Acquire attempts to take a token. In non-blocking mode it returns
// the result of a single attempt. In blocking mode it re-checks every
// CheckInterval with no retry bound; cancelling ctx is the only way
// out, and a cancelled wait does not return any token already
// consumed. Callers that need a bounded wait should use RetryLimiter.
func (b *TokenBucket) Acquire(ctx context.Context, blocking bool) (bool, error) {
	if !blocking {
		return b.consume(), nil
	}

	for {
		if b.consume() {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(b.config.CheckInterval):
		}
	}
}

// AvailableTokens returns the current token count without triggering a
// refill. Diagnostic snapshot only; the value can be stale by the time
// the caller reads it.
func (b *TokenBucket) AvailableTokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}

// Config returns the bucket configuration.
func (b *TokenBucket) Config() Config {
	return b.config
}
