package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/llmgovern/observe"
)

// Policy governs the retry layer only. It can be swapped at runtime
// without reconstructing the underlying bucket, so tuning under load
// does not reset accumulated token state.
type Policy struct {
	// UseExponentialBackoff doubles the backoff after each failed
	// attempt, capped at MaxBackoff. When false the backoff stays at
	// InitialBackoff.
	// Default: true
	UseExponentialBackoff bool

	// InitialBackoff is the delay before the first retry.
	// Default: 100ms
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff between retries.
	// Default: 60s
	MaxBackoff time.Duration

	// MaxRetries is how many failed attempts are retried before
	// Acquire fails with ErrRateLimitExceeded.
	// Default: 5
	MaxRetries int

	// LogEvents emits a debug log line per acquisition event.
	// Default: false
	LogEvents bool
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		UseExponentialBackoff: true,
		InitialBackoff:        100 * time.Millisecond,
		MaxBackoff:            60 * time.Second,
		MaxRetries:            5,
	}
}

func (p Policy) withDefaults() Policy {
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 100 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 60 * time.Second
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = 5
	}
	return p
}

// RetryLimiter wraps a TokenBucket and bounds its blocking acquisition
// path: instead of waiting forever for a token, it retries a bounded
// number of times with backoff and then fails with
// ErrRateLimitExceeded. It is the only layer that converts an
// unbounded wait into an observable failure; callers that need
// predictable latency should use it rather than the raw bucket.
type RetryLimiter struct {
	bucket *TokenBucket
	logger observe.Logger

	mu     sync.Mutex
	policy Policy
}

// NewRetryLimiter wraps bucket with the given retry policy. Zero
// policy fields are defaulted.
func NewRetryLimiter(bucket *TokenBucket, policy Policy) *RetryLimiter {
	return &RetryLimiter{
		bucket: bucket,
		policy: policy.withDefaults(),
	}
}

// SetLogger attaches a logger for event logging. Events are emitted
// only while the policy has LogEvents set.
func (l *RetryLimiter) SetLogger(logger observe.Logger) {
	l.logger = logger
}

// Policy returns the current retry policy.
func (l *RetryLimiter) Policy() Policy {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.policy
}

// SetPolicy replaces the retry policy for subsequent acquisitions.
// The underlying bucket's token state is untouched.
func (l *RetryLimiter) SetPolicy(policy Policy) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.policy = policy.withDefaults()
}

// Bucket returns the wrapped bucket.
func (l *RetryLimiter) Bucket() *TokenBucket {
	return l.bucket
}

// Acquire attempts to take a token from the wrapped bucket. Every
// attempt is non-blocking. On failure in non-blocking mode it returns
// (false, nil) immediately. On failure in blocking mode it sleeps for
// the current backoff, advances the backoff, and retries; once
// MaxRetries failed attempts have been retried it returns
// ErrRateLimitExceeded rather than a silent false.
func (l *RetryLimiter) Acquire(ctx context.Context, blocking bool) (bool, error) {
	policy := l.Policy()
	backoff := policy.InitialBackoff
	retries := 0

	for {
		if l.bucket.Allow() {
			if policy.LogEvents && l.logger != nil {
				l.logger.Debug(ctx, "rate limit token acquired",
					observe.Field{Key: "retries", Value: retries})
			}
			return true, nil
		}

		if !blocking {
			return false, nil
		}

		if retries >= policy.MaxRetries {
			if policy.LogEvents && l.logger != nil {
				l.logger.Warn(ctx, "rate limit retries exhausted",
					observe.Field{Key: "retries", Value: retries})
			}
			return false, ErrRateLimitExceeded
		}

		if policy.LogEvents && l.logger != nil {
			l.logger.Debug(ctx, "rate limit token not available",
				observe.Field{Key: "backoff", Value: backoff.String()},
				observe.Field{Key: "attempt", Value: retries + 1})
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(backoff):
		}

		if policy.UseExponentialBackoff {
			backoff *= 2
			if backoff > policy.MaxBackoff {
				backoff = policy.MaxBackoff
			}
		}
		retries++
	}
}
