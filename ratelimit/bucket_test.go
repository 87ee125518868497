package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		RequestsPerSecond: 1,
		CheckInterval:     10 * time.Millisecond,
		MaxBucketSize:     2,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero rate", func(c *Config) { c.RequestsPerSecond = 0 }},
		{"negative rate", func(c *Config) { c.RequestsPerSecond = -1 }},
		{"zero check interval", func(c *Config) { c.CheckInterval = 0 }},
		{"negative check interval", func(c *Config) { c.CheckInterval = -time.Second }},
		{"bucket below one", func(c *Config) { c.MaxBucketSize = 0.5 }},
		{"zero bucket", func(c *Config) { c.MaxBucketSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			if _, err := NewTokenBucket(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewTokenBucket error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestTokenBucket_StartsWithOneToken(t *testing.T) {
	b, err := NewTokenBucket(validConfig())
	if err != nil {
		t.Fatalf("NewTokenBucket failed: %v", err)
	}

	if tokens := b.AvailableTokens(); tokens != 1 {
		t.Errorf("initial AvailableTokens = %f, want 1", tokens)
	}

	// The single starting token lets the first call through.
	if !b.Allow() {
		t.Error("first Allow = false, want true")
	}
	if tokens := b.AvailableTokens(); tokens != 0 {
		t.Errorf("AvailableTokens after first Allow = %f, want 0", tokens)
	}
}

func TestTokenBucket_Burst(t *testing.T) {
	b, err := NewTokenBucket(Config{
		RequestsPerSecond: 1,
		CheckInterval:     10 * time.Millisecond,
		MaxBucketSize:     2,
	})
	if err != nil {
		t.Fatalf("NewTokenBucket failed: %v", err)
	}

	if !b.Allow() {
		t.Fatal("first Allow = false, want true")
	}
	if b.Allow() {
		t.Error("immediate second Allow = true, want false")
	}

	time.Sleep(1100 * time.Millisecond)

	if !b.Allow() {
		t.Error("Allow after refill window = false, want true")
	}
}

func TestTokenBucket_SubTokenRefillNotBanked(t *testing.T) {
	b, err := NewTokenBucket(validConfig())
	if err != nil {
		t.Fatalf("NewTokenBucket failed: %v", err)
	}

	b.Allow() // consumes the starting token and initializes last refill

	// At 1 token/s, 300ms is less than one whole token; nothing is
	// added to the bucket.
	time.Sleep(300 * time.Millisecond)
	if b.Allow() {
		t.Error("Allow = true before a whole token accumulated")
	}
	if tokens := b.AvailableTokens(); tokens != 0 {
		t.Errorf("AvailableTokens = %f, want 0 (fractional time not banked)", tokens)
	}
}

func TestTokenBucket_TokenBounds(t *testing.T) {
	b, err := NewTokenBucket(Config{
		RequestsPerSecond: 1000,
		CheckInterval:     time.Millisecond,
		MaxBucketSize:     5,
	})
	if err != nil {
		t.Fatalf("NewTokenBucket failed: %v", err)
	}

	b.Allow() // initialize last refill

	// Enough elapsed time to overflow the bucket many times over.
	time.Sleep(50 * time.Millisecond)
	b.Allow()

	tokens := b.AvailableTokens()
	if tokens < 0 || tokens > 5 {
		t.Errorf("AvailableTokens = %f, want within [0, 5]", tokens)
	}
}

func TestTokenBucket_AcquireNonBlocking(t *testing.T) {
	b, err := NewTokenBucket(validConfig())
	if err != nil {
		t.Fatalf("NewTokenBucket failed: %v", err)
	}
	ctx := context.Background()

	acquired, err := b.Acquire(ctx, false)
	if err != nil {
		t.Fatalf("Acquire error = %v", err)
	}
	if !acquired {
		t.Error("first non-blocking Acquire = false, want true")
	}

	acquired, err = b.Acquire(ctx, false)
	if err != nil {
		t.Fatalf("Acquire error = %v", err)
	}
	if acquired {
		t.Error("second non-blocking Acquire = true, want false")
	}
}

func TestTokenBucket_AcquireBlocking(t *testing.T) {
	b, err := NewTokenBucket(Config{
		RequestsPerSecond: 20, // one token every 50ms
		CheckInterval:     5 * time.Millisecond,
		MaxBucketSize:     1,
	})
	if err != nil {
		t.Fatalf("NewTokenBucket failed: %v", err)
	}

	b.Allow() // drain the starting token

	start := time.Now()
	acquired, err := b.Acquire(context.Background(), true)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("blocking Acquire error = %v", err)
	}
	if !acquired {
		t.Error("blocking Acquire = false, want true")
	}
	if elapsed < 40*time.Millisecond {
		t.Errorf("blocking Acquire returned after %v, want >= ~50ms", elapsed)
	}
}

func TestTokenBucket_AcquireContextCancelled(t *testing.T) {
	b, err := NewTokenBucket(Config{
		RequestsPerSecond: 0.01, // a token every 100s
		CheckInterval:     5 * time.Millisecond,
		MaxBucketSize:     1,
	})
	if err != nil {
		t.Fatalf("NewTokenBucket failed: %v", err)
	}

	b.Allow() // drain

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	acquired, err := b.Acquire(ctx, true)
	if acquired {
		t.Error("Acquire after cancel = true, want false")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire error = %v, want context.Canceled", err)
	}
}

func TestTokenBucket_ConcurrentSingleToken(t *testing.T) {
	b, err := NewTokenBucket(Config{
		RequestsPerSecond: 1,
		CheckInterval:     10 * time.Millisecond,
		MaxBucketSize:     10,
	})
	if err != nil {
		t.Fatalf("NewTokenBucket failed: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Only the single starting token is available; at 1 token/s no
	// refill can happen within the test's lifetime.
	if allowed != 1 {
		t.Errorf("concurrent allowed = %d, want exactly 1", allowed)
	}
}

func TestTokenBucket_Config(t *testing.T) {
	cfg := validConfig()
	b, err := NewTokenBucket(cfg)
	if err != nil {
		t.Fatalf("NewTokenBucket failed: %v", err)
	}
	if b.Config() != cfg {
		t.Errorf("Config() = %+v, want %+v", b.Config(), cfg)
	}
}
