// Package config loads governance settings from YAML and builds the
// configured cache store and rate limiter from them. Environment
// variables in the file are expanded before parsing, so deployment
// secrets and per-host tuning can be injected without templating.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/llmgovern/cache"
	"github.com/jonwraymond/llmgovern/observe"
	"github.com/jonwraymond/llmgovern/ratelimit"
)

// Config holds all governance configuration.
type Config struct {
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry"`
	Observe   ObserveConfig   `yaml:"observe"`
}

// CacheConfig controls the response cache. A zero TTL disables
// expiration; a zero MaxSize disables the entry cap.
type CacheConfig struct {
	MaxSize int           `yaml:"max_size"`
	TTL     time.Duration `yaml:"ttl"`
}

// RateLimitConfig controls the token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	CheckInterval     time.Duration `yaml:"check_interval"`
	MaxBucketSize     float64       `yaml:"max_bucket_size"`
}

// RetryConfig controls the bounded retry layer around the bucket.
type RetryConfig struct {
	UseExponentialBackoff bool          `yaml:"use_exponential_backoff"`
	InitialBackoff        time.Duration `yaml:"initial_backoff"`
	MaxBackoff            time.Duration `yaml:"max_backoff"`
	MaxRetries            int           `yaml:"max_retries"`
	LogEvents             bool          `yaml:"log_events"`
}

// ObserveConfig controls telemetry wiring.
type ObserveConfig struct {
	ServiceName     string  `yaml:"service_name"`
	LogLevel        string  `yaml:"log_level"`
	MetricsExporter string  `yaml:"metrics_exporter"`
	TracingExporter string  `yaml:"tracing_exporter"`
	TraceSamplePct  float64 `yaml:"trace_sample_pct"`
}

// Default returns a Config with sensible defaults: an unbounded cache
// with a one hour TTL, one request per second, and telemetry disabled.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			TTL: time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			CheckInterval:     100 * time.Millisecond,
			MaxBucketSize:     10,
		},
		Retry: RetryConfig{
			UseExponentialBackoff: true,
			InitialBackoff:        100 * time.Millisecond,
			MaxBackoff:            60 * time.Second,
			MaxRetries:            5,
		},
		Observe: ObserveConfig{
			ServiceName:     "llmgovern",
			LogLevel:        "info",
			MetricsExporter: "none",
			TracingExporter: "none",
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// BucketConfig maps the rate limit section onto a bucket config.
func (c *Config) BucketConfig() ratelimit.Config {
	return ratelimit.Config{
		RequestsPerSecond: c.RateLimit.RequestsPerSecond,
		CheckInterval:     c.RateLimit.CheckInterval,
		MaxBucketSize:     c.RateLimit.MaxBucketSize,
	}
}

// Policy maps the retry section onto a retry policy.
func (c *Config) Policy() ratelimit.Policy {
	return ratelimit.Policy{
		UseExponentialBackoff: c.Retry.UseExponentialBackoff,
		InitialBackoff:        c.Retry.InitialBackoff,
		MaxBackoff:            c.Retry.MaxBackoff,
		MaxRetries:            c.Retry.MaxRetries,
		LogEvents:             c.Retry.LogEvents,
	}
}

// ObserverConfig maps the observe section onto telemetry config.
func (c *Config) ObserverConfig() observe.Config {
	return observe.Config{
		ServiceName: c.Observe.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   c.Observe.TracingExporter != "" && c.Observe.TracingExporter != "none",
			Exporter:  c.Observe.TracingExporter,
			SamplePct: c.Observe.TraceSamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Observe.MetricsExporter != "" && c.Observe.MetricsExporter != "none",
			Exporter: c.Observe.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Observe.LogLevel,
		},
	}
}

// Store builds the configured cache store: a TTL store when a TTL is
// set, a plain memory store otherwise, size-capped either way when
// MaxSize is positive.
func (c *Config) Store() (cache.Store, error) {
	if c.Cache.MaxSize < 0 {
		return nil, fmt.Errorf("cache config: %w", cache.ErrInvalidMaxSize)
	}
	if c.Cache.TTL > 0 {
		if c.Cache.MaxSize > 0 {
			return cache.NewTTLStoreWithMaxSize(c.Cache.TTL, c.Cache.MaxSize)
		}
		return cache.NewTTLStore(c.Cache.TTL)
	}
	if c.Cache.MaxSize > 0 {
		return cache.NewMemoryStoreWithMaxSize(c.Cache.MaxSize)
	}
	return cache.NewMemoryStore(), nil
}

// Limiter builds the configured retry limiter over a fresh bucket.
func (c *Config) Limiter() (*ratelimit.RetryLimiter, error) {
	bucket, err := ratelimit.NewTokenBucket(c.BucketConfig())
	if err != nil {
		return nil, fmt.Errorf("rate limit config: %w", err)
	}
	return ratelimit.NewRetryLimiter(bucket, c.Policy()), nil
}
