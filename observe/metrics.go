package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache and rate limiter activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup records one cache lookup and whether it hit.
	RecordLookup(ctx context.Context, hit bool)

	// RecordAcquire records one rate limit acquisition attempt, its
	// outcome, and how long the caller waited for it.
	RecordAcquire(ctx context.Context, acquired bool, wait time.Duration)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter       metric.Meter
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
	acquired    metric.Int64Counter
	rejected    metric.Int64Counter
	waitHist    metric.Float64Histogram
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	cacheHits, err := meter.Int64Counter(
		"govern.cache.hits",
		metric.WithDescription("Total number of cache hits"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"govern.cache.misses",
		metric.WithDescription("Total number of cache misses"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	acquired, err := meter.Int64Counter(
		"govern.ratelimit.acquired",
		metric.WithDescription("Total number of successful rate limit acquisitions"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	rejected, err := meter.Int64Counter(
		"govern.ratelimit.rejected",
		metric.WithDescription("Total number of failed rate limit acquisitions"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	waitHist, err := meter.Float64Histogram(
		"govern.ratelimit.wait_ms",
		metric.WithDescription("Time spent waiting for a rate limit token in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:       meter,
		cacheHits:   cacheHits,
		cacheMisses: cacheMisses,
		acquired:    acquired,
		rejected:    rejected,
		waitHist:    waitHist,
	}, nil
}

// RecordLookup records one cache lookup outcome.
func (m *metricsImpl) RecordLookup(ctx context.Context, hit bool) {
	if hit {
		m.cacheHits.Add(ctx, 1)
		return
	}
	m.cacheMisses.Add(ctx, 1)
}

// RecordAcquire records one acquisition attempt and its wait time.
func (m *metricsImpl) RecordAcquire(ctx context.Context, acquired bool, wait time.Duration) {
	if acquired {
		m.acquired.Add(ctx, 1)
	} else {
		m.rejected.Add(ctx, 1)
	}
	m.waitHist.Record(ctx, float64(wait.Milliseconds()))
}

// NopMetrics returns a metrics implementation that does nothing.
func NopMetrics() Metrics {
	return &nopMetrics{}
}

type nopMetrics struct{}

func (m *nopMetrics) RecordLookup(ctx context.Context, hit bool)                          {}
func (m *nopMetrics) RecordAcquire(ctx context.Context, acquired bool, wait time.Duration) {}
