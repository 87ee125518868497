package govern

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/llmgovern/cache"
	"github.com/jonwraymond/llmgovern/observe"
	"github.com/jonwraymond/llmgovern/ratelimit"
)

// InvokeFunc performs the real, rate-limited external call. The
// governor treats its result as an opaque payload.
type InvokeFunc func(ctx context.Context) (cache.Payload, error)

// Limiter gates outbound calls. Satisfied by ratelimit.TokenBucket and
// ratelimit.RetryLimiter.
type Limiter interface {
	Acquire(ctx context.Context, blocking bool) (bool, error)
}

// Governor runs invocations through the governance flow. Construct one
// per governed resource (for example, one per target model endpoint)
// and keep it for the life of the process.
type Governor struct {
	store   cache.Store
	limiter Limiter
	fp      cache.Fingerprinter
	logger  observe.Logger
	metrics observe.Metrics
	tracer  trace.Tracer

	group singleflight.Group
}

// Option configures a Governor.
type Option func(*Governor)

// WithFingerprinter sets the fingerprinter used to key the cache.
func WithFingerprinter(fp cache.Fingerprinter) Option {
	return func(g *Governor) {
		g.fp = fp
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger observe.Logger) Option {
	return func(g *Governor) {
		g.logger = logger.WithComponent("govern")
	}
}

// WithMetrics attaches governance metrics.
func WithMetrics(metrics observe.Metrics) Option {
	return func(g *Governor) {
		g.metrics = metrics
	}
}

// WithTracer attaches a tracer; each invocation gets a span.
func WithTracer(tracer trace.Tracer) Option {
	return func(g *Governor) {
		g.tracer = tracer
	}
}

// New creates a Governor over the given store and limiter. By default
// it fingerprints with the delimiter fingerprinter and telemetry is
// disabled.
func New(store cache.Store, limiter Limiter, opts ...Option) *Governor {
	g := &Governor{
		store:   store,
		limiter: limiter,
		fp:      cache.NewDelimiterFingerprinter(),
		logger:  observe.NopLogger(),
		metrics: observe.NopMetrics(),
		tracer:  tracenoop.NewTracerProvider().Tracer("govern"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Invoke runs one governed invocation. prompt is the serialized
// request content and llmString the serialized invocation parameters;
// together they identify the cache entry. On a hit the cached payload
// is returned without touching the limiter. On a miss a token is
// acquired (blocking) before invoke runs, and a successful result is
// cached. Errors are never cached and a rate-limit failure is never
// converted into stale or default data.
func (g *Governor) Invoke(ctx context.Context, prompt, llmString string, invoke InvokeFunc) (cache.Payload, error) {
	ctx, span := g.tracer.Start(ctx, "govern.invoke")
	defer span.End()

	fingerprint := g.fp.Fingerprint(prompt, llmString)

	if value, ok := g.store.Lookup(ctx, fingerprint); ok {
		g.metrics.RecordLookup(ctx, true)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		g.logger.Debug(ctx, "cache hit")
		return value, nil
	}
	g.metrics.RecordLookup(ctx, false)
	span.SetAttributes(attribute.Bool("cache.hit", false))

	// Coalesce concurrent misses for the same fingerprint into one
	// upstream call; late arrivals share the leader's result.
	result, err, shared := g.group.Do(fingerprint, func() (any, error) {
		return g.invokeAndCache(ctx, fingerprint, invoke)
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("invoke.shared", shared))
	return result.(cache.Payload), nil
}

func (g *Governor) invokeAndCache(ctx context.Context, fingerprint string, invoke InvokeFunc) (any, error) {
	start := time.Now()
	acquired, err := g.limiter.Acquire(ctx, true)
	g.metrics.RecordAcquire(ctx, acquired && err == nil, time.Since(start))
	if err != nil {
		g.logger.Warn(ctx, "rate limit acquisition failed",
			observe.Field{Key: "error", Value: err.Error()})
		return nil, err
	}
	if !acquired {
		// Blocking acquires either succeed or error; guard anyway so a
		// misbehaving Limiter cannot smuggle through a silent false.
		return nil, ratelimit.ErrRateLimitExceeded
	}

	value, err := invoke(ctx)
	if err != nil {
		return nil, err // errors are never cached
	}

	if err := g.store.Update(ctx, fingerprint, value); err != nil {
		g.logger.Warn(ctx, "cache update failed",
			observe.Field{Key: "error", Value: err.Error()})
	}
	return value, nil
}

// Stats returns the cache activity snapshot for periodic export.
func (g *Governor) Stats() cache.Stats {
	return g.store.Stats()
}

// Clear empties the cache.
func (g *Governor) Clear(ctx context.Context) error {
	return g.store.Clear(ctx)
}
