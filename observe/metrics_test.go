package observe

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	if m == nil {
		t.Fatalf("%s metric not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", name, m.Data)
	}
	if len(sum.DataPoints) == 0 {
		t.Fatalf("%s: no data points", name)
	}
	return sum.DataPoints[0].Value
}

func TestMetrics_RecordLookup(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("test")

	m, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	ctx := context.Background()
	m.RecordLookup(ctx, true)
	m.RecordLookup(ctx, true)
	m.RecordLookup(ctx, false)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	if hits := counterValue(t, rm, "govern.cache.hits"); hits != 2 {
		t.Errorf("cache hits = %d, want 2", hits)
	}
	if misses := counterValue(t, rm, "govern.cache.misses"); misses != 1 {
		t.Errorf("cache misses = %d, want 1", misses)
	}
}

func TestMetrics_RecordAcquire(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("test")

	m, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	ctx := context.Background()
	m.RecordAcquire(ctx, true, 30*time.Millisecond)
	m.RecordAcquire(ctx, false, 500*time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	if acquired := counterValue(t, rm, "govern.ratelimit.acquired"); acquired != 1 {
		t.Errorf("acquired = %d, want 1", acquired)
	}
	if rejected := counterValue(t, rm, "govern.ratelimit.rejected"); rejected != 1 {
		t.Errorf("rejected = %d, want 1", rejected)
	}

	hist := findMetric(rm, "govern.ratelimit.wait_ms")
	if hist == nil {
		t.Fatal("govern.ratelimit.wait_ms metric not found")
	}
	data, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", hist.Data)
	}
	if len(data.DataPoints) == 0 || data.DataPoints[0].Count != 2 {
		t.Error("wait histogram should have recorded 2 observations")
	}
}

func TestNopMetrics(t *testing.T) {
	m := NopMetrics()
	// Must not panic.
	m.RecordLookup(context.Background(), true)
	m.RecordAcquire(context.Background(), false, time.Second)
}
