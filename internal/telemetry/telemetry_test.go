package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestSetup_WithoutEndpointUsesStdout(t *testing.T) {
	p, err := Setup(context.Background(), Config{})
	if err != nil {
		t.Fatalf("setup returned error: %v", err)
	}
	if p.Logger == nil {
		t.Fatalf("expected a logger")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
}

func TestSetup_WithEndpointInstallsMeterProvider(t *testing.T) {
	ctx := context.Background()
	p, err := Setup(ctx, Config{Endpoint: "localhost:4317", Insecure: true})
	if err != nil {
		t.Fatalf("setup returned error: %v", err)
	}
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		_ = p.Shutdown(shutdownCtx)
		otel.SetMeterProvider(noop.NewMeterProvider())
	})

	mp, ok := p.MeterProvider.(*sdkmetric.MeterProvider)
	if !ok {
		t.Fatalf("expected sdk meter provider, got %T", p.MeterProvider)
	}
	if otel.GetMeterProvider() != mp {
		t.Fatalf("expected meter provider to be registered globally")
	}
}

func TestMetrics_ExportsThroughProvider(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	ctx := context.Background()
	m.IncrementCounter(ctx, "requests.resolve_round", 1)
	m.IncrementCounter(ctx, "requests.resolve_round", 1)
	m.RecordLatency(ctx, "resolve_round", 12*time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	found := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			found[md.Name] = md
		}
	}

	sum, ok := found["requests.resolve_round"].Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 2 {
		t.Fatalf("unexpected counter data: %+v", found["requests.resolve_round"].Data)
	}
	hist, ok := found["request.duration"].Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 || hist.DataPoints[0].Sum != 12 {
		t.Fatalf("unexpected latency data: %+v", found["request.duration"].Data)
	}
}

func TestMetrics_CachesCounters(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementCounter(ctx, "requests.resolve_round", 1)
			m.RecordLatency(ctx, "resolve_round", 5*time.Millisecond)
		}()
	}
	wg.Wait()

	if got := len(m.counters); got != 1 {
		t.Fatalf("expected one cached counter, got %d", got)
	}
}
