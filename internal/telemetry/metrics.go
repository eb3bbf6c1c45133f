package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/touka-aoi/inbox-kingdoms/application/state"
)

const meterName = "github.com/touka-aoi/inbox-kingdoms"

// Metrics は state.MetricsRecorder を OpenTelemetry のメーターで実装する。
// カウンタは名前ごとに初回利用時に作る。
type Metrics struct {
	meter   metric.Meter
	latency metric.Float64Histogram

	mu       sync.Mutex
	counters map[string]metric.Int64Counter
}

var _ state.MetricsRecorder = (*Metrics)(nil)

// NewMetrics は provider が nil ならグローバルの MeterProvider を使う。
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)
	latency, err := meter.Float64Histogram(
		"request.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("service call latency"),
	)
	if err != nil {
		return nil, err
	}
	return &Metrics{
		meter:    meter,
		latency:  latency,
		counters: make(map[string]metric.Int64Counter),
	}, nil
}

func (m *Metrics) RecordLatency(ctx context.Context, endpoint string, duration time.Duration) {
	ms := float64(duration) / float64(time.Millisecond)
	m.latency.Record(ctx, ms, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

func (m *Metrics) IncrementCounter(ctx context.Context, name string, delta int) {
	c, err := m.counter(name)
	if err != nil {
		return
	}
	c.Add(ctx, int64(delta))
}

func (m *Metrics) counter(name string) (metric.Int64Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[name]; ok {
		return c, nil
	}
	c, err := m.meter.Int64Counter(name)
	if err != nil {
		return nil, err
	}
	m.counters[name] = c
	return c, nil
}
