package otel

import (
	"context"
	"sync"
	"testing"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/view"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goConsole.MetricsSnapshot
	dropped  uint64
	decision goConsole.Decision
	view     view.View
}

func (f *fakeSource) MetricsSnapshot() goConsole.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goConsole.MetricsSnapshot{
		Counters:   make(map[goConsole.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[goConsole.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func (f *fakeSource) Decision() goConsole.Decision {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.decision
}

func (f *fakeSource) CurrentView() view.View {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.view
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goconsole-test")

	src := &fakeSource{
		snapshot: goConsole.MetricsSnapshot{
			Counters: map[goConsole.MetricID]uint64{
				goConsole.MetricLoginSuccess: 3,
			},
			Histograms: map[goConsole.MetricID][]uint64{
				goConsole.MetricLoginLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped:  1,
		decision: goConsole.DecisionGranted,
		view:     view.Awards,
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected collected metrics, got none")
	}

	if got := sumOf(t, rm, "goconsole_login_success_total"); got != 3 {
		t.Fatalf("login success = %d, want 3", got)
	}
	if got := sumOf(t, rm, "goconsole_audit_dropped_total"); got != 1 {
		t.Fatalf("audit dropped = %d, want 1", got)
	}
	if got := gaugeOf(t, rm, "goconsole_login_latency_seconds_bucket_le_0_25"); got != 3 {
		t.Fatalf("le 0.25 bucket = %d, want 3", got)
	}
	if got := gaugeOf(t, rm, "goconsole_login_latency_seconds_count"); got != 8 {
		t.Fatalf("histogram count = %d, want 8", got)
	}

	decisions := labelledGauge(t, rm, "goconsole_access_decision", "decision")
	if len(decisions) != 4 || decisions["granted"] != 1 || decisions["denied"] != 0 {
		t.Fatalf("decision gauge = %v", decisions)
	}
	views := labelledGauge(t, rm, "goconsole_view_selected", "view")
	if len(views) != len(view.All()) || views["awards"] != 1 || views["dashboard"] != 0 {
		t.Fatalf("view gauge = %v", views)
	}
}

func labelledGauge(t *testing.T, rm metricdata.ResourceMetrics, name string, key attribute.Key) map[string]int64 {
	t.Helper()
	g, ok := findMetric(t, rm, name).Data.(metricdata.Gauge[int64])
	if !ok {
		t.Fatalf("metric %q is not an int64 gauge", name)
	}
	out := make(map[string]int64, len(g.DataPoints))
	for _, dp := range g.DataPoints {
		v, ok := dp.Attributes.Value(key)
		if !ok {
			t.Fatalf("metric %q point missing %s", name, key)
		}
		out[v.AsString()] = dp.Value
	}
	return out
}

func findMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %q not collected", name)
	return metricdata.Metrics{}
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	sum, ok := findMetric(t, rm, name).Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 {
		t.Fatalf("metric %q is not a single-point int64 sum", name)
	}
	return sum.DataPoints[0].Value
}

func gaugeOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	g, ok := findMetric(t, rm, name).Data.(metricdata.Gauge[int64])
	if !ok || len(g.DataPoints) != 1 {
		t.Fatalf("metric %q is not a single-point int64 gauge", name)
	}
	return g.DataPoints[0].Value
}

func TestNewOTelExporterRejectsNilConsole(t *testing.T) {
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	if _, err := NewOTelExporter(provider.Meter("goconsole-test"), nil); err == nil {
		t.Fatal("expected error for nil console")
	}
}

func TestExporterRejectsNilMeter(t *testing.T) {
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err == nil {
		t.Fatal("expected error for nil meter")
	}
}

func TestExporterRejectsNilSource(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goconsole-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goconsole-test")

	src := &fakeSource{
		snapshot: goConsole.MetricsSnapshot{
			Counters: map[goConsole.MetricID]uint64{
				goConsole.MetricLoginSuccess: 1,
			},
			Histograms: map[goConsole.MetricID][]uint64{
				goConsole.MetricLoginLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goConsole.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
