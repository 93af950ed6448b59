package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/identity"
	"github.com/MrEthical07/goConsole/identity/identitytest"
	"github.com/MrEthical07/goConsole/view"
)

type fakeSource struct {
	snapshot goConsole.MetricsSnapshot
	dropped  uint64
	decision goConsole.Decision
	view     view.View
}

func (f fakeSource) MetricsSnapshot() goConsole.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }
func (f fakeSource) Decision() goConsole.Decision               { return f.decision }
func (f fakeSource) CurrentView() view.View                     { return f.view }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goConsole.MetricsSnapshot{
			Counters:   map[goConsole.MetricID]uint64{},
			Histograms: map[goConsole.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goConsole.MetricsSnapshot{
			Counters: map[goConsole.MetricID]uint64{
				goConsole.MetricLoginSuccess: 7,
			},
			Histograms: map[goConsole.MetricID][]uint64{
				goConsole.MetricLoginLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"goconsole_login_success_total 7",
		"goconsole_login_failure_total 0",
		"goconsole_login_latency_seconds_bucket{le=\"0.05\"} 1",
		"goconsole_login_latency_seconds_bucket{le=\"+Inf\"} 36",
		"goconsole_login_latency_seconds_count 36",
		"goconsole_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goConsole.MetricsSnapshot{
			Counters:   map[goConsole.MetricID]uint64{goConsole.MetricLoginSuccess: 1},
			Histograms: map[goConsole.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); got != ContentType {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRenderDecisionAndViewGauges(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goConsole.MetricsSnapshot{
			Counters:   map[goConsole.MetricID]uint64{goConsole.MetricAccessDenied: 1},
			Histograms: map[goConsole.MetricID][]uint64{},
		},
		decision: goConsole.DecisionDenied,
		view:     view.Payments,
	})

	out := exp.Render()
	for _, want := range []string{
		"# TYPE goconsole_access_decision gauge",
		`goconsole_access_decision{decision="denied"} 1`,
		`goconsole_access_decision{decision="granted"} 0`,
		`goconsole_access_decision{decision="sign_in"} 0`,
		`goconsole_view_selected{view="payments"} 1`,
		`goconsole_view_selected{view="dashboard"} 0`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "goconsole_view_selected{"); n != len(view.All()) {
		t.Fatalf("expected one view sample per view, got %d", n)
	}
}

func TestEscapeLabel(t *testing.T) {
	if got := escapeLabel("a\"b\\c\nd"); got != `a\"b\\c\nd` {
		t.Fatalf("unexpected escape: %q", got)
	}
}

func TestExporterReadsConsole(t *testing.T) {
	p := identitytest.New()
	p.AddUser("admin@example.com", "secret", nil)

	cfg := goConsole.DefaultConfig()
	cfg.Access.AllowedEmail = "admin@example.com"
	console, err := goConsole.New().WithConfig(cfg).WithProvider(p).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(console.Close)

	ctx := context.Background()
	if _, err := console.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := console.Login(ctx, identity.Credentials{Email: "admin@example.com", Password: "secret"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	out := NewPrometheusExporter(console).Render()
	if !strings.Contains(out, "goconsole_login_success_total 1") {
		t.Fatalf("expected one login in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goconsole_restore_empty_total 1") {
		t.Fatalf("expected empty restore in output, got:\n%s", out)
	}
	if !strings.Contains(out, `goconsole_access_decision{decision="granted"} 1`) {
		t.Fatalf("expected granted decision in output, got:\n%s", out)
	}
	if !strings.Contains(out, `goconsole_view_selected{view="dashboard"} 1`) {
		t.Fatalf("expected dashboard view in output, got:\n%s", out)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goConsole.MetricsSnapshot{
			Counters: map[goConsole.MetricID]uint64{
				goConsole.MetricLoginSuccess:  1000,
				goConsole.MetricLoginFailure:  40,
				goConsole.MetricLogout:        800,
				goConsole.MetricSessionEvent:  2400,
				goConsole.MetricAccessGranted: 990,
				goConsole.MetricAccessDenied:  10,
				goConsole.MetricViewChanged:   5000,
			},
			Histograms: map[goConsole.MetricID][]uint64{
				goConsole.MetricLoginLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
