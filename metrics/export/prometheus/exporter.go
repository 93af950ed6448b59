package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/metrics/export/internaldefs"
	"github.com/MrEthical07/goConsole/view"
)

// ContentType is the text exposition format version served by Handler.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Source is what the exporter reads on every scrape. *goConsole.Console
// implements it.
type Source interface {
	MetricsSnapshot() goConsole.MetricsSnapshot
	AuditDropped() uint64
	Decision() goConsole.Decision
	CurrentView() view.View
}

var decisions = []goConsole.Decision{
	goConsole.DecisionPending,
	goConsole.DecisionSignIn,
	goConsole.DecisionDenied,
	goConsole.DecisionGranted,
}

// PrometheusExporter renders console metrics in Prometheus text exposition
// format.
type PrometheusExporter struct {
	source Source
}

// NewPrometheusExporter reads from console.
func NewPrometheusExporter(console *goConsole.Console) *PrometheusExporter {
	return &PrometheusExporter{source: console}
}

// NewPrometheusExporterFromSource reads from any Source.
func NewPrometheusExporterFromSource(source Source) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render on every request.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", ContentType)
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics, or "" when metrics are disabled and no
// audit events were dropped.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	w := writer{}
	w.b.Grow(8192)

	for _, def := range internaldefs.CounterDefs {
		w.header(def.Name, def.Help, "counter")
		w.sample(def.Name, "", "", snapshot.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		w.histogram(def.Name, def.Help, internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID])))
	}

	w.header("goconsole_audit_dropped_total", "Audit events dropped because the sink buffer was full.", "counter")
	w.sample("goconsole_audit_dropped_total", "", "", dropped)

	current := p.source.Decision()
	w.header("goconsole_access_decision", "Current gate decision, 1 for the active one.", "gauge")
	for _, d := range decisions {
		w.sample("goconsole_access_decision", "decision", d.String(), boolValue(d == current))
	}

	selected := p.source.CurrentView()
	w.header("goconsole_view_selected", "Currently visible panel, 1 for the active one.", "gauge")
	for _, v := range view.MenuOrder() {
		w.sample("goconsole_view_selected", "view", strings.ToLower(v.String()), boolValue(v == selected))
	}

	return w.b.String()
}

type writer struct {
	b strings.Builder
}

func (w *writer) header(name, help, kind string) {
	w.b.WriteString("# HELP ")
	w.b.WriteString(name)
	w.b.WriteByte(' ')
	w.b.WriteString(escapeHelp(help))
	w.b.WriteString("\n# TYPE ")
	w.b.WriteString(name)
	w.b.WriteByte(' ')
	w.b.WriteString(kind)
	w.b.WriteByte('\n')
}

// sample writes one line with at most one label.
func (w *writer) sample(name, label, value string, v uint64) {
	w.b.WriteString(name)
	if label != "" {
		w.b.WriteByte('{')
		w.b.WriteString(label)
		w.b.WriteString(`="`)
		w.b.WriteString(escapeLabel(value))
		w.b.WriteString(`"}`)
	}
	w.b.WriteByte(' ')
	w.b.WriteString(strconv.FormatUint(v, 10))
	w.b.WriteByte('\n')
}

func (w *writer) histogram(name, help string, cumulative [8]uint64) {
	w.header(name, help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		w.sample(name+"_bucket", "le", le, cumulative[i])
	}
	w.sample(name+"_count", "", "", cumulative[len(cumulative)-1])
	// Snapshots carry no sum.
	w.sample(name+"_sum", "", "", 0)
}

func boolValue(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, `\`, `\\`)
	return strings.ReplaceAll(help, "\n", `\n`)
}

func escapeLabel(v string) string {
	v = escapeHelp(v)
	return strings.ReplaceAll(v, `"`, `\"`)
}
