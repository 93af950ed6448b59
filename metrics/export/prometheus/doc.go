// Package prometheus renders console counters and the sign-in latency
// histogram in Prometheus text exposition format.
//
// [NewPrometheusExporter] reads [goConsole.Console.MetricsSnapshot] on every
// scrape. Counter names are goconsole_*_total and the histogram is
// goconsole_login_latency_seconds. Nothing is registered globally; callers
// mount [PrometheusExporter.Handler] themselves.
package prometheus
