package internaldefs

import (
	goConsole "github.com/MrEthical07/goConsole"
)

// CounterDef binds a console counter to its exported name.
type CounterDef struct {
	ID   goConsole.MetricID
	Name string
	Help string
}

// HistogramDef binds a console histogram to its exported name.
type HistogramDef struct {
	ID   goConsole.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goConsole.MetricRestoreSession, Name: "goconsole_restore_session_total", Help: "Startup restores that found a persisted session."},
	{ID: goConsole.MetricRestoreEmpty, Name: "goconsole_restore_empty_total", Help: "Startup restores that found no session."},
	{ID: goConsole.MetricRestoreFailure, Name: "goconsole_restore_failure_total", Help: "Startup restores that failed."},
	{ID: goConsole.MetricLoginSuccess, Name: "goconsole_login_success_total", Help: "Successful sign-ins."},
	{ID: goConsole.MetricLoginFailure, Name: "goconsole_login_failure_total", Help: "Failed sign-ins."},
	{ID: goConsole.MetricLoginRateLimited, Name: "goconsole_login_rate_limited_total", Help: "Sign-ins rejected by the provider rate limit."},
	{ID: goConsole.MetricLoginSuperseded, Name: "goconsole_login_superseded_total", Help: "Sign-in results discarded after a later sign-out."},
	{ID: goConsole.MetricLogout, Name: "goconsole_logout_total", Help: "Sign-outs."},
	{ID: goConsole.MetricLogoutFailure, Name: "goconsole_logout_failure_total", Help: "Sign-outs the provider failed to confirm."},
	{ID: goConsole.MetricSessionEvent, Name: "goconsole_session_event_total", Help: "Provider session events received."},
	{ID: goConsole.MetricSessionEventIgnored, Name: "goconsole_session_event_ignored_total", Help: "Provider session events that changed nothing."},
	{ID: goConsole.MetricSessionChanged, Name: "goconsole_session_changed_total", Help: "Published session state changes."},
	{ID: goConsole.MetricAccessGranted, Name: "goconsole_access_granted_total", Help: "Gate decisions that granted access."},
	{ID: goConsole.MetricAccessDenied, Name: "goconsole_access_denied_total", Help: "Gate decisions that denied access."},
	{ID: goConsole.MetricViewChanged, Name: "goconsole_view_changed_total", Help: "View selections."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goConsole.MetricLoginLatency, Name: "goconsole_login_latency_seconds", Help: "Provider sign-in latency."},
}

// HistogramBounds are the bucket upper bounds in seconds, as le labels.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// HistogramBoundSuffix are the same bounds in instrument-name-safe form.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed bucket array, zero-filling or
// truncating as needed.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
