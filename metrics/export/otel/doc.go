// Package otel publishes console metrics as OpenTelemetry observable
// instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per console counter
// and one Int64ObservableGauge per cumulative latency bucket. A single
// callback reads [goConsole.Console.MetricsSnapshot] on each collection. The
// caller owns the MeterProvider.
package otel
