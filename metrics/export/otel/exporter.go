package otel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/metrics/export/internaldefs"
	"github.com/MrEthical07/goConsole/view"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is what the exporter reads on every collection. *goConsole.Console
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

type observedCounter struct {
	id         goConsole.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      goConsole.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes console metrics through observable instruments read
// once per collection.
type OTelExporter struct {
	source       Source
	registration metric.Registration

	counters     []observedCounter
	histograms   []observedHistogram
	auditDropped metric.Int64ObservableCounter
	decision     metric.Int64ObservableGauge
	view         metric.Int64ObservableGauge

	observables []metric.Observable
}

// NewOTelExporter registers instruments on meter that read from console.
func NewOTelExporter(meter metric.Meter, console *goConsole.Console) (*OTelExporter, error) {
	if console == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, console)
}

// NewOTelExporterFromSource registers instruments on meter that read from
// source.
func NewOTelExporterFromSource(meter metric.Meter, source Source) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	if err := e.createCounters(meter); err != nil {
		return nil, err
	}
	if err := e.createHistograms(meter); err != nil {
		return nil, err
	}
	if err := e.createStateGauges(meter); err != nil {
		return nil, err
	}

	registration, err := meter.RegisterCallback(e.observe, e.observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *OTelExporter) createCounters(meter metric.Meter) error {
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		e.observables = append(e.observables, ins)
	}

	dropped, err := meter.Int64ObservableCounter(
		"goconsole_audit_dropped_total",
		metric.WithDescription("Audit events dropped because the sink buffer was full."),
	)
	if err != nil {
		return fmt.Errorf("create audit dropped counter: %w", err)
	}
	e.auditDropped = dropped
	e.observables = append(e.observables, dropped)
	return nil
}

// createHistograms exposes each bucket as its own cumulative gauge since the
// console keeps counts without sums.
func (e *OTelExporter) createHistograms(meter metric.Meter) error {
	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := def.Name + "_bucket_le_" + suffix
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			e.observables = append(e.observables, ins)
		}

		count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return fmt.Errorf("create histogram count gauge %s_count: %w", def.Name, err)
		}
		h.count = count
		e.observables = append(e.observables, count)
		e.histograms = append(e.histograms, h)
	}
	return nil
}

func (e *OTelExporter) createStateGauges(meter metric.Meter) error {
	decision, err := meter.Int64ObservableGauge(
		"goconsole_access_decision",
		metric.WithDescription("Current gate decision, 1 for the active one."),
	)
	if err != nil {
		return fmt.Errorf("create decision gauge: %w", err)
	}
	selected, err := meter.Int64ObservableGauge(
		"goconsole_view_selected",
		metric.WithDescription("Currently visible panel, 1 for the active one."),
	)
	if err != nil {
		return fmt.Errorf("create view gauge: %w", err)
	}
	e.decision, e.view = decision, selected
	e.observables = append(e.observables, decision, selected)
	return nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i := range cumulative {
			o.ObserveInt64(h.buckets[i], int64(cumulative[i]))
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))

	current := e.source.Decision()
	for _, d := range decisions {
		o.ObserveInt64(e.decision, flag(d == current), metric.WithAttributes(attribute.String("decision", d.String())))
	}
	selected := e.source.CurrentView()
	for _, v := range view.MenuOrder() {
		o.ObserveInt64(e.view, flag(v == selected), metric.WithAttributes(attribute.String("view", strings.ToLower(v.String()))))
	}
	return nil
}

func flag(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
