// Package metrics times the hot paths of treepick: index build, cascade
// closure and toggles in the selection engine, plus forest loading and
// rendering. Collection is lock-free and on by default; TREEPICK_METRICS=0
// turns it off.
//
// Usage:
//
//	func rebuild() {
//	    defer metrics.Timer(metrics.IndexBuild)()
//	    // ...
//	}
package metrics

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("TREEPICK_METRICS") != "0")
}

// Enabled reports whether measurements are recorded.
func Enabled() bool { return enabled.Load() }

// SetEnabled turns recording on or off.
func SetEnabled(e bool) { enabled.Store(e) }

// TimingMetric accumulates durations of one named operation. Safe for
// concurrent use.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	max   atomic.Int64
	min   atomic.Int64 // 0 until the first measurement
}

var registry []*TimingMetric

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

func register(name string) *TimingMetric {
	m := newTimingMetric(name)
	registry = append(registry, m)
	return m
}

// The engine, loader and UI timings reported by --stats.
var (
	IndexBuild      = register("index_build")
	ClosureCompute  = register("closure_compute")
	ToggleSelection = register("toggle_selection")
	ForestLoad      = register("forest_load")
	UIRender        = register("ui_render")
)

// Record adds one measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.total.Add(ns)
	swapWhile(&m.max, ns, func(old int64) bool { return ns > old })
	swapWhile(&m.min, ns, func(old int64) bool { return old == 0 || ns < old })
}

// swapWhile stores v into a as long as better(current) holds.
func swapWhile(a *atomic.Int64, v int64, better func(old int64) bool) {
	for {
		old := a.Load()
		if !better(old) || a.CompareAndSwap(old, v) {
			return
		}
	}
}

func (m *TimingMetric) Name() string { return m.name }
func (m *TimingMetric) Count() int64 { return m.count.Load() }
func (m *TimingMetric) TotalNs() int64 { return m.total.Load() }
func (m *TimingMetric) MaxNs() int64 { return m.max.Load() }

// MinNs returns the fastest measurement, or 0 when there is none.
func (m *TimingMetric) MinNs() int64 { return m.min.Load() }

// AvgNs returns the mean measurement, or 0 when there is none.
func (m *TimingMetric) AvgNs() int64 {
	n := m.count.Load()
	if n == 0 {
		return 0
	}
	return m.total.Load() / n
}

// Stats snapshots the metric in milliseconds.
func (m *TimingMetric) Stats() TimingStats {
	return TimingStats{
		Name:    m.name,
		Count:   m.Count(),
		TotalMs: millis(m.TotalNs()),
		AvgMs:   millis(m.AvgNs()),
		MaxMs:   millis(m.MaxNs()),
		MinMs:   millis(m.MinNs()),
	}
}

func millis(ns int64) float64 { return float64(ns) / 1e6 }

// Reset clears all measurements.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.max.Store(0)
	m.min.Store(0)
}

// TimingStats is one entry of the --stats report.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer starts a measurement; calling the returned func records it.
func Timer(m *TimingMetric) func() {
	if m == nil || !Enabled() {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

// AllTimingMetrics returns the registered metrics in registration order.
func AllTimingMetrics() []*TimingMetric {
	return append([]*TimingMetric(nil), registry...)
}

// ResetAll clears every registered metric.
func ResetAll() {
	for _, m := range registry {
		m.Reset()
	}
}

// AllTimingStats returns stats for the metrics that have measurements.
func AllTimingStats() []TimingStats {
	stats := make([]TimingStats, 0, len(registry))
	for _, m := range registry {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

// WriteReport writes AllTimingStats as indented JSON.
func WriteReport(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(AllTimingStats())
}
