package metrics

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimingMetricRecord(t *testing.T) {
	m := newTimingMetric("test")
	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	if m.Count() != 2 {
		t.Fatalf("expected count 2, got %d", m.Count())
	}
	if m.MinNs() != int64(2*time.Millisecond) {
		t.Errorf("unexpected min %d", m.MinNs())
	}
	if m.MaxNs() != int64(4*time.Millisecond) {
		t.Errorf("unexpected max %d", m.MaxNs())
	}
	if m.AvgNs() != int64(3*time.Millisecond) {
		t.Errorf("unexpected avg %d", m.AvgNs())
	}

	stats := m.Stats()
	if stats.Name != "test" || stats.AvgMs != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}

	m.Reset()
	if m.Count() != 0 || m.AvgNs() != 0 {
		t.Error("expected reset metric to be empty")
	}
}

func TestTimingMetricConcurrent(t *testing.T) {
	m := newTimingMetric("concurrent")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Record(time.Microsecond)
		}()
	}
	wg.Wait()
	if m.Count() != 50 {
		t.Errorf("expected 50 records, got %d", m.Count())
	}
}

func TestTimerDisabled(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := newTimingMetric("disabled")
	Timer(m)()
	m.Record(time.Millisecond)
	if m.Count() != 0 {
		t.Errorf("expected nothing recorded while disabled, got %d", m.Count())
	}
	if Timer(nil) == nil {
		t.Error("expected a no-op func for nil metric")
	}
}

func TestWriteReport(t *testing.T) {
	SetEnabled(true)
	ResetAll()
	defer ResetAll()

	var buf bytes.Buffer
	if err := WriteReport(&buf); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected empty report, got %q", buf.String())
	}

	Timer(ToggleSelection)()
	buf.Reset()
	if err := WriteReport(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"name": "toggle_selection"`) || strings.Contains(out, "index_build") {
		t.Errorf("unexpected report %q", out)
	}
}
