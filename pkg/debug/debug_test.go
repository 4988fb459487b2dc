package debug

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLogDisabledWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(false)
	defer SetEnabled(false)

	Log("hidden %d", 1)
	LogTiming("hidden", time.Millisecond)
	LogEnterExit("hidden")()
	if buf.Len() != 0 {
		t.Errorf("expected no output while disabled, got %q", buf.String())
	}
}

func TestLogEnabled(t *testing.T) {
	var buf bytes.Buffer
	SetEnabled(true)
	SetOutput(&buf)
	defer SetEnabled(false)

	Log("loaded %d nodes", 3)
	LogIf(false, "skipped")
	LogIf(true, "kept")
	Dump("ids", []string{"a"})

	out := buf.String()
	if !strings.Contains(out, "[TREEPICK_DEBUG] ") {
		t.Errorf("expected prefix in output, got %q", out)
	}
	for _, want := range []string{"loaded 3 nodes", "kept", "ids: []string = [a]"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output %q", want, out)
		}
	}
	if strings.Contains(out, "skipped") {
		t.Error("LogIf(false) should not write")
	}
}
