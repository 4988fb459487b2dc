package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treepick/pkg/export"
	"github.com/vanderheijden86/treepick/pkg/loader"
	"github.com/vanderheijden86/treepick/pkg/metrics"
	"github.com/vanderheijden86/treepick/pkg/version"
)

const fixtureJSON = `[
  {"id": "A", "label": "Alpha", "children": [
    {"id": "B", "label": "Beta", "children": [
      {"id": "B1", "label": "B one"},
      {"id": "B2", "label": "B two"}
    ]},
    {"id": "C", "label": "Gamma"}
  ]},
  {"id": "D", "label": "Delta"}
]`

// isolate points config lookups at an empty directory and clears the
// environment overrides.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TREEPICK_CASCADE", "")
	t.Setenv("TREEPICK_SELECTION_MODE", "")
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(fixtureJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestResolveCascade(t *testing.T) {
	isolate(t)
	src := writeFixture(t)

	out, _, err := runCLI(t, "resolve", "--cascade", "--toggle", "B", "--toggle", "B1", src)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out != "B2\n" {
		t.Fatalf("resolve output = %q, want %q", out, "B2\n")
	}
}

func TestResolveSingleMode(t *testing.T) {
	isolate(t)
	src := writeFixture(t)

	out, _, err := runCLI(t, "resolve", "--selection-mode", "single", "--toggle", "A", "--toggle", "C", src)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out != "C\n" {
		t.Fatalf("resolve output = %q", out)
	}
}

func TestResolveJSONAndSeed(t *testing.T) {
	isolate(t)
	src := writeFixture(t)

	out, stderr, err := runCLI(t, "resolve", "--json", "--select", "C", "--toggle", "D", "--toggle", "nope", src)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.Contains(stderr, `unknown id "nope"`) {
		t.Errorf("stderr = %q", stderr)
	}
	var doc export.SelectionDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if want := []string{"C", "D"}; !reflect.DeepEqual(doc.Selected, want) {
		t.Fatalf("selected = %v, want %v", doc.Selected, want)
	}
	if doc.Count != 2 || doc.Mode != "multiple" {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestRowsCommand(t *testing.T) {
	isolate(t)
	src := writeFixture(t)

	out, _, err := runCLI(t, "rows", "--select", "C", src)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	want := "▾ [ ] Alpha (A)\n" +
		"│   ├── ▸ [ ] Beta (B)\n" +
		"│   └── • [x] Gamma (C)\n" +
		"• [ ] Delta (D)\n"
	if out != want {
		t.Fatalf("rows:\n%s\nwant:\n%s", out, want)
	}

	out, _, err = runCLI(t, "rows", "--depth", "0", src)
	if err != nil {
		t.Fatalf("rows --depth 0: %v", err)
	}
	if want := "▸ [ ] Alpha (A)\n• [ ] Delta (D)\n"; out != want {
		t.Fatalf("rows --depth 0 = %q, want %q", out, want)
	}

	out, _, err = runCLI(t, "rows", "--expand-all", "--selection-mode", "none", src)
	if err != nil {
		t.Fatalf("rows --expand-all: %v", err)
	}
	if !strings.Contains(out, "│   │   ├── • B one (B1)\n") {
		t.Fatalf("rows --expand-all:\n%s", out)
	}
}

func TestPickWithoutTerminalPrintsRows(t *testing.T) {
	isolate(t)
	src := writeFixture(t)
	orig := isTerminalFd
	isTerminalFd = func(int) bool { return false }
	t.Cleanup(func() { isTerminalFd = orig })

	out, _, err := runCLI(t, "pick", "--select", "D", src)
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if !strings.Contains(out, "• [x] Delta (D)") {
		t.Fatalf("pick fallback output:\n%s", out)
	}
}

func TestExportFormats(t *testing.T) {
	isolate(t)
	src := writeFixture(t)
	dir := t.TempDir()

	out, _, err := runCLI(t, "export", "--select", "C", src)
	if err != nil {
		t.Fatalf("export md: %v", err)
	}
	if !strings.Contains(out, "- [x] Gamma (`C`)") || !strings.Contains(out, "## Selection") {
		t.Fatalf("markdown export:\n%s", out)
	}

	out, _, err = runCLI(t, "export", "--format", "svg", src)
	if err != nil {
		t.Fatalf("export svg: %v", err)
	}
	if !strings.Contains(out, "<svg") {
		t.Fatalf("svg export missing <svg: %.80q", out)
	}

	jsonPath := filepath.Join(dir, "sel.json")
	if _, _, err := runCLI(t, "export", "--format", "json", "-o", jsonPath, "--select", "B", "--cascade", src); err != nil {
		t.Fatalf("export json: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var doc export.SelectionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if want := []string{"B", "B1", "B2"}; !reflect.DeepEqual(doc.Selected, want) {
		t.Fatalf("json export selected = %v, want %v", doc.Selected, want)
	}

	dbPath := filepath.Join(dir, "tree.db")
	if _, _, err := runCLI(t, "export", "--format", "sqlite", "--output", dbPath, src); err != nil {
		t.Fatalf("export sqlite: %v", err)
	}
	forest, err := loader.Load(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("reload sqlite export: %v", err)
	}
	if forest.Len() != 6 {
		t.Fatalf("sqlite round trip has %d nodes, want 6", forest.Len())
	}

	pngPath := filepath.Join(dir, "tree.png")
	if _, _, err := runCLI(t, "export", "--format", "png", "--output", pngPath, src); err != nil {
		t.Fatalf("export png: %v", err)
	}
	if info, err := os.Stat(pngPath); err != nil || info.Size() == 0 {
		t.Fatalf("png not written: %v", err)
	}

	if _, _, err := runCLI(t, "export", "--format", "png", src); err == nil {
		t.Fatal("png without --output should fail")
	}
	if _, _, err := runCLI(t, "export", "--format", "pdf", src); err == nil {
		t.Fatal("unknown format should fail")
	}
}

func TestConfigPrecedence(t *testing.T) {
	isolate(t)
	src := writeFixture(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfgYAML := "tree:\n  cascade: true\n  selection_mode: single\nsources:\n  - " + src + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	// File: single + cascade, sources from the config
	out, _, err := runCLI(t, "resolve", "--config", cfgPath, "--toggle", "B")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out != "B\nB1\nB2\n" {
		t.Fatalf("file config output = %q", out)
	}

	// Env beats file
	t.Setenv("TREEPICK_SELECTION_MODE", "multiple")
	out, _, err = runCLI(t, "resolve", "--config", cfgPath, "--toggle", "B", "--toggle", "C")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out != "B\nB1\nB2\nC\n" {
		t.Fatalf("env override output = %q", out)
	}

	// Flags beat env
	out, _, err = runCLI(t, "resolve", "--config", cfgPath, "--cascade=false", "--toggle", "B")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out != "B\n" {
		t.Fatalf("flag override output = %q", out)
	}
}

func TestInvalidFlagsAndSources(t *testing.T) {
	isolate(t)
	src := writeFixture(t)

	if _, _, err := runCLI(t, "resolve", "--selection-mode", "some", src); err == nil {
		t.Error("invalid selection mode accepted")
	}
	if _, _, err := runCLI(t, "rows"); err == nil || !strings.Contains(err.Error(), "no sources") {
		t.Errorf("missing sources: err = %v", err)
	}
	if _, _, err := runCLI(t, "rows", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestStatsReport(t *testing.T) {
	isolate(t)
	src := writeFixture(t)
	t.Cleanup(func() {
		metrics.SetEnabled(false)
		metrics.ResetAll()
	})

	_, stderr, err := runCLI(t, "resolve", "--stats", "--toggle", "A", src)
	if err != nil {
		t.Fatalf("resolve --stats: %v", err)
	}
	var stats []metrics.TimingStats
	if err := json.Unmarshal([]byte(stderr), &stats); err != nil {
		t.Fatalf("decode stats %q: %v", stderr, err)
	}
	names := map[string]bool{}
	for _, s := range stats {
		names[s.Name] = true
	}
	for _, want := range []string{"forest_load", "toggle_selection"} {
		if !names[want] {
			t.Errorf("stats missing %s: %v", want, names)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, _, err := runCLI(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "treepick "+version.Version+"\n" {
		t.Fatalf("version = %q", out)
	}
}

func TestWatchableSources(t *testing.T) {
	got := watchableSources([]string{"a.json", "https://example.com/nodes", "tree.db#items", "notes.txt"})
	want := []string{"a.json", "tree.db"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("watchableSources = %v, want %v", got, want)
	}
}
