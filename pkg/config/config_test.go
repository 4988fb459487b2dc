package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/treepick/pkg/selection"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TREEPICK_CASCADE", "")
	t.Setenv("TREEPICK_SELECTION_MODE", "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Tree.Mode != "edit" {
		t.Errorf("expected default mode 'edit', got %q", cfg.Tree.Mode)
	}
	if cfg.Tree.SelectionMode != "multiple" {
		t.Errorf("expected selection mode 'multiple', got %q", cfg.Tree.SelectionMode)
	}
	if cfg.Tree.Cascade {
		t.Error("expected cascade off by default")
	}
	if cfg.UI.EmptyState == "" {
		t.Error("expected a default empty-state message")
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Tree.SelectionMode != "multiple" {
		t.Errorf("expected default config, got selection mode %q", cfg.Tree.SelectionMode)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
tree:
  mode: view
  selection_mode: single
  cascade: true
  default_expand_all: true
ui:
  empty_state: No categories
  show_summary: true
sources:
  - ~/catalog.json
  - /abs/perms.yaml
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Tree.Mode != "view" || cfg.Tree.SelectionMode != "single" {
		t.Errorf("unexpected tree config %+v", cfg.Tree)
	}
	if !cfg.Tree.Cascade || !cfg.Tree.DefaultExpandAll {
		t.Errorf("expected cascade and expand-all on, got %+v", cfg.Tree)
	}
	if cfg.UI.EmptyState != "No categories" || !cfg.UI.ShowSummary {
		t.Errorf("unexpected ui config %+v", cfg.UI)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}
	// Path should have ~ expanded
	home, _ := os.UserHomeDir()
	if cfg.Sources[0] != filepath.Join(home, "catalog.json") {
		t.Errorf("expected expanded source, got %q", cfg.Sources[0])
	}
	if cfg.Sources[1] != "/abs/perms.yaml" {
		t.Errorf("expected absolute path preserved, got %q", cfg.Sources[1])
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "tree:\n  selection_mode: multiple\n  cascade: false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TREEPICK_CASCADE", "true")
	t.Setenv("TREEPICK_SELECTION_MODE", "single")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Tree.Cascade {
		t.Error("expected env to turn cascade on")
	}
	if cfg.Tree.SelectionMode != "single" {
		t.Errorf("expected env selection mode, got %q", cfg.Tree.SelectionMode)
	}
}

func TestEnvInvalidBool(t *testing.T) {
	t.Setenv("TREEPICK_CASCADE", "sometimes")
	t.Setenv("TREEPICK_SELECTION_MODE", "")
	if _, err := LoadFrom("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for invalid TREEPICK_CASCADE")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		tree    TreeConfig
		wantErr bool
	}{
		{"defaults", DefaultConfig().Tree, false},
		{"empty strings", TreeConfig{}, false},
		{"bad mode", TreeConfig{Mode: "admin"}, true},
		{"bad selection mode", TreeConfig{SelectionMode: "many"}, true},
		{"none", TreeConfig{SelectionMode: "none"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Tree: tt.tree}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSelectionConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tree.Mode = "view"
	cfg.Tree.SelectionMode = "single"
	cfg.Tree.Cascade = true

	sc, err := cfg.SelectionConfig()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Mode != selection.ModeView || sc.SelectionMode != selection.SelectionSingle || !sc.Cascade {
		t.Errorf("unexpected selection config %+v", sc)
	}
	if sc.Ownership != selection.Uncontrolled {
		t.Error("expected uncontrolled ownership by default")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Tree.Cascade = true
	cfg.UI.ConfirmOutput = true
	cfg.Sources = []string{"/data/catalog.db#categories"}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}
	if !loaded.Tree.Cascade || !loaded.UI.ConfirmOutput {
		t.Errorf("unexpected loaded config %+v", loaded)
	}
	if len(loaded.Sources) != 1 || loaded.Sources[0] != "/data/catalog.db#categories" {
		t.Errorf("unexpected sources %v", loaded.Sources)
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdgconf")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdgstate")

	if got := ConfigPath(); got != "/tmp/xdgconf/treepick/config.yaml" {
		t.Errorf("unexpected config path %q", got)
	}
	if got := StateDir(); got != "/tmp/xdgstate/treepick" {
		t.Errorf("unexpected state dir %q", got)
	}
}
