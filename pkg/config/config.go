// Package config handles loading and saving treepick configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/treepick/config.yaml
//   - State:  ~/.local/state/treepick/ (debug log)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treepick/pkg/selection"
)

// TreeConfig holds selection engine defaults.
type TreeConfig struct {
	Mode             string `yaml:"mode,omitempty"`           // edit, view
	SelectionMode    string `yaml:"selection_mode,omitempty"` // multiple, single, none
	Cascade          bool   `yaml:"cascade"`
	DefaultExpandAll bool   `yaml:"default_expand_all"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	EmptyState    string `yaml:"empty_state,omitempty"` // Shown when the forest has no nodes
	ShowSummary   bool   `yaml:"show_summary,omitempty"`
	ConfirmOutput bool   `yaml:"confirm_output,omitempty"` // Ask before writing --out
}

// Config is the top-level configuration for treepick.
type Config struct {
	Tree    TreeConfig `yaml:"tree"`
	UI      UIConfig   `yaml:"ui,omitempty"`
	Sources []string   `yaml:"sources,omitempty"` // Files, sqlite paths or URLs
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Tree: TreeConfig{
			Mode:          "edit",
			SelectionMode: "multiple",
		},
		UI: UIConfig{
			EmptyState: "No items",
		},
	}
}

// ConfigDir returns the XDG config directory for treepick.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "treepick")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "treepick")
}

// StateDir returns the XDG state directory for treepick.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "treepick")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "treepick")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory and applies
// environment overrides. Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		return cfg, cfg.ApplyEnv()
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path, then applies environment
// overrides. Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	for i := range cfg.Sources {
		cfg.Sources[i] = expandHome(cfg.Sources[i])
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides tree settings from TREEPICK_CASCADE and
// TREEPICK_SELECTION_MODE.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("TREEPICK_CASCADE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TREEPICK_CASCADE: %w", err)
		}
		c.Tree.Cascade = b
	}
	if v := os.Getenv("TREEPICK_SELECTION_MODE"); v != "" {
		c.Tree.SelectionMode = v
	}
	return nil
}

// Validate reports invalid enum values.
func (c Config) Validate() error {
	if _, err := selection.ParseMode(c.Tree.Mode); err != nil {
		return fmt.Errorf("tree.mode: %w", err)
	}
	if _, err := selection.ParseSelectionMode(c.Tree.SelectionMode); err != nil {
		return fmt.Errorf("tree.selection_mode: %w", err)
	}
	return nil
}

// SelectionConfig converts the tree section into an engine config.
func (c Config) SelectionConfig() (selection.Config, error) {
	if err := c.Validate(); err != nil {
		return selection.Config{}, err
	}
	mode, _ := selection.ParseMode(c.Tree.Mode)
	selMode, _ := selection.ParseSelectionMode(c.Tree.SelectionMode)
	return selection.Config{
		Mode:             mode,
		SelectionMode:    selMode,
		Cascade:          c.Tree.Cascade,
		DefaultExpandAll: c.Tree.DefaultExpandAll,
	}, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
