package export

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treepick/pkg/selection"
)

// SelectionDocument is the JSON form of an engine's selection state.
type SelectionDocument struct {
	Selected []string `json:"selected"`
	Raw      []string `json:"raw"`
	Expanded []string `json:"expanded"`
	Count    int      `json:"count"`
	Cascade  bool     `json:"cascade"`
	Mode     string   `json:"selection_mode"`
}

// NewSelectionDocument captures the engine's current state.
func NewSelectionDocument(e *selection.Engine) SelectionDocument {
	selected := e.Selected()
	return SelectionDocument{
		Selected: selected,
		Raw:      e.RawSelected(),
		Expanded: e.Expanded(),
		Count:    len(selected),
		Cascade:  e.Config().Cascade,
		Mode:     e.Config().SelectionMode.String(),
	}
}

// SelectionJSON returns the indented selection document.
func SelectionJSON(e *selection.Engine) ([]byte, error) {
	data, err := json.MarshalIndent(NewSelectionDocument(e), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal selection: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteSelectionJSON writes the selection document to path.
func WriteSelectionJSON(e *selection.Engine, path string) error {
	data, err := SelectionJSON(e)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write selection: %w", err)
	}
	return nil
}
