package ui

import (
	"strings"

	"github.com/vanderheijden86/treepick/pkg/selection"
)

// RenderPlain renders the visible rows as an uncolored ASCII tree, one row
// per line. Used when stdout is not a terminal.
func RenderPlain(e *selection.Engine, emptyState string) string {
	if e.Empty() {
		if emptyState == "" {
			emptyState = "No items"
		}
		return emptyState + "\n"
	}
	cfg := e.Config()
	var sb strings.Builder
	for _, row := range e.Rows() {
		sb.WriteString(buildTreePrefix(row))
		sb.WriteString(expandIndicator(row))
		sb.WriteString(" ")
		if cfg.SelectionMode != selection.SelectionNone {
			sb.WriteString(plainCheckbox(row))
			sb.WriteString(" ")
		}
		label := row.Node.Label
		if label == "" {
			label = row.ID
		}
		sb.WriteString(label)
		sb.WriteString(" (")
		sb.WriteString(row.ID)
		sb.WriteString(")")
		if row.Disabled {
			sb.WriteString(" [disabled]")
		}
		if row.Highlighted {
			sb.WriteString(" *")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func plainCheckbox(row selection.Row) string {
	switch {
	case !row.Selectable:
		return glyphNoControl
	case row.Selected:
		return glyphChecked
	default:
		return glyphUnchecked
	}
}
