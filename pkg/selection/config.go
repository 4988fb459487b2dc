package selection

import (
	"fmt"
	"strings"
)

// Mode is the interaction mode of the tree.
type Mode int

const (
	ModeEdit Mode = iota // selection controls active (default)
	ModeView             // read-only display; expansion still works
)

func (m Mode) String() string {
	switch m {
	case ModeEdit:
		return "edit"
	case ModeView:
		return "view"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "edit" or "view". The empty string yields ModeEdit.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "edit":
		return ModeEdit, nil
	case "view":
		return ModeView, nil
	}
	return ModeEdit, fmt.Errorf("invalid mode %q (want edit or view)", s)
}

// SelectionMode controls how toggles combine.
type SelectionMode int

const (
	SelectionMultiple SelectionMode = iota // independent toggles (default)
	SelectionSingle                        // at most one selection (one branch under cascade)
	SelectionNone                          // toggles are no-ops
)

func (m SelectionMode) String() string {
	switch m {
	case SelectionMultiple:
		return "multiple"
	case SelectionSingle:
		return "single"
	case SelectionNone:
		return "none"
	default:
		return fmt.Sprintf("SelectionMode(%d)", int(m))
	}
}

// ParseSelectionMode parses "multiple", "single" or "none". The empty
// string yields SelectionMultiple.
func ParseSelectionMode(s string) (SelectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "multiple", "multi":
		return SelectionMultiple, nil
	case "single":
		return SelectionSingle, nil
	case "none":
		return SelectionNone, nil
	}
	return SelectionMultiple, fmt.Errorf("invalid selection mode %q (want multiple, single or none)", s)
}

// Ownership says who holds the selection.
type Ownership int

const (
	// Uncontrolled engines keep the selection themselves; it survives until
	// the forest reference changes.
	Uncontrolled Ownership = iota
	// Controlled engines never store a toggle result. They report the next
	// selection to listeners and display whatever SetSelectedIDs supplies.
	Controlled
)

func (o Ownership) String() string {
	if o == Controlled {
		return "controlled"
	}
	return "uncontrolled"
}

// Config is the engine construction config.
type Config struct {
	Mode             Mode
	SelectionMode    SelectionMode
	Cascade          bool
	DefaultExpandAll bool
	Ownership        Ownership
}
