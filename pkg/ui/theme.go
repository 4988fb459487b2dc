package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treepick/pkg/model"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Tones
	Info    lipgloss.AdaptiveColor
	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Danger  lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	// Styles
	Base     lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style

	// Pre-computed row styles, created once instead of per frame
	MutedText     lipgloss.Style // meta column, guides
	SecondaryText lipgloss.Style // ids
	PrimaryBold   lipgloss.Style // cursor row label
	CheckOn       lipgloss.Style // [x]
	CheckOff      lipgloss.Style // [ ]
	Marked        lipgloss.Style // highlighted rows
	Disabled      lipgloss.Style
	StatusError   lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   ColorPrimary,
		Secondary: ColorSecondary,
		Subtext:   ColorSubtext,

		Info:    ColorInfo,
		Success: ColorSuccess,
		Warning: ColorWarning,
		Danger:  ColorDanger,

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     ColorMuted,
	}

	t.Base = r.NewStyle().Foreground(ColorText)

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.SecondaryText = r.NewStyle().Foreground(t.Secondary)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.CheckOn = r.NewStyle().Foreground(t.Success).Bold(true)
	t.CheckOff = r.NewStyle().Foreground(t.Subtext)
	t.Marked = r.NewStyle().Foreground(ThemeFg("#F1FA8C")).Bold(true)
	t.Disabled = r.NewStyle().Foreground(t.Muted).Faint(true)
	t.StatusError = r.NewStyle().Foreground(t.Danger).Bold(true)

	return t
}

// ToneColor maps a node tone to its label color.
func (t Theme) ToneColor(tone model.Tone) lipgloss.AdaptiveColor {
	switch tone {
	case model.ToneInfo:
		return t.Info
	case model.ToneSuccess:
		return t.Success
	case model.ToneWarning:
		return t.Warning
	case model.ToneDanger:
		return t.Danger
	case model.ToneMuted:
		return t.Muted
	default:
		return ColorText
	}
}

// TestTheme returns a theme whose renderer writes nowhere, so rendered
// output carries no color sequences.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(io.Discard))
}
