package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/treepick/pkg/debug"
	"github.com/vanderheijden86/treepick/pkg/export"
	"github.com/vanderheijden86/treepick/pkg/selection"
)

// summaryPane shows the markdown selection summary rendered by glamour.
type summaryPane struct {
	open     bool
	style    string
	width    int
	renderer *glamour.TermRenderer
	content  string
}

func newSummaryPane(style string) summaryPane {
	return summaryPane{style: style}
}

// render regenerates the pane content. The glamour renderer is rebuilt only
// when the wrap width changes.
func (p *summaryPane) render(e *selection.Engine, title string, width int) {
	if width < 20 {
		width = 20
	}
	md := export.SelectionSummary(e, title)
	if p.renderer == nil || p.width != width {
		p.renderer = p.newRenderer(width)
		p.width = width
	}
	if p.renderer == nil {
		p.content = md
		return
	}
	out, err := p.renderer.Render(md)
	if err != nil {
		debug.Log("ui: summary render failed: %v", err)
		p.content = md
		return
	}
	p.content = strings.TrimRight(out, "\n")
}

func (p *summaryPane) newRenderer(width int) *glamour.TermRenderer {
	styleOpt := glamour.WithAutoStyle()
	if p.style != "" {
		styleOpt = glamour.WithStandardStyle(p.style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		debug.Log("ui: glamour renderer: %v", err)
		return nil
	}
	return r
}

func (p summaryPane) view() string {
	return p.content
}
