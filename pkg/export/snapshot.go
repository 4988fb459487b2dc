package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/treepick/pkg/selection"
)

// SnapshotOptions controls snapshot export.
type SnapshotOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive)
	Title  string // Rendered in the summary block
	Engine *selection.Engine
}

var (
	colorBackdrop  = color.RGBA{R: 0xf7, G: 0xf7, B: 0xf9, A: 0xff}
	colorHeaderBG  = color.RGBA{R: 0xe6, G: 0xe9, B: 0xf0, A: 0xff}
	colorText      = color.RGBA{R: 0x1f, G: 0x23, B: 0x28, A: 0xff}
	colorSubtle    = color.RGBA{R: 0x5b, G: 0x63, B: 0x6e, A: 0xff}
	colorGuide     = color.RGBA{R: 0xc4, G: 0xc9, B: 0xd2, A: 0xff}
	colorSelected  = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
	colorBox       = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorStroke    = color.RGBA{R: 0x8a, G: 0x93, B: 0x9e, A: 0xff}
	colorDisabled  = color.RGBA{R: 0xb0, G: 0xb5, B: 0xbd, A: 0xff}
	colorHighlight = color.RGBA{R: 0xfd, G: 0xf1, B: 0xc4, A: 0xff}
)

const (
	snapshotHeader = 96.0
	snapshotRowH   = 24.0
	snapshotIndent = 20.0
	snapshotMargin = 24.0
	charWidth      = 7.0 // basicfont.Face7x13
)

type snapshotRow struct {
	selection.Row
	Label string
	X, Y  float64
}

type snapshotLayout struct {
	Rows     []snapshotRow
	Width    int
	Height   int
	Title    string
	Total    int
	Visible  int
	Selected int
}

// SaveSnapshot renders the visible rows of the engine with their selection
// state as SVG or PNG.
func SaveSnapshot(opts SnapshotOptions) error {
	if opts.Engine == nil {
		return fmt.Errorf("engine is required for snapshot export")
	}
	format, err := snapshotFormat(&opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildSnapshotLayout(opts)
	switch format {
	case "png":
		return renderPNG(opts.Path, layout)
	default:
		file, err := os.Create(opts.Path)
		if err != nil {
			return err
		}
		defer file.Close()
		return renderSVG(file, layout)
	}
}

// WriteSVG renders the snapshot as SVG to w.
func WriteSVG(w io.Writer, e *selection.Engine, title string) error {
	return renderSVG(w, buildSnapshotLayout(SnapshotOptions{Engine: e, Title: title}))
}

func snapshotFormat(opts *SnapshotOptions) (string, error) {
	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = "png"
		default:
			format = "svg"
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return "", fmt.Errorf("output path is required")
	}
	return format, nil
}

func buildSnapshotLayout(opts SnapshotOptions) snapshotLayout {
	e := opts.Engine
	rows := e.Rows()
	title := opts.Title
	if title == "" {
		title = "treepick snapshot"
	}

	layout := snapshotLayout{
		Title:    title,
		Total:    e.Index().Len(),
		Visible:  len(rows),
		Selected: len(e.Selected()),
	}

	maxRight := 420.0
	for i, r := range rows {
		label := truncate(labelOf(r.Node), 60)
		sr := snapshotRow{
			Row:   r,
			Label: label,
			X:     snapshotMargin + float64(r.Depth)*snapshotIndent,
			Y:     snapshotHeader + float64(i)*snapshotRowH,
		}
		if right := sr.X + 44 + float64(len([]rune(label)))*charWidth; right > maxRight {
			maxRight = right
		}
		layout.Rows = append(layout.Rows, sr)
	}
	layout.Width = int(maxRight + snapshotMargin)
	layout.Height = int(snapshotHeader + float64(len(rows))*snapshotRowH + snapshotMargin)
	return layout
}

func (l snapshotLayout) summary() string {
	return fmt.Sprintf("nodes: %d  visible: %d  selected: %d", l.Total, l.Visible, l.Selected)
}

func rowTextColor(r selection.Row) color.RGBA {
	if r.Disabled {
		return colorDisabled
	}
	return colorText
}

func renderPNG(path string, layout snapshotLayout) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(12, 12, float64(layout.Width)-24, snapshotHeader-28, 8)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Title, 28, 36, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(layout.summary(), 28, 56, 0, 0.5)

	for _, r := range layout.Rows {
		drawRowPNG(dc, r)
	}
	return dc.SavePNG(path)
}

func drawRowPNG(dc *gg.Context, r snapshotRow) {
	cy := r.Y + snapshotRowH/2

	if r.Highlighted {
		dc.SetColor(colorHighlight)
		dc.DrawRectangle(r.X-4, r.Y+2, float64(dc.Width())-r.X-snapshotMargin, snapshotRowH-4)
		dc.Fill()
	}

	// vertical guides for ancestors with siblings below
	dc.SetColor(colorGuide)
	dc.SetLineWidth(1)
	for d, cont := range r.Guides {
		if cont {
			x := snapshotMargin + float64(d)*snapshotIndent + 5
			dc.DrawLine(x, r.Y, x, r.Y+snapshotRowH)
			dc.Stroke()
		}
	}

	if r.HasChildren {
		marker := "+"
		if r.Expanded {
			marker = "-"
		}
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(marker, r.X+2, cy, 0, 0.5)
	}

	if r.Selectable {
		boxX := r.X + 14
		if r.Selected {
			dc.SetColor(colorSelected)
		} else {
			dc.SetColor(colorBox)
		}
		dc.DrawRoundedRectangle(boxX, cy-6, 12, 12, 2)
		dc.Fill()
		dc.SetColor(colorStroke)
		dc.DrawRoundedRectangle(boxX, cy-6, 12, 12, 2)
		dc.Stroke()
	}

	dc.SetColor(rowTextColor(r.Row))
	dc.DrawStringAnchored(r.Label, r.X+34, cy, 0, 0.5)
}

func renderSVG(w io.Writer, layout snapshotLayout) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(12, 12, layout.Width-24, int(snapshotHeader-28), 8, 8, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	canvas.Text(28, 40, layout.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(28, 60, layout.summary(), fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))

	for _, r := range layout.Rows {
		x := int(r.X)
		y := int(r.Y)
		cy := y + int(snapshotRowH/2)

		if r.Highlighted {
			canvas.Rect(x-4, y+2, layout.Width-x-int(snapshotMargin), int(snapshotRowH)-4,
				fmt.Sprintf("fill:%s", css(colorHighlight)))
		}
		for d, cont := range r.Guides {
			if cont {
				gx := int(snapshotMargin+float64(d)*snapshotIndent) + 5
				canvas.Line(gx, y, gx, y+int(snapshotRowH), fmt.Sprintf("stroke:%s;stroke-width:1", css(colorGuide)))
			}
		}
		if r.HasChildren {
			marker := "+"
			if r.Expanded {
				marker = "-"
			}
			canvas.Text(x+2, cy+4, marker, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
		}
		if r.Selectable {
			fill := colorBox
			if r.Selected {
				fill = colorSelected
			}
			canvas.Roundrect(x+14, cy-6, 12, 12, 2, 2,
				fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(fill), css(colorStroke)))
		}
		canvas.Text(x+34, cy+4, r.Label,
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(rowTextColor(r.Row))))
	}

	canvas.End()
	return nil
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
