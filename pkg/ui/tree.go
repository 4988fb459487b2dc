package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treepick/pkg/debug"
	"github.com/vanderheijden86/treepick/pkg/metrics"
	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/selection"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// ForestReloadedMsg delivers a freshly loaded forest, usually from a file
// watcher. A non-nil Err keeps the current forest and shows the error.
type ForestReloadedMsg struct {
	Forest *model.Forest
	Source string
	Err    error
}

// Options configures the picker model.
type Options struct {
	Title       string
	EmptyState  string // shown when the forest has no nodes
	ShowSummary bool   // open the summary pane at start
	// GlamourStyle is a glamour standard style name ("dark", "light",
	// "notty"); empty means auto-detect.
	GlamourStyle string
	KeyMap       *KeyMap
}

// Model is the bubbletea model of the tree picker. It owns an engine and,
// for Controlled engines, the selection value fed back into it.
type Model struct {
	engine *selection.Engine
	opts   Options
	theme  Theme
	keys   KeyMap
	help   help.Model

	rows           []selection.Row
	cursor         int
	viewportOffset int
	width          int
	height         int

	// Controlled ownership: the model is the owner of the selection.
	controlled bool
	value      []string

	summary summaryPane

	status    string
	statusErr bool

	done    bool
	aborted bool
}

// NewModel wraps engine in a picker model.
func NewModel(engine *selection.Engine, opts Options) Model {
	keys := DefaultKeyMap()
	if opts.KeyMap != nil {
		keys = *opts.KeyMap
	}
	if opts.Title == "" {
		opts.Title = "Select items"
	}
	if opts.EmptyState == "" {
		opts.EmptyState = "No items"
	}
	m := Model{
		engine:     engine,
		opts:       opts,
		theme:      DefaultTheme(lipgloss.NewRenderer(os.Stdout)),
		keys:       keys,
		help:       help.New(),
		controlled: engine.Config().Ownership == selection.Controlled,
		value:      engine.Selected(),
		summary:    newSummaryPane(opts.GlamourStyle),
	}
	m.summary.open = opts.ShowSummary
	m.refresh()
	m.refreshSummary()
	return m
}

// WithTheme replaces the theme.
func (m Model) WithTheme(t Theme) Model {
	m.theme = t
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ensureCursorVisible()
		m.refreshSummary()
		return m, nil

	case ForestReloadedMsg:
		m.reload(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Abort) {
		m.aborted = true
		return m, tea.Quit
	}
	// The summary pane swallows everything except closing it.
	if m.summary.open && !m.sideBySide() {
		if key.Matches(msg, m.keys.Summary, m.keys.Quit) {
			m.summary.open = false
		}
		return m, nil
	}

	m.status = ""
	m.statusErr = false

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.done = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.MoveDown()
	case key.Matches(msg, m.keys.PageUp):
		m.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.ensureCursorVisible()
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = len(m.rows) - 1
		m.ensureCursorVisible()
	case key.Matches(msg, m.keys.Toggle):
		m.ToggleCurrent()
	case key.Matches(msg, m.keys.Expand):
		m.ExpandOrMoveToChild()
	case key.Matches(msg, m.keys.Collapse):
		m.CollapseOrJumpToParent()
	case key.Matches(msg, m.keys.ExpandAll):
		m.engine.ExpandAll()
		m.refresh()
	case key.Matches(msg, m.keys.CollapseAll):
		m.engine.CollapseAll()
		m.refresh()
	case key.Matches(msg, m.keys.Clear):
		m.apply(m.engine.ClearSelection())
	case key.Matches(msg, m.keys.Copy):
		m.copySelection()
	case key.Matches(msg, m.keys.Summary):
		m.summary.open = !m.summary.open
		m.refreshSummary()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// ToggleCurrent toggles the selection of the node under the cursor.
func (m *Model) ToggleCurrent() {
	row, ok := m.CurrentRow()
	if !ok {
		return
	}
	if !m.engine.CanToggle(row.ID) {
		m.setStatus(fmt.Sprintf("%s cannot be selected", row.ID), false)
		return
	}
	m.apply(m.engine.ToggleSelection(row.ID))
}

// apply takes a selection result from the engine. Controlled engines never
// store it, so the model records the value and feeds it back.
func (m *Model) apply(next []string, changed bool) {
	if !changed {
		return
	}
	if m.controlled {
		m.value = next
		m.engine.SetSelectedIDs(m.value)
	}
	debug.Log("ui: selection now %d ids", len(next))
	m.refresh()
	m.refreshSummary()
}

func (m *Model) reload(msg ForestReloadedMsg) {
	if msg.Err != nil {
		m.setStatus(fmt.Sprintf("reload failed: %v", msg.Err), true)
		return
	}
	if !m.engine.SetForest(msg.Forest) {
		return
	}
	if m.controlled {
		m.engine.SetSelectedIDs(m.value)
	}
	m.refresh()
	m.refreshSummary()
	source := msg.Source
	if source == "" {
		source = "forest"
	}
	m.setStatus(fmt.Sprintf("reloaded %s (%d nodes)", source, msg.Forest.Len()), false)
}

func (m *Model) copySelection() {
	ids := m.engine.Selected()
	if len(ids) == 0 {
		m.setStatus("nothing selected", false)
		return
	}
	if err := writeClipboard(strings.Join(ids, "\n")); err != nil {
		m.setStatus(fmt.Sprintf("clipboard: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("copied %d ids", len(ids)), false)
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// refresh re-reads the visible rows, keeping the cursor on the same node
// when it is still visible.
func (m *Model) refresh() {
	current := ""
	if row, ok := m.CurrentRow(); ok {
		current = row.ID
	}
	m.rows = m.engine.Rows()
	if current != "" && m.SelectByID(current) {
		return
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureCursorVisible()
}

// Selected returns the resolved selection.
func (m Model) Selected() []string { return m.engine.Selected() }

// Engine returns the wrapped engine.
func (m Model) Engine() *selection.Engine { return m.engine }

// Done reports whether the user confirmed with q/esc.
func (m Model) Done() bool { return m.done }

// Aborted reports whether the user cancelled with ctrl+c.
func (m Model) Aborted() bool { return m.aborted }

// Status returns the current status line text.
func (m Model) Status() string { return m.status }

// Cursor returns the cursor index into the visible rows.
func (m Model) Cursor() int { return m.cursor }

// Rows returns the visible rows as last rendered.
func (m Model) Rows() []selection.Row { return m.rows }

// CurrentRow returns the row under the cursor.
func (m Model) CurrentRow() (selection.Row, bool) {
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		return m.rows[m.cursor], true
	}
	return selection.Row{}, false
}

// SelectByID moves the cursor to the visible row with the given id.
func (m *Model) SelectByID(id string) bool {
	for i, r := range m.rows {
		if r.ID == id {
			m.cursor = i
			m.ensureCursorVisible()
			return true
		}
	}
	return false
}

// MoveDown moves the cursor down one row.
func (m *Model) MoveDown() {
	if m.cursor < len(m.rows)-1 {
		m.cursor++
		m.ensureCursorVisible()
	}
}

// MoveUp moves the cursor up one row.
func (m *Model) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
		m.ensureCursorVisible()
	}
}

// ExpandOrMoveToChild handles the → / l key:
// - collapsed branch: expand it
// - expanded branch: move to its first child
// - leaf: nothing
func (m *Model) ExpandOrMoveToChild() {
	row, ok := m.CurrentRow()
	if !ok || !row.HasChildren {
		return
	}
	if !row.Expanded {
		m.engine.ToggleExpand(row.ID)
		m.refresh()
		return
	}
	if m.cursor+1 < len(m.rows) && m.rows[m.cursor+1].Depth == row.Depth+1 {
		m.cursor++
		m.ensureCursorVisible()
	}
}

// CollapseOrJumpToParent handles the ← / h key:
// - expanded branch: collapse it
// - otherwise: jump to the parent
func (m *Model) CollapseOrJumpToParent() {
	row, ok := m.CurrentRow()
	if !ok {
		return
	}
	if row.HasChildren && row.Expanded {
		m.engine.ToggleExpand(row.ID)
		m.refresh()
		return
	}
	if parent, ok := m.engine.Index().Parent(row.ID); ok {
		m.SelectByID(parent)
	}
}

// PageDown moves the cursor down by half a viewport.
func (m *Model) PageDown() {
	m.cursor += m.halfPage()
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureCursorVisible()
}

// PageUp moves the cursor up by half a viewport.
func (m *Model) PageUp() {
	m.cursor -= m.halfPage()
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureCursorVisible()
}

func (m *Model) halfPage() int {
	n := m.effectiveVisibleCount() / 2
	if n < 1 {
		n = 1
	}
	return n
}

// chromeLines is the header, status and help lines around the rows.
const chromeLines = 3

func (m *Model) effectiveVisibleCount() int {
	visible := m.height - chromeLines
	if m.height <= 0 {
		visible = 20
	}
	// Reserve a line for the position indicator when scrolling is needed
	if len(m.rows) > visible {
		visible--
	}
	if visible < 1 {
		visible = 1
	}
	return visible
}

// ensureCursorVisible scrolls just enough to keep the cursor on screen.
func (m *Model) ensureCursorVisible() {
	if len(m.rows) == 0 {
		m.viewportOffset = 0
		return
	}
	visible := m.effectiveVisibleCount()
	if m.cursor < m.viewportOffset {
		m.viewportOffset = m.cursor
	}
	if m.cursor >= m.viewportOffset+visible {
		m.viewportOffset = m.cursor - visible + 1
	}
	maxOffset := len(m.rows) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.viewportOffset > maxOffset {
		m.viewportOffset = maxOffset
	}
	if m.viewportOffset < 0 {
		m.viewportOffset = 0
	}
}

// visibleRange returns [start, end) of the rows inside the viewport.
func (m *Model) visibleRange() (start, end int) {
	if len(m.rows) == 0 {
		return 0, 0
	}
	visible := m.effectiveVisibleCount()
	start = m.viewportOffset
	if start < 0 {
		start = 0
	}
	end = start + visible
	if end > len(m.rows) {
		end = len(m.rows)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	tree := m.renderTree()
	if m.summary.open {
		if m.sideBySide() {
			tree = lipgloss.JoinHorizontal(lipgloss.Top, tree, "  ", m.summary.view())
		} else {
			tree = m.summary.view()
		}
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(tree)
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

// sideBySide reports whether the summary pane fits next to the tree.
func (m Model) sideBySide() bool {
	return m.width >= 100
}

func (m Model) treeWidth() int {
	width := m.width
	if width <= 0 {
		width = 80
	}
	if m.summary.open && m.sideBySide() {
		width = width / 2
	}
	// One cell short of the edge to avoid terminal wrapping
	return width - 1
}

func (m Model) renderHeader() string {
	count := len(m.engine.Selected())
	title := m.theme.Header.Render(m.opts.Title)
	info := m.theme.MutedText.Render(fmt.Sprintf(" %d selected", count))
	cfg := m.engine.Config()
	if cfg.Mode == selection.ModeView {
		info += m.theme.MutedText.Render(" · read-only")
	}
	return title + info
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return RenderDivider(m.treeWidth())
	}
	if m.statusErr {
		return m.theme.StatusError.Render(m.status)
	}
	return m.theme.MutedText.Render(m.status)
}

func (m Model) renderTree() string {
	if m.engine.Empty() {
		return m.renderEmptyState()
	}

	var sb strings.Builder
	start, end := m.visibleRange()
	width := m.treeWidth()
	for i := start; i < end; i++ {
		line := m.renderRow(m.rows[i], i == m.cursor, width)
		if i == m.cursor {
			line = m.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		if i < end-1 {
			sb.WriteString("\n")
		}
	}

	if len(m.rows) > m.effectiveVisibleCount() {
		sb.WriteString("\n")
		sb.WriteString(m.renderPositionIndicator(start, end))
	}
	return sb.String()
}

func (m Model) renderEmptyState() string {
	return m.theme.MutedText.Render(m.opts.EmptyState)
}

// renderPositionIndicator renders "start-end of total" using 1-indexed rows.
func (m Model) renderPositionIndicator(start, end int) string {
	return m.theme.MutedText.Render(fmt.Sprintf(" %d-%d of %d", start+1, end, len(m.rows)))
}

// renderRow renders one visible node:
// [guides] [expand] [checkbox] [icon] label ... meta
func (m Model) renderRow(row selection.Row, isCursor bool, width int) string {
	var left strings.Builder

	prefix := buildTreePrefix(row)
	left.WriteString(m.theme.MutedText.Render(prefix))
	used := lipgloss.Width(prefix)

	left.WriteString(m.theme.SecondaryText.Render(expandIndicator(row)))
	left.WriteString(" ")
	used += 2

	box := m.checkbox(row)
	if box != "" {
		left.WriteString(box)
		left.WriteString(" ")
		used += lipgloss.Width(box) + 1
	}

	if icon := row.Node.Icon; icon != "" {
		left.WriteString(icon)
		left.WriteString(" ")
		used += lipgloss.Width(icon) + 1
	}

	meta := row.Node.Meta
	metaWidth := 0
	if meta != "" && width > 40 {
		meta = truncate(meta, width/4)
		metaWidth = lipgloss.Width(meta) + 1
	} else {
		meta = ""
	}

	labelWidth := width - used - metaWidth
	if labelWidth < 5 {
		labelWidth = 5
	}
	label := row.Node.Label
	if label == "" {
		label = row.ID
	}
	label = padRight(truncate(label, labelWidth), labelWidth)
	left.WriteString(m.labelStyle(row, isCursor).Render(label))

	if meta != "" {
		left.WriteString(" ")
		left.WriteString(m.theme.MutedText.Render(meta))
	}
	return left.String()
}

func (m Model) labelStyle(row selection.Row, isCursor bool) lipgloss.Style {
	switch {
	case row.Disabled:
		return m.theme.Disabled
	case isCursor:
		return m.theme.PrimaryBold
	case row.Highlighted:
		return m.theme.Marked
	}
	return m.theme.Renderer.NewStyle().Foreground(m.theme.ToneColor(row.Node.Tone))
}

// checkbox returns the selection control for row, or "" when the tree has
// no selection controls at all.
func (m Model) checkbox(row selection.Row) string {
	cfg := m.engine.Config()
	if cfg.SelectionMode == selection.SelectionNone {
		return ""
	}
	if !row.Selectable {
		return glyphNoControl
	}
	on, off := glyphChecked, glyphUnchecked
	if cfg.SelectionMode == selection.SelectionSingle {
		on, off = "(•)", "( )"
	}
	if row.Selected {
		return m.theme.CheckOn.Render(on)
	}
	if row.Disabled {
		return m.theme.Disabled.Render(off)
	}
	return m.theme.CheckOff.Render(off)
}

// buildTreePrefix builds the indentation and branch characters for a row.
func buildTreePrefix(row selection.Row) string {
	if row.Depth == 0 {
		return ""
	}
	var sb strings.Builder
	for _, more := range row.Guides {
		if more {
			sb.WriteString("│   ")
		} else {
			sb.WriteString("    ")
		}
	}
	if row.Last {
		sb.WriteString("└── ")
	} else {
		sb.WriteString("├── ")
	}
	return sb.String()
}

func expandIndicator(row selection.Row) string {
	if !row.HasChildren {
		return glyphLeaf
	}
	if row.Expanded {
		return glyphExpanded
	}
	return glyphCollapsed
}

func (m *Model) refreshSummary() {
	if !m.summary.open {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	if m.sideBySide() {
		width = width/2 - 2
	}
	m.summary.render(m.engine, m.opts.Title, width)
}
