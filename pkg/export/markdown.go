// Package export renders the state of a selection engine for people and
// tools: markdown checklists, a JSON selection document, SQLite tables and
// SVG/PNG snapshots.
package export

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/selection"
)

// Markdown renders the whole forest as a nested checklist:
//
//	- [x] Label (id)
//
// Nodes that cannot be selected get a plain bullet.
func Markdown(e *selection.Engine, title string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	}
	if e.Empty() {
		sb.WriteString("_No items._\n")
		return sb.String()
	}

	e.Forest().Walk(func(n *model.TreeNode, depth int) bool {
		sb.WriteString(strings.Repeat("  ", depth))
		switch {
		case !n.IsSelectable():
			sb.WriteString("- ")
		case e.IsSelected(n.ID):
			sb.WriteString("- [x] ")
		default:
			sb.WriteString("- [ ] ")
		}
		sb.WriteString(fmt.Sprintf("%s (`%s`)", escapeMarkdown(labelOf(n)), n.ID))
		if n.Disabled {
			sb.WriteString(" _disabled_")
		}
		sb.WriteString("\n")
		return true
	})
	return sb.String()
}

// SelectionSummary renders the selected nodes grouped under their root, for
// the summary pane and the markdown export header.
func SelectionSummary(e *selection.Engine, title string) string {
	var sb strings.Builder
	if title == "" {
		title = "Selection"
	}
	selected := e.Selected()
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))

	cfg := e.Config()
	sb.WriteString("| Setting | Value |\n|---------|-------|\n")
	sb.WriteString(fmt.Sprintf("| **Selected** | %d of %d |\n", len(selected), e.Index().Len()))
	sb.WriteString(fmt.Sprintf("| **Mode** | %s / %s |\n", cfg.Mode, cfg.SelectionMode))
	sb.WriteString(fmt.Sprintf("| **Cascade** | %v |\n\n", cfg.Cascade))

	if len(selected) == 0 {
		sb.WriteString("_Nothing selected._\n")
		return sb.String()
	}

	idx := e.Index()
	groups := make(map[string][]string)
	var rootOrder []string
	var unknown []string
	for _, id := range idx.Order() {
		if !e.IsSelected(id) {
			continue
		}
		root := id
		if anc := idx.Ancestors(id); len(anc) > 0 {
			root = anc[len(anc)-1]
		}
		if _, ok := groups[root]; !ok {
			rootOrder = append(rootOrder, root)
		}
		groups[root] = append(groups[root], id)
	}
	// Controlled owners may hold IDs the current forest does not know
	for _, id := range selected {
		if !idx.Has(id) {
			unknown = append(unknown, id)
		}
	}

	for _, root := range rootOrder {
		sb.WriteString(fmt.Sprintf("### %s\n\n", escapeMarkdown(labelOf(idx.Node(root)))))
		for _, id := range groups[root] {
			sb.WriteString(fmt.Sprintf("- %s (`%s`)\n", escapeMarkdown(labelOf(idx.Node(id))), id))
		}
		sb.WriteString("\n")
	}
	if len(unknown) > 0 {
		sb.WriteString("### Not in this tree\n\n")
		for _, id := range unknown {
			sb.WriteString(fmt.Sprintf("- `%s`\n", id))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func labelOf(n *model.TreeNode) string {
	if n == nil {
		return ""
	}
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"*", "\\*",
	"_", "\\_",
	"`", "\\`",
	"[", "\\[",
	"]", "\\]",
	"\n", " ",
	"\r", "",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
