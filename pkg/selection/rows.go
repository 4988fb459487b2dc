package selection

import "github.com/vanderheijden86/treepick/pkg/model"

// Row is what a view layer needs to draw one visible node.
type Row struct {
	Node        *model.TreeNode
	ID          string
	Depth       int
	HasChildren bool
	Expanded    bool
	Selected    bool // resolved selection
	Highlighted bool
	Disabled    bool
	Selectable  bool
	Last        bool   // last among its siblings
	Guides      []bool // Guides[d]: the ancestor at depth d has siblings below it
}

// Rows returns the visible nodes in pre-order. A node is visible when all
// its ancestors are expanded.
func (e *Engine) Rows() []Row {
	if e.forest == nil {
		return nil
	}
	rows := make([]Row, 0, e.idx.Len())
	var walk func(nodes []*model.TreeNode, depth int, guides []bool)
	walk = func(nodes []*model.TreeNode, depth int, guides []bool) {
		live := liveNodes(nodes)
		for i, node := range live {
			last := i == len(live)-1
			row := Row{
				Node:        node,
				ID:          node.ID,
				Depth:       depth,
				HasChildren: node.HasChildren(),
				Expanded:    e.expanded.Has(node.ID),
				Selected:    e.resolved.Has(node.ID),
				Highlighted: e.highlight.Has(node.ID),
				Disabled:    node.Disabled,
				Selectable:  node.IsSelectable(),
				Last:        last,
				Guides:      guides,
			}
			rows = append(rows, row)
			if row.HasChildren && row.Expanded {
				childGuides := make([]bool, len(guides)+1)
				copy(childGuides, guides)
				childGuides[len(guides)] = !last
				walk(node.Children, depth+1, childGuides)
			}
		}
	}
	walk(e.forest.Roots, 0, nil)
	return rows
}

func liveNodes(nodes []*model.TreeNode) []*model.TreeNode {
	for _, n := range nodes {
		if n == nil {
			out := make([]*model.TreeNode, 0, len(nodes))
			for _, m := range nodes {
				if m != nil {
					out = append(out, m)
				}
			}
			return out
		}
	}
	return nodes
}
