package selection

import (
	"github.com/vanderheijden86/treepick/pkg/metrics"
	"github.com/vanderheijden86/treepick/pkg/model"
)

// Index holds the lookup tables derived from a forest: parent links,
// pre-order descendant lists and depths. It is rebuilt from scratch for
// every new forest and never patched.
type Index struct {
	nodes       map[string]*model.TreeNode
	parent      map[string]string // "" for roots
	descendants map[string][]string
	depth       map[string]int
	order       []string // pre-order
}

// BuildIndex traverses f once and returns its index. A nil forest yields an
// empty index.
func BuildIndex(f *model.Forest) *Index {
	defer metrics.Timer(metrics.IndexBuild)()

	n := f.Len()
	idx := &Index{
		nodes:       make(map[string]*model.TreeNode, n),
		parent:      make(map[string]string, n),
		descendants: make(map[string][]string, n),
		depth:       make(map[string]int, n),
		order:       make([]string, 0, n),
	}
	if f == nil {
		return idx
	}

	var visit func(node *model.TreeNode, parentID string, depth int) []string
	visit = func(node *model.TreeNode, parentID string, depth int) []string {
		idx.nodes[node.ID] = node
		idx.parent[node.ID] = parentID
		idx.depth[node.ID] = depth
		idx.order = append(idx.order, node.ID)

		var desc []string
		for _, child := range node.Children {
			if child == nil {
				continue
			}
			desc = append(desc, child.ID)
			desc = append(desc, visit(child, node.ID, depth+1)...)
		}
		idx.descendants[node.ID] = desc
		return desc
	}
	for _, root := range f.Roots {
		if root != nil {
			visit(root, "", 0)
		}
	}
	return idx
}

// Len returns the number of indexed nodes.
func (x *Index) Len() int { return len(x.order) }

// Has reports whether id names a node in the forest.
func (x *Index) Has(id string) bool {
	_, ok := x.nodes[id]
	return ok
}

// Node returns the node for id, or nil.
func (x *Index) Node(id string) *model.TreeNode { return x.nodes[id] }

// Parent returns the parent ID of id. ok is false for roots and unknown IDs.
func (x *Index) Parent(id string) (parentID string, ok bool) {
	p := x.parent[id]
	return p, p != ""
}

// Ancestors returns the strict ancestors of id, nearest first.
func (x *Index) Ancestors(id string) []string {
	var out []string
	for p, ok := x.Parent(id); ok; p, ok = x.Parent(p) {
		out = append(out, p)
	}
	return out
}

// Descendants returns every descendant of id in pre-order. The slice is
// shared with the index and must not be modified.
func (x *Index) Descendants(id string) []string { return x.descendants[id] }

// Branch returns id followed by all its descendants.
func (x *Index) Branch(id string) []string {
	if !x.Has(id) {
		return nil
	}
	desc := x.descendants[id]
	out := make([]string, 0, len(desc)+1)
	out = append(out, id)
	return append(out, desc...)
}

// Depth returns the nesting level of id (0 = root).
func (x *Index) Depth(id string) int { return x.depth[id] }

// IsBranch reports whether id has children.
func (x *Index) IsBranch(id string) bool {
	n := x.nodes[id]
	return n != nil && n.HasChildren()
}

// Order returns all IDs in pre-order. The slice must not be modified.
func (x *Index) Order() []string { return x.order }

// DefaultExpanded returns the expansion set for a freshly loaded forest:
// depth-0 branches, or every branch when expandAll is set.
func (x *Index) DefaultExpanded(expandAll bool) IDSet {
	return x.expandedToDepth(expandAll, 1)
}

func (x *Index) expandedToDepth(all bool, depth int) IDSet {
	out := make(IDSet)
	for _, id := range x.order {
		if !x.IsBranch(id) {
			continue
		}
		if all || x.depth[id] < depth {
			out.Add(id)
		}
	}
	return out
}

// Closure returns the downward closure of raw: every ID in raw plus all
// descendants of each. IDs unknown to the index are carried through.
// Closure(Closure(s)) == Closure(s).
func Closure(x *Index, raw IDSet) IDSet {
	defer metrics.Timer(metrics.ClosureCompute)()

	out := raw.Clone()
	for id := range raw {
		out.Add(x.Descendants(id)...)
	}
	return out
}
