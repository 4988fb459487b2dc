package model

import "sort"

// BuildForest links flat records into a forest using ParentID.
//
// Rules:
//   - Children are ordered by Position, then input order
//   - A record whose parent is missing becomes a root rather than disappearing
//   - Duplicate IDs: the first record wins
//   - Parent cycles are broken: the first record of a cycle (input order)
//     becomes a root and the back edge is dropped
func BuildForest(records []Record) *Forest {
	forest := &Forest{}
	if len(records) == 0 {
		return forest
	}

	// Step 1: dedupe and index by ID, preserving input order
	byID := make(map[string]*Record, len(records))
	ordered := make([]*Record, 0, len(records))
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			continue
		}
		if _, dup := byID[rec.ID]; dup {
			continue
		}
		byID[rec.ID] = rec
		ordered = append(ordered, rec)
	}

	// Step 2: parent -> children index, and roots (no parent or dangling parent)
	childrenOf := make(map[string][]*Record)
	var rootRecs []*Record
	for _, rec := range ordered {
		if rec.ParentID == "" || rec.ParentID == rec.ID {
			rootRecs = append(rootRecs, rec)
			continue
		}
		if _, ok := byID[rec.ParentID]; !ok {
			rootRecs = append(rootRecs, rec)
			continue
		}
		childrenOf[rec.ParentID] = append(childrenOf[rec.ParentID], rec)
	}

	// Step 3: build subtrees; visited spans the whole build since IDs are unique
	visited := make(map[string]bool, len(ordered))
	for _, rec := range sortRecords(rootRecs) {
		forest.Roots = append(forest.Roots, buildNode(rec, childrenOf, visited))
	}

	// Step 4: whatever is still unvisited only hangs off a cycle
	for _, rec := range ordered {
		if !visited[rec.ID] {
			forest.Roots = append(forest.Roots, buildNode(rec, childrenOf, visited))
		}
	}

	return forest
}

func buildNode(rec *Record, childrenOf map[string][]*Record, visited map[string]bool) *TreeNode {
	visited[rec.ID] = true
	node := rec.node()
	for _, child := range sortRecords(childrenOf[rec.ID]) {
		if visited[child.ID] {
			continue // back edge of a cycle
		}
		node.Children = append(node.Children, buildNode(child, childrenOf, visited))
	}
	return node
}

func sortRecords(recs []*Record) []*Record {
	if len(recs) <= 1 {
		return recs
	}
	sorted := make([]*Record, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})
	return sorted
}

// Flatten is the inverse of BuildForest: it returns one Record per node in
// pre-order, with Position set to the index among siblings.
func Flatten(f *Forest) []Record {
	var out []Record
	var walk func(nodes []*TreeNode, parentID string)
	walk = func(nodes []*TreeNode, parentID string) {
		for i, n := range nodes {
			if n == nil {
				continue
			}
			out = append(out, Record{
				ID:         n.ID,
				ParentID:   parentID,
				Label:      n.Label,
				Position:   i,
				Disabled:   n.Disabled,
				Selectable: n.Selectable,
				Icon:       n.Icon,
				Meta:       n.Meta,
				Tone:       n.Tone,
			})
			walk(n.Children, n.ID)
		}
	}
	if f != nil {
		walk(f.Roots, "")
	}
	return out
}

// Merge concatenates the roots of several forests. A node whose ID was
// already seen earlier in pre-order is dropped with its subtree, so the
// result has unique IDs. The inputs are not modified.
func Merge(forests ...*Forest) *Forest {
	seen := make(map[string]bool)
	var prune func(n *TreeNode) *TreeNode
	prune = func(n *TreeNode) *TreeNode {
		if n == nil || seen[n.ID] {
			return nil
		}
		seen[n.ID] = true
		out := *n
		out.Children = nil
		for _, c := range n.Children {
			if kept := prune(c); kept != nil {
				out.Children = append(out.Children, kept)
			}
		}
		return &out
	}

	merged := &Forest{}
	for _, f := range forests {
		if f == nil {
			continue
		}
		for _, root := range f.Roots {
			if kept := prune(root); kept != nil {
				merged.Roots = append(merged.Roots, kept)
			}
		}
	}
	return merged
}
