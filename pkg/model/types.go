package model

import (
	json "github.com/goccy/go-json"
)

// TreeNode is one node of a selection forest. IDs are unique across the
// whole forest. Icon, Meta and Tone are presentation-only.
type TreeNode struct {
	ID         string      `json:"id" yaml:"id"`
	Label      string      `json:"label" yaml:"label"`
	Children   []*TreeNode `json:"children,omitempty" yaml:"children,omitempty"`
	Disabled   bool        `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Selectable *bool       `json:"selectable,omitempty" yaml:"selectable,omitempty"` // nil means selectable
	Icon       string      `json:"icon,omitempty" yaml:"icon,omitempty"`
	Meta       string      `json:"meta,omitempty" yaml:"meta,omitempty"`
	Tone       Tone        `json:"tone,omitempty" yaml:"tone,omitempty"`
}

// IsSelectable reports whether the node renders a selection control.
func (n *TreeNode) IsSelectable() bool {
	return n.Selectable == nil || *n.Selectable
}

// HasChildren reports whether n is a branch node.
func (n *TreeNode) HasChildren() bool {
	return len(n.Children) > 0
}

// Tone is a cosmetic accent for a node label.
type Tone string

const (
	ToneDefault Tone = ""
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
	ToneMuted   Tone = "muted"
)

// IsValid returns true if the tone is one of the known values.
func (t Tone) IsValid() bool {
	switch t {
	case ToneDefault, ToneInfo, ToneSuccess, ToneWarning, ToneDanger, ToneMuted:
		return true
	}
	return false
}

// Forest is the caller-owned input to the selection engine. The engine
// treats the *Forest pointer as the forest reference: a new pointer means a
// new tree, the same pointer means nothing changed.
type Forest struct {
	Roots []*TreeNode `json:"roots" yaml:"roots"`
}

// NewForest wraps roots in a Forest.
func NewForest(roots ...*TreeNode) *Forest {
	return &Forest{Roots: roots}
}

// Len returns the total number of nodes in the forest.
func (f *Forest) Len() int {
	if f == nil {
		return 0
	}
	n := 0
	f.Walk(func(*TreeNode, int) bool {
		n++
		return true
	})
	return n
}

// Walk visits every node in pre-order. Returning false from fn skips the
// node's children.
func (f *Forest) Walk(fn func(node *TreeNode, depth int) bool) {
	if f == nil {
		return
	}
	var walk func(nodes []*TreeNode, depth int)
	walk = func(nodes []*TreeNode, depth int) {
		for _, node := range nodes {
			if node == nil {
				continue
			}
			if fn(node, depth) {
				walk(node.Children, depth+1)
			}
		}
	}
	walk(f.Roots, 0)
}

// Record is a flat catalog row as served by the catalog API and stored in
// SQLite exports: the hierarchy is expressed through ParentID.
type Record struct {
	ID         string `json:"id" yaml:"id"`
	ParentID   string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Label      string `json:"label" yaml:"label"`
	Position   int    `json:"position,omitempty" yaml:"position,omitempty"`
	Disabled   bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Selectable *bool  `json:"selectable,omitempty" yaml:"selectable,omitempty"`
	Icon       string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Meta       string `json:"meta,omitempty" yaml:"meta,omitempty"`
	Tone       Tone   `json:"tone,omitempty" yaml:"tone,omitempty"`
}

// UnmarshalJSON accepts the camelCase spelling used by the catalog API
// (parentId, name) in addition to the canonical field names.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var aux struct {
		plain
		ParentIDCamel string `json:"parentId"`
		Name          string `json:"name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Record(aux.plain)
	if r.ParentID == "" {
		r.ParentID = aux.ParentIDCamel
	}
	if r.Label == "" {
		r.Label = aux.Name
	}
	return nil
}

func (r Record) node() *TreeNode {
	return &TreeNode{
		ID:         r.ID,
		Label:      r.Label,
		Disabled:   r.Disabled,
		Selectable: r.Selectable,
		Icon:       r.Icon,
		Meta:       r.Meta,
		Tone:       r.Tone,
	}
}

// Bool returns a pointer to b, for optional flags like Selectable.
func Bool(b bool) *bool {
	return &b
}
