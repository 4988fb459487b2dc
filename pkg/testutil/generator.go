// Package testutil provides forest fixture generators and golden file
// helpers. All generators produce deterministic output for reproducible
// tests.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/treepick/pkg/model"
)

// GeneratorConfig controls forest generation.
type GeneratorConfig struct {
	Seed              int64   // Random seed for determinism (0 = 42)
	IDPrefix          string  // Prefix for node IDs (default: "n")
	DisabledRatio     float64 // Fraction of nodes marked disabled
	UnselectableRatio float64 // Fraction of nodes with selectable=false
	Tones             []model.Tone
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:     42,
		IDPrefix: "n",
	}
}

// Generator creates forests with various shapes.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	next int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "n"
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) node() *model.TreeNode {
	id := fmt.Sprintf("%s%d", g.cfg.IDPrefix, g.next)
	g.next++
	n := &model.TreeNode{ID: id, Label: "Node " + id}
	if g.cfg.DisabledRatio > 0 && g.rng.Float64() < g.cfg.DisabledRatio {
		n.Disabled = true
	}
	if g.cfg.UnselectableRatio > 0 && g.rng.Float64() < g.cfg.UnselectableRatio {
		n.Selectable = model.Bool(false)
	}
	if len(g.cfg.Tones) > 0 {
		n.Tone = g.cfg.Tones[g.rng.Intn(len(g.cfg.Tones))]
	}
	return n
}

// Chain creates a single path n0 > n1 > ... > n{size-1}.
// Depth of the last node is size-1.
func (g *Generator) Chain(size int) *model.Forest {
	if size < 1 {
		return model.NewForest()
	}
	root := g.node()
	cur := root
	for i := 1; i < size; i++ {
		child := g.node()
		cur.Children = []*model.TreeNode{child}
		cur = child
	}
	return model.NewForest(root)
}

// Wide creates one root with `leaves` leaf children.
func (g *Generator) Wide(leaves int) *model.Forest {
	root := g.node()
	for i := 0; i < leaves; i++ {
		root.Children = append(root.Children, g.node())
	}
	return model.NewForest(root)
}

// Balanced creates `roots` complete trees where every node above the given
// depth has `breadth` children. Depth 1 means the roots are leaves.
func (g *Generator) Balanced(roots, depth, breadth int) *model.Forest {
	if depth < 1 {
		depth = 1
	}
	var build func(level int) *model.TreeNode
	build = func(level int) *model.TreeNode {
		n := g.node()
		if level < depth {
			for i := 0; i < breadth; i++ {
				n.Children = append(n.Children, build(level+1))
			}
		}
		return n
	}
	f := model.NewForest()
	for i := 0; i < roots; i++ {
		f.Roots = append(f.Roots, build(1))
	}
	return f
}

// Random creates a forest of size nodes where each node attaches to a
// uniformly chosen earlier node, or becomes a root with probability
// rootRatio.
func (g *Generator) Random(size int, rootRatio float64) *model.Forest {
	nodes := make([]*model.TreeNode, 0, size)
	f := model.NewForest()
	for i := 0; i < size; i++ {
		n := g.node()
		if i == 0 || g.rng.Float64() < rootRatio {
			f.Roots = append(f.Roots, n)
		} else {
			parent := nodes[g.rng.Intn(len(nodes))]
			parent.Children = append(parent.Children, n)
		}
		nodes = append(nodes, n)
	}
	return f
}

// Records flattens a forest into loader records, the shape stored in
// SQLite sources and flat JSON files.
func Records(f *model.Forest) []model.Record {
	return model.Flatten(f)
}
