package testutil

import (
	"reflect"
	"testing"

	"github.com/vanderheijden86/treepick/pkg/model"
)

func maxDepth(f *model.Forest) int {
	max := -1
	f.Walk(func(_ *model.TreeNode, depth int) bool {
		if depth > max {
			max = depth
		}
		return true
	})
	return max
}

func TestChain(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		wantNodes int
		wantDepth int
	}{
		{"chain_0", 0, 0, -1},
		{"chain_1", 1, 1, 0},
		{"chain_5", 5, 5, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDefault().Chain(tt.size)
			if got := f.Len(); got != tt.wantNodes {
				t.Errorf("Chain(%d) nodes = %d, want %d", tt.size, got, tt.wantNodes)
			}
			if got := maxDepth(f); got != tt.wantDepth {
				t.Errorf("Chain(%d) depth = %d, want %d", tt.size, got, tt.wantDepth)
			}
		})
	}
}

func TestWideAndBalanced(t *testing.T) {
	wide := NewDefault().Wide(7)
	if len(wide.Roots) != 1 || len(wide.Roots[0].Children) != 7 {
		t.Fatalf("Wide(7) shape wrong: %d roots", len(wide.Roots))
	}

	// 2 roots, each 1 + 3 + 9 nodes
	b := NewDefault().Balanced(2, 3, 3)
	if got := b.Len(); got != 26 {
		t.Fatalf("Balanced(2,3,3) nodes = %d, want 26", got)
	}
	if got := maxDepth(b); got != 2 {
		t.Fatalf("Balanced depth = %d, want 2", got)
	}
}

func TestRandomIsDeterministic(t *testing.T) {
	a := New(GeneratorConfig{Seed: 7}).Random(50, 0.1)
	b := New(GeneratorConfig{Seed: 7}).Random(50, 0.1)
	if !reflect.DeepEqual(IDs(a), IDs(b)) {
		t.Fatal("same seed produced different pre-order")
	}
	if a.Len() != 50 {
		t.Fatalf("Random(50) nodes = %d", a.Len())
	}
	seen := map[string]bool{}
	for _, id := range IDs(a) {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestNodeFlags(t *testing.T) {
	g := New(GeneratorConfig{DisabledRatio: 1, UnselectableRatio: 1, Tones: []model.Tone{model.ToneInfo}})
	f := g.Wide(3)
	f.Walk(func(n *model.TreeNode, _ int) bool {
		if !n.Disabled || n.IsSelectable() || n.Tone != model.ToneInfo {
			t.Errorf("node %s flags not applied: %+v", n.ID, n)
		}
		return true
	})
}

func TestRecordsRoundTrip(t *testing.T) {
	f := NewDefault().Balanced(1, 3, 2)
	back := model.BuildForest(Records(f))
	if !reflect.DeepEqual(IDs(back), IDs(f)) {
		t.Fatalf("round trip order %v, want %v", IDs(back), IDs(f))
	}
}
