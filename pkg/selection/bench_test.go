package selection

import (
	"testing"

	"github.com/vanderheijden86/treepick/pkg/testutil"
)

func BenchmarkBuildIndex(b *testing.B) {
	forest := testutil.NewDefault().Balanced(4, 5, 5)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildIndex(forest)
	}
}

func BenchmarkToggleCascade(b *testing.B) {
	forest := testutil.NewDefault().Balanced(2, 6, 4)
	e := New(Config{Cascade: true}, forest)
	root := forest.Roots[0].ID
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.ToggleSelection(root)
	}
}

func BenchmarkRows(b *testing.B) {
	forest := testutil.NewDefault().Balanced(3, 5, 4)
	e := New(Config{DefaultExpandAll: true}, forest)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Rows()
	}
}

// A toggle on the deepest node of a long chain selects exactly that branch
// and reveals every ancestor.
func TestCascadeOnDeepChain(t *testing.T) {
	forest := testutil.NewDefault().Chain(200)
	e := New(Config{Cascade: true}, forest)
	ids := testutil.IDs(forest)

	mid := ids[100]
	got, changed := e.ToggleSelection(mid)
	if !changed || len(got) != 100 {
		t.Fatalf("toggle %s selected %d nodes (changed=%v), want 100", mid, len(got), changed)
	}
	for _, id := range ids[:100] {
		if !e.IsExpanded(id) {
			t.Fatalf("ancestor %s not expanded", id)
		}
	}
	if rows := e.Rows(); len(rows) != 200 {
		t.Fatalf("visible rows = %d, want 200", len(rows))
	}

	// Every selected node is an ancestor of the leaf, so deselecting it
	// empties the selection.
	leaf := ids[len(ids)-1]
	got, _ = e.ToggleSelection(leaf)
	if len(got) != 0 {
		t.Fatalf("after deselecting the leaf %d selected, want 0", len(got))
	}
}
