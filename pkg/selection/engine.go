// engine.go - Tree selection engine: expansion and cascading selection state
package selection

import (
	"github.com/vanderheijden86/treepick/pkg/debug"
	"github.com/vanderheijden86/treepick/pkg/metrics"
	"github.com/vanderheijden86/treepick/pkg/model"
)

// ChangeFunc receives the full resolved selection after every successful
// selection change. Order carries no meaning.
type ChangeFunc func(selected []string)

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithOnChange registers a change listener.
func WithOnChange(fn ChangeFunc) Option {
	return func(e *Engine) {
		e.OnChange(fn)
	}
}

// WithSelectedIDs supplies the initial selection: the controlled value for
// Controlled engines, the seed for Uncontrolled ones.
func WithSelectedIDs(ids ...string) Option {
	return func(e *Engine) {
		e.SetSelectedIDs(ids)
	}
}

// WithHighlightIDs sets the cosmetic highlight set.
func WithHighlightIDs(ids ...string) Option {
	return func(e *Engine) {
		e.SetHighlightIDs(ids)
	}
}

// Engine maintains the expanded set and the selected set of one forest.
// It is not safe for concurrent use; owners serialize calls (a bubbletea
// Update loop does this naturally).
type Engine struct {
	cfg    Config
	forest *model.Forest
	idx    *Index

	expanded  IDSet
	raw       IDSet // internal state, or the last controlled value
	resolved  IDSet // raw, or Closure(raw) under cascade
	highlight IDSet

	listeners []ChangeFunc
}

// New builds an engine over forest.
func New(cfg Config, forest *model.Forest, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		highlight: make(IDSet),
	}
	e.rebuild(forest)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetForest installs a new forest. Only a different *Forest pointer counts
// as a change: the index is rebuilt, expansion resets to defaults and an
// uncontrolled selection resets to empty. Returns whether anything happened.
func (e *Engine) SetForest(forest *model.Forest) bool {
	if forest == e.forest {
		return false
	}
	e.rebuild(forest)
	return true
}

func (e *Engine) rebuild(forest *model.Forest) {
	e.forest = forest
	e.idx = BuildIndex(forest)
	e.expanded = e.idx.DefaultExpanded(e.cfg.DefaultExpandAll)
	if e.cfg.Ownership == Uncontrolled || e.raw == nil {
		e.raw = make(IDSet)
	}
	e.resolved = e.resolve(e.raw)
	e.reveal(e.resolved)
	debug.Log("selection: rebuilt index nodes=%d expanded=%d selected=%d",
		e.idx.Len(), e.expanded.Len(), e.resolved.Len())
}

// OnChange registers a listener for selection changes.
func (e *Engine) OnChange(fn ChangeFunc) {
	if fn != nil {
		e.listeners = append(e.listeners, fn)
	}
}

// SetSelectedIDs replaces the selection with ids without notifying
// listeners. Controlled owners call it on every render with their current
// value; uncontrolled owners use it to seed an initial selection.
func (e *Engine) SetSelectedIDs(ids []string) {
	e.raw = NewIDSet(ids...)
	e.resolved = e.resolve(e.raw)
	e.reveal(e.resolved)
}

// SetHighlightIDs replaces the highlight set. Highlighting is cosmetic.
func (e *Engine) SetHighlightIDs(ids []string) {
	e.highlight = NewIDSet(ids...)
}

// ToggleExpand flips the expansion of a branch node. Leaves and unknown
// IDs are ignored.
func (e *Engine) ToggleExpand(id string) bool {
	if !e.idx.IsBranch(id) {
		return false
	}
	if e.expanded.Has(id) {
		e.expanded.Remove(id)
	} else {
		e.expanded.Add(id)
	}
	return true
}

// ExpandAll expands every branch node.
func (e *Engine) ExpandAll() {
	e.expanded = e.idx.expandedToDepth(true, 0)
}

// CollapseAll collapses every branch node.
func (e *Engine) CollapseAll() {
	e.expanded = make(IDSet)
}

// ExpandToDepth expands exactly the branches shallower than depth.
func (e *Engine) ExpandToDepth(depth int) {
	e.expanded = e.idx.expandedToDepth(false, depth)
}

// Reveal expands every ancestor of id.
func (e *Engine) Reveal(id string) {
	e.expanded.Add(e.idx.Ancestors(id)...)
}

// CanToggle reports whether ToggleSelection(id) could have any effect.
func (e *Engine) CanToggle(id string) bool {
	if e.cfg.SelectionMode == SelectionNone || e.cfg.Mode == ModeView {
		return false
	}
	node := e.idx.Node(id)
	return node != nil && !node.Disabled && node.IsSelectable()
}

// ToggleSelection applies one selection toggle to id and returns the
// resulting resolved selection and whether it changed. Controlled engines
// only report the result; their displayed selection is unchanged until the
// owner calls SetSelectedIDs.
func (e *Engine) ToggleSelection(id string) ([]string, bool) {
	if !e.CanToggle(id) {
		return e.Selected(), false
	}
	defer metrics.Timer(metrics.ToggleSelection)()

	next := e.nextSelection(id)
	debug.Log("selection: toggle %s mode=%s cascade=%v raw %d -> %d",
		id, e.cfg.SelectionMode, e.cfg.Cascade, e.raw.Len(), next.Len())
	return e.commit(next)
}

// ClearSelection deselects everything. Like ToggleSelection it does
// nothing in view mode or when selection is disabled.
func (e *Engine) ClearSelection() ([]string, bool) {
	if e.cfg.Mode == ModeView || e.cfg.SelectionMode == SelectionNone {
		return e.Selected(), false
	}
	return e.commit(make(IDSet))
}

func (e *Engine) commit(next IDSet) ([]string, bool) {
	nextResolved := e.resolve(next)
	if nextResolved.Equal(e.resolved) {
		return e.Selected(), false
	}
	e.reveal(nextResolved)
	if e.cfg.Ownership == Uncontrolled {
		e.raw = next
		e.resolved = nextResolved
	}
	out := nextResolved.Sorted()
	for _, fn := range e.listeners {
		fn(out)
	}
	return out, true
}

func (e *Engine) nextSelection(id string) IDSet {
	switch e.cfg.SelectionMode {
	case SelectionSingle:
		if e.resolved.Has(id) {
			return make(IDSet)
		}
		if e.cfg.Cascade {
			return NewIDSet(e.idx.Branch(id)...)
		}
		return NewIDSet(id)

	default:
		next := e.raw.Clone()
		switch {
		case !e.cfg.Cascade:
			if next.Has(id) {
				next.Remove(id)
			} else {
				next.Add(id)
			}
		case !e.resolved.Has(id):
			next.Add(e.idx.Branch(id)...)
		default:
			e.deselectCascade(next, id)
		}
		return next
	}
}

// deselectCascade removes id from raw under cascade semantics.
//
//  1. Explode: every ancestor present in raw stands for its whole branch.
//     Root-most first, each is replaced by explicit entries for its
//     descendants. A lower ancestor added this way is exploded in turn.
//  2. Remove id and all its descendants.
//
// After step 1 no ancestor of id is left in raw, so there is nothing to
// prune upward.
func (e *Engine) deselectCascade(raw IDSet, id string) {
	ancestors := e.idx.Ancestors(id)

	for i := len(ancestors) - 1; i >= 0; i-- {
		a := ancestors[i]
		if !raw.Has(a) {
			continue
		}
		raw.Remove(a)
		raw.Add(e.idx.Descendants(a)...)
	}

	raw.Remove(e.idx.Branch(id)...)
}

func (e *Engine) resolve(raw IDSet) IDSet {
	if e.cfg.Cascade {
		return Closure(e.idx, raw)
	}
	return raw.Clone()
}

// reveal keeps every selected node visible by expanding its ancestors.
func (e *Engine) reveal(selected IDSet) {
	for id := range selected {
		e.expanded.Add(e.idx.Ancestors(id)...)
	}
}

// Selected returns the resolved selection (sorted for stable output).
func (e *Engine) Selected() []string { return e.resolved.Sorted() }

// RawSelected returns the raw selection before cascade closure.
func (e *Engine) RawSelected() []string { return e.raw.Sorted() }

// Expanded returns the expanded branch IDs (sorted).
func (e *Engine) Expanded() []string { return e.expanded.Sorted() }

func (e *Engine) IsSelected(id string) bool    { return e.resolved.Has(id) }
func (e *Engine) IsExpanded(id string) bool    { return e.expanded.Has(id) }
func (e *Engine) IsHighlighted(id string) bool { return e.highlight.Has(id) }

// Index returns the derived index of the current forest.
func (e *Engine) Index() *Index { return e.idx }

// Forest returns the current forest reference.
func (e *Engine) Forest() *model.Forest { return e.forest }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Empty reports whether the forest has no nodes; callers render their own
// empty-state content.
func (e *Engine) Empty() bool { return e.idx.Len() == 0 }
