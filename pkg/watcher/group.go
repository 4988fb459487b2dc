package watcher

import (
	"fmt"
	"sync"
)

// Group watches several source files and reports which one changed.
type Group struct {
	watchers []*Watcher
	mu       sync.Mutex
	started  bool
}

// NewGroup creates one watcher per path. onChange receives the absolute
// path of the file that changed; opts apply to every watcher.
func NewGroup(paths []string, onChange func(path string), opts ...WatcherOption) (*Group, error) {
	g := &Group{}
	for _, p := range paths {
		w, err := NewWatcher(p, opts...)
		if err != nil {
			return nil, fmt.Errorf("watching %s: %w", p, err)
		}
		path := w.Path()
		WithOnChange(func() { onChange(path) })(w)
		g.watchers = append(g.watchers, w)
	}
	return g, nil
}

// Start starts every watcher. On failure the ones already started are
// stopped again.
func (g *Group) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return ErrAlreadyStarted
	}
	for i, w := range g.watchers {
		if err := w.Start(); err != nil {
			for _, started := range g.watchers[:i] {
				started.Stop()
			}
			return fmt.Errorf("watching %s: %w", w.Path(), err)
		}
	}
	g.started = true
	return nil
}

// Stop stops every watcher.
func (g *Group) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, w := range g.watchers {
		w.Stop()
	}
	g.started = false
}

// Len returns the number of watched files.
func (g *Group) Len() int {
	return len(g.watchers)
}
