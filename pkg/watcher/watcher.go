// Package watcher reloads forest sources when their files change.
//
// It uses fsnotify on the parent directory (editors replace files with
// atomic renames) and falls back to polling mtime and size when fsnotify
// is unavailable or TREEPICK_FORCE_POLL is set.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/treepick/pkg/debug"
)

// DefaultPollInterval is the stat interval in polling mode.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets how long a burst of events must be quiet
// before a change is reported.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the stat interval for polling mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.interval = d }
}

// WithOnChange sets the callback run for every reported change.
func WithOnChange(fn func()) WatcherOption {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback run for watch errors, including removal of
// the source file.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll selects polling mode even when fsnotify works.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) { w.forcePoll = force }
}

// stamp is what polling compares between ticks.
type stamp struct {
	mtime time.Time
	size  int64
}

func (s stamp) seen() bool { return !s.mtime.IsZero() }

func (s stamp) differs(next stamp) bool {
	return next.mtime.After(s.mtime) || next.size != s.size
}

// Watcher reports changes to one forest source file.
type Watcher struct {
	path      string
	debounce  time.Duration
	interval  time.Duration
	onChange  func()
	onError   func(error)
	forcePoll bool

	mu       sync.RWMutex
	last     stamp
	notifier *fsnotify.Watcher
	polling  bool
	running  bool
	cancel   context.CancelFunc
	pending  *Debouncer
	changed  chan struct{}
}

// NewWatcher creates a stopped watcher for path.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounceDuration,
		interval: DefaultPollInterval,
		onChange: func() {},
		onError:  func(error) {},
		changed:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.pending = NewDebouncer(w.debounce)
	return w, nil
}

// Start begins watching. A file that does not exist yet is fine; its
// creation counts as a change.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return ErrAlreadyStarted
	}

	w.last = stamp{}
	if info, err := os.Stat(w.path); err == nil {
		w.last = stamp{mtime: info.ModTime(), size: info.Size()}
	} else if os.IsPermission(err) {
		return ErrPermission
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.polling = w.forcePoll || envBool("TREEPICK_FORCE_POLL")

	if !w.polling {
		n, err := w.openNotifier()
		if err != nil {
			debug.Log("watcher: polling %s: %v", w.path, err)
			w.polling = true
		} else {
			w.notifier = n
			go w.runNotify(ctx, n)
		}
	}
	if w.polling {
		go w.runPoll(ctx)
	}

	w.running = true
	return nil
}

func (w *Watcher) openNotifier() (*fsnotify.Watcher, error) {
	n, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := n.Add(filepath.Dir(w.path)); err != nil {
		n.Close()
		return nil, err
	}
	return n, nil
}

// Stop stops watching and drops a pending change. Changed stays open, so
// a receiver blocked on it is never woken by Stop.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.cancel()
	if w.notifier != nil {
		w.notifier.Close()
		w.notifier = nil
	}
	w.pending.Cancel()
	w.running = false
}

// IsPolling reports whether the watcher fell back to polling.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted reports whether the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Changed receives once per reported change, after the OnChange callback
// has run. Signals are dropped while one is already pending.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// PollInterval returns the stat interval used in polling mode.
func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.interval
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func (w *Watcher) runNotify(ctx context.Context, n *fsnotify.Watcher) {
	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-n.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Remove) {
				w.onError(ErrFileRemoved)
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.pending.Trigger(w.fire)
			}
		case err, ok := <-n.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) runPoll(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.poll(); err != nil {
				w.onError(err)
			}
		}
	}
}

// poll stats the file once and schedules a change when its stamp moved.
// A missing file is only an error if it was seen before.
func (w *Watcher) poll() error {
	info, err := os.Stat(w.path)
	switch {
	case os.IsNotExist(err):
		w.mu.RLock()
		seen := w.last.seen()
		w.mu.RUnlock()
		if seen {
			return ErrFileRemoved
		}
		return nil
	case os.IsPermission(err):
		return ErrPermission
	case err != nil:
		return err
	}

	next := stamp{mtime: info.ModTime(), size: info.Size()}
	w.mu.Lock()
	moved := w.last.differs(next)
	if moved {
		w.last = next
	}
	w.mu.Unlock()

	if moved {
		w.pending.Trigger(w.fire)
	}
	return nil
}

func (w *Watcher) fire() {
	if !w.IsStarted() {
		return
	}
	debug.Log("watcher: %s changed", w.path)
	w.onChange()
	select {
	case w.changed <- struct{}{}:
	default:
	}
}
