// Package watcher monitors the served directory and reports changes via callbacks.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/CageChen/dirserve/internal/logging"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a path must stay quiet before its change is
// reported. Editors commonly emit several events for one save.
const DefaultDebounce = 100 * time.Millisecond

// EventType represents the type of file system event
type EventType int

// File system event types.
const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventWrite:
		return "update"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is a change below the root. Path is slash-separated and relative to
// the root, matching request paths.
type Event struct {
	Type EventType
	Path string
}

// Callback receives coalesced change events. It runs on a timer goroutine
// and should return quickly.
type Callback func(Event)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period used to coalesce events per path.
// Zero reports every event immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithIgnore skips directories with any of the given base names, both when
// adding watches and when reporting events.
func WithIgnore(names ...string) Option {
	return func(w *Watcher) {
		for _, n := range names {
			w.ignore[n] = struct{}{}
		}
	}
}

// Watcher monitors every directory below root.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	debounce time.Duration
	ignore   map[string]struct{}

	mu        sync.Mutex
	callbacks []Callback
	pending   map[string]*time.Timer

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher for the directory tree at root. VCS metadata
// directories are ignored unless options say otherwise.
func New(root string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		root:     root,
		debounce: DefaultDebounce,
		ignore:   map[string]struct{}{".git": {}, ".hg": {}, ".svn": {}},
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// OnChange registers a callback for file change events
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start adds every directory below root and begins delivering events.
func (w *Watcher) Start() error {
	if err := w.addTree(w.root); err != nil {
		return err
	}
	go w.eventLoop()
	return nil
}

// Stop stops the watcher. Pending debounced events are discarded.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()

		w.mu.Lock()
		for p, t := range w.pending {
			t.Stop()
			delete(w.pending, p)
		}
		w.mu.Unlock()
	})
	return err
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && w.ignored(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			logging.Warn("cannot watch directory", zap.String("path", p), zap.Error(err))
		}
		return nil
	})
}

func (w *Watcher) ignored(name string) bool {
	_, ok := w.ignore[name]
	return ok
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)
	for _, seg := range strings.Split(rel, "/") {
		if w.ignored(seg) {
			return
		}
	}

	var typ EventType
	switch {
	case event.Has(fsnotify.Create):
		typ = EventCreate
		if isDir(event.Name) {
			// Files may already exist by the time the watch is added.
			if err := w.addTree(event.Name); err != nil {
				logging.Debug("cannot watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
		}
	case event.Has(fsnotify.Write):
		typ = EventWrite
	case event.Has(fsnotify.Remove):
		typ = EventRemove
	case event.Has(fsnotify.Rename):
		typ = EventRename
	default:
		return
	}

	w.schedule(Event{Type: typ, Path: rel})
}

// schedule reports e once its path has been quiet for the debounce period.
// A later event for the same path replaces an earlier pending one.
func (w *Watcher) schedule(e Event) {
	if w.debounce <= 0 {
		w.emit(e)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[e.Path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.pending[e.Path] != t {
			w.mu.Unlock()
			return
		}
		delete(w.pending, e.Path)
		w.mu.Unlock()

		select {
		case <-w.done:
		default:
			w.emit(e)
		}
	})
	w.pending[e.Path] = t
}

func (w *Watcher) emit(e Event) {
	w.mu.Lock()
	callbacks := make([]Callback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb(e)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
