// Package watch re-renders a Markdown file whenever it changes on disk.
//
// The watcher observes the file's directory rather than the file itself so
// that editors which save by writing a temporary file and renaming it over
// the original keep being followed.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/mdlive/internal/logging"
)

// DefaultDelay is the quiet period after the last change before the file
// is read.
const DefaultDelay = 50 * time.Millisecond

// Target receives the file's contents after each settled change.
// *document.Document satisfies it.
type Target interface {
	Update(text string) error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the debounce quiet period.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		w.log = logging.OrNull(l)
	}
}

// Stats reports watcher activity.
type Stats struct {
	Events    int64
	Syncs     int64
	Errors    int64
	LastError error
}

// Watcher feeds a file's contents to a Target whenever the file changes.
type Watcher struct {
	path   string
	target Target
	delay  time.Duration
	log    *logging.Logger

	fsw      *fsnotify.Watcher
	debounce *Debouncer

	mu        sync.Mutex
	closed    bool
	closeCh   chan struct{}
	lastError error

	events atomic.Int64
	syncs  atomic.Int64
	errs   atomic.Int64
}

// New creates a watcher for the file at path. Watching starts with Run.
func New(path string, target Target, opts ...Option) (*Watcher, error) {
	if target == nil {
		return nil, ErrNilTarget
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotExist, path)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFile, path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    abs,
		target:  target,
		delay:   DefaultDelay,
		log:     logging.Null(),
		fsw:     fsw,
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.WithComponent("watch").WithField("path", abs)
	w.debounce = NewDebouncer(w.delay, func() {
		_ = w.Sync()
	})
	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Sync reads the file and hands its contents to the target immediately.
func (w *Watcher) Sync() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		// A save in progress may have removed the file for a moment; the
		// next event will bring it back.
		w.record(fmt.Errorf("read %s: %w", w.path, err))
		w.log.Warn("cannot read file: %v", err)
		return err
	}
	w.syncs.Add(1)
	if err := w.target.Update(string(data)); err != nil {
		w.record(err)
		w.log.Error("update failed: %v", err)
		return err
	}
	return nil
}

// Run processes file events until ctx is cancelled or Close is called.
// A pending change is flushed when ctx ends and dropped on Close.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.mu.Unlock()

	w.log.Info("watching")
	for {
		select {
		case <-ctx.Done():
			w.debounce.Flush()
			return ctx.Err()
		case <-w.closeCh:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.record(err)
			w.log.Warn("watch error: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return
	}
	w.events.Add(1)
	w.log.Debug("event %s", ev.Op)
	w.debounce.Call()
}

// Close stops the watcher. Pending changes are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.debounce.Cancel()
	return w.fsw.Close()
}

// Stats returns watcher statistics.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Events:    w.events.Load(),
		Syncs:     w.syncs.Load(),
		Errors:    w.errs.Load(),
		LastError: w.lastError,
	}
}

func (w *Watcher) record(err error) {
	w.errs.Add(1)
	w.mu.Lock()
	w.lastError = err
	w.mu.Unlock()
}
