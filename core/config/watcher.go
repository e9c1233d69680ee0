package config

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dmitrymomot/relay/core/logger"
)

// DefaultDebounce is the quiet period before a changed file is reloaded.
const DefaultDebounce = 250 * time.Millisecond

// WatcherOption configures a Watcher.
type WatcherOption func(*watcherOptions)

type watcherOptions struct {
	debounce time.Duration
	logger   *slog.Logger
}

// WithDebounce sets the reload debounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(o *watcherOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(l *slog.Logger) WatcherOption {
	return func(o *watcherOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Watcher keeps a YAML backed configuration current.
type Watcher[T any] struct {
	path     string
	fs       *fsnotify.Watcher
	opts     watcherOptions
	mu       sync.RWMutex
	current  T
	onChange []func(T)
}

// NewWatcher loads path and prepares to watch it. Call Run to start watching.
func NewWatcher[T any](path string, opts ...WatcherOption) (*Watcher[T], error) {
	o := watcherOptions{
		debounce: DefaultDebounce,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	w := &Watcher[T]{path: path, opts: o}
	if err := LoadFile(path, &w.current); err != nil {
		return nil, err
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// The directory is watched so that editors replacing the file are seen.
	if err := fs.Add(filepath.Dir(path)); err != nil {
		_ = fs.Close()
		return nil, err
	}
	w.fs = fs
	return w, nil
}

// Current returns the last successfully loaded value.
func (w *Watcher[T]) Current() T {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers fn to receive every reloaded value.
func (w *Watcher[T]) OnChange(fn func(T)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Run watches until ctx is done, then releases the watcher.
func (w *Watcher[T]) Run(ctx context.Context) error {
	defer w.fs.Close()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	name := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.opts.debounce, w.reload)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.opts.logger.Error("config watcher error",
				logger.Component("config"),
				logger.Error(err),
			)
		}
	}
}

func (w *Watcher[T]) reload() {
	var next T
	if err := LoadFile(w.path, &next); err != nil {
		w.opts.logger.Error("config reload failed",
			logger.Component("config"),
			logger.Error(err),
		)
		return
	}

	w.mu.Lock()
	w.current = next
	callbacks := append([]func(T){}, w.onChange...)
	w.mu.Unlock()

	w.opts.logger.Info("config reloaded",
		logger.Component("config"),
		slog.String("path", w.path),
	)
	for _, fn := range callbacks {
		fn(next)
	}
}
