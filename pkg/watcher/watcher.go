package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/remon-dev/remon/pkg/logger"
)

// watcher implements the Watcher interface using fsnotify.
type watcher struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger
	config Config

	events chan Event
	errors chan error

	mu       sync.RWMutex
	running  bool
	closed   bool
	roots    map[string]bool
	stopChan chan struct{}
	loopDone chan struct{}
}

// New creates a new filesystem watcher.
func New(cfg Config, log logger.Logger) (Watcher, error) {
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 30
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &watcher{
		fsw:      fsw,
		logger:   log,
		config:   cfg,
		events:   make(chan Event, 256),
		errors:   make(chan error, 16),
		roots:    make(map[string]bool),
		stopChan: make(chan struct{}),
	}

	return w, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, paths []string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.running = true
	// Each start gets a fresh stop channel so a stopped watcher can be
	// started again.
	w.stopChan = make(chan struct{})
	w.mu.Unlock()

	added := 0
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			// Per-path failures do not kill the session.
			w.logger.Warn("watch path unavailable, skipping", "path", path, "error", err)
			continue
		}
		if err := w.addPathRecursive(path); err != nil {
			w.logger.Warn("failed to watch path", "path", path, "error", err)
			continue
		}
		w.mu.Lock()
		w.roots[path] = true
		w.mu.Unlock()
		added++
	}

	if added == 0 {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return ErrNoValidPaths
	}

	w.logger.Info("watcher started", "paths", paths, "watched", added)

	w.mu.Lock()
	w.loopDone = make(chan struct{})
	stop, loopDone := w.stopChan, w.loopDone
	w.mu.Unlock()
	go w.processEvents(ctx, stop, loopDone)

	return nil
}

// Stop implements Watcher.Stop. It blocks until the event loop has
// exited, so a following Start never races a dying loop for events.
func (w *watcher) Stop() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	if !w.running {
		w.mu.Unlock()
		return ErrNotStarted
	}

	close(w.stopChan)
	w.running = false
	loopDone := w.loopDone
	w.mu.Unlock()

	if loopDone != nil {
		<-loopDone
	}

	w.logger.Info("watcher stopped")
	return nil
}

// Events implements Watcher.Events.
func (w *watcher) Events() <-chan Event {
	return w.events
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errors
}

// Close implements Watcher.Close.
//
// The event loop is drained before the outbound channels are closed, so a
// concurrent in-flight event can never hit a closed channel.
func (w *watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	if w.running {
		close(w.stopChan)
		w.running = false
	}
	loopDone := w.loopDone
	w.mu.Unlock()

	if loopDone != nil {
		<-loopDone
	}

	close(w.events)
	close(w.errors)

	if err := w.fsw.Close(); err != nil {
		w.logger.Error("failed to close fsnotify watcher", "error", err)
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.logger.Debug("watcher closed")
	return nil
}

// processEvents handles events from fsnotify. The stop and done channels
// belong to the Start call that launched this loop.
func (w *watcher) processEvents(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("event processing stopped", "reason", "context cancelled")
			return

		case <-stop:
			w.logger.Debug("event processing stopped", "reason", "stop signal")
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event, stop)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.handleError(err)
		}
	}
}

// handleEvent converts one fsnotify event, maintains the watch set, and
// emits the event.
func (w *watcher) handleEvent(event fsnotify.Event, stop <-chan struct{}) {
	var op Op
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		op = OpCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		op = OpWrite
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		op = OpRemove
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		op = OpRename
	case event.Op&fsnotify.Chmod == fsnotify.Chmod:
		op = OpChmod
	default:
		w.logger.Debug("unknown fsnotify operation", "op", event.Op, "path", event.Name)
		return
	}

	switch op {
	case OpCreate:
		// A directory created under a watched root is subscribed
		// immediately so its contents are covered from now on.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addPathRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory",
					"path", event.Name, "error", err)
			} else {
				w.logger.Debug("watching new directory", "path", event.Name)
			}
		}
	case OpRemove, OpRename:
		// A removed watch root is retried in the background; remaining
		// roots keep watching either way.
		if w.isRoot(event.Name) {
			w.logger.Warn("watch root removed, retrying", "path", event.Name)
			go w.retryRoot(event.Name, stop)
		}
	}

	ev := Event{
		Path:      event.Name,
		Op:        op,
		Timestamp: time.Now(),
	}

	select {
	case w.events <- ev:
	case <-stop:
	}
}

// handleError forwards a non-fatal fsnotify error. Watching continues.
func (w *watcher) handleError(err error) {
	w.logger.Error("watch error", "error", err)

	select {
	case w.errors <- err:
	default:
		w.logger.Warn("error channel full, dropping error")
	}
}

// isRoot reports whether path is one of the configured watch roots.
func (w *watcher) isRoot(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.roots[path]
}

// retryRoot polls for a removed watch root to reappear and re-subscribes
// it. After MaxRetries attempts the root is abandoned with a warning.
func (w *watcher) retryRoot(path string, stop <-chan struct{}) {
	for attempt := 1; attempt <= w.config.MaxRetries; attempt++ {
		select {
		case <-stop:
			return
		case <-time.After(w.config.RetryDelay):
		}

		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			continue
		}

		if err := w.addPathRecursive(path); err != nil {
			w.logger.Warn("failed to re-watch root",
				"path", path, "attempt", attempt, "error", err)
			continue
		}

		w.logger.Info("watch root restored", "path", path, "attempt", attempt)
		return
	}

	w.logger.Warn("watch root abandoned after retries",
		"path", path, "retries", w.config.MaxRetries)
}

// addPathRecursive adds a directory and all its subdirectories to the
// watch set.
func (w *watcher) addPathRecursive(path string) error {
	if err := w.fsw.Add(path); err != nil {
		return fmt.Errorf("failed to add path %s: %w", path, err)
	}

	return filepath.Walk(path, func(subPath string, info os.FileInfo, err error) error {
		if err != nil {
			w.logger.Warn("error walking path", "path", subPath, "error", err)
			return nil // Skip but continue walking.
		}

		if !info.IsDir() || subPath == path {
			return nil
		}

		if addErr := w.fsw.Add(subPath); addErr != nil {
			w.logger.Warn("failed to add subdirectory",
				"path", subPath, "error", addErr)
			return nil // Skip but continue walking.
		}

		return nil
	})
}
