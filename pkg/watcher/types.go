// Package watcher provides recursive filesystem change notification.
//
// It wraps fsnotify: every watched directory's subtree is subscribed, and
// directories created after startup are picked up as soon as their creation
// event arrives. Raw events are emitted unfiltered; relevance filtering and
// debouncing are the caller's concern.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, []string{"/project/src"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range w.Events() {
//	    fmt.Printf("%s %s\n", event.Op, event.Path)
//	}
package watcher

import (
	"context"
	"time"
)

// Op describes a file operation type.
type Op uint32

// File operation types.
const (
	OpCreate Op = 1 << iota // File created
	OpWrite                 // File modified
	OpRemove                // File deleted
	OpRename                // File renamed/moved
	OpChmod                 // File permissions changed
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	case OpChmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Event represents a single filesystem change.
type Event struct {
	// Path is the absolute path of the file or directory that changed.
	Path string

	// Op is the operation that triggered the event.
	Op Op

	// Timestamp is when the event was observed.
	Timestamp time.Time
}

// Watcher provides filesystem monitoring.
type Watcher interface {
	// Start begins watching the given directories and their subtrees.
	// Events are delivered until the context is cancelled or the watcher
	// is stopped. Returns an error if no path can be watched.
	Start(ctx context.Context, paths []string) error

	// Stop halts event delivery. A stopped watcher can be started again.
	Stop() error

	// Events returns the channel of raw filesystem events.
	// The channel is closed when the watcher is closed.
	Events() <-chan Event

	// Errors returns the channel of non-fatal watch errors.
	// The channel is closed when the watcher is closed.
	Errors() <-chan error

	// Close releases the underlying OS watches.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// RetryDelay is the interval between attempts to re-add a watch root
	// that was removed out from under the watcher.
	// Default: 1s.
	RetryDelay time.Duration

	// MaxRetries bounds the re-add attempts for a removed watch root
	// before that root is abandoned. Other roots keep watching.
	// Default: 30.
	MaxRetries int
}
