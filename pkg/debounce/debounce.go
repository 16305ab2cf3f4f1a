// Package debounce coalesces bursts of file-change events into single
// restart signals.
//
// An editor save typically produces several filesystem events within a few
// milliseconds. The debouncer arms a timer on the first event and resets it
// on every further event; only when the window elapses with no new event is
// one signal emitted. A burst therefore causes exactly one restart, and a
// quiescent period always eventually yields the signal for its trailing
// burst.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow is the debounce window used when none is configured.
const DefaultWindow = 100 * time.Millisecond

// Debouncer coalesces Trigger calls into unit signals.
//
// Unlike per-path debouncing, a single global timer is kept: a restart is
// global, so changes to several files in one burst must still produce one
// signal.
type Debouncer struct {
	window  time.Duration
	signals chan struct{}

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// New creates a debouncer with the given coalescing window.
// A window of 0 falls back to DefaultWindow.
func New(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{
		window:  window,
		signals: make(chan struct{}, 1),
	}
}

// Trigger registers a relevant change. The pending timer, if any, is reset;
// a signal is emitted once the window elapses with no further triggers.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.emit)
}

// emit delivers one signal. The signal channel holds one slot; if a signal
// is already pending the new one coalesces into it, which preserves the
// at-most-one-restart-per-burst guarantee without blocking the timer
// goroutine.
func (d *Debouncer) emit() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.timer = nil

	select {
	case d.signals <- struct{}{}:
	default:
	}
}

// Signals returns the channel on which restart signals are delivered.
func (d *Debouncer) Signals() <-chan struct{} {
	return d.signals
}

// Window returns the configured debounce window.
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Stop cancels any pending timer. No signal is emitted after Stop returns.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
