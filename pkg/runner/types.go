// Package runner orchestrates the watch-debounce-restart cycle.
//
// A single event loop owns all supervisor state, including the current
// child handle. Watcher events, debounced restart signals, stdin input and
// child exits are all delivered into that loop through channels, so state
// transitions happen in arrival order and never concurrently.
//
// State machine:
//
//	Idle --start--> Starting --spawned--> Running
//	Running --restart signal--> Stopping --stopped--> Starting
//	Running --unexpected exit--> Idle (or Starting with restart_on_crash)
package runner

import (
	"io"
	"time"

	"github.com/remon-dev/remon/pkg/process"
)

// State is the restart controller's lifecycle state.
type State int32

// Controller states.
const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Child is the handle the controller holds on the supervised process.
// process.Child implements it; tests substitute fakes.
type Child interface {
	// PID returns the child's process ID.
	PID() int

	// Stdin returns the pipe connected to the child's standard input.
	Stdin() io.Writer

	// Done returns a channel closed once the child has exited and been reaped.
	Done() <-chan struct{}

	// ExitStatus returns how the child terminated; valid after Done.
	ExitStatus() process.ExitStatus

	// Stop terminates the child gracefully, escalating to a kill after
	// timeout, and blocks until it is reaped.
	Stop(timeout time.Duration) process.ExitStatus
}

// SpawnFunc creates a child process. The default implementation is backed
// by the process package.
type SpawnFunc func(process.Command) (Child, error)
