// Package process manages the lifecycle of a supervised child process.
//
// A child is started in its own process group so that termination signals
// reach anything it spawned in turn. Its stdout and stderr are forwarded to
// the supervisor's own streams, stdin is exposed as a pipe, and a reaper
// goroutine always consumes the exit status so no zombie is left behind.
//
// Example usage:
//
//	child, err := process.Start(process.Command{
//	    Executable: "php",
//	    Args:       []string{"server.php"},
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	status := child.Stop(5 * time.Second)
//	fmt.Println(status)
package process

import (
	"fmt"
	"io"
)

// Command describes the process to start.
type Command struct {
	// Executable is the program to run, located via the PATH when it
	// contains no path separator.
	Executable string

	// Args are the arguments passed to the executable, in order.
	Args []string

	// Dir is the working directory; empty means the supervisor's own.
	Dir string

	// Stdout and Stderr receive the child's output. Nil values default to
	// the supervisor's os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// ExitStatus describes how a child terminated.
type ExitStatus struct {
	// Code is the exit code, or -1 when the child was killed by a signal.
	Code int

	// Signaled reports whether a signal terminated the child.
	Signaled bool

	// Signal names the terminating signal when Signaled is true.
	Signal string
}

// Success reports whether the child exited normally with code 0.
func (s ExitStatus) Success() bool {
	return !s.Signaled && s.Code == 0
}

// String returns a human-readable description of the exit.
func (s ExitStatus) String() string {
	if s.Signaled {
		return fmt.Sprintf("terminated by signal %s", s.Signal)
	}
	return fmt.Sprintf("exited with code %d", s.Code)
}
