package process

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/remon-dev/remon/pkg/logger"
)

// Child is a handle to a running (or exited) supervised process.
//
// Exactly one reaper goroutine waits on the process; ExitStatus is valid
// once Done is closed. The zero value is not usable; obtain a Child from
// Start.
type Child struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	done   chan struct{}
	logger logger.Logger

	mu     sync.Mutex
	status ExitStatus

	killOnce sync.Once
}

// Start spawns the described command in its own process group.
//
// The executable is resolved first so that a missing program fails fast
// with an error naming the command, before any process is created.
func Start(command Command, log logger.Logger) (*Child, error) {
	if command.Executable == "" {
		return nil, ErrNoExecutable
	}

	path, err := exec.LookPath(command.Executable)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, command.Executable, err)
	}

	cmd := exec.Command(path, command.Args...) // nolint:gosec
	cmd.Dir = command.Dir
	cmd.Stdout = command.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = command.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	// Own process group, so Stop can signal the child and its descendants
	// together.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, command.Executable, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, command.Executable, err)
	}

	c := &Child{
		cmd:    cmd,
		stdin:  stdin,
		done:   make(chan struct{}),
		logger: log,
	}

	log.Info("process started",
		"pid", cmd.Process.Pid,
		"executable", command.Executable,
		"args", command.Args)

	go c.reap()

	return c, nil
}

// reap waits for the process to exit and records its status. Waiting here,
// and only here, guarantees the exit status is always consumed.
func (c *Child) reap() {
	err := c.cmd.Wait()

	status := ExitStatus{Code: c.cmd.ProcessState.ExitCode()}
	if ws, ok := c.cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		status.Signaled = true
		status.Signal = ws.Signal().String()
	}

	c.mu.Lock()
	c.status = status
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("process wait returned", "pid", c.PID(), "error", err)
	}
	c.logger.Info("process exited", "pid", c.PID(), "status", status.String())

	_ = c.stdin.Close()
	close(c.done)
}

// PID returns the child's process ID.
func (c *Child) PID() int {
	return c.cmd.Process.Pid
}

// Stdin returns the pipe connected to the child's standard input.
func (c *Child) Stdin() io.Writer {
	return c.stdin
}

// Done returns a channel closed once the child has exited and been reaped.
func (c *Child) Done() <-chan struct{} {
	return c.done
}

// ExitStatus returns how the child terminated. Only valid after Done is
// closed.
func (c *Child) ExitStatus() ExitStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Stop terminates the child: SIGTERM to its process group, then SIGKILL if
// it has not exited within timeout. Stop blocks until the child is reaped
// and returns its exit status. Calling Stop on an exited child returns
// immediately.
func (c *Child) Stop(timeout time.Duration) ExitStatus {
	select {
	case <-c.done:
		return c.ExitStatus()
	default:
	}

	c.logger.Info("stopping process", "pid", c.PID(), "timeout", timeout)
	c.signalGroup(syscall.SIGTERM)

	select {
	case <-c.done:
	case <-time.After(timeout):
		c.killOnce.Do(func() {
			c.logger.Warn("graceful stop timed out, killing", "pid", c.PID())
			c.signalGroup(syscall.SIGKILL)
		})
		<-c.done
	}

	return c.ExitStatus()
}

// signalGroup delivers sig to the child's process group, falling back to
// the child alone when the group cannot be resolved.
func (c *Child) signalGroup(sig syscall.Signal) {
	pid := c.PID()
	if pgid, err := syscall.Getpgid(pid); err == nil {
		if err := syscall.Kill(-pgid, sig); err == nil {
			return
		}
	}
	if err := c.cmd.Process.Signal(sig); err != nil {
		c.logger.Debug("signal delivery failed", "pid", pid, "signal", sig, "error", err)
	}
}
