package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/term"

	"github.com/remon-dev/remon/pkg/config"
	"github.com/remon-dev/remon/pkg/debounce"
	"github.com/remon-dev/remon/pkg/logger"
	"github.com/remon-dev/remon/pkg/matcher"
	"github.com/remon-dev/remon/pkg/process"
	"github.com/remon-dev/remon/pkg/watcher"
)

// Options configures a Runner.
type Options struct {
	// Config is the resolved supervisor configuration. Required.
	Config *config.Config

	// Logger receives structured log output. Defaults to logger.Default.
	Logger logger.Logger

	// Spawn creates child processes. Defaults to the process package.
	Spawn SpawnFunc

	// Watch delivers filesystem events. Defaults to an fsnotify watcher.
	Watch watcher.Watcher

	// Stdin is the input stream scanned for the manual-restart key and
	// forwarded to the child. When nil, os.Stdin is used and the restart
	// key is only armed if os.Stdin is a terminal.
	Stdin io.Reader

	// Console receives user-facing status lines. Defaults to os.Stderr.
	Console io.Writer

	// Once runs the child a single time without watching and records its
	// exit status instead of restarting.
	Once bool
}

// Runner drives the restart cycle: it owns the current child process and
// reacts to debounced change signals, manual restarts, child exits and
// shutdown.
type Runner struct {
	cfg         *config.Config
	log         logger.Logger
	spawn       SpawnFunc
	watch       watcher.Watcher
	match       *matcher.Matcher
	deb         *debounce.Debouncer
	con         *console
	stdin       io.Reader
	interactive bool
	once        bool

	state   atomic.Int32
	running atomic.Bool

	// child is owned exclusively by the Run loop.
	child Child

	mu       sync.Mutex
	lastExit *process.ExitStatus
}

// New creates a runner for a resolved configuration.
func New(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, ErrNoConfig
	}

	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	m, err := matcher.New(opts.Config.WatchPaths, opts.Config.Extensions, opts.Config.IgnorePatterns)
	if err != nil {
		return nil, err
	}

	w := opts.Watch
	if w == nil {
		w, err = watcher.New(watcher.Config{}, log)
		if err != nil {
			return nil, err
		}
	}

	spawn := opts.Spawn
	if spawn == nil {
		spawn = func(cmd process.Command) (Child, error) {
			return process.Start(cmd, log)
		}
	}

	conOut := opts.Console
	if conOut == nil {
		conOut = os.Stderr
	}

	r := &Runner{
		cfg:         opts.Config,
		log:         log,
		spawn:       spawn,
		watch:       w,
		match:       m,
		deb:         debounce.New(opts.Config.DebounceWindow),
		con:         newConsole(conOut),
		stdin:       opts.Stdin,
		interactive: opts.Stdin != nil,
		once:        opts.Once,
	}

	if r.stdin == nil {
		r.stdin = os.Stdin
		r.interactive = term.IsTerminal(int(os.Stdin.Fd()))
	}

	return r, nil
}

// State returns the controller's current state.
func (r *Runner) State() State {
	return State(r.state.Load())
}

// LastExit returns the most recent child exit status, or nil if no child
// has exited yet.
func (r *Runner) LastExit() *process.ExitStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastExit
}

// Run starts the initial child and processes events until ctx is
// cancelled. It returns an error only for fatal conditions: a failed
// watcher setup or a failed initial spawn. Cancellation stops the current
// child (gracefully, then forcefully) before Run returns; nothing is
// spawned after shutdown begins.
func (r *Runner) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	if r.once {
		return r.runOnce(ctx)
	}

	if err := r.watch.Start(ctx, r.cfg.WatchPaths); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	r.con.status("watching: %s", strings.Join(r.cfg.WatchPaths, ", "))
	r.con.status("extensions: %s", strings.Join(r.cfg.Extensions, ", "))
	if r.interactive {
		r.con.notice("to restart at any time, enter `%s`", r.cfg.RestartKey)
	}

	if err := r.startChild(); err != nil {
		r.shutdown()
		return err
	}

	lines := make(chan string, 4)
	go r.scanInput(ctx, lines)

	events := r.watch.Events()
	watchErrs := r.watch.Errors()

	for {
		// The exit channel tracks whichever child is current; nil when idle.
		var exited <-chan struct{}
		if r.child != nil {
			exited = r.child.Done()
		}

		select {
		case <-ctx.Done():
			r.shutdown()
			return nil

		case ev := <-events:
			if r.match.Matches(ev.Path) {
				r.log.Debug("relevant change", "path", ev.Path, "op", ev.Op.String())
				r.deb.Trigger()
			}

		case err := <-watchErrs:
			r.log.Warn("watch error, continuing", "error", err)

		case <-r.deb.Signals():
			r.restart(ctx, "restarting due to changes...")

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			r.handleInput(ctx, line)

		case <-exited:
			r.onChildExit()
		}
	}
}

// runOnce starts the child a single time and waits for it to finish.
func (r *Runner) runOnce(ctx context.Context) error {
	// No watching in single-run mode.
	if err := r.watch.Close(); err != nil {
		r.log.Debug("watcher close failed", "error", err)
	}

	if err := r.startChild(); err != nil {
		return err
	}

	select {
	case <-r.child.Done():
		r.recordExit(r.child.ExitStatus())
	case <-ctx.Done():
		r.state.Store(int32(StateStopping))
		r.recordExit(r.child.Stop(r.cfg.StopTimeout))
	}

	r.child = nil
	r.state.Store(int32(StateIdle))
	return nil
}

// restart replaces the current child with a fresh one: the previous handle
// is fully stopped and reaped before the new spawn, so at most one child is
// ever live.
func (r *Runner) restart(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		// Shutdown has been initiated; never spawn past this point.
		return
	}

	if r.child != nil {
		select {
		case <-r.child.Done():
			// Already exited; nothing to stop.
		default:
			r.state.Store(int32(StateStopping))
			r.con.notice(reason)
			r.recordExit(r.child.Stop(r.cfg.StopTimeout))
		}
		r.child = nil
	}

	if err := r.startChild(); err != nil {
		r.log.Error("restart failed", "error", err)
	}
}

// startChild spawns a new child and transitions to Running. On spawn
// failure the controller reports and goes idle; the next change signal or
// manual restart retries.
func (r *Runner) startChild() error {
	r.state.Store(int32(StateStarting))

	name, args := r.cfg.Command()
	child, err := r.spawn(process.Command{
		Executable: name,
		Args:       args,
	})
	if err != nil {
		r.con.failure("failed to start %s: %v", command(name, args), err)
		r.log.Error("spawn failed", "executable", name, "error", err)
		r.child = nil
		r.state.Store(int32(StateIdle))
		return err
	}

	r.child = child
	r.state.Store(int32(StateRunning))
	r.con.status("starting %s", command(name, args))
	return nil
}

// onChildExit handles a child that exited on its own.
func (r *Runner) onChildExit() {
	status := r.child.ExitStatus()
	r.recordExit(status)
	r.child = nil

	if status.Success() {
		r.con.status("clean exit - waiting for changes before restart")
		r.state.Store(int32(StateIdle))
		return
	}

	r.con.failure("app crashed (%s)", status)
	if r.cfg.RestartOnCrash {
		if err := r.startChild(); err != nil {
			r.log.Error("restart after crash failed", "error", err)
		}
		return
	}

	r.con.notice("waiting for file changes before restarting...")
	r.state.Store(int32(StateIdle))
}

// handleInput processes one line of supervisor stdin: the restart key
// triggers a manual restart, anything else is forwarded to the child.
func (r *Runner) handleInput(ctx context.Context, line string) {
	if r.interactive && strings.TrimSpace(line) == r.cfg.RestartKey {
		r.restart(ctx, "restarting at user request...")
		return
	}

	if r.child != nil {
		if _, err := io.WriteString(r.child.Stdin(), line+"\n"); err != nil {
			r.log.Debug("stdin forward failed", "error", err)
		}
	}
}

// scanInput reads supervisor stdin line by line into the event loop.
func (r *Runner) scanInput(ctx context.Context, lines chan<- string) {
	defer close(lines)

	scanner := bufio.NewScanner(r.stdin)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}

// shutdown tears down the current child and the watch session.
func (r *Runner) shutdown() {
	r.deb.Stop()

	if r.child != nil {
		select {
		case <-r.child.Done():
			r.recordExit(r.child.ExitStatus())
		default:
			r.state.Store(int32(StateStopping))
			r.con.notice("shutting down...")
			r.recordExit(r.child.Stop(r.cfg.StopTimeout))
		}
		r.child = nil
	}

	if err := r.watch.Close(); err != nil {
		r.log.Warn("watcher close failed", "error", err)
	}

	r.state.Store(int32(StateIdle))
	r.log.Info("runner stopped")
}

func (r *Runner) recordExit(status process.ExitStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastExit = &status
}
