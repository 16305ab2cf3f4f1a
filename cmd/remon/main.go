// Package main provides the remon CLI.
//
// remon supervises a development process: it runs a script, watches source
// directories for changes, and restarts the script whenever a relevant file
// is created, modified or removed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/remon-dev/remon/pkg/config"
	"github.com/remon-dev/remon/pkg/logger"
	"github.com/remon-dev/remon/pkg/process"
	"github.com/remon-dev/remon/pkg/runner"
)

// Exit codes.
const (
	exitOK     = 0
	exitError  = 1
	exitConfig = 2
	exitSpawn  = 3
)

// version is set during build time.
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// run executes the supervisor and returns the process exit code.
func run(args []string) int {
	fs := flag.NewFlagSet("remon", flag.ContinueOnError)

	configPath := fs.String("config", "", "path to configuration file")
	execProg := fs.String("exec", "", "interpreter used to run the script")
	extList := fs.String("ext", "", "comma-separated extension allow-list (default php)")
	delay := fs.Duration("delay", 0, "debounce window before a restart (default 100ms)")
	stopTimeout := fs.Duration("stop-timeout", 0, "graceful stop timeout before the child is killed (default 5s)")
	restartOnCrash := fs.Bool("restart-on-crash", false, "restart immediately after an unexpected exit")
	once := fs.Bool("once", false, "run the script a single time and forward its exit code")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "log format (text, json)")
	showVersion := fs.Bool("version", false, "show version information")

	var watchDirs stringList
	fs.Var(&watchDirs, "watch", "directory to watch (repeatable)")
	var ignores stringList
	fs.Var(&ignores, "ignore", "ignore pattern, glob or substring (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: remon [flags] <script> [args...]\n\n")
		fmt.Fprintf(fs.Output(), "Runs <script>, watching for source changes and restarting it.\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	if *showVersion {
		fmt.Printf("remon %s\n", version)
		return exitOK
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "remon: %v\n", err)
		return exitConfig
	}

	// Command-line values override the config file field by field.
	cli := &config.Config{
		Executable:     *execProg,
		WatchPaths:     watchDirs,
		IgnorePatterns: ignores,
		DebounceWindow: *delay,
		StopTimeout:    *stopTimeout,
		RestartOnCrash: *restartOnCrash,
		Logging: config.LoggingConfig{
			Level:  *logLevel,
			Format: *logFormat,
		},
	}
	if *extList != "" {
		for _, ext := range strings.Split(*extList, ",") {
			if ext = strings.TrimSpace(ext); ext != "" {
				cli.Extensions = append(cli.Extensions, ext)
			}
		}
	}
	if rest := fs.Args(); len(rest) > 0 {
		cli.Script = rest[0]
		cli.ScriptArgs = rest[1:]
	}

	cfg = config.Merge(cfg, cli)

	if err := cfg.Resolve(); err != nil {
		fmt.Fprintf(os.Stderr, "remon: %v\n", err)
		return exitConfig
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Output: cfg.Logging.Output,
		Format: cfg.Logging.Format,
	})

	r, err := runner.New(runner.Options{
		Config: cfg,
		Logger: log,
		Once:   *once,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "remon: %v\n", err)
		return exitConfig
	}

	// SIGINT/SIGTERM initiate graceful shutdown: the child is stopped
	// before the supervisor exits, and nothing is spawned afterwards.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "remon: %v\n", err)
		if errors.Is(err, process.ErrSpawn) {
			return exitSpawn
		}
		return exitError
	}

	if *once {
		if last := r.LastExit(); last != nil && !last.Success() {
			if last.Code > 0 {
				return last.Code
			}
			return exitError
		}
	}

	return exitOK
}
