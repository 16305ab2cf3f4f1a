// Package config provides configuration management for remon.
//
// Configuration is resolved from multiple sources with the following
// precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Configuration file (remon.yaml or .remon.yaml in the working directory)
// 4. Default values (lowest priority)
//
// List-valued fields (watch paths, extensions, ignore patterns) follow the
// same rule as scalars: a source that supplies the field replaces the value
// from lower-priority sources. Supplying -ext on the command line therefore
// discards the config file's extension list rather than merging with it.
//
// Example usage:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Resolve(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the complete supervisor configuration.
//
// Invariants after Resolve:
// - Script or Executable is non-empty
// - WatchPaths is non-empty and every entry is an existing absolute directory
// - Extensions is non-empty and every entry starts with "."
// - DebounceWindow and StopTimeout are > 0.
type Config struct {
	// Script is the path of the script or program to supervise.
	Script string `yaml:"script"`

	// ScriptArgs are passed to the script, in order.
	ScriptArgs []string `yaml:"args"`

	// Executable is the interpreter used to run Script. Empty means the
	// script is executed directly; for .php scripts it defaults to "php".
	Executable string `yaml:"executable"`

	// WatchPaths are the directories monitored for changes.
	WatchPaths []string `yaml:"watch"`

	// Extensions is the filename-suffix allow-list (with or without the
	// leading dot; normalized to dotted form by Resolve).
	Extensions []string `yaml:"extensions"`

	// IgnorePatterns are globs or substrings excluded from relevance,
	// matched against paths relative to their watch root. Dotfiles and
	// VCS directories are always ignored regardless of this list.
	IgnorePatterns []string `yaml:"ignore"`

	// RestartKey is the token typed on stdin to force a manual restart.
	RestartKey string `yaml:"restart_key"`

	// DebounceWindow is the quiet period after the last relevant change
	// before a restart is triggered.
	DebounceWindow time.Duration `yaml:"delay"`

	// StopTimeout bounds the graceful-termination wait before the child
	// is killed forcefully.
	StopTimeout time.Duration `yaml:"stop_timeout"`

	// RestartOnCrash restarts the child immediately after an unexpected
	// exit instead of waiting for the next change.
	RestartOnCrash bool `yaml:"restart_on_crash"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Command returns the program and argument vector to execute.
//
// With an interpreter configured the script becomes the first argument;
// otherwise the script itself is the program.
func (c *Config) Command() (string, []string) {
	if c.Executable != "" {
		args := make([]string, 0, len(c.ScriptArgs)+1)
		if c.Script != "" {
			args = append(args, c.Script)
		}
		return c.Executable, append(args, c.ScriptArgs...)
	}
	return c.Script, c.ScriptArgs
}

// Resolve normalizes the configuration in place and validates it.
//
// Watch paths are resolved to absolute paths and must name existing
// directories; extensions are normalized to dotted form; a missing
// interpreter is inferred from the script suffix.
//
// Returns a configuration error if any invariant cannot be satisfied.
// Resolution failure is fatal to the caller by contract: no watching may
// start on an unresolved configuration.
func (c *Config) Resolve() error {
	if c.Script == "" && c.Executable == "" {
		return ErrNoCommand
	}

	if c.Executable == "" {
		c.Executable = interpreterFor(c.Script)
	}

	if len(c.WatchPaths) == 0 {
		return ErrNoWatchPaths
	}
	resolved := make([]string, 0, len(c.WatchPaths))
	for _, p := range c.WatchPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWatchPathNotFound, p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrWatchPathNotFound, abs)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrNotDirectory, abs)
		}
		resolved = append(resolved, abs)
	}
	c.WatchPaths = resolved

	if len(c.Extensions) == 0 {
		return ErrNoExtensions
	}
	exts := make([]string, 0, len(c.Extensions))
	for _, ext := range c.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		return ErrNoExtensions
	}
	c.Extensions = exts

	if c.DebounceWindow <= 0 {
		return ErrInvalidDelay
	}
	if c.StopTimeout <= 0 {
		return ErrInvalidStopTimeout
	}

	return nil
}
