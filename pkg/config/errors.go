package config

import "errors"

// Common errors returned by the config package. All of them are fatal:
// the supervisor refuses to start on a configuration that fails to resolve.
var (
	// ErrNoCommand is returned when neither a script nor an executable is configured.
	ErrNoCommand = errors.New("no script or executable configured")

	// ErrNoWatchPaths is returned when no watch paths are configured.
	ErrNoWatchPaths = errors.New("no watch paths configured")

	// ErrWatchPathNotFound is returned when a watch path does not exist.
	ErrWatchPathNotFound = errors.New("watch path does not exist")

	// ErrNotDirectory is returned when a watch path is not a directory.
	ErrNotDirectory = errors.New("watch path is not a directory")

	// ErrNoExtensions is returned when the extension allow-list is empty.
	ErrNoExtensions = errors.New("no file extensions configured")

	// ErrInvalidDelay is returned when the debounce window is <= 0.
	ErrInvalidDelay = errors.New("invalid debounce delay: must be > 0")

	// ErrInvalidStopTimeout is returned when the stop timeout is <= 0.
	ErrInvalidStopTimeout = errors.New("invalid stop timeout: must be > 0")

	// ErrConfigNotFound is returned when an explicitly named config file is missing.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when the config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
