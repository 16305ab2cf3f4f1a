package runner

import "errors"

// Common errors returned by the runner.
var (
	// ErrNoConfig is returned when New is called without a configuration.
	ErrNoConfig = errors.New("no configuration provided")

	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("runner already running")
)
