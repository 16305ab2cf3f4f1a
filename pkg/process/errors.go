package process

import "errors"

// Common errors returned by the process package.
var (
	// ErrSpawn is returned when the executable cannot be located or the
	// OS refuses to create the process.
	ErrSpawn = errors.New("failed to spawn process")

	// ErrNoExecutable is returned when Command.Executable is empty.
	ErrNoExecutable = errors.New("no executable specified")
)
