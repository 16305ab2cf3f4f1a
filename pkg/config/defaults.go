package config

import (
	"path/filepath"
	"strings"
	"time"
)

// configFileNames are the config files discovered in the working directory,
// in search order.
var configFileNames = []string{"remon.yaml", ".remon.yaml"}

// interpreters maps script suffixes to the interpreter used to run them
// when no executable is configured.
var interpreters = map[string]string{
	".php": "php",
}

// Default returns a configuration with built-in default values.
//
// The defaults supervise a PHP script in the current directory:
// watch ".", react to .php files, 100ms debounce, 5s graceful stop.
func Default() *Config {
	return &Config{
		WatchPaths:     []string{"."},
		Extensions:     []string{".php"},
		RestartKey:     "rs",
		DebounceWindow: 100 * time.Millisecond,
		StopTimeout:    5 * time.Second,
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}

// interpreterFor returns the interpreter for a script path, or "" when the
// script should be executed directly.
func interpreterFor(script string) string {
	return interpreters[strings.ToLower(filepath.Ext(script))]
}
