package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader provides methods for loading configuration from its sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Command-line overrides are the caller's concern: merge them on top
	// with Merge, then call Resolve on the result.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a configuration loader.
//
// If configPath is empty, remon.yaml and .remon.yaml are searched for in
// the working directory; a missing discovered file is not an error, a
// missing explicit file is. A file that exists but does not parse is an
// error either way.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	configPath := l.configPath
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		switch {
		case err == nil:
			cfg = Merge(cfg, fileCfg)
		case l.configPath == "" && errors.Is(err, ErrConfigNotFound):
			// A discovered file that vanished between discovery and read
			// is treated as absent.
		default:
			// A config file that exists must parse, discovered or not.
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	}

	return applyEnvVars(cfg), nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// findConfigFile searches the working directory for a config file.
//
// Returns empty string if none is found.
func findConfigFile() string {
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Merge layers override on top of base, field by field.
//
// A field override supplies (non-zero scalar, non-empty list) replaces the
// base value; everything else is kept from base. Lists replace rather than
// union so that every source follows the same field-wins rule.
func Merge(base, override *Config) *Config {
	result := *base

	if override.Script != "" {
		result.Script = override.Script
	}
	if len(override.ScriptArgs) > 0 {
		result.ScriptArgs = override.ScriptArgs
	}
	if override.Executable != "" {
		result.Executable = override.Executable
	}
	if len(override.WatchPaths) > 0 {
		result.WatchPaths = override.WatchPaths
	}
	if len(override.Extensions) > 0 {
		result.Extensions = override.Extensions
	}
	if len(override.IgnorePatterns) > 0 {
		result.IgnorePatterns = override.IgnorePatterns
	}
	if override.RestartKey != "" {
		result.RestartKey = override.RestartKey
	}
	if override.DebounceWindow > 0 {
		result.DebounceWindow = override.DebounceWindow
	}
	if override.StopTimeout > 0 {
		result.StopTimeout = override.StopTimeout
	}
	if override.RestartOnCrash {
		result.RestartOnCrash = true
	}

	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - REMON_WATCH: comma-separated watch directories
//   - REMON_EXT: comma-separated extension allow-list
//   - REMON_LOG_LEVEL: log level
func applyEnvVars(cfg *Config) *Config {
	result := *cfg

	if watch := os.Getenv("REMON_WATCH"); watch != "" {
		result.WatchPaths = splitList(watch)
	}
	if exts := os.Getenv("REMON_EXT"); exts != "" {
		result.Extensions = splitList(exts)
	}
	if level := os.Getenv("REMON_LOG_LEVEL"); level != "" {
		result.Logging.Level = strings.ToLower(level)
	}

	return &result
}

// splitList splits a comma-separated value, trimming whitespace and
// dropping empty entries.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load is a convenience function that creates a loader and loads
// configuration.
//
// Equivalent to:
//
//	loader := NewLoader(path)
//	return loader.Load()
func Load(path string) (*Config, error) {
	return NewLoader(path).Load()
}
