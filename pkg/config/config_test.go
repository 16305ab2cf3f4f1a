package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if len(cfg.WatchPaths) == 0 {
		t.Error("WatchPaths is empty")
	}

	if len(cfg.Extensions) == 0 {
		t.Error("Extensions is empty")
	}

	if cfg.DebounceWindow <= 0 {
		t.Error("DebounceWindow not set")
	}

	if cfg.StopTimeout <= 0 {
		t.Error("StopTimeout not set")
	}

	if cfg.RestartKey == "" {
		t.Error("RestartKey not set")
	}

	if cfg.Logging.Level == "" {
		t.Error("Log level not set")
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{
			name: "valid config",
			config: &Config{
				Script:         "app.php",
				WatchPaths:     []string{dir},
				Extensions:     []string{"php"},
				DebounceWindow: 100 * time.Millisecond,
				StopTimeout:    time.Second,
			},
		},
		{
			name: "no script or executable",
			config: &Config{
				WatchPaths:     []string{dir},
				Extensions:     []string{"php"},
				DebounceWindow: 100 * time.Millisecond,
				StopTimeout:    time.Second,
			},
			wantErr: ErrNoCommand,
		},
		{
			name: "no watch paths",
			config: &Config{
				Script:         "app.php",
				Extensions:     []string{"php"},
				DebounceWindow: 100 * time.Millisecond,
				StopTimeout:    time.Second,
			},
			wantErr: ErrNoWatchPaths,
		},
		{
			name: "missing watch path",
			config: &Config{
				Script:         "app.php",
				WatchPaths:     []string{filepath.Join(dir, "missing")},
				Extensions:     []string{"php"},
				DebounceWindow: 100 * time.Millisecond,
				StopTimeout:    time.Second,
			},
			wantErr: ErrWatchPathNotFound,
		},
		{
			name: "no extensions",
			config: &Config{
				Script:         "app.php",
				WatchPaths:     []string{dir},
				DebounceWindow: 100 * time.Millisecond,
				StopTimeout:    time.Second,
			},
			wantErr: ErrNoExtensions,
		},
		{
			name: "zero debounce window",
			config: &Config{
				Script:      "app.php",
				WatchPaths:  []string{dir},
				Extensions:  []string{"php"},
				StopTimeout: time.Second,
			},
			wantErr: ErrInvalidDelay,
		},
		{
			name: "zero stop timeout",
			config: &Config{
				Script:         "app.php",
				WatchPaths:     []string{dir},
				Extensions:     []string{"php"},
				DebounceWindow: 100 * time.Millisecond,
			},
			wantErr: ErrInvalidStopTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Resolve()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Resolve() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Resolve() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveWatchPathNotDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.php")
	if err := os.WriteFile(file, []byte("<?php\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{
		Script:         "app.php",
		WatchPaths:     []string{file},
		Extensions:     []string{"php"},
		DebounceWindow: 100 * time.Millisecond,
		StopTimeout:    time.Second,
	}

	if err := cfg.Resolve(); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("Resolve() error = %v, want %v", err, ErrNotDirectory)
	}
}

func TestResolveNormalizesPaths(t *testing.T) {
	dir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := os.Chdir(oldWD); err != nil {
			t.Fatal(err)
		}
	}()

	cfg := Default()
	cfg.Script = "app.php"

	if err := cfg.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	for _, p := range cfg.WatchPaths {
		if !filepath.IsAbs(p) {
			t.Errorf("watch path %q not absolute", p)
		}
	}
	for _, ext := range cfg.Extensions {
		if ext[0] != '.' {
			t.Errorf("extension %q not normalized", ext)
		}
	}
}

func TestResolveInfersInterpreter(t *testing.T) {
	dir := t.TempDir()

	cfg := &Config{
		Script:         "server.php",
		WatchPaths:     []string{dir},
		Extensions:     []string{"php"},
		DebounceWindow: 100 * time.Millisecond,
		StopTimeout:    time.Second,
	}

	if err := cfg.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if cfg.Executable != "php" {
		t.Errorf("Executable = %q, want php", cfg.Executable)
	}

	name, args := cfg.Command()
	if name != "php" {
		t.Errorf("Command() name = %q, want php", name)
	}
	if len(args) != 1 || args[0] != "server.php" {
		t.Errorf("Command() args = %v, want [server.php]", args)
	}
}

func TestCommandWithoutInterpreter(t *testing.T) {
	cfg := &Config{
		Script:     "./server",
		ScriptArgs: []string{"-p", "8080"},
	}

	name, args := cfg.Command()
	if name != "./server" {
		t.Errorf("Command() name = %q, want ./server", name)
	}
	if len(args) != 2 || args[0] != "-p" || args[1] != "8080" {
		t.Errorf("Command() args = %v, want [-p 8080]", args)
	}
}

func TestMergePrecedence(t *testing.T) {
	base := Default()
	base.Script = "app.php"

	fileCfg := &Config{
		Extensions:     []string{"php", "yaml"},
		WatchPaths:     []string{"src", "config"},
		DebounceWindow: 250 * time.Millisecond,
	}

	merged := Merge(base, fileCfg)
	if len(merged.Extensions) != 2 {
		t.Fatalf("file merge Extensions = %v, want [php yaml]", merged.Extensions)
	}

	// An explicit CLI value replaces the config-file list entirely.
	cliCfg := &Config{
		Extensions: []string{"php"},
	}

	merged = Merge(merged, cliCfg)
	if len(merged.Extensions) != 1 || merged.Extensions[0] != "php" {
		t.Errorf("CLI merge Extensions = %v, want [php]", merged.Extensions)
	}

	// Fields the CLI did not supply keep the lower-priority values.
	if merged.DebounceWindow != 250*time.Millisecond {
		t.Errorf("DebounceWindow = %v, want 250ms", merged.DebounceWindow)
	}
	if len(merged.WatchPaths) != 2 {
		t.Errorf("WatchPaths = %v, want [src config]", merged.WatchPaths)
	}
	if merged.Script != "app.php" {
		t.Errorf("Script = %q, want app.php", merged.Script)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "remon.yaml")

	content := `
script: server.php
executable: php
watch:
  - src
  - config
extensions:
  - php
  - yaml
ignore:
  - vendor
delay: 200ms
restart_on_crash: true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader(path).LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Script != "server.php" {
		t.Errorf("Script = %q", cfg.Script)
	}
	if cfg.Executable != "php" {
		t.Errorf("Executable = %q", cfg.Executable)
	}
	if len(cfg.WatchPaths) != 2 {
		t.Errorf("WatchPaths = %v", cfg.WatchPaths)
	}
	if len(cfg.Extensions) != 2 {
		t.Errorf("Extensions = %v", cfg.Extensions)
	}
	if cfg.DebounceWindow != 200*time.Millisecond {
		t.Errorf("DebounceWindow = %v", cfg.DebounceWindow)
	}
	if !cfg.RestartOnCrash {
		t.Error("RestartOnCrash = false, want true")
	}
}

func TestLoadFromFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "remon.yaml")

	if err := os.WriteFile(path, []byte("watch: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader(path).LoadFromFile(path)
	if !errors.Is(err, ErrInvalidYAML) {
		t.Errorf("LoadFromFile() error = %v, want %v", err, ErrInvalidYAML)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := NewLoader(path).Load()
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Load() error = %v, want %v", err, ErrConfigNotFound)
	}
}

func TestLoadDiscoversWorkingDirectoryFile(t *testing.T) {
	dir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := os.Chdir(oldWD); err != nil {
			t.Fatal(err)
		}
	}()

	content := "script: worker.php\ndelay: 300ms\n"
	if err := os.WriteFile("remon.yaml", []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Script != "worker.php" {
		t.Errorf("Script = %q, want worker.php", cfg.Script)
	}
	if cfg.DebounceWindow != 300*time.Millisecond {
		t.Errorf("DebounceWindow = %v, want 300ms", cfg.DebounceWindow)
	}
	// Unset keys keep their defaults.
	if cfg.RestartKey != "rs" {
		t.Errorf("RestartKey = %q, want rs", cfg.RestartKey)
	}
}

func TestLoadDiscoveredMalformedFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := os.Chdir(oldWD); err != nil {
			t.Fatal(err)
		}
	}()

	if err := os.WriteFile("remon.yaml", []byte("watch: [broken"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err = Load("")
	if !errors.Is(err, ErrInvalidYAML) {
		t.Fatalf("Load() error = %v, want %v", err, ErrInvalidYAML)
	}
	if !strings.Contains(err.Error(), "remon.yaml") {
		t.Errorf("Load() error %q does not name the file", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REMON_EXT", "php, inc")
	t.Setenv("REMON_LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Extensions) != 2 || cfg.Extensions[0] != "php" || cfg.Extensions[1] != "inc" {
		t.Errorf("Extensions = %v, want [php inc]", cfg.Extensions)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}
