package config

import (
	"github.com/fenilsonani/flclean/internal/progress"
	"github.com/fenilsonani/flclean/internal/scanner"
)

// GetDefault returns the default configuration
func GetDefault() *Config {
	scan := scanner.DefaultOptions()

	return &Config{
		Roots:             []string{}, // every detected root
		MaxWorkersPerRoot: scan.MaxWorkersPerRoot,
		MaxDepth:          scan.MaxDepth,
		AutoClean:         false, // Pruning must be requested explicitly
		DryRun:            false,
		SkipDirs:          scan.SkipDirs,
		ProtectedPaths:    []string{},
		ProgressInterval:  scan.ProgressInterval,
		WarningInterval:   scan.WarningInterval,
		RootBaseline:      progress.DefaultRootBaseline,
		LogLevel:          "info",
		LogFile:           "",
		Daemon: &DaemonConfig{
			Enabled: false,
			PidFile: "/tmp/flclean.pid",
			Schedules: []CleanSchedule{
				{
					Name:     "nightly",
					Schedule: "0 3 * * *", // 3 AM every day
					DryRun:   false,
				},
			},
		},
	}
}

// GetExampleConfig returns an example configuration with comments
func GetExampleConfig() string {
	return `# flclean Configuration File
# Location: ~/.config/flclean/config.yaml

# Roots to scan. Leave empty to scan every detected drive and mount point.
roots: []

# Parallel walkers per root (>= 1)
max_workers_per_root: 4

# Maximum directory depth below each top-level folder (>= 1)
max_depth: 10

# Remove redundant snapshots right after a scan completes
auto_clean: false

# Report what would be removed without deleting anything
dry_run: false

# Directory names never descended into (case-insensitive)
skip_dirs:
  - Windows
  - Program Files
  - Program Files (x86)
  - ProgramData
  - AppData
  - System Volume Information
  - proc
  - sys
  - dev
  - run
  - snap
  - System
  - Library
  - private
  - node_modules
  - __pycache__
  - vendor
  - target
  - build
  - Caches
  - Cache

# Extra paths that must never be touched
protected_paths: []

# Throttles for live progress and diagnostics
progress_interval: 500ms
warning_interval: 5s

# Assumed file count per root before the scan learns the real size
root_baseline: 500000

# Logging: debug, info, warn, error
log_level: info
log_file: ""

# Daemon mode configuration
daemon:
  enabled: false
  pid_file: /tmp/flclean.pid
  schedules:
    - name: nightly
      schedule: "0 3 * * *"   # 3 AM every day
      dry_run: false
`
}
