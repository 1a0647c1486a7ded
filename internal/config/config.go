package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fenilsonani/flclean/internal/platform"
	"github.com/fenilsonani/flclean/internal/scanner"
	"github.com/fenilsonani/flclean/internal/security"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Roots             []string      `yaml:"roots"` // empty scans every detected root
	MaxWorkersPerRoot int           `yaml:"max_workers_per_root"`
	MaxDepth          int           `yaml:"max_depth"`
	AutoClean         bool          `yaml:"auto_clean"`
	DryRun            bool          `yaml:"dry_run"`
	SkipDirs          []string      `yaml:"skip_dirs"`
	ProtectedPaths    []string      `yaml:"protected_paths"`
	ProgressInterval  time.Duration `yaml:"progress_interval"`
	WarningInterval   time.Duration `yaml:"warning_interval"`
	RootBaseline      int64         `yaml:"root_baseline"`
	LogLevel          string        `yaml:"log_level"`
	LogFile           string        `yaml:"log_file"`
	Daemon            *DaemonConfig `yaml:"daemon,omitempty"`
}

// DaemonConfig holds daemon mode configuration
type DaemonConfig struct {
	Enabled   bool            `yaml:"enabled"`
	PidFile   string          `yaml:"pid_file"`
	Schedules []CleanSchedule `yaml:"schedules"`
}

// CleanSchedule defines a scheduled scan-and-prune job
type CleanSchedule struct {
	Name     string `yaml:"name"`
	Schedule string `yaml:"schedule"` // Cron expression
	DryRun   bool   `yaml:"dry_run"`
}

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Load loads configuration from a file. Fields missing from the file keep
// their default values.
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefault()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxWorkersPerRoot < 1 {
		return fmt.Errorf("max_workers_per_root must be >= 1")
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be >= 1")
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress_interval must be >= 0")
	}
	if c.WarningInterval < 0 {
		return fmt.Errorf("warning_interval must be >= 0")
	}
	if c.RootBaseline < 0 {
		return fmt.Errorf("root_baseline must be >= 0")
	}

	for _, root := range c.Roots {
		if !filepath.IsAbs(root) {
			return fmt.Errorf("root must be absolute: %s", root)
		}
	}

	for _, name := range c.SkipDirs {
		if err := security.ValidateDirName(name); err != nil {
			return fmt.Errorf("invalid skip_dirs entry %q: %w", name, err)
		}
	}

	// Validate protected paths are absolute
	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	if c.LogLevel != "" && !logLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("unknown log_level: %s", c.LogLevel)
	}

	if c.Daemon != nil {
		if err := c.Daemon.Validate(); err != nil {
			return fmt.Errorf("daemon: %w", err)
		}
	}

	return nil
}

// Validate checks every schedule's name and cron expression
func (d *DaemonConfig) Validate() error {
	seen := make(map[string]bool, len(d.Schedules))
	for _, s := range d.Schedules {
		if s.Name == "" {
			return fmt.Errorf("schedule name is required")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate schedule name: %s", s.Name)
		}
		seen[s.Name] = true

		if _, err := cron.ParseStandard(s.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q for %s: %w", s.Schedule, s.Name, err)
		}
	}
	return nil
}

// ScanOptions snapshots the scan-related settings. The result shares no
// memory with c, so later edits to c do not reach a running scan.
func (c *Config) ScanOptions() scanner.Options {
	return scanner.Options{
		Roots:             append([]string(nil), c.Roots...),
		MaxWorkersPerRoot: c.MaxWorkersPerRoot,
		MaxDepth:          c.MaxDepth,
		AutoClean:         c.AutoClean,
		DryRun:            c.DryRun,
		SkipDirs:          append([]string(nil), c.SkipDirs...),
		ProgressInterval:  c.ProgressInterval,
		WarningInterval:   c.WarningInterval,
		RootBaseline:      c.RootBaseline,
	}
}

// RootLister returns the configured roots when set, otherwise every
// detected drive and mount point
func (c *Config) RootLister() scanner.RootLister {
	if len(c.Roots) > 0 {
		return platform.StaticRoots(append([]string(nil), c.Roots...))
	}
	return platform.NewEnumerator()
}

// PathValidator returns the default validator extended with the configured
// protected paths
func (c *Config) PathValidator() *security.PathValidator {
	pv := security.NewPathValidator()
	for _, path := range c.ProtectedPaths {
		pv.AddProtectedPath(path)
	}
	return pv
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	configDir, err := platform.GetUserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "flclean", "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	// Check if config exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(GetExampleConfig()), 0644); err != nil {
			return "", fmt.Errorf("failed to write config file: %w", err)
		}
	}

	return configPath, nil
}
