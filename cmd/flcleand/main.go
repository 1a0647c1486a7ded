package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fenilsonani/flclean/internal/config"
	"github.com/fenilsonani/flclean/internal/daemon"
	"github.com/fenilsonani/flclean/internal/logging"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"

	configPath string
	testConfig bool
	runNow     string
)

// systemConfigPath is tried before the per-user config
const systemConfigPath = "/etc/flclean/config.yaml"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "flcleand",
	Short:         "Run scheduled FL Studio backup cleanups",
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}

		if err := checkDaemonConfig(cfg); err != nil {
			return err
		}

		if testConfig {
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		}

		logger, err := logging.NewLogger(cfg.LogFile, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Close()

		d, err := daemon.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("error creating daemon: %w", err)
		}

		if runNow != "" {
			if err := d.Scheduler().AddJob(scheduleByName(cfg, runNow)); err != nil {
				return err
			}
			_, err := d.Scheduler().TriggerJob(context.Background(), runNow)
			return err
		}

		if isRunning(cfg) {
			return fmt.Errorf("daemon is already running")
		}

		return d.Start()
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to configuration file")
	rootCmd.Flags().BoolVar(&testConfig, "test-config", false, "test configuration and exit")
	rootCmd.Flags().StringVar(&runNow, "run-now", "", "run the named schedule once and exit")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	// Try system config first
	if _, err := os.Stat(systemConfigPath); err == nil {
		return config.Load(systemConfigPath)
	}

	// Fall back to user config
	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}

	return config.Load(cfgPath)
}

func checkDaemonConfig(cfg *config.Config) error {
	if cfg.Daemon == nil || !cfg.Daemon.Enabled {
		return fmt.Errorf(`daemon not enabled in configuration; add the following to your config file:
daemon:
  enabled: true
  schedules:
    - name: nightly
      schedule: "0 3 * * *"`)
	}
	if len(cfg.Daemon.Schedules) == 0 {
		return fmt.Errorf("no schedules configured; add at least one schedule")
	}
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Configuration is valid")
	fmt.Fprintf(w, "Daemon enabled: %v\n", cfg.Daemon.Enabled)
	fmt.Fprintf(w, "Schedules: %d\n", len(cfg.Daemon.Schedules))
	for _, sched := range cfg.Daemon.Schedules {
		mode := ""
		if sched.DryRun || cfg.DryRun {
			mode = " (dry run)"
		}
		fmt.Fprintf(w, "  - %s: %s%s\n", sched.Name, sched.Schedule, mode)
	}
}

// scheduleByName returns the configured schedule, or an ad-hoc one when the
// name is unknown so --run-now still works without a matching entry
func scheduleByName(cfg *config.Config, name string) config.CleanSchedule {
	for _, s := range cfg.Daemon.Schedules {
		if s.Name == name {
			return s
		}
	}
	return config.CleanSchedule{Name: name, Schedule: "@yearly"}
}

// isRunning reports whether the PID file names a live process
func isRunning(cfg *config.Config) bool {
	pidFile := cfg.Daemon.PidFile
	if pidFile == "" {
		pidFile = daemon.DefaultPidFile
	}

	pid, err := daemon.ReadPid(pidFile)
	if err != nil || pid <= 0 {
		return false
	}

	exists, err := process.PidExists(int32(pid))
	return err == nil && exists
}
