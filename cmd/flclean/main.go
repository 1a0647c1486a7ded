package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/fenilsonani/flclean/internal/config"
	"github.com/fenilsonani/flclean/internal/logging"
	"github.com/fenilsonani/flclean/internal/ui"
	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath string
	verbose    bool
	noColor    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flclean",
	Short: "Remove redundant FL Studio autosave backups",
	Long: `flclean scans every drive for FL Studio "Backup" folders and keeps only the
most recent autosave snapshot of each project.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Scan with a live terminal UI and confirm before pruning",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := applyScanFlags(cmd, cfg); err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()
		return ui.RunInteractive(ctx, cfg)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	addScanFlags(scanCmd)
	scanCmd.Flags().BoolVar(&flags.autoClean, "auto-clean", false, "prune redundant snapshots after the scan")
	scanCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "report what auto-clean would delete without deleting")
	scanCmd.Flags().StringVar(&flags.output, "output", "summary", "output format (summary, table, json, yaml)")
	scanCmd.Flags().StringVar(&flags.file, "file", "", "save report to file")

	addScanFlags(cleanCmd)
	cleanCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "show what would be deleted without actually deleting")
	cleanCmd.Flags().BoolVar(&flags.force, "force", false, "skip confirmation prompt")
	cleanCmd.Flags().StringVar(&flags.manifest, "manifest", "", "write a manifest of deleted files to this path")

	addScanFlags(interactiveCmd)
	interactiveCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "simulate deletions")

	configCmd.AddCommand(configInitCmd, configShowCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(rootsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(interactiveCmd)
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return filepath.Abs(configPath)
	}
	return config.GetConfigPath()
}

func loadConfig() (*config.Config, error) {
	cfgPath, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	return config.Load(cfgPath)
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logging.NewLogger(cfg.LogFile, level)
}

// signalContext is cancelled on interrupt or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
