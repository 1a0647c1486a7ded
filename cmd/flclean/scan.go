package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/fenilsonani/flclean/internal/backup"
	"github.com/fenilsonani/flclean/internal/config"
	"github.com/fenilsonani/flclean/internal/logging"
	"github.com/fenilsonani/flclean/internal/progress"
	"github.com/fenilsonani/flclean/internal/reporter"
	"github.com/fenilsonani/flclean/internal/retention"
	"github.com/fenilsonani/flclean/internal/scanner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// scanFlags holds the flags shared by the scanning commands
type scanFlags struct {
	paths     []string
	workers   int
	depth     int
	autoClean bool
	dryRun    bool
	force     bool
	output    string
	file      string
	manifest  string
}

var flags scanFlags

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&flags.paths, "path", nil, "scan only these roots (repeatable)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "maximum concurrent walkers per root")
	cmd.Flags().IntVar(&flags.depth, "depth", 0, "maximum directory depth below each top-level folder")
}

// applyScanFlags overrides cfg with the flags the user actually set
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()

	if fs.Changed("path") {
		roots := make([]string, 0, len(flags.paths))
		for _, p := range flags.paths {
			abs, err := filepath.Abs(p)
			if err != nil {
				return fmt.Errorf("invalid path %s: %w", p, err)
			}
			roots = append(roots, abs)
		}
		cfg.Roots = roots
	}
	if fs.Changed("workers") {
		cfg.MaxWorkersPerRoot = flags.workers
	}
	if fs.Changed("depth") {
		cfg.MaxDepth = flags.depth
	}
	if fs.Changed("auto-clean") {
		cfg.AutoClean = flags.autoClean
	}
	if fs.Changed("dry-run") {
		cfg.DryRun = flags.dryRun
	}

	return cfg.Validate()
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find FL Studio autosave backups",
	Long: `Scans every drive (or the given --path roots) for Backup folders and reports
how many snapshots could be removed. With --auto-clean the redundant snapshots
are pruned once the scan completes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := applyScanFlags(cmd, cfg); err != nil {
			return err
		}
		format, err := reporter.ParseFormat(flags.output)
		if err != nil {
			return err
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Close()

		ctx, stop := signalContext()
		defer stop()

		engine := newEngine(cfg)
		summary, found, scanErr := runScan(ctx, cfg, engine, logger, os.Stderr)
		if summary == nil {
			return scanErr
		}

		rep := reporter.Build(summary, found)
		if flags.file != "" {
			if err := reporter.SaveToFile(rep, flags.file, format); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			color.Green("Report saved to: %s", flags.file)
		} else if err := reporter.New(os.Stdout, format).Report(rep); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		if summary.Cleaned != nil {
			fmt.Println()
			reporter.PrintPruneResult(os.Stdout, summary.Cleaned)
		}

		return scanErr
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Scan and remove redundant snapshots",
	Long: `Scans for autosave backups, shows what would be removed and, after
confirmation, keeps only the newest snapshot of every project.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := applyScanFlags(cmd, cfg); err != nil {
			return err
		}
		// Pruning happens below after confirmation
		cfg.AutoClean = false

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Close()

		ctx, stop := signalContext()
		defer stop()

		engine := newEngine(cfg)
		summary, found, err := runScan(ctx, cfg, engine, logger, os.Stderr)
		if err != nil {
			return err
		}

		rep := reporter.Build(summary, found)
		if err := reporter.New(os.Stdout, reporter.FormatSummary).Report(rep); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		if rep.Redundant == 0 {
			color.Green("\nNothing to clean: every project has a single snapshot.")
			return nil
		}

		if !flags.force && !cfg.DryRun {
			if !confirm(os.Stdin, os.Stdout, fmt.Sprintf("\nDelete %d snapshots (%s)? (y/N): ",
				rep.Redundant, rep.ReclaimableReadable)) {
				fmt.Println("Cleanup cancelled")
				return nil
			}
		}

		if cfg.DryRun {
			color.Yellow("\n[DRY RUN MODE] No files will be deleted.")
		} else {
			fmt.Println("\nCleaning...")
		}

		result := engine.Prune(ctx, found)
		fmt.Println()
		reporter.PrintPruneResult(os.Stdout, result)

		if flags.manifest != "" && !result.DryRun {
			if err := engine.Manifest().Save(flags.manifest); err != nil {
				return fmt.Errorf("failed to write manifest: %w", err)
			}
			fmt.Printf("Manifest written to: %s\n", flags.manifest)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if len(result.Failures) > 0 {
			return fmt.Errorf("%d snapshots could not be deleted", len(result.Failures))
		}
		return nil
	},
}

func newEngine(cfg *config.Config) *retention.Engine {
	return retention.New(retention.Options{
		DryRun:    cfg.DryRun,
		Validator: cfg.PathValidator(),
	})
}

// runScan runs one coordinator while printing live progress to status. A
// cancelled scan still returns its partial summary.
func runScan(ctx context.Context, cfg *config.Config, pruner scanner.Pruner, logger *logging.Logger, status io.Writer) (*scanner.Summary, backup.Found, error) {
	coord := scanner.NewCoordinator(cfg.ScanOptions(), cfg.RootLister(), pruner)
	live := isTerminal(status)

	done := make(chan struct{})
	go func() {
		defer close(done)
		drainEvents(coord.Events(), logger, status, live)
	}()

	summary, err := coord.Run(ctx)
	<-done

	if err != nil && summary != nil && summary.Cancelled {
		color.New(color.FgYellow).Fprintln(status, "Scan cancelled; results are partial.")
		return summary, coord.Found(), err
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scan failed: %w", err)
	}
	for _, root := range summary.IncompleteRoots {
		color.New(color.FgYellow).Fprintf(status, "Root %s was not scanned completely\n", root)
	}
	return summary, coord.Found(), nil
}

// drainEvents consumes every coordinator event until the channel closes
func drainEvents(events <-chan scanner.Event, logger *logging.Logger, status io.Writer, live bool) {
	p := &progress.ScanProgress{Phase: progress.PhaseScanning, StartTime: time.Now()}

	for ev := range events {
		switch e := ev.(type) {
		case scanner.ProgressEvent:
			p.FilesScanned = e.Scanned
			p.TotalEstimate = e.Estimate
			p.Percent = e.Percent
			p.CurrentPath = e.CurrentPath
			if live {
				fmt.Fprintf(status, "\r\033[K%s", progress.FormatScanProgress(p))
			}
		case scanner.FoundBackupEvent:
			p.BackupsFound++
			logger.Debug("Found snapshot %s", e.File.Path)
		case scanner.WarningEvent:
			logger.Warn("%s", e.String())
		case scanner.CompleteEvent:
			p.Phase = progress.PhaseComplete
			p.FilesScanned = e.Scanned
			p.BackupsFound = e.TotalFound
			if live {
				fmt.Fprintf(status, "\r\033[K%s\n", progress.FormatScanProgress(p))
			}
		case scanner.AutoCleanRequestedEvent:
			mode := ""
			if e.DryRun {
				mode = " (dry run)"
			}
			fmt.Fprintf(status, "Pruning %d of %d projects%s...\n", e.Redundant, e.Projects, mode)
		case scanner.CleanedEvent:
			logger.Info("Pruned %d snapshots, reclaimed %s",
				e.Result.Deleted, progress.FormatBytes(e.Result.ReclaimedBytes))
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// confirm asks a yes/no question, defaulting to no
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
