// Package daemon runs scheduled scan-and-prune jobs in the background.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/fenilsonani/flclean/internal/config"
	"github.com/fenilsonani/flclean/internal/logging"
	"github.com/fenilsonani/flclean/internal/progress"
	"github.com/fenilsonani/flclean/internal/retention"
	"github.com/fenilsonani/flclean/internal/scanner"
)

// DefaultPidFile is used when the configuration leaves pid_file empty
const DefaultPidFile = "/tmp/flclean.pid"

// ErrJobRunning is returned when a job is started while another is active
var ErrJobRunning = errors.New("daemon: a job is already running")

// Daemon represents the background cleaner
type Daemon struct {
	config      *config.Config
	scheduler   *Scheduler
	logger      *logging.Logger
	running     bool
	shutdownCtx context.Context
	cancelFunc  context.CancelFunc
	mu          sync.RWMutex
	jobMu       sync.Mutex
}

// JobResult describes one finished job
type JobResult struct {
	Name    string
	Summary *scanner.Summary
	Cleaned *retention.Result
}

// New creates a new daemon instance
func New(cfg *config.Config, logger *logging.Logger) (*Daemon, error) {
	if cfg.Daemon == nil || !cfg.Daemon.Enabled {
		return nil, fmt.Errorf("daemon not enabled in configuration")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	// Create context for shutdown
	ctx, cancel := context.WithCancel(context.Background())

	daemon := &Daemon{
		config:      cfg,
		logger:      logger,
		shutdownCtx: ctx,
		cancelFunc:  cancel,
	}

	daemon.scheduler = NewScheduler(daemon, cfg.Daemon.Schedules)

	return daemon, nil
}

// Scheduler returns the daemon's job scheduler
func (d *Daemon) Scheduler() *Scheduler {
	return d.scheduler
}

// Start runs the daemon until Stop is called or a shutdown signal arrives
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	d.logger.Info("Starting flclean daemon")

	if err := d.acquireLock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer d.releaseLock()

	if err := d.writePidFile(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer d.removePidFile()

	stopSignals := d.setupSignalHandlers()
	defer stopSignals()

	if err := d.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer d.scheduler.Stop()

	d.logger.Info("Daemon started successfully")

	<-d.shutdownCtx.Done()

	d.logger.Info("Daemon shutting down")
	return nil
}

// Stop cancels any running job and stops the daemon
func (d *Daemon) Stop() {
	if d.cancelFunc != nil {
		d.cancelFunc()
	}
}

// IsRunning returns whether the daemon is running
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// RunJob scans the configured roots and prunes redundant snapshots. Only one
// job runs at a time; a concurrent call returns ErrJobRunning.
func (d *Daemon) RunJob(ctx context.Context, job *Job) (*JobResult, error) {
	if !d.jobMu.TryLock() {
		return nil, ErrJobRunning
	}
	defer d.jobMu.Unlock()

	log := d.logger.With("job", job.Name)
	log.Info("Running job")

	opts := d.config.ScanOptions()
	opts.AutoClean = true
	opts.DryRun = job.DryRun || d.config.DryRun

	pruner := retention.New(retention.Options{
		DryRun:    opts.DryRun,
		Validator: d.config.PathValidator(),
	})
	coord := scanner.NewCoordinator(opts, d.config.RootLister(), pruner)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range coord.Events() {
			switch e := ev.(type) {
			case scanner.WarningEvent:
				log.Warn("%s", e.String())
			case scanner.FoundBackupEvent:
				log.Debug("Found snapshot %s", e.File.Path)
			case scanner.AutoCleanRequestedEvent:
				log.Info("Pruning %d of %d projects", e.Redundant, e.Projects)
			}
		}
	}()

	summary, err := coord.Run(ctx)
	<-done

	if err != nil {
		log.Error("Job failed: %v", err)
		return &JobResult{Name: job.Name, Summary: summary}, fmt.Errorf("scan failed: %w", err)
	}

	log.Info("Scanned %s files in %s, found %d snapshots",
		progress.FormatCount(summary.Scanned),
		progress.FormatDuration(summary.Duration),
		summary.TotalFound)
	if len(summary.IncompleteRoots) > 0 {
		log.Warn("Incomplete roots: %s", strings.Join(summary.IncompleteRoots, ", "))
	}

	cleaned := summary.Cleaned
	verb := "deleted"
	if cleaned.DryRun {
		verb = "would delete"
	}
	log.Info("Job completed: %s %d snapshots, reclaimed %s, %d errors",
		verb, cleaned.Deleted, progress.FormatBytes(cleaned.ReclaimedBytes), len(cleaned.Failures))

	return &JobResult{Name: job.Name, Summary: summary, Cleaned: cleaned}, nil
}

// setupSignalHandlers stops the daemon on interrupt or SIGTERM. The returned
// function detaches the handlers.
func (d *Daemon) setupSignalHandlers() func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	quit := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			d.logger.Info("Received shutdown signal: %v", sig)
			d.Stop()
		case <-quit:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(quit)
	}
}

func (d *Daemon) pidFile() string {
	if d.config.Daemon.PidFile == "" {
		return DefaultPidFile
	}
	return d.config.Daemon.PidFile
}

func (d *Daemon) lockFile() string {
	return d.pidFile() + ".lock"
}

// acquireLock acquires the lock file
func (d *Daemon) acquireLock() error {
	file, err := os.OpenFile(d.lockFile(), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("daemon already running (lock file exists)")
		}
		return err
	}

	_, err = fmt.Fprintf(file, "%d\n", os.Getpid())
	file.Close()
	return err
}

// releaseLock releases the lock file
func (d *Daemon) releaseLock() error {
	return os.Remove(d.lockFile())
}

// writePidFile writes the PID file
func (d *Daemon) writePidFile() error {
	return os.WriteFile(d.pidFile(), []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}

// removePidFile removes the PID file
func (d *Daemon) removePidFile() error {
	return os.Remove(d.pidFile())
}

// ReadPid returns the PID recorded in pidFile
func ReadPid(pidFile string) (int, error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed PID file %s: %w", pidFile, err)
	}
	return pid, nil
}
