package daemon

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fenilsonani/flclean/internal/config"
	"github.com/fenilsonani/flclean/internal/logging"
	"github.com/robfig/cron/v3"
)

// stopTimeout bounds how long Stop waits for running jobs
var stopTimeout = 10 * time.Second

// Job is a scheduled scan-and-prune run
type Job struct {
	Name     string
	Schedule string
	DryRun   bool
	NextRun  time.Time
	LastRun  time.Time
}

type scheduledJob struct {
	id  cron.EntryID
	job *Job
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	daemon    *Daemon
	cron      *cron.Cron
	jobs      map[string]*scheduledJob
	jobsMu    sync.RWMutex
	running   bool
	schedules []config.CleanSchedule
}

// cronLogger routes cron's internal logging through the daemon logger
type cronLogger struct {
	l *logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Zerolog().Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Zerolog().Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// NewScheduler creates a new scheduler. Overlapping runs of the same job are
// skipped and a panicking job is logged instead of crashing the daemon.
func NewScheduler(daemon *Daemon, schedules []config.CleanSchedule) *Scheduler {
	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)

	logger := cronLogger{l: daemon.logger}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(logger),
		cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		),
	)

	return &Scheduler{
		daemon:    daemon,
		cron:      c,
		jobs:      make(map[string]*scheduledJob),
		schedules: append([]config.CleanSchedule(nil), schedules...),
	}
}

// Start registers the configured schedules and starts the scheduler
func (s *Scheduler) Start() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	for _, schedule := range s.schedules {
		if _, exists := s.jobs[schedule.Name]; exists {
			continue
		}
		if err := s.addJobInternal(schedule); err != nil {
			return fmt.Errorf("failed to add schedule %s: %w", schedule.Name, err)
		}
	}

	s.cron.Start()
	s.running = true

	s.daemon.logger.Info("Scheduler started with %d jobs", len(s.jobs))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.jobsMu.Lock()
	if !s.running {
		s.jobsMu.Unlock()
		return
	}
	s.running = false
	s.jobsMu.Unlock()

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(stopTimeout):
		s.daemon.logger.Warn("Scheduler stop timed out")
	}

	s.daemon.logger.Info("Scheduler stopped")
}

// addJobInternal adds a job (internal, no lock)
func (s *Scheduler) addJobInternal(schedule config.CleanSchedule) error {
	if schedule.Name == "" {
		return fmt.Errorf("job name is required")
	}
	if _, exists := s.jobs[schedule.Name]; exists {
		return fmt.Errorf("job %s already exists", schedule.Name)
	}

	job := &Job{
		Name:     schedule.Name,
		Schedule: schedule.Schedule,
		DryRun:   schedule.DryRun,
	}

	id, err := s.cron.AddFunc(schedule.Schedule, func() {
		s.run(s.daemon.shutdownCtx, job)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.jobs[schedule.Name] = &scheduledJob{id: id, job: job}
	job.NextRun = s.nextRun(id)

	s.daemon.logger.Info("Added job: %s, next run: %v", schedule.Name, job.NextRun)
	return nil
}

// run executes job and records when it ran
func (s *Scheduler) run(ctx context.Context, job *Job) (*JobResult, error) {
	s.jobsMu.Lock()
	job.LastRun = time.Now()
	s.jobsMu.Unlock()

	s.daemon.logger.Info("Executing job: %s", job.Name)
	result, err := s.daemon.RunJob(ctx, job)
	if err != nil {
		s.daemon.logger.Error("Job %s failed: %v", job.Name, err)
	}
	return result, err
}

// nextRun returns the next activation of id, computing it from the schedule
// when cron has not started yet
func (s *Scheduler) nextRun(id cron.EntryID) time.Time {
	entry := s.cron.Entry(id)
	if !entry.Next.IsZero() || entry.Schedule == nil {
		return entry.Next
	}
	return entry.Schedule.Next(time.Now())
}

// AddJob adds a new job to the scheduler
func (s *Scheduler) AddJob(schedule config.CleanSchedule) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	return s.addJobInternal(schedule)
}

// RemoveJob removes a job from the scheduler
func (s *Scheduler) RemoveJob(name string) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	sj, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(sj.id)
	delete(s.jobs, name)

	s.daemon.logger.Info("Removed job: %s", name)
	return nil
}

// GetNextRun returns the next run time for a job
func (s *Scheduler) GetNextRun(name string) (time.Time, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	sj, exists := s.jobs[name]
	if !exists {
		return time.Time{}, fmt.Errorf("job %s not found", name)
	}

	return s.nextRun(sj.id), nil
}

// ListJobs returns information about all jobs, sorted by name
func (s *Scheduler) ListJobs() []JobInfo {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	jobs := make([]JobInfo, 0, len(s.jobs))
	for name, sj := range s.jobs {
		jobs = append(jobs, JobInfo{
			Name:     name,
			Schedule: sj.job.Schedule,
			DryRun:   sj.job.DryRun,
			NextRun:  s.nextRun(sj.id),
			LastRun:  sj.job.LastRun,
		})
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

// TriggerJob runs a job immediately, outside its schedule
func (s *Scheduler) TriggerJob(ctx context.Context, name string) (*JobResult, error) {
	s.jobsMu.RLock()
	sj, exists := s.jobs[name]
	s.jobsMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}

	s.daemon.logger.Info("Manually triggering job: %s (entry ID: %d)", name, sj.id)
	return s.run(ctx, sj.job)
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name     string
	Schedule string
	DryRun   bool
	NextRun  time.Time
	LastRun  time.Time
}
