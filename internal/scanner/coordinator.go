// Package scanner discovers autosave snapshots across storage roots.
//
// A Coordinator runs one unit of work per root. Each unit partitions its root
// into top-level directories, splits them into chunks and walks every chunk
// on its own goroutine. Results stream out as Events on a single channel and
// are aggregated into a backup.Found map for retention.
package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/fenilsonani/flclean/internal/backup"
	"github.com/fenilsonani/flclean/internal/retention"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxDepth bounds recursion below each top-level directory
	DefaultMaxDepth = 10

	// DefaultProgressInterval is the minimum gap between progress ticks per walker
	DefaultProgressInterval = 500 * time.Millisecond

	// DefaultWarningInterval is the minimum gap between diagnostics per walker
	DefaultWarningInterval = 5 * time.Second

	eventBuffer = 256
)

// DefaultSkipDirs are directory names never worth descending into
var DefaultSkipDirs = []string{
	// Windows
	"Windows",
	"Program Files",
	"Program Files (x86)",
	"ProgramData",
	"AppData",
	"System Volume Information",
	// Unix
	"proc",
	"sys",
	"dev",
	"run",
	"snap",
	// macOS
	"System",
	"Library",
	"private",
	// Caches and build output
	"node_modules",
	"__pycache__",
	"vendor",
	"target",
	"build",
	"Caches",
	"Cache",
}

// ErrAlreadyRun is returned when Run is called more than once
var ErrAlreadyRun = errors.New("scanner: coordinator already ran")

// Options is the immutable configuration of one scan
type Options struct {
	Roots             []string // subset of enumerated roots; empty selects all
	MaxWorkersPerRoot int
	MaxDepth          int
	AutoClean         bool
	DryRun            bool
	SkipDirs          []string
	ProgressInterval  time.Duration
	WarningInterval   time.Duration
	RootBaseline      int64
}

// DefaultOptions returns options suitable for a full scan
func DefaultOptions() Options {
	return Options{
		MaxWorkersPerRoot: defaultWorkers(),
		MaxDepth:          DefaultMaxDepth,
		SkipDirs:          append([]string(nil), DefaultSkipDirs...),
		ProgressInterval:  DefaultProgressInterval,
		WarningInterval:   DefaultWarningInterval,
	}
}

func defaultWorkers() int {
	workers := runtime.NumCPU()
	if workers < 4 {
		workers = 4
	}
	if workers > 16 {
		workers = 16
	}
	return workers
}

// clone copies the slices so later edits by the caller are not observed
func (o Options) clone() Options {
	o.Roots = append([]string(nil), o.Roots...)
	o.SkipDirs = append([]string(nil), o.SkipDirs...)
	if o.MaxWorkersPerRoot < 1 {
		o.MaxWorkersPerRoot = 1
	}
	return o
}

// RootLister enumerates candidate scan roots
type RootLister interface {
	Roots() []string
}

// Pruner applies retention to the aggregated snapshots
type Pruner interface {
	Prune(ctx context.Context, found backup.Found) *retention.Result
}

// Summary describes a finished scan
type Summary struct {
	Roots           []string
	CompletedRoots  []string
	IncompleteRoots []string
	RootFound       map[string]int
	Scanned         int64
	TotalFound      int
	Projects        int
	Duration        time.Duration
	Cancelled       bool
	Cleaned         *retention.Result
}

// Coordinator owns the lifecycle of one scan
type Coordinator struct {
	opts   Options
	lister RootLister
	pruner Pruner
	events chan Event

	mu         sync.Mutex
	results    backup.Found
	totalFound int
	rootFound  map[string]int
	incomplete []string
	ran        bool

	state *State
}

// NewCoordinator captures opts and prepares the event channel. A nil pruner
// uses a retention.Engine honouring opts.DryRun.
func NewCoordinator(opts Options, lister RootLister, pruner Pruner) *Coordinator {
	opts = opts.clone()
	if pruner == nil {
		pruner = retention.New(retention.Options{DryRun: opts.DryRun})
	}
	return &Coordinator{
		opts:      opts,
		lister:    lister,
		pruner:    pruner,
		events:    make(chan Event, eventBuffer),
		results:   make(backup.Found),
		rootFound: make(map[string]int),
	}
}

// Events returns the output channel. It is closed when Run returns and must
// be drained until then.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// Found returns the aggregated snapshots. Call it after Run returns.
func (c *Coordinator) Found() backup.Found {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}

// Options returns the captured configuration
func (c *Coordinator) Options() Options {
	return c.opts.clone()
}

// Run scans every selected root, emits Complete and, when auto-clean is
// enabled and the scan was not cancelled, prunes the results. A cancelled
// scan returns ctx.Err() alongside the partial summary.
func (c *Coordinator) Run(ctx context.Context) (*Summary, error) {
	c.mu.Lock()
	if c.ran {
		c.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	c.ran = true
	c.mu.Unlock()

	defer close(c.events)

	start := time.Now()
	roots := c.selectRoots()
	c.state = newState(len(roots), c.opts.RootBaseline)

	var g errgroup.Group
	for _, root := range roots {
		g.Go(func() error {
			return c.scanRoot(ctx, root)
		})
	}
	waitErr := g.Wait()

	c.state.estimator.Finish()
	cancelled := ctx.Err() != nil

	c.mu.Lock()
	sort.Strings(c.incomplete)
	summary := &Summary{
		Roots:           roots,
		CompletedRoots:  c.state.Completed(),
		IncompleteRoots: append([]string(nil), c.incomplete...),
		RootFound:       make(map[string]int, len(c.rootFound)),
		Scanned:         c.state.estimator.Scanned(),
		TotalFound:      c.totalFound,
		Projects:        len(c.results),
		Cancelled:       cancelled,
	}
	for root, n := range c.rootFound {
		summary.RootFound[root] = n
	}
	c.mu.Unlock()
	summary.Duration = time.Since(start)

	c.send(CompleteEvent{
		TotalFound:      summary.TotalFound,
		Scanned:         summary.Scanned,
		Duration:        summary.Duration,
		Cancelled:       cancelled,
		IncompleteRoots: summary.IncompleteRoots,
	})

	if cancelled {
		if waitErr == nil {
			waitErr = ctx.Err()
		}
		return summary, waitErr
	}

	if c.opts.AutoClean {
		c.send(AutoCleanRequestedEvent{
			Projects:  len(c.results),
			Redundant: c.results.Redundant(),
			DryRun:    c.opts.DryRun,
		})
		summary.Cleaned = c.pruner.Prune(ctx, c.results)
		c.send(CleanedEvent{Result: summary.Cleaned})
	}

	return summary, nil
}

// selectRoots enumerates roots and keeps the configured subset in
// enumeration order
func (c *Coordinator) selectRoots() []string {
	all := c.lister.Roots()
	if len(c.opts.Roots) == 0 {
		return all
	}

	wanted := make(map[string]struct{}, len(c.opts.Roots))
	for _, r := range c.opts.Roots {
		wanted[filepath.Clean(r)] = struct{}{}
	}

	selected := make([]string, 0, len(c.opts.Roots))
	for _, root := range all {
		if _, ok := wanted[filepath.Clean(root)]; ok {
			selected = append(selected, root)
		}
	}
	return selected
}

// scanRoot is one root-level unit. Only cancellation is returned as an
// error; a panicking chunk marks the root incomplete instead.
func (c *Coordinator) scanRoot(ctx context.Context, root string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.rootFailed(root, &WorkerJoinError{Root: root, Value: r})
			err = nil
		}
	}()

	var chunks [][]string
	if filepath.Base(root) == backup.FolderName {
		// The root itself holds snapshots; walk it as a single unit
		chunks = [][]string{{root}}
	} else {
		if canon, err := canonical(root); err == nil && !c.state.markVisited(canon) {
			// An alias of another root, or a directory another root's walker
			// already reached. Its files are counted there.
			c.state.markCompleted(root)
			return nil
		}
		dirs, files := partition(root, newSkipSet(c.opts.SkipDirs))
		if files > 0 {
			c.state.estimator.Observe(files)
		}
		chunks = chunk(dirs, c.opts.MaxWorkersPerRoot)
	}

	var (
		g       errgroup.Group
		countMu sync.Mutex
		count   int
	)
	for _, dirs := range chunks {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &WorkerJoinError{Root: root, Value: r}
				}
			}()

			w := newWalker(root, c.state, c.opts, c)
			defer func() {
				countMu.Lock()
				count += w.Matched()
				countMu.Unlock()
			}()

			for _, dir := range dirs {
				if err := w.Walk(ctx, dir); err != nil {
					return err
				}
			}
			return nil
		})
	}

	waitErr := g.Wait()

	c.mu.Lock()
	c.rootFound[root] += count
	c.mu.Unlock()

	var joinErr *WorkerJoinError
	switch {
	case errors.As(waitErr, &joinErr):
		c.rootFailed(root, joinErr)
		return nil
	case waitErr != nil:
		return waitErr
	}

	c.state.markCompleted(root)
	return nil
}

func (c *Coordinator) rootFailed(root string, err *WorkerJoinError) {
	c.mu.Lock()
	c.incomplete = append(c.incomplete, root)
	c.mu.Unlock()

	c.send(WarningEvent{
		Root:    root,
		Message: "root scan incomplete",
		Err:     err,
	})
}

// found implements sink. The coordinator is the single aggregation point.
func (c *Coordinator) found(key backup.ProjectKey, file backup.File) {
	c.mu.Lock()
	c.results.Add(key, file)
	c.totalFound++
	c.mu.Unlock()

	c.send(FoundBackupEvent{Key: key, File: file})
}

// emit implements sink with a non-blocking send
func (c *Coordinator) emit(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

// send delivers ev, blocking until the consumer takes it
func (c *Coordinator) send(ev Event) {
	c.events <- ev
}
