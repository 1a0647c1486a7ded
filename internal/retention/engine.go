// Package retention keeps the newest snapshot of every project and removes
// the rest.
package retention

import (
	"cmp"
	"context"
	"os"
	"slices"
	"time"

	"github.com/fenilsonani/flclean/internal/backup"
	"github.com/fenilsonani/flclean/internal/security"
)

// Remover deletes a single file
type Remover func(path string) error

// Options configures an Engine
type Options struct {
	DryRun      bool
	Remove      Remover                  // os.Remove when nil
	Validator   *security.PathValidator // security.NewPathValidator() when nil
	RetryDelays []time.Duration          // waits between attempts on retryable errors
}

// DefaultRetryDelays are used when Options.RetryDelays is nil
var DefaultRetryDelays = []time.Duration{
	100 * time.Millisecond,
	500 * time.Millisecond,
	2 * time.Second,
}

// Result summarizes one retention pass
type Result struct {
	Deleted        int
	ReclaimedBytes int64
	DeletedFiles   []string
	Kept           []backup.File
	Failures       []*DeletionError
	DryRun         bool
}

// Engine applies keep-latest retention to discovered snapshots
type Engine struct {
	dryRun    bool
	remove    Remover
	validator *security.PathValidator
	delays    []time.Duration
	manifest  *Manifest
}

// New creates a new Engine
func New(opts Options) *Engine {
	e := &Engine{
		dryRun:    opts.DryRun,
		remove:    opts.Remove,
		validator: opts.Validator,
		delays:    opts.RetryDelays,
		manifest:  NewManifest(),
	}
	if e.remove == nil {
		e.remove = os.Remove
	}
	if e.validator == nil {
		e.validator = security.NewPathValidator()
	}
	if e.delays == nil {
		e.delays = DefaultRetryDelays
	}
	return e
}

// Manifest returns the record of files removed by this engine
func (e *Engine) Manifest() *Manifest {
	return e.manifest
}

// Prune keeps the most recent snapshot of every project with more than one
// and removes the others. Each removal is independent: a failure is recorded
// and processing continues. After a real run each pruned project's slice is
// truncated to the retained entry; a dry run leaves found untouched.
func (e *Engine) Prune(ctx context.Context, found backup.Found) *Result {
	result := &Result{DryRun: e.dryRun}

	// Visit projects in a fixed order so results are reproducible
	keys := make([]backup.ProjectKey, 0, len(found))
	for key := range found {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b backup.ProjectKey) int {
		if c := cmp.Compare(a.Folder, b.Folder); c != 0 {
			return c
		}
		return cmp.Compare(a.Project, b.Project)
	})

	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}

		files := found[key]
		if len(files) <= 1 {
			continue
		}

		SortByRecency(files)
		result.Kept = append(result.Kept, files[0])

		for _, file := range files[1:] {
			if err := e.deleteWithRetry(ctx, key, file); err != nil {
				result.Failures = append(result.Failures, err)
				continue
			}
			result.Deleted++
			result.ReclaimedBytes += file.Size
			result.DeletedFiles = append(result.DeletedFiles, file.Path)
		}

		if !e.dryRun {
			found[key] = files[:1]
		}
	}

	return result
}

// SortByRecency orders snapshots newest first: by time value, then by
// modification time, then by path. The sort is stable.
func SortByRecency(files []backup.File) {
	slices.SortStableFunc(files, func(a, b backup.File) int {
		if c := cmp.Compare(b.TimeValue, a.TimeValue); c != 0 {
			return c
		}
		if c := b.ModTime.Compare(a.ModTime); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
}

// deleteWithRetry removes one snapshot, retrying transient failures
func (e *Engine) deleteWithRetry(ctx context.Context, key backup.ProjectKey, file backup.File) *DeletionError {
	var lastErr *DeletionError

	for attempt := 0; attempt <= len(e.delays); attempt++ {
		lastErr = e.deleteOnce(key, file)
		if lastErr == nil || !lastErr.Retryable {
			return lastErr
		}

		if attempt == len(e.delays) {
			break
		}
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(e.delays[attempt]):
		}
	}

	return lastErr
}

func (e *Engine) deleteOnce(key backup.ProjectKey, file backup.File) *DeletionError {
	if err := e.validator.ValidatePathForDeletion(file.Path); err != nil {
		delErr := CategorizeError(file.Path, err)
		if delErr.Reason == ErrorUnknown {
			delErr.Reason = ErrorInvalidPath
		}
		return e.annotate(delErr, key, file)
	}

	if e.dryRun {
		return nil
	}

	if err := e.remove(file.Path); err != nil {
		return e.annotate(CategorizeError(file.Path, err), key, file)
	}

	e.manifest.Add(file.Path, key.Project, file.Size)
	return nil
}

func (e *Engine) annotate(err *DeletionError, key backup.ProjectKey, file backup.File) *DeletionError {
	err.Project = key.Project
	err.Size = file.Size
	return err
}
