package scanner

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fenilsonani/flclean/internal/backup"
	"golang.org/x/time/rate"
)

// sink receives walker output. found must never drop; emit may.
type sink interface {
	found(key backup.ProjectKey, file backup.File)
	emit(ev Event) bool
}

// Walker traverses directories depth first for one chunk of a root. A Walker
// is owned by a single goroutine.
type Walker struct {
	root     string
	state    *State
	matcher  *backup.Matcher
	skip     skipSet
	maxDepth int
	out      sink

	progress   *rate.Limiter
	diagnostic *rate.Limiter
	suppressed int
	matched    int
}

func newWalker(root string, state *State, opts Options, out sink) *Walker {
	return &Walker{
		root:       root,
		state:      state,
		matcher:    backup.NewMatcher(nil),
		skip:       newSkipSet(opts.SkipDirs),
		maxDepth:   opts.MaxDepth,
		out:        out,
		progress:   newLimiter(opts.ProgressInterval),
		diagnostic: newLimiter(opts.WarningInterval),
	}
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Matched returns the number of snapshots this walker reported
func (w *Walker) Matched() int {
	return w.matched
}

// Walk traverses dir, which counts as depth 1. It only fails when ctx is
// done; filesystem errors are reported as diagnostics and skipped.
func (w *Walker) Walk(ctx context.Context, dir string) error {
	return w.visit(ctx, dir, 1)
}

func (w *Walker) visit(ctx context.Context, dir string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	canon, err := canonical(dir)
	if err != nil {
		w.diagnose(dir, err)
		return nil
	}
	if !w.state.markVisited(canon) {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.diagnose(dir, err)
		if len(entries) == 0 {
			return nil
		}
	}

	inBackup := filepath.Base(dir) == backup.FolderName
	project := filepath.Dir(dir)

	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if entry.Type().IsRegular() {
			w.observe(dir)
			if inBackup {
				if file, ok := w.matcher.Match(path, name); ok {
					w.matched++
					w.out.found(backup.ProjectKey{Folder: project, Project: file.ProjectName}, file)
				}
			}
			continue
		}

		if w.skip.prunesDir(name) || !isDirEntry(path, entry) {
			continue
		}
		if w.maxDepth > 0 && depth >= w.maxDepth {
			continue
		}
		if err := w.visit(ctx, path, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// observe counts one regular file and emits a throttled progress tick
func (w *Walker) observe(dir string) {
	est := w.state.estimator
	scanned, estimate := est.Observe(1)
	if !w.progress.Allow() {
		return
	}
	w.out.emit(ProgressEvent{
		Scanned:     scanned,
		Estimate:    estimate,
		Percent:     est.Percent(),
		CurrentPath: dir,
	})
}

// diagnose surfaces at most one error per warning window
func (w *Walker) diagnose(path string, err error) {
	if !w.diagnostic.Allow() {
		w.suppressed++
		return
	}
	if w.out.emit(WarningEvent{
		Root:       w.root,
		Path:       path,
		Message:    "skipped unreadable entry",
		Err:        err,
		Suppressed: w.suppressed,
	}) {
		w.suppressed = 0
	}
}
