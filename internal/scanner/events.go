package scanner

import (
	"fmt"
	"time"

	"github.com/fenilsonani/flclean/internal/backup"
	"github.com/fenilsonani/flclean/internal/retention"
)

// Event is one message on the coordinator's output channel. Consumers
// type-switch over the concrete types below.
type Event interface {
	event()
}

// ProgressEvent is a throttled progress tick. It may be dropped under
// backpressure.
type ProgressEvent struct {
	Scanned     int64
	Estimate    int64
	Percent     float64
	CurrentPath string
}

// FoundBackupEvent reports one matched snapshot. Never dropped.
type FoundBackupEvent struct {
	Key  backup.ProjectKey
	File backup.File
}

// WarningEvent carries a diagnostic. Walker diagnostics are rate limited and
// may be dropped; root failures are always delivered.
type WarningEvent struct {
	Root       string
	Path       string
	Message    string
	Err        error
	Suppressed int // diagnostics swallowed since the previous warning
}

// String renders the warning for logs
func (w WarningEvent) String() string {
	msg := w.Message
	if w.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, w.Path)
	}
	if w.Err != nil {
		msg = fmt.Sprintf("%s (%v)", msg, w.Err)
	}
	if w.Suppressed > 0 {
		msg = fmt.Sprintf("%s [+%d suppressed]", msg, w.Suppressed)
	}
	return msg
}

// CompleteEvent is emitted exactly once after every root unit has joined
type CompleteEvent struct {
	TotalFound      int
	Scanned         int64
	Duration        time.Duration
	Cancelled       bool
	IncompleteRoots []string
}

// AutoCleanRequestedEvent announces that retention is about to run
type AutoCleanRequestedEvent struct {
	Projects  int
	Redundant int
	DryRun    bool
}

// CleanedEvent carries the retention result after an auto-clean
type CleanedEvent struct {
	Result *retention.Result
}

func (ProgressEvent) event()           {}
func (FoundBackupEvent) event()        {}
func (WarningEvent) event()            {}
func (CompleteEvent) event()           {}
func (AutoCleanRequestedEvent) event() {}
func (CleanedEvent) event()            {}

// WorkerJoinError reports a root unit that did not finish cleanly
type WorkerJoinError struct {
	Root  string
	Value any
}

func (e *WorkerJoinError) Error() string {
	return fmt.Sprintf("scan of %s did not complete: %v", e.Root, e.Value)
}
