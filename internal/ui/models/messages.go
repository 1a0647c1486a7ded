package models

import (
	"github.com/fenilsonani/flclean/internal/retention"
	"github.com/fenilsonani/flclean/internal/scanner"
)

// EventMsg wraps one event read from the coordinator
type EventMsg struct {
	Event scanner.Event
}

// EventsClosedMsg is sent once the coordinator's event channel is closed
type EventsClosedMsg struct{}

// ScanDoneMsg is sent when the coordinator's Run returns
type ScanDoneMsg struct {
	Summary *scanner.Summary
	Err     error
}

// ConfirmedMsg is sent when the user approves the prune
type ConfirmedMsg struct{}

// CleanDoneMsg carries the retention result
type CleanDoneMsg struct {
	Result *retention.Result
}
