package progress

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Phase represents the current phase of operation
type Phase string

const (
	PhaseScanning Phase = "scanning"
	PhaseCleaning Phase = "cleaning"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
)

// ScanProgress is a point-in-time view of a running scan
type ScanProgress struct {
	Phase         Phase
	CurrentPath   string
	FilesScanned  int64
	TotalEstimate int64
	BackupsFound  int
	Percent       float64
	StartTime     time.Time
	Error         error
}

// FormatScanProgress returns a human-readable scan progress string
func FormatScanProgress(p *ScanProgress) string {
	if p == nil {
		return "Initializing..."
	}

	elapsed := time.Since(p.StartTime)

	switch p.Phase {
	case PhaseScanning:
		return fmt.Sprintf("Scanning... %.0f%% (%s of ~%s files), %d backups found [%s]",
			p.Percent,
			humanize.Comma(p.FilesScanned),
			humanize.Comma(p.TotalEstimate),
			p.BackupsFound,
			FormatDuration(elapsed))
	case PhaseComplete:
		return fmt.Sprintf("Scan complete: %s files scanned, %d backups found in %s",
			humanize.Comma(p.FilesScanned),
			p.BackupsFound,
			FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("Scan error: %v", p.Error)
	default:
		return "Scanning..."
	}
}

// FormatBytes formats bytes in human-readable binary units
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatCount renders a count with thousands separators
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
