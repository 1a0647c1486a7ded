package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	fmtprogress "github.com/fenilsonani/flclean/internal/progress"
	"github.com/fenilsonani/flclean/internal/scanner"
	"github.com/fenilsonani/flclean/internal/ui/styles"
	"github.com/fenilsonani/flclean/internal/ui/utils"
)

const maxWarnings = 5

// ScanViewModel handles the scanning progress view
type ScanViewModel struct {
	spinner     spinner.Model
	bar         progress.Model
	startTime   time.Time
	scanned     int64
	estimate    int64
	percent     float64
	currentPath string
	found       int
	warnings    []string
	done        bool
	cancelled   bool
	width       int
}

// NewScanViewModel creates a new scan view model
func NewScanViewModel() *ScanViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	return &ScanViewModel{
		spinner:   s,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		startTime: time.Now(),
	}
}

// Init starts the spinner
func (m *ScanViewModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetWidth fits the progress bar to the terminal
func (m *ScanViewModel) SetWidth(width int) {
	m.width = width
	barWidth := width - 10
	if barWidth > 60 {
		barWidth = 60
	}
	if barWidth < 10 {
		barWidth = 10
	}
	m.bar.Width = barWidth
}

// Update handles messages
func (m *ScanViewModel) Update(msg tea.Msg) (*ScanViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		switch e := msg.Event.(type) {
		case scanner.ProgressEvent:
			m.scanned = e.Scanned
			m.estimate = e.Estimate
			if e.Percent > m.percent {
				m.percent = e.Percent
			}
			m.currentPath = e.CurrentPath
		case scanner.FoundBackupEvent:
			m.found++
		case scanner.WarningEvent:
			m.warnings = append(m.warnings, e.String())
			if len(m.warnings) > maxWarnings {
				m.warnings = m.warnings[len(m.warnings)-maxWarnings:]
			}
		case scanner.CompleteEvent:
			m.scanned = e.Scanned
			m.found = e.TotalFound
			m.percent = 100
			m.done = true
			m.cancelled = e.Cancelled
		}
	}

	return m, nil
}

// View renders the scan view
func (m *ScanViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Scanning for FL Studio backups"))
	b.WriteString("\n\n")

	b.WriteString(m.spinner.View())
	b.WriteString(" Scanning... ")
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", time.Since(m.startTime).Round(time.Second))))
	b.WriteString("\n\n")

	b.WriteString(m.bar.ViewAs(m.percent / 100))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Files scanned: %s",
		styles.BoldStyle.Render(fmtprogress.FormatCount(m.scanned))))
	if m.estimate > 0 {
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf(" of ~%s", fmtprogress.FormatCount(m.estimate))))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Backups found: %s\n", styles.BoldStyle.Render(fmt.Sprintf("%d", m.found))))

	if m.currentPath != "" {
		width := m.width - 10
		if width < 20 {
			width = 60
		}
		b.WriteString(styles.DimStyle.Render("Current: "))
		b.WriteString(styles.FilePathStyle.Render(utils.TruncatePath(m.currentPath, width)))
		b.WriteString("\n")
	}

	if len(m.warnings) > 0 {
		b.WriteString("\n")
		for _, w := range m.warnings {
			b.WriteString(styles.WarningStyle.Render("! "))
			b.WriteString(styles.DimStyle.Render(utils.TruncateString(w, 100)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("Press ctrl+c to cancel"))

	return b.String()
}
