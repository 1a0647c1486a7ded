package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/flclean/internal/progress"
	"github.com/fenilsonani/flclean/internal/retention"
	"github.com/fenilsonani/flclean/internal/ui/styles"
)

// SummaryViewModel handles the summary/results view
type SummaryViewModel struct {
	result    *retention.Result
	err       error
	cancelled bool
}

// NewSummaryViewModel creates a new summary view model
func NewSummaryViewModel(result *retention.Result, err error) *SummaryViewModel {
	return &SummaryViewModel{
		result: result,
		err:    err,
	}
}

// NewCancelledSummaryViewModel reports a scan that stopped early. Partial
// results are never pruned.
func NewCancelledSummaryViewModel() *SummaryViewModel {
	return &SummaryViewModel{cancelled: true}
}

// Update handles messages
func (m *SummaryViewModel) Update(msg tea.Msg) (*SummaryViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "enter", "esc":
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the summary view
func (m *SummaryViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Cleanup Summary"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("Scan failed: %v", m.err)))
		b.WriteString("\n")
	}

	if m.cancelled {
		b.WriteString(styles.WarningStyle.Render("Scan cancelled; results are partial. Nothing was deleted."))
		b.WriteString("\n")
	}

	if m.result != nil {
		verb := "Deleted"
		if m.result.DryRun {
			verb = "Would delete"
		}
		b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("%s %d snapshots", verb, m.result.Deleted)))
		b.WriteString("\n")
		b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("Space reclaimed: %s",
			progress.FormatBytes(m.result.ReclaimedBytes))))
		b.WriteString("\n")

		if len(m.result.Failures) > 0 {
			b.WriteString("\n")
			b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("%d deletions failed", len(m.result.Failures))))
			b.WriteString("\n")
			b.WriteString(styles.DimStyle.Render(retention.FormatErrorSummary(m.result.Failures)))
		}

		if m.result.DryRun {
			b.WriteString("\n")
			b.WriteString(styles.InfoStyle.Render("Note: This was a dry run. No files were actually deleted."))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("Press q or enter to exit"))

	return b.String()
}
