package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/flclean/internal/progress"
	"github.com/fenilsonani/flclean/internal/reporter"
	"github.com/fenilsonani/flclean/internal/ui/styles"
)

const maxListedProjects = 10

// ConfirmViewModel shows the scan results and asks before pruning
type ConfirmViewModel struct {
	report *reporter.Report
	dryRun bool
}

// NewConfirmViewModel creates a new confirmation view model
func NewConfirmViewModel(rep *reporter.Report, dryRun bool) *ConfirmViewModel {
	return &ConfirmViewModel{
		report: rep,
		dryRun: dryRun,
	}
}

// HasWork reports whether there is anything to prune
func (m *ConfirmViewModel) HasWork() bool {
	return m.report.Redundant > 0
}

// Update handles messages
func (m *ConfirmViewModel) Update(msg tea.Msg) (*ConfirmViewModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if !m.HasWork() {
		return m, tea.Quit
	}

	switch key.String() {
	case "y", "Y", "enter":
		return m, func() tea.Msg { return ConfirmedMsg{} }
	case "n", "N", "esc", "q":
		return m, tea.Quit
	}
	return m, nil
}

// View renders the confirmation view
func (m *ConfirmViewModel) View() string {
	var b strings.Builder
	rep := m.report

	b.WriteString(styles.TitleStyle.Render("Scan Complete"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Scanned %s files in %s\n",
		styles.BoldStyle.Render(progress.FormatCount(rep.FilesScanned)),
		rep.Duration))
	b.WriteString(fmt.Sprintf("Found %s backups in %s projects (%s)\n",
		styles.BoldStyle.Render(fmt.Sprintf("%d", rep.TotalBackups)),
		styles.BoldStyle.Render(fmt.Sprintf("%d", len(rep.Projects))),
		styles.FileSizeStyle.Render(progress.FormatBytes(rep.TotalSize))))

	if rep.Cancelled {
		b.WriteString(styles.WarningStyle.Render("Scan was cancelled; results are partial."))
		b.WriteString("\n")
	}
	if len(rep.IncompleteRoots) > 0 {
		b.WriteString(styles.WarningStyle.Render("Incomplete roots: " + strings.Join(rep.IncompleteRoots, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if !m.HasWork() {
		b.WriteString(styles.SuccessStyle.Render("Nothing to clean: every project has a single snapshot."))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("Press any key to exit"))
		return b.String()
	}

	b.WriteString(styles.SubtitleStyle.Render("Projects with redundant snapshots:"))
	b.WriteString("\n")

	listed := 0
	for _, p := range rep.Projects {
		if p.Redundant == 0 {
			continue
		}
		if listed == maxListedProjects {
			b.WriteString(styles.DimStyle.Render("  ..."))
			b.WriteString("\n")
			break
		}
		listed++
		b.WriteString(fmt.Sprintf("  %s %s: keep %s, remove %d (%s)\n",
			styles.ProjectStyle.Render(p.Name),
			styles.DimStyle.Render(p.Folder),
			p.Snapshots[0].Timestamp,
			p.Redundant,
			styles.FileSizeStyle.Render(progress.FormatBytes(p.RedundantSize))))
	}

	b.WriteString("\n")
	verb := "Delete"
	if m.dryRun {
		verb = "Simulate deleting"
	}
	b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("%s %d snapshots and reclaim %s?",
		verb, rep.Redundant, rep.ReclaimableReadable)))
	b.WriteString("\n\n")
	b.WriteString(styles.KeyHint("y", "confirm") + "  " + styles.KeyHint("n", "cancel"))

	return b.String()
}
