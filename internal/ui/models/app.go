package models

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/flclean/internal/reporter"
	"github.com/fenilsonani/flclean/internal/scanner"
	"github.com/fenilsonani/flclean/internal/ui/utils"
)

// ViewState represents the current view in the app
type ViewState int

const (
	ViewScanning ViewState = iota
	ViewConfirmation
	ViewCleaning
	ViewSummary
)

// AppModel is the root model for the interactive TUI. It drives one
// coordinator run, then asks before applying retention.
type AppModel struct {
	state ViewState

	ctx    context.Context
	cancel context.CancelFunc
	coord  *scanner.Coordinator
	pruner scanner.Pruner
	dryRun bool

	scanView    *ScanViewModel
	confirmView *ConfirmViewModel
	summaryView *SummaryViewModel

	summary  *scanner.Summary
	quitting bool

	width  int
	height int
}

// NewAppModel creates a new app model. coord must not have auto-clean
// enabled; pruning waits for the user's confirmation.
func NewAppModel(ctx context.Context, coord *scanner.Coordinator, pruner scanner.Pruner) *AppModel {
	ctx, cancel := context.WithCancel(ctx)
	return &AppModel{
		state:    ViewScanning,
		ctx:      ctx,
		cancel:   cancel,
		coord:    coord,
		pruner:   pruner,
		dryRun:   coord.Options().DryRun,
		scanView: NewScanViewModel(),
	}
}

// State returns the current view
func (m *AppModel) State() ViewState {
	return m.state
}

// Summary returns the scan summary once the scan has finished
func (m *AppModel) Summary() *scanner.Summary {
	return m.summary
}

// Close releases the model's context
func (m *AppModel) Close() {
	m.cancel()
}

// Init starts the scan and the event pump
func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.scanView.Init(),
		m.runScan,
		m.waitForEvent,
	)
}

// Update handles messages
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			switch m.state {
			case ViewScanning, ViewCleaning:
				// Quit once the running operation observes cancellation
				m.quitting = true
				m.cancel()
				return m, nil
			default:
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scanView.SetWidth(msg.Width)
		return m, nil

	case EventMsg:
		var cmd tea.Cmd
		m.scanView, cmd = m.scanView.Update(msg)
		return m, tea.Batch(cmd, m.waitForEvent)

	case EventsClosedMsg:
		return m, nil

	case ScanDoneMsg:
		m.summary = msg.Summary
		if m.quitting {
			return m, tea.Quit
		}
		if msg.Err != nil && (msg.Summary == nil || !msg.Summary.Cancelled) {
			m.summaryView = NewSummaryViewModel(nil, msg.Err)
			m.state = ViewSummary
			return m, nil
		}
		if msg.Summary != nil && msg.Summary.Cancelled {
			m.summaryView = NewCancelledSummaryViewModel()
			m.state = ViewSummary
			return m, nil
		}
		rep := reporter.Build(msg.Summary, m.coord.Found())
		m.confirmView = NewConfirmViewModel(rep, m.dryRun)
		m.state = ViewConfirmation
		return m, nil

	case ConfirmedMsg:
		m.state = ViewCleaning
		return m, tea.Batch(m.runPrune, m.scanView.spinner.Tick)

	case CleanDoneMsg:
		if m.quitting {
			return m, tea.Quit
		}
		m.summaryView = NewSummaryViewModel(msg.Result, nil)
		m.state = ViewSummary
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case ViewScanning, ViewCleaning:
		m.scanView, cmd = m.scanView.Update(msg)
	case ViewConfirmation:
		m.confirmView, cmd = m.confirmView.Update(msg)
	case ViewSummary:
		m.summaryView, cmd = m.summaryView.Update(msg)
	}
	return m, cmd
}

// View renders the current view
func (m *AppModel) View() string {
	banner := utils.GetSizeWarningBanner(m.width, m.height)

	switch m.state {
	case ViewConfirmation:
		return banner + m.confirmView.View()
	case ViewCleaning:
		return banner + m.scanView.spinner.View() + " Removing redundant snapshots..."
	case ViewSummary:
		return banner + m.summaryView.View()
	default:
		return banner + m.scanView.View()
	}
}

// runScan runs the coordinator to completion
func (m *AppModel) runScan() tea.Msg {
	summary, err := m.coord.Run(m.ctx)
	return ScanDoneMsg{Summary: summary, Err: err}
}

// waitForEvent reads the next coordinator event. It must be re-armed after
// every EventMsg so the channel keeps draining.
func (m *AppModel) waitForEvent() tea.Msg {
	ev, ok := <-m.coord.Events()
	if !ok {
		return EventsClosedMsg{}
	}
	return EventMsg{Event: ev}
}

// runPrune applies retention to the scan results
func (m *AppModel) runPrune() tea.Msg {
	return CleanDoneMsg{Result: m.pruner.Prune(m.ctx, m.coord.Found())}
}
