package models

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/flclean/internal/backup"
	"github.com/fenilsonani/flclean/internal/platform"
	"github.com/fenilsonani/flclean/internal/retention"
	"github.com/fenilsonani/flclean/internal/scanner"
	"github.com/fenilsonani/flclean/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestApp(t *testing.T, root string, dryRun bool) (*AppModel, *retention.Engine) {
	t.Helper()
	opts := scanner.Options{MaxWorkersPerRoot: 2, MaxDepth: scanner.DefaultMaxDepth, DryRun: dryRun}
	pruner := retention.New(retention.Options{DryRun: dryRun})
	coord := scanner.NewCoordinator(opts, platform.StaticRoots{root}, pruner)

	m := NewAppModel(context.Background(), coord, pruner)
	t.Cleanup(m.Close)
	return m, pruner
}

// drive runs the scan the way the program would, feeding every event and
// the final ScanDoneMsg through Update
func drive(t *testing.T, m *AppModel) {
	t.Helper()

	done := make(chan tea.Msg, 1)
	go func() { done <- m.runScan() }()

	for {
		msg := m.waitForEvent()
		if _, closed := msg.(EventsClosedMsg); closed {
			break
		}
		m.Update(msg)
	}
	m.Update(<-done)
}

func TestAppScanConfirmAndPrune(t *testing.T) {
	f := testutil.NewFixture(t)
	old := f.CreateSnapshot("Music/Song", "Song", 9, 0, 100)
	latest := f.CreateSnapshot("Music/Song", "Song", 14, 30, 200)

	m, _ := newTestApp(t, f.RootDir, false)
	drive(t, m)

	require.Equal(t, ViewConfirmation, m.State())
	assert.Equal(t, 2, m.Summary().TotalFound)
	assert.Contains(t, m.View(), "Song")
	assert.Contains(t, m.View(), "Delete 1 snapshots")

	_, cmd := m.Update(keyMsg("y"))
	require.NotNil(t, cmd)
	_, ok := cmd().(ConfirmedMsg)
	require.True(t, ok)

	m.Update(ConfirmedMsg{})
	assert.Equal(t, ViewCleaning, m.State())

	m.Update(m.runPrune())
	require.Equal(t, ViewSummary, m.State())
	assert.Contains(t, m.View(), "Deleted 1 snapshots")

	f.AssertFileNotExists(old)
	f.AssertFileExists(latest)
}

func TestAppDryRunKeepsFiles(t *testing.T) {
	f := testutil.NewFixture(t)
	old := f.CreateSnapshot("Music/Song", "Song", 9, 0, 100)
	f.CreateSnapshot("Music/Song", "Song", 14, 30, 200)

	m, _ := newTestApp(t, f.RootDir, true)
	drive(t, m)

	assert.Contains(t, m.View(), "Simulate deleting 1 snapshots")
	m.Update(ConfirmedMsg{})
	m.Update(m.runPrune())

	assert.Contains(t, m.View(), "Would delete 1 snapshots")
	assert.Contains(t, m.View(), "dry run")
	f.AssertFileExists(old)
}

func TestAppDeclineQuits(t *testing.T) {
	f := testutil.NewFixture(t)
	old := f.CreateSnapshot("Music/Song", "Song", 9, 0, 100)
	f.CreateSnapshot("Music/Song", "Song", 14, 30, 200)

	m, _ := newTestApp(t, f.RootDir, false)
	drive(t, m)

	_, cmd := m.Update(keyMsg("n"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	f.AssertFileExists(old)
}

func TestAppNothingToClean(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSnapshot("Music/Song", "Song", 9, 0, 100)

	m, _ := newTestApp(t, f.RootDir, false)
	drive(t, m)

	assert.Contains(t, m.View(), "Nothing to clean")
	_, cmd := m.Update(keyMsg("y"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAppCtrlCDuringScanWaitsForCoordinator(t *testing.T) {
	m, _ := newTestApp(t, t.TempDir(), false)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Nil(t, cmd)
	assert.Error(t, m.ctx.Err())

	drive(t, m)
	assert.True(t, m.Summary().Cancelled)
}

func TestAppCancelledScanSkipsConfirmation(t *testing.T) {
	f := testutil.NewFixture(t)
	old := f.CreateSnapshot("Music/Song", "Song", 9, 0, 100)
	f.CreateSnapshot("Music/Song", "Song", 14, 30, 200)

	parent, cancel := context.WithCancel(context.Background())
	cancel()

	pruner := retention.New(retention.Options{})
	coord := scanner.NewCoordinator(scanner.Options{MaxWorkersPerRoot: 2, MaxDepth: scanner.DefaultMaxDepth},
		platform.StaticRoots{f.RootDir}, pruner)
	m := NewAppModel(parent, coord, pruner)
	t.Cleanup(m.Close)

	drive(t, m)

	require.True(t, m.Summary().Cancelled)
	require.Equal(t, ViewSummary, m.State())
	assert.Contains(t, m.View(), "Scan cancelled")
	assert.NotContains(t, m.View(), "Scan failed")
	f.AssertFileExists(old)
}

func TestAppCancelledScanWithResults(t *testing.T) {
	m, _ := newTestApp(t, t.TempDir(), false)

	m.Update(ScanDoneMsg{Summary: &scanner.Summary{TotalFound: 3, Cancelled: true}, Err: context.Canceled})
	require.Equal(t, ViewSummary, m.State())
	assert.Contains(t, m.View(), "Nothing was deleted")
}

func TestAppScanError(t *testing.T) {
	m, _ := newTestApp(t, t.TempDir(), false)

	m.Update(ScanDoneMsg{Summary: &scanner.Summary{}, Err: errors.New("boom")})
	require.Equal(t, ViewSummary, m.State())
	assert.Contains(t, m.View(), "Scan failed: boom")
}

func TestScanViewTracksEvents(t *testing.T) {
	v := NewScanViewModel()
	v.SetWidth(80)

	v.Update(EventMsg{Event: scanner.ProgressEvent{Scanned: 1500, Estimate: 10000, Percent: 15, CurrentPath: "/music/a"}})
	v.Update(EventMsg{Event: scanner.ProgressEvent{Scanned: 1600, Percent: 12}})
	v.Update(EventMsg{Event: scanner.FoundBackupEvent{Key: backup.ProjectKey{Folder: "/m", Project: "A"}}})
	for i := 0; i < maxWarnings+2; i++ {
		v.Update(EventMsg{Event: scanner.WarningEvent{Message: "skipped unreadable entry", Path: "/x"}})
	}

	assert.Equal(t, int64(1600), v.scanned)
	assert.Equal(t, float64(15), v.percent, "percent never moves backwards")
	assert.Equal(t, 1, v.found)
	assert.Len(t, v.warnings, maxWarnings)
	assert.Contains(t, v.View(), "Files scanned: 1,600")
	assert.Contains(t, v.View(), "Backups found: 1")

	v.Update(EventMsg{Event: scanner.CompleteEvent{TotalFound: 3, Scanned: 2000}})
	assert.True(t, v.done)
	assert.Equal(t, float64(100), v.percent)
	assert.Equal(t, 3, v.found)
}
