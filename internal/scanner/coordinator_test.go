package scanner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fenilsonani/flclean/internal/backup"
	"github.com/fenilsonani/flclean/internal/platform"
	"github.com/fenilsonani/flclean/internal/retention"
	"github.com/fenilsonani/flclean/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runScan runs c while draining its events
func runScan(t *testing.T, ctx context.Context, c *Coordinator) (*Summary, []Event, error) {
	t.Helper()

	done := make(chan []Event)
	go func() {
		var events []Event
		for ev := range c.Events() {
			events = append(events, ev)
		}
		done <- events
	}()

	summary, err := c.Run(ctx)
	return summary, <-done, err
}

func testOptions() Options {
	return Options{MaxWorkersPerRoot: 2, MaxDepth: DefaultMaxDepth}
}

// countingPruner records calls without touching the filesystem
type countingPruner struct {
	calls int
}

func (p *countingPruner) Prune(_ context.Context, found backup.Found) *retention.Result {
	p.calls++
	return &retention.Result{Deleted: found.Redundant()}
}

func TestCoordinatorFindsBackups(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSnapshot("Music/Song", "Song", 9, 0, 10)
	f.CreateSnapshot("Music/Song", "Song", 14, 30, 20)
	f.CreateSnapshot("Archive/Song", "Song", 1, 0, 30)
	f.CreateSnapshot("Archive/Beat", "Beat", 2, 15, 40)

	c := NewCoordinator(testOptions(), platform.StaticRoots{f.RootDir}, nil)
	summary, events, err := runScan(t, context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalFound)
	assert.Equal(t, 3, summary.Projects)
	assert.Equal(t, []string{f.RootDir}, summary.CompletedRoots)
	assert.Empty(t, summary.IncompleteRoots)
	assert.Equal(t, 4, summary.RootFound[f.RootDir])
	assert.False(t, summary.Cancelled)
	assert.Nil(t, summary.Cleaned)

	found := c.Found()
	assert.Len(t, found[backup.ProjectKey{Folder: f.Path("Music/Song"), Project: "Song"}], 2)
	assert.Len(t, found[backup.ProjectKey{Folder: f.Path("Archive/Song"), Project: "Song"}], 1)

	var foundEvents, completes int
	for _, ev := range events {
		switch e := ev.(type) {
		case FoundBackupEvent:
			foundEvents++
		case CompleteEvent:
			completes++
			assert.Equal(t, 4, e.TotalFound)
		case AutoCleanRequestedEvent, CleanedEvent:
			t.Fatalf("unexpected auto-clean event %T", e)
		}
	}
	assert.Equal(t, 4, foundEvents, "found events are never dropped")
	assert.Equal(t, 1, completes)
}

func TestCoordinatorScannedCountWithSymlinkCycle(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("top.txt", []byte("0"))
	f.CreateFile("a/one.txt", []byte("1"))
	f.CreateFile("a/b/two.txt", []byte("2"))
	f.CreateFile("c/three.txt", []byte("3"))
	f.CreateSnapshot("c", "Proj", 1, 0, 1)
	f.CreateSymlink(f.RootDir, "a/b/to-root")
	f.CreateSymlink(f.Path("a"), "c/to-a")
	f.CreateSymlink(f.Path("c"), "a/to-c")

	want, err := testutil.CountRegularFiles(f.RootDir)
	require.NoError(t, err)
	require.Equal(t, 5, want)

	opts := testOptions()
	opts.MaxWorkersPerRoot = 4
	c := NewCoordinator(opts, platform.StaticRoots{f.RootDir}, nil)
	summary, _, err := runScan(t, context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, int64(want), summary.Scanned)
	assert.Equal(t, 1, summary.TotalFound)
}

// rawRoots hands roots to the coordinator without any deduplication
type rawRoots []string

func (r rawRoots) Roots() []string { return r }

func TestCoordinatorAliasedRootCountedOnce(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("real/a.txt", []byte("a"))
	f.CreateFile("real/b.txt", []byte("b"))
	f.CreateFile("real/sub/c.txt", []byte("c"))
	alias := f.CreateSymlink(f.Path("real"), "alias")

	want, err := testutil.CountRegularFiles(f.Path("real"))
	require.NoError(t, err)
	require.Equal(t, 3, want)

	c := NewCoordinator(testOptions(), rawRoots{f.Path("real"), alias}, nil)
	summary, _, err := runScan(t, context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, int64(want), summary.Scanned)
	assert.ElementsMatch(t, []string{f.Path("real"), alias}, summary.CompletedRoots)
}

func TestCoordinatorNestedRootsCountedOnce(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("top.txt", []byte("0"))
	f.CreateFile("home/one.txt", []byte("1"))
	f.CreateFile("home/user/two.txt", []byte("2"))
	f.CreateSnapshot("home/user/Song", "Song", 1, 0, 1)
	f.CreateFile("other/three.txt", []byte("3"))

	want, err := testutil.CountRegularFiles(f.RootDir)
	require.NoError(t, err)

	// Whichever unit reaches home first owns it
	for i := 0; i < 20; i++ {
		c := NewCoordinator(testOptions(), rawRoots{f.RootDir, f.Path("home")}, nil)
		summary, _, err := runScan(t, context.Background(), c)
		require.NoError(t, err)

		assert.Equal(t, int64(want), summary.Scanned, "iteration %d", i)
		assert.Equal(t, 1, summary.TotalFound, "iteration %d", i)
	}
}

func TestCoordinatorUnreadableRoot(t *testing.T) {
	testutil.SkipIfRoot(t)
	testutil.SkipOnWindows(t)

	f := testutil.NewFixture(t)
	f.CreateSnapshot("open/Song", "Song", 1, 0, 1)
	f.CreateDir("locked/Song/Backup")
	locked := f.CreateUnreadableDir("locked")

	c := NewCoordinator(testOptions(), platform.StaticRoots{f.Path("open"), locked}, nil)
	summary, _, err := runScan(t, context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TotalFound)
	assert.Zero(t, summary.RootFound[locked])
	assert.Len(t, summary.CompletedRoots, 2)
}

func TestCoordinatorFiltersRoots(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSnapshot("one/p", "One", 1, 0, 1)
	f.CreateSnapshot("two/p", "Two", 1, 0, 1)

	opts := testOptions()
	opts.Roots = []string{f.Path("two") + "/"}
	c := NewCoordinator(opts, platform.StaticRoots{f.Path("one"), f.Path("two")}, nil)
	summary, _, err := runScan(t, context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, []string{f.Path("two")}, summary.Roots)
	assert.Equal(t, 1, summary.TotalFound)
}

func TestCoordinatorBackupRoot(t *testing.T) {
	f := testutil.NewFixture(t)
	path := f.CreateSnapshot("Song", "Song", 1, 0, 1)
	f.CreateSnapshot("Song", "Song", 2, 0, 1)

	c := NewCoordinator(testOptions(), platform.StaticRoots{f.Path("Song/Backup")}, nil)
	summary, _, err := runScan(t, context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalFound)
	f.AssertFileExists(path)
}

func TestCoordinatorAutoClean(t *testing.T) {
	f := testutil.NewFixture(t)
	old := f.CreateSnapshot("Song", "Song", 9, 0, 100)
	latest := f.CreateSnapshot("Song", "Song", 14, 30, 200)
	early := f.CreateSnapshot("Song", "Song", 8, 59, 300)
	solo := f.CreateSnapshot("Solo", "Solo", 1, 0, 5)

	opts := testOptions()
	opts.AutoClean = true
	c := NewCoordinator(opts, platform.StaticRoots{f.RootDir}, nil)
	summary, events, err := runScan(t, context.Background(), c)
	require.NoError(t, err)

	require.NotNil(t, summary.Cleaned)
	assert.Equal(t, 2, summary.Cleaned.Deleted)
	assert.Equal(t, int64(400), summary.Cleaned.ReclaimedBytes)

	f.AssertFileExists(latest)
	f.AssertFileExists(solo)
	f.AssertFileNotExists(old)
	f.AssertFileNotExists(early)

	// Complete, then AutoCleanRequested, then Cleaned, as the final events
	n := len(events)
	require.GreaterOrEqual(t, n, 3)
	assert.IsType(t, CompleteEvent{}, events[n-3])
	req, ok := events[n-2].(AutoCleanRequestedEvent)
	require.True(t, ok)
	assert.Equal(t, 2, req.Redundant)
	cleaned, ok := events[n-1].(CleanedEvent)
	require.True(t, ok)
	assert.Same(t, summary.Cleaned, cleaned.Result)

	key := backup.ProjectKey{Folder: f.Path("Song"), Project: "Song"}
	require.Len(t, c.Found()[key], 1)
	assert.Equal(t, latest, c.Found()[key][0].Path)
}

func TestCoordinatorAutoCleanDryRun(t *testing.T) {
	f := testutil.NewFixture(t)
	old := f.CreateSnapshot("Song", "Song", 1, 0, 10)
	f.CreateSnapshot("Song", "Song", 2, 0, 10)

	opts := testOptions()
	opts.AutoClean = true
	opts.DryRun = true
	c := NewCoordinator(opts, platform.StaticRoots{f.RootDir}, nil)
	summary, _, err := runScan(t, context.Background(), c)
	require.NoError(t, err)

	assert.True(t, summary.Cleaned.DryRun)
	assert.Equal(t, 1, summary.Cleaned.Deleted)
	f.AssertFileExists(old)
}

func TestCoordinatorCancellationSkipsAutoClean(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSnapshot("Song", "Song", 1, 0, 10)
	f.CreateSnapshot("Song", "Song", 2, 0, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pruner := &countingPruner{}
	opts := testOptions()
	opts.AutoClean = true
	c := NewCoordinator(opts, platform.StaticRoots{f.RootDir}, pruner)
	summary, events, err := runScan(t, ctx, c)

	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, summary)
	assert.True(t, summary.Cancelled)
	assert.Zero(t, pruner.calls)
	assert.Nil(t, summary.Cleaned)

	var complete *CompleteEvent
	for _, ev := range events {
		switch e := ev.(type) {
		case CompleteEvent:
			complete = &e
		case AutoCleanRequestedEvent, CleanedEvent:
			t.Fatalf("auto-clean must not run after cancellation, got %T", e)
		}
	}
	require.NotNil(t, complete)
	assert.True(t, complete.Cancelled)
}

func TestCoordinatorUsesInjectedPruner(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSnapshot("Song", "Song", 1, 0, 10)
	f.CreateSnapshot("Song", "Song", 2, 0, 10)

	pruner := &countingPruner{}
	opts := testOptions()
	opts.AutoClean = true
	c := NewCoordinator(opts, platform.StaticRoots{f.RootDir}, pruner)
	summary, _, err := runScan(t, context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, 1, pruner.calls)
	assert.Equal(t, 1, summary.Cleaned.Deleted)
}

func TestCoordinatorPercentHeldBelowCompletion(t *testing.T) {
	f := testutil.NewFixture(t)
	for i := 0; i < 40; i++ {
		f.CreateFile(fmt.Sprintf("files/f%02d.txt", i), []byte("x"))
		f.CreateSnapshot("p", "P", i, 0, 1)
	}

	opts := testOptions()
	opts.RootBaseline = 1
	// One walker keeps ticks in emission order
	opts.MaxWorkersPerRoot = 1
	c := NewCoordinator(opts, platform.StaticRoots{f.RootDir}, nil)
	_, events, err := runScan(t, context.Background(), c)
	require.NoError(t, err)

	var ticks int
	var last float64
	for _, ev := range events {
		switch e := ev.(type) {
		case ProgressEvent:
			ticks++
			assert.LessOrEqual(t, e.Percent, 95.0)
			assert.GreaterOrEqual(t, e.Percent, last)
			last = e.Percent
		case CompleteEvent:
			assert.Equal(t, 100.0, c.state.estimator.Percent())
		}
	}
	assert.Positive(t, ticks)
}

func TestCoordinatorRecoversPanickingRoot(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDir("a")

	c := NewCoordinator(testOptions(), platform.StaticRoots{f.RootDir}, nil)
	// No state has been allocated, so the root unit panics on first use
	err := c.scanRoot(context.Background(), f.RootDir)
	require.NoError(t, err)

	assert.Equal(t, []string{f.RootDir}, c.incomplete)
	ev := <-c.events
	warning, ok := ev.(WarningEvent)
	require.True(t, ok)
	var joinErr *WorkerJoinError
	require.ErrorAs(t, warning.Err, &joinErr)
	assert.Equal(t, f.RootDir, joinErr.Root)
}

func TestCoordinatorRunsOnce(t *testing.T) {
	f := testutil.NewFixture(t)

	c := NewCoordinator(testOptions(), platform.StaticRoots{f.RootDir}, nil)
	_, _, err := runScan(t, context.Background(), c)
	require.NoError(t, err)

	_, err = c.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestCoordinatorCapturesOptions(t *testing.T) {
	opts := testOptions()
	opts.SkipDirs = []string{"a"}
	c := NewCoordinator(opts, platform.StaticRoots{}, nil)

	opts.SkipDirs[0] = "changed"
	opts.MaxDepth = 1

	got := c.Options()
	assert.Equal(t, []string{"a"}, got.SkipDirs)
	assert.Equal(t, DefaultMaxDepth, got.MaxDepth)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.GreaterOrEqual(t, opts.MaxWorkersPerRoot, 4)
	assert.LessOrEqual(t, opts.MaxWorkersPerRoot, 16)
	assert.Equal(t, DefaultMaxDepth, opts.MaxDepth)
	assert.Equal(t, DefaultSkipDirs, opts.SkipDirs)
	assert.False(t, opts.AutoClean)
}
