package backup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantOK      bool
		wantProject string
		wantHours   int
		wantMinutes int
		wantValue   int
	}{
		{"simple", "Foo (overwritten at 3h05).flp", true, "Foo", 3, 5, 185},
		{"two digit hour", "My Song (overwritten at 14h30).flp", true, "My Song", 14, 30, 870},
		{"midnight", "Beat (overwritten at 0h00).flp", true, "Beat", 0, 0, 0},
		{"hour out of range is lenient", "Beat (overwritten at 99h00).flp", true, "Beat", 99, 0, 5940},
		{"name with parens", "Track (v2) (overwritten at 9h00).flp", true, "Track (v2)", 9, 0, 540},
		{"greedy name", "A (overwritten at 1h00) (overwritten at 2h00).flp", true, "A (overwritten at 1h00)", 2, 0, 120},

		{"one digit minutes", "Foo (overwritten at 3h5).flp", false, "", 0, 0, 0},
		{"three digit hour", "Foo (overwritten at 123h05).flp", false, "", 0, 0, 0},
		{"wrong extension", "Foo (overwritten at 3h05).zip", false, "", 0, 0, 0},
		{"uppercase extension", "Foo (overwritten at 3h05).FLP", false, "", 0, 0, 0},
		{"missing marker", "Foo.flp", false, "", 0, 0, 0},
		{"no name", "(overwritten at 3h05).flp", false, "", 0, 0, 0},
		{"trailing text", "Foo (overwritten at 3h05).flp.bak", false, "", 0, 0, 0},
		{"marker typo", "Foo (overwriten at 3h05).flp", false, "", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			assert.Equal(t, tt.wantProject, got.ProjectName)
			assert.Equal(t, tt.wantHours, got.Hours)
			assert.Equal(t, tt.wantMinutes, got.Minutes)
			assert.Equal(t, tt.wantValue, got.TimeValue())
		})
	}
}

func TestParsedTimestamp(t *testing.T) {
	p, ok := Parse("Foo (overwritten at 03h05).flp")
	require.True(t, ok)
	assert.Equal(t, "3h05", p.Timestamp())
}

func TestMatcherMatch(t *testing.T) {
	dir := t.TempDir()
	name := "Foo (overwritten at 3h05).flp"
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("snapshot data"), 0644))

	m := NewMatcher(nil)
	file, ok := m.Match(path, name)
	require.True(t, ok)

	assert.Equal(t, path, file.Path)
	assert.Equal(t, "Foo", file.ProjectName)
	assert.Equal(t, "3h05", file.Timestamp)
	assert.Equal(t, int64(len("snapshot data")), file.Size)
	assert.Equal(t, 185, file.TimeValue)
	assert.False(t, file.ModTime.IsZero())
}

func TestMatcherDropsFailedStat(t *testing.T) {
	m := NewMatcher(func(string) (os.FileInfo, error) {
		return nil, errors.New("stat failed")
	})

	_, ok := m.Match("/nowhere/Foo (overwritten at 3h05).flp", "Foo (overwritten at 3h05).flp")
	assert.False(t, ok)
}

func TestMatcherDropsDirectories(t *testing.T) {
	dir := t.TempDir()
	name := "Foo (overwritten at 3h05).flp"
	path := filepath.Join(dir, name)
	require.NoError(t, os.Mkdir(path, 0755))

	_, ok := NewMatcher(nil).Match(path, name)
	assert.False(t, ok)
}

func TestMatcherSkipsStatOnMismatch(t *testing.T) {
	called := false
	m := NewMatcher(func(string) (os.FileInfo, error) {
		called = true
		return nil, os.ErrNotExist
	})

	_, ok := m.Match("/x/readme.txt", "readme.txt")
	assert.False(t, ok)
	assert.False(t, called, "stat should not run for non-matching names")
}

func TestProjectKeysWithSameNameStayDistinct(t *testing.T) {
	found := Found{}
	a := ProjectKey{Folder: "/music/a", Project: "Song"}
	b := ProjectKey{Folder: "/music/b", Project: "Song"}

	found.Add(a, File{Path: "/music/a/Backup/1.flp", Size: 10})
	found.Add(b, File{Path: "/music/b/Backup/1.flp", Size: 20})
	found.Add(a, File{Path: "/music/a/Backup/2.flp", Size: 30})

	assert.Len(t, found, 2)
	assert.Len(t, found[a], 2)
	assert.Len(t, found[b], 1)
	assert.Equal(t, 3, found.TotalFiles())
	assert.Equal(t, int64(60), found.TotalSize())
	assert.Equal(t, 1, found.Redundant())
	assert.Equal(t, "/music/a#Song", a.String())
}
