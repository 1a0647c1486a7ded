// Package backup models autosave snapshots and parses their filenames.
//
// Snapshots are written by the authoring tool as
//
//	<project name> (overwritten at <H>h<MM>).flp
//
// into a directory named "Backup" next to the project file.
package backup

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
)

const (
	// Extension is the snapshot file extension, matched case-sensitively
	Extension = ".flp"

	// FolderName is the exact name of a directory holding snapshots
	FolderName = "Backup"
)

var snapshotPattern = regexp.MustCompile(`^(.+) \(overwritten at (\d{1,2})h(\d{2})\)\.flp$`)

// Parsed holds the fields extracted from a snapshot filename
type Parsed struct {
	ProjectName string
	Hours       int
	Minutes     int
}

// TimeValue returns minutes since midnight. Hours are not range checked, so
// "99h00" yields 5940.
func (p Parsed) TimeValue() int {
	return p.Hours*60 + p.Minutes
}

// Timestamp renders the "HhMM" label
func (p Parsed) Timestamp() string {
	return fmt.Sprintf("%dh%02d", p.Hours, p.Minutes)
}

// Parse matches a bare filename against the snapshot naming convention.
// A mismatch is a normal outcome and reported as ok=false.
func Parse(name string) (Parsed, bool) {
	m := snapshotPattern.FindStringSubmatch(name)
	if m == nil {
		return Parsed{}, false
	}

	hours, err := strconv.Atoi(m[2])
	if err != nil {
		return Parsed{}, false
	}
	minutes, err := strconv.Atoi(m[3])
	if err != nil {
		return Parsed{}, false
	}

	return Parsed{
		ProjectName: m[1],
		Hours:       hours,
		Minutes:     minutes,
	}, true
}

// StatFunc looks up file metadata. os.Stat is used when nil.
type StatFunc func(path string) (os.FileInfo, error)

// Matcher turns candidate paths into snapshot records
type Matcher struct {
	stat StatFunc
}

// NewMatcher creates a Matcher using stat for size lookups
func NewMatcher(stat StatFunc) *Matcher {
	if stat == nil {
		stat = os.Stat
	}
	return &Matcher{stat: stat}
}

// Match parses name and stats path. Candidates whose metadata cannot be read,
// or which are not regular files, are dropped silently.
func (m *Matcher) Match(path, name string) (File, bool) {
	parsed, ok := Parse(name)
	if !ok {
		return File{}, false
	}

	info, err := m.stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return File{}, false
	}

	return File{
		Path:        path,
		ProjectName: parsed.ProjectName,
		Timestamp:   parsed.Timestamp(),
		Size:        info.Size(),
		Hours:       parsed.Hours,
		Minutes:     parsed.Minutes,
		TimeValue:   parsed.TimeValue(),
		ModTime:     info.ModTime(),
	}, true
}
