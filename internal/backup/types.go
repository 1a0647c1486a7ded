package backup

import (
	"fmt"
	"time"
)

// File is one autosave snapshot found inside a Backup folder
type File struct {
	Path        string
	ProjectName string
	Timestamp   string // "HhMM" as it appears in the filename
	Size        int64
	Hours       int
	Minutes     int
	TimeValue   int // Hours*60 + Minutes, used only for ordering
	ModTime     time.Time
}

// ProjectKey identifies a project: the folder holding the Backup directory
// plus the project name parsed from the snapshot filename. Keys with the same
// name but different folders are different projects.
type ProjectKey struct {
	Folder  string
	Project string
}

// String renders the key as "folder#project"
func (k ProjectKey) String() string {
	return fmt.Sprintf("%s#%s", k.Folder, k.Project)
}

// Found maps every project to the snapshots discovered for it
type Found map[ProjectKey][]File

// Add appends a snapshot to its project's collection
func (f Found) Add(key ProjectKey, file File) {
	f[key] = append(f[key], file)
}

// TotalFiles returns the number of snapshots across all projects
func (f Found) TotalFiles() int {
	total := 0
	for _, files := range f {
		total += len(files)
	}
	return total
}

// TotalSize returns the combined size of all snapshots
func (f Found) TotalSize() int64 {
	var total int64
	for _, files := range f {
		for _, file := range files {
			total += file.Size
		}
	}
	return total
}

// Redundant returns the number of projects holding more than one snapshot
func (f Found) Redundant() int {
	count := 0
	for _, files := range f {
		if len(files) > 1 {
			count++
		}
	}
	return count
}
