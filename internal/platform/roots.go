package platform

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// pseudoFilesystems never hold user projects and are left out of the
// mounted-partition candidates.
var pseudoFilesystems = map[string]bool{
	"proc":        true,
	"sysfs":       true,
	"tmpfs":       true,
	"devtmpfs":    true,
	"devpts":      true,
	"cgroup":      true,
	"cgroup2":     true,
	"overlay":     true,
	"squashfs":    true,
	"autofs":      true,
	"debugfs":     true,
	"tracefs":     true,
	"securityfs":  true,
	"pstore":      true,
	"bpf":         true,
	"mqueue":      true,
	"hugetlbfs":   true,
	"fusectl":     true,
	"configfs":    true,
	"binfmt_misc": true,
	"nsfs":        true,
	"devfs":       true,
}

// PartitionFunc lists mounted partitions
type PartitionFunc func() ([]disk.PartitionStat, error)

// Enumerator lists the platform's candidate scan roots
type Enumerator struct {
	candidates []string
	partitions PartitionFunc
	exists     func(string) bool
}

// NewEnumerator creates an Enumerator for the running platform. Mounted
// partitions reported by the OS are appended after the fixed candidates.
func NewEnumerator() *Enumerator {
	return &Enumerator{
		candidates: candidateRoots(),
		partitions: func() ([]disk.PartitionStat, error) { return disk.Partitions(false) },
		exists:     dirExists,
	}
}

// Roots returns existing candidate roots in a stable order. It never fails:
// missing or inaccessible candidates are omitted.
func (e *Enumerator) Roots() []string {
	var (
		seen  rootSet
		roots []string
	)

	add := func(path string) {
		if path == "" {
			return
		}
		clean := filepath.Clean(path)
		if !seen.add(clean) {
			return
		}
		if e.exists(clean) {
			roots = append(roots, clean)
		}
	}

	for _, c := range e.candidates {
		add(c)
	}

	if e.partitions != nil {
		parts, err := e.partitions()
		if err == nil {
			for _, p := range parts {
				if pseudoFilesystems[strings.ToLower(p.Fstype)] {
					continue
				}
				add(p.Mountpoint)
			}
		}
	}

	return roots
}

// StaticRoots is a fixed list of roots, filtered by existence
type StaticRoots []string

// Roots returns the entries that exist as directories. Entries naming the
// same directory through a symlink or bind mount are kept once, under the
// first spelling.
func (s StaticRoots) Roots() []string {
	var (
		seen  rootSet
		roots []string
	)
	for _, p := range s {
		abs, err := filepath.Abs(p)
		if err != nil || !seen.add(abs) {
			continue
		}
		if dirExists(abs) {
			roots = append(roots, abs)
		}
	}
	return roots
}

// rootSet tracks directories already listed. Two paths are the same root
// when they resolve to the same canonical path (symlinked aliases) or to the
// same file on disk (bind mounts).
type rootSet struct {
	keys  map[string]bool
	infos []os.FileInfo
}

// add reports whether path names a directory not seen before
func (r *rootSet) add(path string) bool {
	if r.keys == nil {
		r.keys = make(map[string]bool)
	}

	key := path
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		if abs, err := filepath.Abs(resolved); err == nil {
			key = abs
		}
	}
	if r.keys[key] {
		return false
	}

	info, err := os.Stat(path)
	if err == nil {
		for _, prev := range r.infos {
			if os.SameFile(prev, info) {
				return false
			}
		}
		r.infos = append(r.infos, info)
	}

	r.keys[key] = true
	return true
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
