package scanner

import (
	"os"
	"path/filepath"
)

// Partition lists the immediate subdirectories of root that walkers should
// traverse, along with the number of regular files directly in root.
// Names matching the skip list, or starting with ".", "$" or "~", are left
// out. An unreadable root yields an empty partition.
func Partition(root string, skip []string) (dirs []string, files int) {
	return partition(root, newSkipSet(skip))
}

func partition(root string, skip skipSet) ([]string, int) {
	entries, err := os.ReadDir(root)
	if err != nil && len(entries) == 0 {
		return nil, 0
	}

	var dirs []string
	files := 0
	for _, entry := range entries {
		name := entry.Name()

		if entry.Type().IsRegular() {
			files++
			continue
		}

		if !isDirEntry(filepath.Join(root, name), entry) {
			continue
		}
		if name[0] == '$' || skip.prunesDir(name) {
			continue
		}
		dirs = append(dirs, filepath.Join(root, name))
	}

	return dirs, files
}

// isDirEntry reports whether entry is a directory or a symlink to one
func isDirEntry(path string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// chunk splits dirs into contiguous groups of ceil(len/maxSub), at least one
// directory each
func chunk(dirs []string, maxSub int) [][]string {
	if len(dirs) == 0 {
		return nil
	}
	if maxSub < 1 {
		maxSub = 1
	}

	size := (len(dirs) + maxSub - 1) / maxSub
	if size < 1 {
		size = 1
	}

	chunks := make([][]string, 0, (len(dirs)+size-1)/size)
	for start := 0; start < len(dirs); start += size {
		end := min(start+size, len(dirs))
		chunks = append(chunks, dirs[start:end])
	}
	return chunks
}
