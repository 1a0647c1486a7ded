package scanner

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/fenilsonani/flclean/internal/progress"
)

// State is the mutable bookkeeping shared by the walkers of one scan
type State struct {
	estimator *progress.Estimator

	visitedMu sync.Mutex
	visited   map[uint64]struct{}

	rootsMu   sync.Mutex
	completed map[string]struct{}
}

func newState(roots int, baseline int64) *State {
	return &State{
		estimator: progress.NewEstimator(roots, baseline),
		visited:   make(map[uint64]struct{}),
		completed: make(map[string]struct{}),
	}
}

// Estimator exposes the scan's progress estimator
func (s *State) Estimator() *progress.Estimator {
	return s.estimator
}

// markVisited records a canonical directory and reports whether it was new
func (s *State) markVisited(canonical string) bool {
	key := xxhash.Sum64String(canonical)

	s.visitedMu.Lock()
	defer s.visitedMu.Unlock()

	if _, seen := s.visited[key]; seen {
		return false
	}
	s.visited[key] = struct{}{}
	return true
}

func (s *State) markCompleted(root string) {
	s.rootsMu.Lock()
	s.completed[root] = struct{}{}
	s.rootsMu.Unlock()
}

// Completed returns the roots whose units joined cleanly, sorted
func (s *State) Completed() []string {
	s.rootsMu.Lock()
	defer s.rootsMu.Unlock()

	roots := make([]string, 0, len(s.completed))
	for root := range s.completed {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}

// canonical resolves every symlink in path and makes it absolute
func canonical(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

// skipSet matches directory names case-insensitively
type skipSet map[string]struct{}

func newSkipSet(names []string) skipSet {
	set := make(skipSet, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = struct{}{}
	}
	return set
}

func (s skipSet) contains(name string) bool {
	_, ok := s[strings.ToLower(name)]
	return ok
}

// prunesDir reports whether a walker must not descend into name
func (s skipSet) prunesDir(name string) bool {
	if name == "" || name[0] == '.' || name[0] == '~' {
		return true
	}
	return s.contains(name)
}
