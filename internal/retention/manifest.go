package retention

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Manifest keeps track of removed snapshots
type Manifest struct {
	mu        sync.Mutex
	Files     []DeletedFile
	Timestamp time.Time
	TotalSize int64
}

// DeletedFile is one manifest entry
type DeletedFile struct {
	Path      string
	Project   string
	Size      int64
	DeletedAt time.Time
}

// NewManifest creates a new Manifest
func NewManifest() *Manifest {
	return &Manifest{
		Files:     []DeletedFile{},
		Timestamp: time.Now(),
	}
}

// Add adds a file to the manifest
func (m *Manifest) Add(path, project string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Files = append(m.Files, DeletedFile{
		Path:      path,
		Project:   project,
		Size:      size,
		DeletedAt: time.Now(),
	})
	m.TotalSize += size
}

// Len returns the number of recorded removals
func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Files)
}

// Save writes the manifest to a file
func (m *Manifest) Save(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "Deletion Manifest\n")
	fmt.Fprintf(file, "Created: %s\n", m.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(file, "Total Size: %d bytes\n", m.TotalSize)
	fmt.Fprintf(file, "Total Files: %d\n\n", len(m.Files))

	for _, f := range m.Files {
		fmt.Fprintf(file, "%s | %d bytes | %s | %s\n",
			f.Path, f.Size, f.Project, f.DeletedAt.Format(time.RFC3339))
	}

	return file.Close()
}
