package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/flclean/internal/backup"
)

// PathValidator checks snapshot paths before they are removed
type PathValidator struct {
	protectedPaths []string
}

// NewPathValidator creates a new PathValidator with default protected paths
func NewPathValidator() *PathValidator {
	return &PathValidator{
		protectedPaths: []string{
			// Unix system directories
			"/bin",
			"/boot",
			"/dev",
			"/etc",
			"/lib",
			"/lib64",
			"/proc",
			"/sbin",
			"/sys",
			"/usr",
			// macOS system directories
			"/System",
			"/Library/System",
			// Windows system directories
			`C:\Windows`,
			`C:\Program Files`,
			`C:\Program Files (x86)`,
		},
	}
}

// ValidatePathForDeletion is the single gate every snapshot passes before it
// is removed. The path must be absolute and clean, name a regular file with
// the snapshot extension, sit directly inside a Backup folder and lie outside
// the protected system directories.
func (pv *PathValidator) ValidatePathForDeletion(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}

	if filepath.Clean(path) != path {
		return fmt.Errorf("path contains suspicious elements: %s", path)
	}

	if strings.ContainsAny(path, "\x00\n\r") {
		return fmt.Errorf("path contains control characters: %q", path)
	}

	if !strings.HasSuffix(filepath.Base(path), backup.Extension) {
		return fmt.Errorf("not a snapshot file: %s", path)
	}

	if filepath.Base(filepath.Dir(path)) != backup.FolderName {
		return fmt.Errorf("not inside a %s folder: %s", backup.FolderName, path)
	}

	if pv.IsProtectedPath(path) {
		return fmt.Errorf("refusing to delete inside protected path: %s", path)
	}

	// Lstat so a snapshot swapped for a symlink is never followed
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("path is a symlink: %s", path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}

	return nil
}

// IsProtectedPath checks if a path is, or is inside, a protected system path
func (pv *PathValidator) IsProtectedPath(path string) bool {
	cleanPath := filepath.Clean(path)
	for _, protected := range pv.protectedPaths {
		if strings.EqualFold(cleanPath, protected) {
			return true
		}
		rel, err := filepath.Rel(protected, cleanPath)
		if err == nil && rel != "." && !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel) {
			return true
		}
	}
	return false
}

// AddProtectedPath adds a custom protected path
func (pv *PathValidator) AddProtectedPath(path string) {
	cleanPath := filepath.Clean(path)
	pv.protectedPaths = append(pv.protectedPaths, cleanPath)
}

// ValidateDirName checks a skip-list entry: a single, non-empty path element
func ValidateDirName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("directory name is empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("directory name must not contain separators: %s", name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("directory name is not allowed: %s", name)
	}
	return nil
}
