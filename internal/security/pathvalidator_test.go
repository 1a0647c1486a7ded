package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSnapshot(t *testing.T, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestValidatePathForDeletion(t *testing.T) {
	pv := NewPathValidator()
	root := t.TempDir()
	backupDir := filepath.Join(root, "Song", "Backup")

	valid := writeSnapshot(t, backupDir, "Song (overwritten at 3h05).flp")
	wrongExt := writeSnapshot(t, backupDir, "Song (overwritten at 3h05).txt")
	outside := writeSnapshot(t, filepath.Join(root, "Song"), "Song (overwritten at 3h05).flp")

	link := filepath.Join(backupDir, "Link (overwritten at 1h00).flp")
	if err := os.Symlink(valid, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	dirSnapshot := filepath.Join(backupDir, "Dir (overwritten at 1h00).flp")
	if err := os.Mkdir(dirSnapshot, 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		errorMsg string // empty means valid
	}{
		{"valid snapshot", valid, ""},
		{"relative path", "Song/Backup/x.flp", "path must be absolute"},
		{"unclean path", backupDir + "/../Backup/Song (overwritten at 3h05).flp", "suspicious"},
		{"wrong extension", wrongExt, "not a snapshot file"},
		{"outside backup folder", outside, "not inside a Backup folder"},
		{"symlink", link, "symlink"},
		{"directory", dirSnapshot, "not a regular file"},
		{"missing file", filepath.Join(backupDir, "Gone (overwritten at 1h00).flp"), "no such file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pv.ValidatePathForDeletion(tt.path)
			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("expected valid, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.errorMsg)
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("error %q does not contain %q", err, tt.errorMsg)
			}
		})
	}
}

func TestIsProtectedPath(t *testing.T) {
	pv := NewPathValidator()

	tests := []struct {
		path string
		want bool
	}{
		{"/usr", true},
		{"/usr/share/Backup/a.flp", true},
		{"/System/Library", true},
		{"/home/user/Music/Backup/a.flp", false},
		{"/usrlocal/Backup/a.flp", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := pv.IsProtectedPath(tt.path); got != tt.want {
				t.Errorf("IsProtectedPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestAddProtectedPath(t *testing.T) {
	pv := NewPathValidator()
	pv.AddProtectedPath("/home/user/keep/")

	if !pv.IsProtectedPath("/home/user/keep/Song/Backup/a.flp") {
		t.Error("expected custom protected path to be honoured")
	}
}

func TestValidateDirName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"node_modules", false},
		{"Program Files", false},
		{"", true},
		{"   ", true},
		{"a/b", true},
		{`a\b`, true},
		{"..", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDirName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDirName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}
