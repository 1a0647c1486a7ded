package platform

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	assert.Equal(t, runtime.GOOS, string(Detect()))
}

func TestGetUserConfigDirLinux(t *testing.T) {
	if Detect() != Linux {
		t.Skip("XDG layout applies to Linux only")
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir, err := GetUserConfigDir()
	require.NoError(t, err)
	assert.Equal(t, xdg, dir)

	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", home)
	dir, err = GetUserConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config"), dir)
}
