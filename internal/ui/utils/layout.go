package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/flclean/internal/ui/styles"
)

const (
	// MinTerminalWidth is the minimum recommended terminal width
	MinTerminalWidth = 60
	// MinTerminalHeight is the minimum recommended terminal height
	MinTerminalHeight = 16
)

// TruncatePath shortens path to at most maxWidth bytes, keeping the file name
// and dropping leading directories first
func TruncatePath(path string, maxWidth int) string {
	if len(path) <= maxWidth {
		return path
	}
	if maxWidth < 10 {
		return "..."
	}

	dir, file := filepath.Split(path)
	if len(file) > maxWidth-4 {
		return "..." + file[len(file)-(maxWidth-4):]
	}

	available := maxWidth - len(file) - 3 // 3 for "..."
	parts := strings.Split(filepath.Clean(dir), string(filepath.Separator))

	// Keep as many trailing directories as fit
	kept := ""
	for i := len(parts) - 1; i >= 0; i-- {
		candidate := parts[i] + string(filepath.Separator) + kept
		if len(candidate)+1 > available {
			break
		}
		kept = candidate
	}
	return "..." + string(filepath.Separator) + kept + file
}

// TruncateString truncates a string to maxLen, adding ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}

// IsTerminalTooSmall checks if the terminal is below minimum recommended size.
// An unknown size (zero) is never too small.
func IsTerminalTooSmall(width, height int) bool {
	if width == 0 && height == 0 {
		return false
	}
	return width < MinTerminalWidth || height < MinTerminalHeight
}

// GetSizeWarningBanner returns a warning banner if terminal is too small
func GetSizeWarningBanner(width, height int) string {
	if !IsTerminalTooSmall(width, height) {
		return ""
	}

	warning := fmt.Sprintf("Terminal too small! Recommended: %dx%d or larger", MinTerminalWidth, MinTerminalHeight)
	warning += styles.DimStyle.Render(" (current: ") +
		styles.WarningStyle.Render(fmt.Sprintf("%dx%d", width, height)) +
		styles.DimStyle.Render(")")

	return styles.WarningStyle.Render(warning) + "\n\n"
}
