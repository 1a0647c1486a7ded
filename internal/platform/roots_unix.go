//go:build !windows

package platform

// candidateRoots returns the filesystem root and the common mount points
func candidateRoots() []string {
	return []string{
		"/",
		"/home",
		"/Users", // macOS
		"/mnt",
		"/media",
	}
}
