//go:build windows

package platform

// candidateRoots returns drive letters A: through Z:
func candidateRoots() []string {
	roots := make([]string, 0, 26)
	for letter := 'A'; letter <= 'Z'; letter++ {
		roots = append(roots, string(letter)+`:\`)
	}
	return roots
}
