//go:build !windows

package platform

// hiddenAttribute has no attribute to consult outside Windows.
func hiddenAttribute(_ string) (hidden, ok bool) {
	return false, false
}
