package platform

import (
	"path/filepath"
	"strings"
)

// IsHidden reports whether the entry at path is hidden by the convention of
// the running platform. On Unix-like systems an entry is hidden when its base
// name starts with a dot. On Windows the hidden file attribute decides, and
// the dot rule applies when the attribute cannot be read.
func IsHidden(path string) bool {
	if hidden, ok := hiddenAttribute(path); ok {
		return hidden
	}

	return IsDotHidden(path)
}

// IsDotHidden applies the Unix dot-prefix rule to the base name of path.
func IsDotHidden(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
