package fsutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SplitExt splits a file name into base and extension. The extension starts at
// the last dot; leading dots never begin an extension, so ".bashrc" has none
// and "archive.tar.gz" splits into "archive.tar" and ".gz".
func SplitExt(name string) (base, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}

	if strings.Trim(name[:i], ".") == "" {
		return name, ""
	}

	return name[:i], name[i:]
}

// SuffixedName returns name with "_n" inserted before its extension.
// Example: report.pdf with n=2 -> report_2.pdf
func SuffixedName(name string, n int) string {
	base, ext := SplitExt(name)
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}

// NextFreeName returns the first path in dir named name, name_1, name_2, ...
// for which taken reports false. The suffix goes before the extension and the
// lowest free suffix always wins.
func NextFreeName(dir, name string, taken func(path string) bool) string {
	return nextFree(dir, name, SuffixedName, taken)
}

// NextFreeDirName is NextFreeName for directories: the suffix is appended to
// the whole name, so "my.photos" becomes "my.photos_1".
func NextFreeDirName(dir, name string, taken func(path string) bool) string {
	return nextFree(dir, name, func(name string, n int) string {
		return fmt.Sprintf("%s_%d", name, n)
	}, taken)
}

func nextFree(dir, name string, suffixed func(string, int) string, taken func(path string) bool) string {
	candidate := filepath.Join(dir, name)
	if !taken(candidate) {
		return candidate
	}

	for n := 1; ; n++ {
		candidate = filepath.Join(dir, suffixed(name, n))
		if !taken(candidate) {
			return candidate
		}
	}
}
