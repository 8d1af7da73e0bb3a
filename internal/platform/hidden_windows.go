//go:build windows

package platform

import "golang.org/x/sys/windows"

// hiddenAttribute reads FILE_ATTRIBUTE_HIDDEN. ok is false when the attributes
// could not be read.
func hiddenAttribute(path string) (hidden, ok bool) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false, false
	}

	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return false, false
	}

	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0, true
}
