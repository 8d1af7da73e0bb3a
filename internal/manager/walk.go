package manager

import (
	"io/fs"
	"os"
	"path/filepath"
)

// walkHooks receive what walkTree finds. file is called for every visible
// non-directory entry with the destination directory it maps onto.
type walkHooks struct {
	file   func(src, destDir string)
	hidden func(path string)
	fail   func(path string, err error)
}

// walkTree visits srcDir depth-first in directory-listing order, mapping it
// onto destDir. Hidden entries are reported and never descended into unless
// includeHidden is set. An unreadable root aborts the walk; an unreadable
// subdirectory is reported through fail and skipped. Cancellation is checked
// before every directory and every entry.
func (m *Manager) walkTree(srcDir, destDir string, includeHidden, root bool, h walkHooks) error {
	if err := m.checkContext(); err != nil {
		return err
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if root {
			return NewPathError("read", srcDir, err)
		}

		h.fail(srcDir, NewPathError("read", srcDir, err))

		return nil
	}

	for _, entry := range entries {
		if err := m.checkContext(); err != nil {
			return err
		}

		path := filepath.Join(srcDir, entry.Name())

		if !includeHidden && m.hidden(path) {
			h.hidden(path)
			continue
		}

		if entry.IsDir() {
			if err := m.walkTree(path, filepath.Join(destDir, entry.Name()), includeHidden, false, h); err != nil {
				return err
			}

			continue
		}

		h.file(path, destDir)
	}

	return nil
}

// countFiles counts the non-directory entries under root the way walkTree
// would visit them.
func (m *Manager) countFiles(root string, includeHidden bool) (int, error) {
	count := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := m.checkContext(); ctxErr != nil {
			return ctxErr
		}

		if err != nil || path == root {
			return nil
		}

		if !includeHidden && m.hidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.IsDir() {
			count++
		}

		return nil
	})

	return count, err
}
