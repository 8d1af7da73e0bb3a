// Package fsutil holds the filesystem primitives shared by the merge engine,
// the backup ledger and the empty-folder cache: byte comparison, collision-free
// naming, moves with a cross-device fallback and directory skeleton copies.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// File permissions constants
const (
	// DirPerms are the default permissions for created directories (rwxr-x---)
	DirPerms os.FileMode = 0750

	// FilePerms are the default permissions for created files (rw-------)
	FilePerms os.FileMode = 0600
)

// errFound stops a walk as soon as a file is seen.
var errFound = errors.New("file found")

// Exists reports whether path exists without following a trailing symlink.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// HasFiles reports whether any non-directory entry exists anywhere below root.
// Directories containing only other empty directories do not count.
func HasFiles(root string) (bool, error) {
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return errFound
		}

		return nil
	})

	if errors.Is(err, errFound) {
		return true, nil
	}

	if err != nil {
		return false, err
	}

	return false, nil
}

// Move relocates a file. It tries a rename first (fast on the same device) and
// falls back to copy-then-remove when the rename fails, e.g. across devices.
func Move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := CopyFile(src, dst); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing original %s: %w", src, err)
	}

	return nil
}

// CopyFile copies a regular file, preserving its permission bits.
func CopyFile(src, dst string) (err error) {
	srcFile, openErr := os.Open(src) //nolint:gosec // caller-provided path
	if openErr != nil {
		return fmt.Errorf("opening source: %w", openErr)
	}

	defer func() {
		if closeErr := srcFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing source file: %w", closeErr)
		}
	}()

	srcInfo, statErr := srcFile.Stat()
	if statErr != nil {
		return fmt.Errorf("stating source: %w", statErr)
	}

	if mkdirErr := os.MkdirAll(filepath.Dir(dst), DirPerms); mkdirErr != nil {
		return fmt.Errorf("creating destination directory: %w", mkdirErr)
	}

	dstFile, createErr := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, srcInfo.Mode().Perm()) //nolint:gosec // caller-provided path
	if createErr != nil {
		return fmt.Errorf("creating destination: %w", createErr)
	}

	defer func() {
		if cerr := dstFile.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing destination: %w", cerr)
		}
	}()

	if _, err = io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}

	if err = dstFile.Sync(); err != nil {
		return fmt.Errorf("syncing destination: %w", err)
	}

	return nil
}

// CopySkeleton recreates the directory structure of src under dst. Files are
// ignored; dst itself is created when missing.
func CopySkeleton(src, dst string) error {
	if err := os.MkdirAll(dst, DirPerms); err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() || path == src {
			return nil
		}

		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}

		if err := os.MkdirAll(filepath.Join(dst, rel), DirPerms); err != nil {
			return fmt.Errorf("creating %s: %w", rel, err)
		}

		return nil
	})
}

// RemoveAll removes path and everything below it. A missing path is not an error.
func RemoveAll(path string) error {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	return os.RemoveAll(path)
}
