package manager

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/AntoineGS/dirfusion/internal/fsutil"
)

// destView is the state of the destination tree as seen by one pass. The
// merge sees the real filesystem; the analysis sees the filesystem plus the
// decisions it has already made.
type destView interface {
	// exists reports whether path is occupied.
	exists(path string) (bool, error)
	// identical reports whether src has the same bytes as whatever occupies path.
	identical(src, path string) (bool, error)
}

// reconcile decides what happens to sourceFile when it is merged into destDir:
// a move to a free name, a skip when identical content is already there, or a
// rename to the first free {base}_{n}{ext}. The first identical suffixed
// sibling found wins the skip.
func reconcile(v destView, sourceFile, destDir string) (PlannedAction, error) {
	name := filepath.Base(sourceFile)
	candidate := filepath.Join(destDir, name)

	action := PlannedAction{SourcePath: sourceFile}

	occupied, err := v.exists(candidate)
	if err != nil {
		return action, NewPathError("stat", candidate, err)
	}

	if !occupied {
		action.Kind = ActionMove
		action.DestPath = candidate

		return action, nil
	}

	same, err := v.identical(sourceFile, candidate)
	if err != nil {
		return action, NewPathError("compare", candidate, err)
	}

	if same {
		action.Kind = ActionSkip
		action.DestPath = candidate
		action.CollidesWith = candidate
		action.Reason = ReasonIdentical

		return action, nil
	}

	for n := 1; ; n++ {
		trial := filepath.Join(destDir, fsutil.SuffixedName(name, n))

		occupied, err := v.exists(trial)
		if err != nil {
			return action, NewPathError("stat", trial, err)
		}

		if !occupied {
			action.Kind = ActionRename
			action.DestPath = trial
			action.CollidesWith = candidate
			action.Reason = ReasonCollision

			return action, nil
		}

		same, err := v.identical(sourceFile, trial)
		if err != nil {
			return action, NewPathError("compare", trial, err)
		}

		if same {
			action.Kind = ActionSkip
			action.DestPath = trial
			action.CollidesWith = trial
			action.Reason = ReasonIdenticalName

			return action, nil
		}
	}
}

// lstatExists reports whether something occupies path without following
// symlinks. Only "not found" counts as free.
func lstatExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, err
}

// diskView reads the destination straight from the filesystem.
type diskView struct{}

func (diskView) exists(path string) (bool, error) {
	return lstatExists(path)
}

func (diskView) identical(src, path string) (bool, error) {
	return fsutil.Identical(src, path)
}

// overlayView layers planned moves over the real destination. planned maps a
// destination path to the source file whose bytes would land there.
type overlayView struct {
	planned map[string]string
	dirs    map[string]bool
}

func newOverlayView() *overlayView {
	return &overlayView{
		planned: make(map[string]string),
		dirs:    make(map[string]bool),
	}
}

func (o *overlayView) exists(path string) (bool, error) {
	if _, ok := o.planned[path]; ok {
		return true, nil
	}

	return lstatExists(path)
}

func (o *overlayView) identical(src, path string) (bool, error) {
	if origin, ok := o.planned[path]; ok {
		return fsutil.Identical(src, origin)
	}

	return fsutil.Identical(src, path)
}

// place records that src would land at dest.
func (o *overlayView) place(src, dest string) {
	o.planned[dest] = src
}

// ensureDir records that dir would exist and returns how many directories,
// dir and its missing ancestors, would have to be created for that.
func (o *overlayView) ensureDir(dir string) (int, error) {
	created := 0

	for d := dir; !o.dirs[d]; {
		exists, err := lstatExists(d)
		if err != nil {
			return created, NewPathError("stat", d, err)
		}

		if exists {
			break
		}

		o.dirs[d] = true
		created++

		parent := filepath.Dir(d)
		if parent == d {
			break
		}

		d = parent
	}

	return created, nil
}

// ensureDir creates dir and its missing ancestors and returns how many
// directories were created.
func ensureDir(dir string) (int, error) {
	missing := 0

	for d := dir; ; {
		exists, err := lstatExists(d)
		if err != nil {
			return 0, NewPathError("stat", d, err)
		}

		if exists {
			break
		}

		missing++

		parent := filepath.Dir(d)
		if parent == d {
			break
		}

		d = parent
	}

	if missing == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(dir, fsutil.DirPerms); err != nil {
		return 0, NewPathError("mkdir", dir, err)
	}

	return missing, nil
}
