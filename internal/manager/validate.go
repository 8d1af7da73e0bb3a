package manager

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// normalize validates req and returns a copy with absolute, cleaned paths.
// Sources must be existing directories, listed once, and must neither
// overlap the destination nor each other.
func normalize(req Request) (Request, error) {
	if strings.TrimSpace(req.Destination) == "" {
		return req, fmt.Errorf("%w: destination is required", ErrInvalidRequest)
	}

	if len(req.Sources) == 0 {
		return req, fmt.Errorf("%w: at least one source is required", ErrInvalidRequest)
	}

	dest, err := filepath.Abs(req.Destination)
	if err != nil {
		return req, NewPathError("resolve", req.Destination, err)
	}

	if info, err := os.Stat(dest); err == nil && !info.IsDir() {
		return req, NewPathError("validate", dest, fmt.Errorf("%w: destination is not a directory", ErrInvalidRequest))
	}

	sources := make([]string, 0, len(req.Sources))

	for _, s := range req.Sources {
		src, err := filepath.Abs(s)
		if err != nil {
			return req, NewPathError("resolve", s, err)
		}

		info, err := os.Stat(src)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return req, NewPathError("stat", src, ErrSourceNotFound)
			}

			return req, NewPathError("stat", src, err)
		}

		if !info.IsDir() {
			return req, NewPathError("validate", src, fmt.Errorf("%w: source is not a directory", ErrInvalidRequest))
		}

		if src == dest || within(dest, src) || within(src, dest) {
			return req, NewPathError("validate", src, fmt.Errorf("%w: source overlaps destination %s", ErrInvalidRequest, dest))
		}

		for _, other := range sources {
			if src == other {
				return req, NewPathError("validate", src, fmt.Errorf("%w: source listed twice", ErrInvalidRequest))
			}

			if within(src, other) || within(other, src) {
				return req, NewPathError("validate", src, fmt.Errorf("%w: source overlaps source %s", ErrInvalidRequest, other))
			}
		}

		sources = append(sources, src)
	}

	req.Destination = dest
	req.Sources = sources

	return req, nil
}

// within reports whether child lies strictly inside parent.
func within(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}

	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
