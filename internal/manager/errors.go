package manager

import (
	"errors"
	"fmt"
)

// Sentinel errors for common manager operations
var (
	ErrSourceNotFound   = errors.New("source folder does not exist")
	ErrInvalidRequest   = errors.New("invalid merge request")
	ErrAlreadyRunning   = errors.New("operation already running")
	ErrNoCache          = errors.New("no folder cache configured")
	ErrBinaryContent    = errors.New("binary content cannot be diffed")
	ErrNothingToCompare = errors.New("action has no collision to compare")
	ErrDiffTooLarge     = errors.New("file too large to diff")
)

// PathError records an error and the operation and path that caused it.
type PathError struct {
	Err  error
	Op   string
	Path string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// NewPathError creates a new PathError
func NewPathError(op, path string, err error) *PathError {
	return &PathError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}
