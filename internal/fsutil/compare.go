package fsutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

const compareChunk = 64 * 1024

// Identical reports whether a and b are regular files with byte-for-byte equal
// content. Sizes are compared first; equal sizes always fall through to a full
// content comparison. When either path is not a regular file the result is
// false with no error.
func Identical(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, fmt.Errorf("stating %s: %w", a, err)
	}

	infoB, err := os.Stat(b)
	if err != nil {
		return false, fmt.Errorf("stating %s: %w", b, err)
	}

	if !infoA.Mode().IsRegular() || !infoB.Mode().IsRegular() {
		return false, nil
	}

	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	fa, err := os.Open(a) //nolint:gosec // caller-provided path
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", a, err)
	}
	defer func() { _ = fa.Close() }()

	fb, err := os.Open(b) //nolint:gosec // caller-provided path
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", b, err)
	}
	defer func() { _ = fb.Close() }()

	bufA := make([]byte, compareChunk)
	bufB := make([]byte, compareChunk)

	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)

		if !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}

		doneA := errA == io.EOF || errA == io.ErrUnexpectedEOF
		doneB := errB == io.EOF || errB == io.ErrUnexpectedEOF

		if errA != nil && !doneA {
			return false, fmt.Errorf("reading %s: %w", a, errA)
		}

		if errB != nil && !doneB {
			return false, fmt.Errorf("reading %s: %w", b, errB)
		}

		if doneA || doneB {
			return doneA && doneB, nil
		}
	}
}
