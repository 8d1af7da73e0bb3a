package manager

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	maxDiffBytes = 1 << 20
	sniffBytes   = 8000
)

// CollisionDiff renders a line diff between the content a source collided
// with and the source itself, for previewing renames and skips.
func CollisionDiff(action PlannedAction) (string, error) {
	if action.CollidesWith == "" {
		return "", ErrNothingToCompare
	}

	existing, err := readForDiff(action.CollidesWith)
	if err != nil {
		return "", err
	}

	incoming, err := readForDiff(action.SourcePath)
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()

	a, b, lineArray := dmp.DiffLinesToChars(string(existing), string(incoming))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	changed := false
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual {
			changed = true
			break
		}
	}

	if !changed {
		return "No differences found.\n", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("--- existing (%s)\n", action.CollidesWith))
	sb.WriteString(fmt.Sprintf("+++ incoming (%s)\n", action.SourcePath))
	sb.WriteString("\n")

	for _, diff := range diffs {
		lines := strings.Split(diff.Text, "\n")
		// Remove trailing empty string from split
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}

		for _, line := range lines {
			switch diff.Type {
			case diffmatchpatch.DiffDelete:
				sb.WriteString("- " + line + "\n")
			case diffmatchpatch.DiffInsert:
				sb.WriteString("+ " + line + "\n")
			case diffmatchpatch.DiffEqual:
				sb.WriteString("  " + line + "\n")
			}
		}
	}

	return sb.String(), nil
}

func readForDiff(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, NewPathError("stat", path, err)
	}

	if info.Size() > maxDiffBytes {
		return nil, NewPathError("diff", path, ErrDiffTooLarge)
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the merge plan
	if err != nil {
		return nil, NewPathError("read", path, err)
	}

	if bytes.IndexByte(data[:min(len(data), sniffBytes)], 0) >= 0 {
		return nil, NewPathError("diff", path, ErrBinaryContent)
	}

	return data, nil
}
