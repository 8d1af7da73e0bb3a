package ledger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AntoineGS/dirfusion/internal/fsutil"
)

// MissingFilesError reports that a restore was refused because merged files
// are no longer at their recorded destinations.
type MissingFilesError struct {
	BackupID string
	Paths    []string
}

func (e *MissingFilesError) Error() string {
	return fmt.Sprintf("cannot restore backup %s: %d destination files no longer exist", e.BackupID, len(e.Paths))
}

// Count returns the number of missing destination files.
func (e *MissingFilesError) Count() int {
	return len(e.Paths)
}

// RestoreReport summarises a restore or a simulated restore.
type RestoreReport struct {
	Message   string
	Restored  int
	Errors    int
	Skipped   int
	Missing   int
	Simulated bool
	OK        bool
}

// Restore undoes a merge by replaying its backup in reverse: every moved or
// renamed file goes back from its destination to its source.
//
// A verification pass runs first. When any destination file is missing and
// simulate is false, nothing is touched and a *MissingFilesError is returned
// alongside the report. With simulate true nothing is ever touched and the
// report describes what would happen.
//
// The mutation phase is best-effort: a failing entry is counted and the
// remaining entries are still restored.
func (l *Ledger) Restore(id string, simulate bool) (RestoreReport, error) {
	b, err := l.Load(id)
	if err != nil {
		return RestoreReport{Message: err.Error()}, err
	}

	if len(b.Entries) == 0 {
		err := fmt.Errorf("%s: %w", id, ErrEmptyBackup)
		return RestoreReport{Message: err.Error()}, err
	}

	report := RestoreReport{Simulated: simulate}

	if !simulate {
		missing := missingDestinations(b.Entries)
		for _, p := range missing {
			l.logger.Warn("destination file no longer exists",
				slog.String("backup", id),
				slog.String("path", p))
		}

		report.Missing = len(missing)

		if len(missing) > 0 {
			merr := &MissingFilesError{BackupID: id, Paths: missing}
			report.Message = merr.Error()
			return report, merr
		}
	}

	for i := len(b.Entries) - 1; i >= 0; i-- {
		e := b.Entries[i]

		if !isUndoable(e.Type) {
			report.Skipped++
			continue
		}

		if !fsutil.Exists(e.Destination) {
			report.Errors++

			if simulate {
				report.Missing++
				l.logger.Warn("would fail to restore",
					slog.String("path", e.Destination),
					slog.String("reason", "file not found"))
			} else {
				l.logger.Error("cannot restore file",
					slog.String("path", e.Destination),
					slog.String("reason", "file not found"))
			}

			continue
		}

		if simulate {
			report.Restored++
			l.logger.Info("would restore",
				slog.String("from", e.Destination),
				slog.String("to", e.Source))
			continue
		}

		if err := restoreEntry(e); err != nil {
			report.Errors++
			l.logger.Error("restore failed",
				slog.String("from", e.Destination),
				slog.String("to", e.Source),
				slog.String("error", err.Error()))
			continue
		}

		report.Restored++
		l.logger.Info("restored",
			slog.String("type", string(e.Type)),
			slog.String("from", e.Destination),
			slog.String("to", e.Source))
	}

	report.OK = report.Errors == 0

	if simulate {
		report.Message = fmt.Sprintf("Simulation completed: %d operations would be restored, %d errors would occur, %d operations would be skipped",
			report.Restored, report.Errors, report.Skipped)
	} else {
		report.Message = fmt.Sprintf("Backup restored: %d operations restored, %d errors occurred, %d operations skipped",
			report.Restored, report.Errors, report.Skipped)
	}

	return report, nil
}

// missingDestinations returns the recorded destinations of undoable entries
// that no longer exist, newest entry first.
func missingDestinations(entries []LogEntry) []string {
	var missing []string

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if isUndoable(e.Type) && !fsutil.Exists(e.Destination) {
			missing = append(missing, e.Destination)
		}
	}

	return missing
}

func isUndoable(t EntryType) bool {
	return t == EntryMove || t == EntryRename
}

// restoreEntry moves one file back to its source path. An occupied source is
// never overwritten.
func restoreEntry(e LogEntry) error {
	if fsutil.Exists(e.Source) {
		return fmt.Errorf("source path %s is occupied", e.Source)
	}

	if err := os.MkdirAll(filepath.Dir(e.Source), fsutil.DirPerms); err != nil {
		return fmt.Errorf("creating source directory: %w", err)
	}

	return fsutil.Move(e.Destination, e.Source)
}
