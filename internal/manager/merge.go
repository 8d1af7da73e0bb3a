package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AntoineGS/dirfusion/internal/cache"
	"github.com/AntoineGS/dirfusion/internal/fsutil"
	"github.com/AntoineGS/dirfusion/internal/ledger"
	"github.com/AntoineGS/dirfusion/internal/state"
)

// MergeWithContext runs Merge with context support
func (m *Manager) MergeWithContext(ctx context.Context, req Request) (*Result, error) {
	m = m.WithContext(ctx)
	return m.Merge(req)
}

// Merge moves every visible source file into the destination, reconciling
// collisions the same way Analyze plans them. Each move and rename is
// recorded in the ledger, which is committed however the run ends.
//
// Cancellation is an outcome, not an error: the partial result is returned
// with OutcomeCancelled. A whole-walk failure returns the partial result with
// OutcomeFailed and the error. Invalid requests return no result.
func (m *Manager) Merge(req Request) (*Result, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, err
	}

	res := &Result{
		StartedAt: m.clock.Now(),
		Outcome:   OutcomeCompleted,
	}

	m.logger.Info("starting merge",
		slog.String("destination", req.Destination),
		slog.Int("sources", len(req.Sources)),
		slog.Bool("include_hidden", req.IncludeHidden),
	)

	if m.ledger != nil {
		m.ledger.StartRun(req.Destination, req.Sources)
	}

	runErr := m.mergeSources(req, &res.Stats)

	switch {
	case runErr == nil:
	case isCancellation(runErr):
		res.Outcome = OutcomeCancelled
		runErr = nil

		m.logger.Warn("merge cancelled", slog.Int("processed", res.Stats.Processed()))
	default:
		res.Outcome = OutcomeFailed

		m.logger.Error("merge failed", slog.String("error", runErr.Error()))
	}

	if m.ledger != nil {
		id, err := m.ledger.Commit()
		if err != nil {
			m.logger.Error("cannot save backup", slog.String("error", err.Error()))
			runErr = errors.Join(runErr, fmt.Errorf("saving backup: %w", err))
		}

		res.BackupID = id
	}

	if res.Outcome == OutcomeCompleted && m.AutoCacheEmpty && m.cache != nil {
		cached, err := m.CacheEmptySources(req.Sources)
		if err != nil {
			m.logger.Warn("cannot cache empty source", slog.String("error", err.Error()))
		}

		res.Cached = cached
	}

	res.FinishedAt = m.clock.Now()
	m.recordRun(req, res, runErr)

	m.logger.Info("merge finished",
		slog.String("outcome", string(res.Outcome)),
		slog.Int("moved", res.Stats.FilesMoved),
		slog.Int("skipped", res.Stats.FilesSkipped),
		slog.Int("renamed", res.Stats.FilesRenamed),
		slog.Int("directories", res.Stats.DirectoriesCreated),
		slog.Int("errors", res.Stats.Errors),
		slog.String("backup", res.BackupID),
	)

	return res, runErr
}

func (m *Manager) mergeSources(req Request, stats *RunStatistics) error {
	created, err := ensureDir(req.Destination)
	if err != nil {
		return err
	}

	stats.DirectoriesCreated += created

	report := func() {
		if req.OnStats != nil {
			req.OnStats(*stats)
		}
	}

	hooks := walkHooks{
		file: func(path, destDir string) {
			m.mergeFile(path, destDir, stats)
			report()
		},
		hidden: func(path string) {
			stats.FilesSkipped++
			m.logger.Debug("skipping hidden entry", slog.String("path", path))
			report()
		},
		fail: func(path string, err error) {
			stats.Errors++
			m.logger.Error("cannot read directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
		},
	}

	for _, src := range req.Sources {
		if err := m.checkContext(); err != nil {
			return err
		}

		if !fsutil.IsDir(src) {
			return NewPathError("stat", src, ErrSourceNotFound)
		}

		m.logger.Debug("merging source", slog.String("source", src))

		if err := m.walkTree(src, req.Destination, req.IncludeHidden, true, hooks); err != nil {
			return err
		}
	}

	return nil
}

// mergeFile reconciles one file against the real destination and applies
// the decision. Failures are counted and logged; they never stop the walk.
func (m *Manager) mergeFile(path, destDir string, stats *RunStatistics) {
	action, err := reconcile(diskView{}, path, destDir)
	if err != nil {
		stats.Errors++
		m.logger.Error("cannot reconcile file",
			slog.String("path", path),
			slog.String("error", err.Error()))

		return
	}

	if action.Kind == ActionSkip {
		stats.FilesSkipped++
		m.logger.Debug("skipped",
			slog.String("source", path),
			slog.String("reason", action.Reason))

		return
	}

	created, err := ensureDir(destDir)
	if err != nil {
		stats.Errors++
		m.logger.Error("cannot create directory",
			slog.String("path", destDir),
			slog.String("error", err.Error()))

		return
	}

	stats.DirectoriesCreated += created

	if err := fsutil.Move(path, action.DestPath); err != nil {
		stats.Errors++
		m.logger.Error("cannot move file",
			slog.String("source", path),
			slog.String("destination", action.DestPath),
			slog.String("error", err.Error()))

		return
	}

	entryType := ledger.EntryMove
	if action.Kind == ActionRename {
		entryType = ledger.EntryRename
		stats.FilesRenamed++
	} else {
		stats.FilesMoved++
	}

	if m.ledger != nil {
		m.ledger.Record(ledger.LogEntry{
			Timestamp:   m.clock.Now(),
			Type:        entryType,
			Source:      path,
			Destination: action.DestPath,
		})
	}

	m.logger.Debug(action.Kind.String(),
		slog.String("source", path),
		slog.String("destination", action.DestPath))
}

// CacheEmptySources relocates every source that holds no files into the
// folder cache. Sources that still hold files are left alone.
func (m *Manager) CacheEmptySources(sources []string) ([]cache.CachedFolder, error) {
	if m.cache == nil {
		return nil, ErrNoCache
	}

	var (
		cached []cache.CachedFolder
		errs   []error
	)

	for _, src := range sources {
		if !m.cache.IsEmptyOfFiles(src) {
			continue
		}

		entry, err := m.cache.Cache(src)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		cached = append(cached, *entry)
	}

	return cached, errors.Join(errs...)
}

// recordRun stores the run in the history store, when one is configured.
func (m *Manager) recordRun(req Request, res *Result, runErr error) {
	if m.history == nil {
		return
	}

	rec := &state.RunRecord{
		StartedAt:          res.StartedAt,
		FinishedAt:         res.FinishedAt,
		Destination:        req.Destination,
		Sources:            req.Sources,
		Outcome:            string(res.Outcome),
		BackupID:           res.BackupID,
		FilesMoved:         res.Stats.FilesMoved,
		FilesSkipped:       res.Stats.FilesSkipped,
		FilesRenamed:       res.Stats.FilesRenamed,
		DirectoriesCreated: res.Stats.DirectoriesCreated,
		Errors:             res.Stats.Errors,
		FoldersCached:      len(res.Cached),
	}

	if runErr != nil {
		rec.ErrorMessage = runErr.Error()
	}

	if m.Platform != nil {
		rec.PlatformOS = m.Platform.OS
		rec.PlatformHost = m.Platform.Hostname
	}

	if err := m.history.SaveRun(rec); err != nil {
		m.logger.Warn("cannot record run history", slog.String("error", err.Error()))
		return
	}

	res.RunID = rec.ID
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
