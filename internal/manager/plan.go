package manager

import (
	"context"
	"log/slog"
)

// AnalyzeWithContext runs Analyze with context support
func (m *Manager) AnalyzeWithContext(ctx context.Context, req Request) (*Plan, error) {
	m = m.WithContext(ctx)
	return m.Analyze(req)
}

// Analyze plans how the sources would merge into the destination without
// touching the filesystem. Decisions made earlier in the pass are visible to
// later files, so the plan matches what Merge would do on an unchanged tree.
// A cancelled analysis returns the context error and no plan.
func (m *Manager) Analyze(req Request) (*Plan, error) {
	if err := m.checkContext(); err != nil {
		return nil, err
	}

	req, err := normalize(req)
	if err != nil {
		return nil, err
	}

	m.logger.Info("starting analysis",
		slog.String("destination", req.Destination),
		slog.Int("sources", len(req.Sources)),
		slog.Bool("include_hidden", req.IncludeHidden),
	)

	plan := &Plan{Actions: []PlannedAction{}}

	for _, src := range req.Sources {
		n, err := m.countFiles(src, req.IncludeHidden)
		if err != nil {
			return nil, err
		}

		plan.Summary.TotalFiles += n
	}

	overlay := newOverlayView()

	created, err := overlay.ensureDir(req.Destination)
	if err != nil {
		return nil, err
	}

	plan.Summary.DirectoriesToCreate += created

	processed := 0
	report := func() {
		processed++
		if req.OnProgress != nil {
			req.OnProgress(processed, plan.Summary.TotalFiles)
		}
	}

	for _, src := range req.Sources {
		leaving := 0

		hooks := walkHooks{
			file: func(path, destDir string) {
				defer report()

				if m.planFile(plan, overlay, path, destDir) {
					leaving++
				}
			},
			hidden: func(path string) {
				plan.Summary.FilesToSkip++
				m.logger.Debug("skipping hidden entry", slog.String("path", path))
			},
			fail: func(path string, err error) {
				plan.Summary.Errors++
				m.logger.Warn("cannot analyze directory",
					slog.String("path", path),
					slog.String("error", err.Error()))
			},
		}

		if err := m.walkTree(src, req.Destination, req.IncludeHidden, true, hooks); err != nil {
			return nil, err
		}

		all, err := m.countFiles(src, true)
		if err != nil {
			return nil, err
		}

		if all == leaving {
			plan.Summary.EmptySourceFolders++
		}
	}

	m.logger.Info("analysis complete",
		slog.Int("move", plan.Summary.FilesToMove),
		slog.Int("skip", plan.Summary.FilesToSkip),
		slog.Int("rename", plan.Summary.FilesToRename),
		slog.Int("directories", plan.Summary.DirectoriesToCreate),
		slog.Int("errors", plan.Summary.Errors),
	)

	return plan, nil
}

// planFile reconciles one file against the overlay and records the action.
// It reports whether the file would leave its source.
func (m *Manager) planFile(plan *Plan, overlay *overlayView, path, destDir string) bool {
	action, err := reconcile(overlay, path, destDir)
	if err != nil {
		plan.Summary.Errors++
		m.logger.Warn("cannot analyze file",
			slog.String("path", path),
			slog.String("error", err.Error()))

		return false
	}

	// Point at real content when the collision is with a planned file.
	if origin, ok := overlay.planned[action.CollidesWith]; ok {
		action.CollidesWith = origin
	}

	leaves := false

	switch action.Kind {
	case ActionMove, ActionRename:
		n, err := overlay.ensureDir(destDir)
		if err != nil {
			plan.Summary.Errors++
			m.logger.Warn("cannot analyze directory",
				slog.String("path", destDir),
				slog.String("error", err.Error()))

			return false
		}

		plan.Summary.DirectoriesToCreate += n
		overlay.place(path, action.DestPath)
		leaves = true

		if action.Kind == ActionMove {
			plan.Summary.FilesToMove++
		} else {
			plan.Summary.FilesToRename++
		}
	case ActionSkip:
		plan.Summary.FilesToSkip++
	}

	plan.Actions = append(plan.Actions, action)

	m.logger.Debug("planned",
		slog.String("action", action.Kind.String()),
		slog.String("source", action.SourcePath),
		slog.String("destination", action.DestPath),
	)

	return leaves
}
