package manager

import (
	"context"

	"github.com/AntoineGS/dirfusion/internal/state"
)

// Analyzer defines the interface for the read-only analysis pass
type Analyzer interface {
	Analyze(req Request) (*Plan, error)
	AnalyzeWithContext(ctx context.Context, req Request) (*Plan, error)
}

// Merger defines the interface for the execution pass
type Merger interface {
	Merge(req Request) (*Result, error)
	MergeWithContext(ctx context.Context, req Request) (*Result, error)
}

// Runner starts passes in the background and streams their events
type Runner interface {
	StartAnalysis(ctx context.Context, req Request) (<-chan Event, error)
	StartMerge(ctx context.Context, req Request) (<-chan Event, error)
}

// HistoryStore records finished merge runs
type HistoryStore interface {
	SaveRun(rec *state.RunRecord) error
}

var (
	_ Analyzer     = (*Manager)(nil)
	_ Merger       = (*Manager)(nil)
	_ Runner       = (*Manager)(nil)
	_ HistoryStore = (*state.Store)(nil)
)
