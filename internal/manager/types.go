package manager

import (
	"time"

	"github.com/AntoineGS/dirfusion/internal/cache"
)

// ActionKind is the reconciliation decision for one source file.
type ActionKind int

// Action kinds
const (
	ActionMove ActionKind = iota
	ActionSkip
	ActionRename
)

func (k ActionKind) String() string {
	switch k {
	case ActionMove:
		return "move"
	case ActionSkip:
		return "skip"
	case ActionRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Reasons attached to planned actions
const (
	ReasonIdentical     = "identical file"
	ReasonIdenticalName = "identical file with different name"
	ReasonCollision     = "name collision"
)

// PlannedAction is one decision of the analysis pass. DestPath is the final,
// post-resolution path. CollidesWith is the existing path the source was
// compared against, empty for a plain move.
type PlannedAction struct {
	SourcePath   string
	DestPath     string
	Reason       string
	CollidesWith string
	Kind         ActionKind
}

// RunStatistics counts what a merge did.
type RunStatistics struct {
	FilesMoved         int
	FilesSkipped       int
	FilesRenamed       int
	DirectoriesCreated int
	Errors             int
}

// Processed returns the number of items the merge has dealt with.
func (s RunStatistics) Processed() int {
	return s.FilesMoved + s.FilesSkipped + s.FilesRenamed + s.Errors
}

// PlanSummary aggregates a plan. Errors counts files that could not be
// analysed and is not part of Map.
type PlanSummary struct {
	FilesToMove         int
	FilesToSkip         int
	FilesToRename       int
	DirectoriesToCreate int
	TotalFiles          int
	EmptySourceFolders  int
	Errors              int
}

// Map returns the summary keyed the way reports and callers expect.
func (s PlanSummary) Map() map[string]int {
	return map[string]int{
		"files_to_move":         s.FilesToMove,
		"files_to_skip":         s.FilesToSkip,
		"files_to_rename":       s.FilesToRename,
		"directories_to_create": s.DirectoriesToCreate,
		"total_files":           s.TotalFiles,
		"empty_source_folders":  s.EmptySourceFolders,
	}
}

// Plan is the complete output of an analysis pass.
type Plan struct {
	Actions []PlannedAction
	Summary PlanSummary
}

// Outcome is how a merge run ended.
type Outcome string

// Merge outcomes
const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Result is the outcome of a merge run.
type Result struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome
	BackupID   string
	RunID      string
	Cached     []cache.CachedFolder
	Stats      RunStatistics
}

// ProgressFunc receives analysis progress after each file.
type ProgressFunc func(processed, total int)

// StatsFunc receives a statistics snapshot after each merged file.
type StatsFunc func(stats RunStatistics)

// Request describes which sources merge into which destination.
type Request struct {
	OnProgress    ProgressFunc
	OnStats       StatsFunc
	Destination   string
	Sources       []string
	IncludeHidden bool
}
