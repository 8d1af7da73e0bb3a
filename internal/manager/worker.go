package manager

import (
	"context"
	"fmt"
)

// EventKind identifies an event emitted by a background pass.
type EventKind int

// Event kinds. Every pass emits EventStarted first and exactly one of
// EventCompleted, EventFailed or EventCancelled last.
const (
	EventStarted EventKind = iota
	EventProgress
	EventCompleted
	EventFailed
	EventCancelled
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventProgress:
		return "progress"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Event is one message from a background pass. Analysis progress fills
// Processed and Total; merge progress fills Stats. Plan is set on a completed
// analysis and Result on every terminal merge event.
type Event struct {
	Err       error
	Plan      *Plan
	Result    *Result
	Message   string
	Kind      EventKind
	Processed int
	Total     int
	Stats     RunStatistics
}

const eventBuffer = 64

// StartAnalysis runs Analyze on a goroutine. The returned channel is closed
// after the terminal event; callers must drain it. Only one analysis may run
// at a time.
func (m *Manager) StartAnalysis(ctx context.Context, req Request) (<-chan Event, error) {
	if !m.guards.analysis.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("analysis: %w", ErrAlreadyRunning)
	}

	events := make(chan Event, eventBuffer)

	onProgress := req.OnProgress
	req.OnProgress = func(processed, total int) {
		if onProgress != nil {
			onProgress(processed, total)
		}

		emit(ctx, events, Event{Kind: EventProgress, Processed: processed, Total: total})
	}

	go func() {
		defer close(events)
		defer m.guards.analysis.Store(false)

		events <- Event{
			Kind:    EventStarted,
			Message: fmt.Sprintf("Analyzing %d source folders", len(req.Sources)),
		}

		plan, err := m.AnalyzeWithContext(ctx, req)

		switch {
		case err == nil:
			events <- Event{
				Kind:    EventCompleted,
				Plan:    plan,
				Message: fmt.Sprintf("Analysis complete: %d files", plan.Summary.TotalFiles),
			}
		case isCancellation(err):
			events <- Event{Kind: EventCancelled, Message: "Analysis cancelled"}
		default:
			events <- Event{Kind: EventFailed, Err: err, Message: err.Error()}
		}
	}()

	return events, nil
}

// StartMerge runs Merge on a goroutine. The returned channel is closed after
// the terminal event; callers must drain it. Only one merge may run at a time.
func (m *Manager) StartMerge(ctx context.Context, req Request) (<-chan Event, error) {
	if !m.guards.merge.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("merge: %w", ErrAlreadyRunning)
	}

	events := make(chan Event, eventBuffer)

	onStats := req.OnStats
	req.OnStats = func(stats RunStatistics) {
		if onStats != nil {
			onStats(stats)
		}

		emit(ctx, events, Event{Kind: EventProgress, Stats: stats})
	}

	go func() {
		defer close(events)
		defer m.guards.merge.Store(false)

		events <- Event{
			Kind:    EventStarted,
			Message: fmt.Sprintf("Merging %d source folders", len(req.Sources)),
		}

		res, err := m.MergeWithContext(ctx, req)

		switch {
		case err != nil:
			events <- Event{Kind: EventFailed, Err: err, Result: res, Message: err.Error()}
		case res.Outcome == OutcomeCancelled:
			events <- Event{Kind: EventCancelled, Result: res, Stats: res.Stats, Message: "Merge cancelled"}
		default:
			events <- Event{Kind: EventCompleted, Result: res, Stats: res.Stats, Message: "Merge complete"}
		}
	}()

	return events, nil
}

// emit delivers a progress event unless the pass has been cancelled.
func emit(ctx context.Context, events chan<- Event, e Event) {
	select {
	case events <- e:
	case <-ctx.Done():
	}
}
