package tui

import (
	"context"

	"github.com/AntoineGS/dirfusion/internal/manager"
	tea "github.com/charmbracelet/bubbletea"
)

// streamMsg carries the event channel of a pass that has just been started.
type streamMsg struct {
	err    error
	events <-chan manager.Event
	cancel context.CancelFunc
	merge  bool
}

// eventMsg is one event read from the running pass.
type eventMsg manager.Event

// streamClosedMsg is sent once the running pass has closed its channel.
type streamClosedMsg struct{}

func (m Model) startAnalysis() tea.Cmd {
	mgr, req, parent := m.Manager, m.Request, m.ctx

	return func() tea.Msg {
		ctx, cancel := context.WithCancel(parent)

		events, err := mgr.StartAnalysis(ctx, req)
		if err != nil {
			cancel()
		}

		return streamMsg{events: events, cancel: cancel, err: err}
	}
}

func (m Model) startMerge() tea.Cmd {
	mgr, req, parent := m.Manager, m.Request, m.ctx

	return func() tea.Msg {
		ctx, cancel := context.WithCancel(parent)

		events, err := mgr.StartMerge(ctx, req)
		if err != nil {
			cancel()
		}

		return streamMsg{events: events, cancel: cancel, err: err, merge: true}
	}
}

// waitForEvent reads the next event from the running pass.
func waitForEvent(events <-chan manager.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}

		return eventMsg(e)
	}
}

func (m Model) handleStream(msg streamMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		m.Screen = ScreenResults

		return m, nil
	}

	m.events = msg.events
	m.cancel = msg.cancel
	m.running = true
	m.cancelled = false

	if msg.merge {
		m.Screen = ScreenMerging
		m.stats = manager.RunStatistics{}
	}

	return m, waitForEvent(m.events)
}

func (m Model) handleEvent(e manager.Event) (tea.Model, tea.Cmd) {
	next := waitForEvent(m.events)

	switch e.Kind {
	case manager.EventStarted:
		m.message = e.Message

	case manager.EventProgress:
		if m.Screen == ScreenMerging {
			m.stats = e.Stats
		} else {
			m.processed = e.Processed
			m.total = e.Total
		}

	case manager.EventCompleted:
		m.finishRun()
		m.message = e.Message

		if e.Plan != nil {
			m.plan = e.Plan
			m.total = e.Plan.Summary.TotalFiles
			m.cursor = 0
			m.scrollOffset = 0
			m.Screen = ScreenPlan
		}

		if e.Result != nil {
			m.result = e.Result
			m.stats = e.Result.Stats
			m.Screen = ScreenResults
		}

	case manager.EventFailed:
		m.finishRun()
		m.err = e.Err
		m.message = e.Message
		m.result = e.Result
		m.Screen = ScreenResults

	case manager.EventCancelled:
		m.finishRun()
		m.cancelled = true
		m.message = e.Message
		m.result = e.Result
		m.Screen = ScreenResults
	}

	return m, next
}

// finishRun releases the context of the pass that just ended.
func (m *Model) finishRun() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}
