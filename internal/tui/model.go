package tui

import (
	"context"

	"github.com/AntoineGS/dirfusion/internal/cache"
	"github.com/AntoineGS/dirfusion/internal/manager"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Screen represents the current screen being displayed in the TUI.
type Screen int

// TUI screen types.
const (
	// ScreenAnalyzing is shown while the analysis runs
	ScreenAnalyzing Screen = iota
	// ScreenPlan lists the planned actions
	ScreenPlan
	// ScreenDiff shows the collision diff of one planned action
	ScreenDiff
	// ScreenMerging is the merge progress screen
	ScreenMerging
	// ScreenResults is the results display screen
	ScreenResults
	// ScreenCache lists the cached folders
	ScreenCache
)

func (s Screen) String() string {
	switch s {
	case ScreenAnalyzing:
		return "Analyzing"
	case ScreenPlan:
		return "Plan"
	case ScreenDiff:
		return "Diff"
	case ScreenMerging:
		return "Merging"
	case ScreenResults:
		return "Results"
	case ScreenCache:
		return "Cache"
	}

	return "Unknown"
}

// Model holds the state of the TUI: the request being planned, the plan and
// merge result once they arrive, and the cursor state of each screen.
//
//nolint:govet // field order optimized for readability over memory layout
type Model struct {
	err      error
	Manager  *manager.Manager
	ctx      context.Context
	cancel   context.CancelFunc
	events   <-chan manager.Event
	plan     *manager.Plan
	result   *manager.Result
	Request  manager.Request
	cached   []cache.CachedFolder
	diffText string
	message  string
	progress progress.Model
	spinner  spinner.Model
	stats    manager.RunStatistics
	Screen   Screen

	cursor       int
	scrollOffset int
	diffOffset   int
	cacheCursor  int
	viewHeight   int
	width        int
	height       int
	processed    int
	total        int

	running   bool
	cancelled bool
}

// NewModel creates a model that plans req with mgr as soon as it starts.
func NewModel(mgr *manager.Manager, req manager.Request) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return Model{
		Manager: mgr,
		Request: req,
		Screen:  ScreenAnalyzing,
		ctx:     context.Background(),
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(progressWidth),
		),
		spinner:    s,
		viewHeight: 15,
		width:      80,
		height:     24,
	}
}

// Plan returns the analysis result, or nil before it arrives.
func (m Model) Plan() *manager.Plan {
	return m.plan
}

// Result returns the merge result, or nil when no merge ran.
func (m Model) Result() *manager.Result {
	return m.result
}

// Err returns the error of the last failed pass.
func (m Model) Err() error {
	return m.err
}

// Init starts the analysis.
// This is part of the Bubble Tea model interface.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startAnalysis())
}

// Update processes messages and updates the model state accordingly.
// This is part of the Bubble Tea model interface.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewHeight = max(msg.Height-viewOverhead, minVisibleRows)

		if w := msg.Width - 8; w < progressWidth {
			m.progress.Width = max(w, 10)
		}

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case streamMsg:
		return m.handleStream(msg)

	case eventMsg:
		return m.handleEvent(manager.Event(msg))

	case streamClosedMsg:
		m.running = false
		m.events = nil

		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A running pass is cancelled first; its terminal event moves the screen on.
	if m.running {
		if msg.String() == KeyCtrlC || (m.Screen == ScreenMerging && msg.String() == KeyEsc) {
			m.cancelRun()
			return m, nil
		}

		return m, nil
	}

	if msg.String() == KeyCtrlC {
		return m, tea.Quit
	}

	switch m.Screen {
	case ScreenPlan:
		return m.updatePlan(msg)
	case ScreenDiff:
		return m.updateDiff(msg)
	case ScreenResults:
		return m.updateResults(msg)
	case ScreenCache:
		return m.updateCache(msg)
	case ScreenAnalyzing, ScreenMerging:
		if msg.String() == "q" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the current screen and returns the string to display.
// This is part of the Bubble Tea model interface.
func (m Model) View() string {
	switch m.Screen {
	case ScreenAnalyzing:
		return m.viewAnalyzing()
	case ScreenPlan:
		return m.viewPlan()
	case ScreenDiff:
		return m.viewDiff()
	case ScreenMerging:
		return m.viewMerging()
	case ScreenResults:
		return m.viewResults()
	case ScreenCache:
		return m.viewCache()
	}

	return ""
}

func (m *Model) cancelRun() {
	if m.cancel != nil {
		m.cancel()
	}
}

// ensureVisible scrolls offset so that cursor stays inside a window of height
// rows.
func ensureVisible(cursor, offset, height int) int {
	if cursor < offset {
		return cursor
	}

	if cursor >= offset+height {
		return cursor - height + 1
	}

	return offset
}

// moveCursor applies the shared list movement keys to cursor.
func moveCursor(msg tea.KeyMsg, cursor, count int) int {
	switch {
	case key.Matches(msg, ListKeys.Up):
		if cursor > 0 {
			cursor--
		}
	case key.Matches(msg, ListKeys.Down):
		if cursor < count-1 {
			cursor++
		}
	case key.Matches(msg, ListKeys.Top):
		cursor = 0
	case key.Matches(msg, ListKeys.Bottom):
		cursor = max(count-1, 0)
	}

	return cursor
}
