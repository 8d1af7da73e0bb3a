package tui

// Key binding constants for TUI navigation and interaction
const (
	KeyEnter = "enter"
	KeyEsc   = "esc"
	KeyCtrlC = "ctrl+c"
	KeyDown  = "down"
	KeyUp    = "up"
)

// Layout constants
const (
	// viewOverhead is the number of lines used by the title, summary and help
	// around a scrolling list.
	viewOverhead = 12
	// minVisibleRows is the minimum number of list rows to show
	minVisibleRows = 5
	// progressWidth is the width of the merge progress bar
	progressWidth = 60
)

// Action badge labels, padded to a common width
const (
	BadgeMove   = "MOVE  "
	BadgeSkip   = "SKIP  "
	BadgeRename = "RENAME"
)

// Cursor markers for list rows
const (
	CursorSelected   = "> "
	CursorUnselected = "  "
)
