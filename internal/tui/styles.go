package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	textColor      = lipgloss.Color("#F3F4F6") // Light gray

	// Base styles
	BaseStyle = lipgloss.NewStyle().
			Padding(1, 2)

	// Title styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true).
			MarginBottom(1)

	// Inline muted text (no margins, for use within lines)
	MutedTextStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// List styles
	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	PathNameStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Bold(true)

	// Action badges carry no padding so rows keep a fixed layout.
	MoveBadgeStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	SkipBadgeStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Bold(true)

	RenameBadgeStyle = lipgloss.NewStyle().
				Foreground(accentColor).
				Bold(true)

	// Diff line styles
	DiffAddStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	DiffRemoveStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// Status styles
	SuccessStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	// Box styles
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2).
			MarginTop(1)

	ResultBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(1, 2).
			MarginTop(1)

	// Help styles
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	// Spinner
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(primaryColor)
)

// RenderHelp renders alternating key and description pairs as a help line.
func RenderHelp(keys ...string) string {
	var result string
	for i := 0; i < len(keys); i += 2 {
		if i > 0 {
			result += "  "
		}
		key := keys[i]
		desc := ""
		if i+1 < len(keys) {
			desc = keys[i+1]
		}
		result += HelpKeyStyle.Render(key) + " " + desc
	}
	return HelpStyle.Render(result)
}

func mutedText(s string) string {
	return MutedTextStyle.Render(s)
}

// RenderCursor returns the row prefix for a list item.
func RenderCursor(selected bool) string {
	if selected {
		return SelectedRowStyle.Render(CursorSelected)
	}

	return CursorUnselected
}
