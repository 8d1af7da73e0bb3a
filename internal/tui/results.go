package tui

import (
	"fmt"
	"strings"

	"github.com/AntoineGS/dirfusion/internal/manager"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, ResultsKeys.Done):
		return m, tea.Quit
	case key.Matches(msg, ResultsKeys.Cache):
		m.refreshCached()
		m.cacheCursor = 0
		m.message = ""
		m.Screen = ScreenCache
	}

	return m, nil
}

func (m Model) viewResults() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Results"))
	b.WriteString("\n")

	body := renderRunSummary(m.result, m.err, m.cancelled, m.message)

	style := ResultBoxStyle
	if m.err != nil {
		style = BoxStyle.BorderForeground(errorColor)
	}

	b.WriteString(style.Render(body))
	b.WriteString("\n")

	b.WriteString(helpFor(ResultsKeys.Cache, ResultsKeys.Done))

	return BaseStyle.Render(b.String())
}

// renderRunSummary describes how a pass ended: the error, the cancellation
// or the merge counters with the backup and cached folders it produced.
func renderRunSummary(res *manager.Result, err error, cancelled bool, message string) string {
	var b strings.Builder

	switch {
	case err != nil:
		b.WriteString(ErrorStyle.Render("Failed: " + err.Error()))
	case cancelled:
		b.WriteString(WarningStyle.Render(message))
	case res != nil:
		b.WriteString(SuccessStyle.Render("Merge complete"))
	default:
		b.WriteString(message)
	}

	if res == nil {
		return b.String()
	}

	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Files moved:         %d\n", res.Stats.FilesMoved))
	b.WriteString(fmt.Sprintf("Files skipped:       %d\n", res.Stats.FilesSkipped))
	b.WriteString(fmt.Sprintf("Files renamed:       %d\n", res.Stats.FilesRenamed))
	b.WriteString(fmt.Sprintf("Directories created: %d\n", res.Stats.DirectoriesCreated))
	b.WriteString(fmt.Sprintf("Errors:              %d", res.Stats.Errors))

	if res.BackupID != "" {
		b.WriteString("\n\n")
		b.WriteString("Backup: " + PathNameStyle.Render(res.BackupID))
	}

	if len(res.Cached) > 0 {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%d empty source folders cached", len(res.Cached)))
	}

	return b.String()
}
