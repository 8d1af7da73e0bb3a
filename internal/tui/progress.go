package tui

import (
	"fmt"
	"strings"

	"github.com/AntoineGS/dirfusion/internal/manager"
)

func (m Model) viewMerging() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Merging"))
	b.WriteString("\n\n")

	b.WriteString(m.progress.ViewAs(m.percent()))
	b.WriteString("\n\n")

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(renderStats(m.stats))
	b.WriteString("\n")

	b.WriteString(helpFor(ProgressKeys.Cancel))

	return BaseStyle.Render(b.String())
}

// percent is the share of planned files the merge has processed so far.
// Hidden entries count as processed without being planned, so it is capped.
func (m Model) percent() float64 {
	if m.total == 0 {
		return 0
	}

	return min(float64(m.stats.Processed())/float64(m.total), 1)
}

// renderStats renders the five run counters on one line.
func renderStats(s manager.RunStatistics) string {
	line := fmt.Sprintf("%d moved, %d skipped, %d renamed, %d directories created",
		s.FilesMoved, s.FilesSkipped, s.FilesRenamed, s.DirectoriesCreated)

	if s.Errors > 0 {
		return line + ", " + ErrorStyle.Render(fmt.Sprintf("%d errors", s.Errors))
	}

	return line + ", 0 errors"
}
