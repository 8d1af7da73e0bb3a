package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AntoineGS/dirfusion/internal/manager"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) viewAnalyzing() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Analyzing"))
	b.WriteString("\n\n")

	b.WriteString(m.spinner.View())
	b.WriteString(" ")

	if m.total > 0 {
		b.WriteString(fmt.Sprintf("%d / %d files", m.processed, m.total))
	} else {
		b.WriteString(m.message)
	}

	b.WriteString("\n")
	b.WriteString(RenderHelp("ctrl+c", "cancel"))

	return BaseStyle.Render(b.String())
}

func (m Model) updatePlan(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.plan == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, SharedKeys.Quit):
		return m, tea.Quit

	case key.Matches(msg, PlanKeys.Diff):
		if len(m.plan.Actions) == 0 {
			return m, nil
		}

		m.diffText = m.collisionDiff(m.plan.Actions[m.cursor])
		m.diffOffset = 0
		m.Screen = ScreenDiff

		return m, nil

	case key.Matches(msg, PlanKeys.Merge):
		if m.plan.Summary.FilesToMove+m.plan.Summary.FilesToRename == 0 {
			m.message = "Nothing to merge"
			return m, nil
		}

		m.message = ""

		return m, m.startMerge()
	}

	m.cursor = moveCursor(msg, m.cursor, len(m.plan.Actions))
	m.scrollOffset = ensureVisible(m.cursor, m.scrollOffset, m.viewHeight)

	return m, nil
}

// collisionDiff renders the diff for action, or a short explanation when
// there is nothing to show.
func (m Model) collisionDiff(action manager.PlannedAction) string {
	text, err := manager.CollisionDiff(action)
	if err != nil {
		return fmt.Sprintf("Cannot show diff: %v\n", err)
	}

	return text
}

func (m Model) viewPlan() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Merge plan"))
	b.WriteString("\n")

	b.WriteString(SubtitleStyle.Render("into " + m.Request.Destination))
	b.WriteString("\n")

	if m.plan == nil {
		return BaseStyle.Render(b.String())
	}

	b.WriteString(renderPlanSummary(m.plan.Summary))
	b.WriteString("\n\n")

	if len(m.plan.Actions) == 0 {
		b.WriteString(mutedText("No files to merge."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderActionRows())
	}

	if m.message != "" {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render(m.message))
		b.WriteString("\n")
	}

	b.WriteString(helpFor(ListKeys.Up, ListKeys.Down, PlanKeys.Diff, PlanKeys.Merge, SharedKeys.Quit))

	return BaseStyle.Render(b.String())
}

// renderPlanSummary renders the plan counters on two lines.
func renderPlanSummary(s manager.PlanSummary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%d files: %s %d  %s %d  %s %d",
		s.TotalFiles,
		MoveBadgeStyle.Render("move"), s.FilesToMove,
		SkipBadgeStyle.Render("skip"), s.FilesToSkip,
		RenameBadgeStyle.Render("rename"), s.FilesToRename,
	))
	b.WriteString("\n")
	b.WriteString(mutedText(fmt.Sprintf("%d directories to create, %d source folders left empty",
		s.DirectoriesToCreate, s.EmptySourceFolders)))

	if s.Errors > 0 {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("%d entries could not be read", s.Errors)))
	}

	return b.String()
}

// renderActionRows renders the visible window of planned actions.
func (m Model) renderActionRows() string {
	var b strings.Builder

	actions := m.plan.Actions
	end := min(m.scrollOffset+m.viewHeight, len(actions))

	if m.scrollOffset > 0 {
		b.WriteString(mutedText(fmt.Sprintf("  ... %d more above", m.scrollOffset)))
		b.WriteString("\n")
	}

	for i := m.scrollOffset; i < end; i++ {
		b.WriteString(renderActionRow(actions[i], m.Request.Destination, i == m.cursor))
		b.WriteString("\n")
	}

	if end < len(actions) {
		b.WriteString(mutedText(fmt.Sprintf("  ... %d more below", len(actions)-end)))
		b.WriteString("\n")
	}

	return b.String()
}

func renderActionRow(a manager.PlannedAction, destRoot string, selected bool) string {
	var badge string

	switch a.Kind {
	case manager.ActionMove:
		badge = MoveBadgeStyle.Render(BadgeMove)
	case manager.ActionSkip:
		badge = SkipBadgeStyle.Render(BadgeSkip)
	case manager.ActionRename:
		badge = RenameBadgeStyle.Render(BadgeRename)
	}

	dest := a.DestPath
	if rel, err := filepath.Rel(destRoot, a.DestPath); err == nil && !strings.HasPrefix(rel, "..") {
		dest = filepath.ToSlash(rel)
	}

	line := fmt.Sprintf("%s %s -> %s", badge, a.SourcePath, dest)
	if selected {
		line = fmt.Sprintf("%s %s -> %s", badge, SelectedRowStyle.Render(a.SourcePath), PathNameStyle.Render(dest))
	}

	if a.Reason != "" {
		line += " " + mutedText("("+a.Reason+")")
	}

	return RenderCursor(selected) + line
}

func (m Model) updateDiff(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lines := strings.Count(m.diffText, "\n")

	switch {
	case key.Matches(msg, SharedKeys.Back), key.Matches(msg, SharedKeys.Quit), msg.String() == KeyEnter:
		m.Screen = ScreenPlan
		return m, nil
	}

	m.diffOffset = moveCursor(msg, m.diffOffset, max(lines-m.viewHeight+1, 1))

	return m, nil
}

func (m Model) viewDiff() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Collision diff"))
	b.WriteString("\n")

	lines := strings.Split(strings.TrimSuffix(m.diffText, "\n"), "\n")
	end := min(m.diffOffset+m.viewHeight, len(lines))

	for _, line := range lines[min(m.diffOffset, end):end] {
		switch {
		case strings.HasPrefix(line, "+"):
			b.WriteString(DiffAddStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(DiffRemoveStyle.Render(line))
		default:
			b.WriteString(line)
		}

		b.WriteString("\n")
	}

	b.WriteString(helpFor(ListKeys.Up, ListKeys.Down, SharedKeys.Back))

	return BaseStyle.Render(b.String())
}
