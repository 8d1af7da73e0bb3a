package tui

import (
	"fmt"
	"os"

	"github.com/AntoineGS/dirfusion/internal/manager"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive planner for req. The analysis starts
// immediately; the user reviews the plan, optionally merges and manages the
// cached folders. The final run summary is printed once the TUI exits.
func Run(mgr *manager.Manager, req manager.Request) error {
	model := NewModel(mgr, req)

	p := tea.NewProgram(model, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	m, ok := finalModel.(Model)
	if !ok {
		return fmt.Errorf("unexpected model type")
	}

	// Quitting mid-run leaves the pass cancelled; wait for it to wind down.
	if m.events != nil {
		m.cancelRun()

		for range m.events {
		}
	}

	if summary := FinalSummary(m); summary != "" {
		fmt.Println(summary)
	}

	return m.err
}

// FinalSummary is the plain-text summary printed after the TUI exits. It is
// empty when no merge ran.
func FinalSummary(m Model) string {
	if m.result == nil {
		return ""
	}

	return plainText(renderRunSummary(m.result, m.err, m.cancelled, m.message))
}

// IsTerminal checks if stdout is a terminal
func IsTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}

	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
