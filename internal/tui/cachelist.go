package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AntoineGS/dirfusion/internal/cache"
	"github.com/AntoineGS/dirfusion/internal/manager"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const cacheTimeLayout = "2006-01-02 15:04:05"

// refreshCached reloads the cached folder list from the manager's cache.
func (m *Model) refreshCached() {
	m.cached = nil

	if c := m.Manager.Cache(); c != nil {
		m.cached = c.List()
	}

	if m.cacheCursor >= len(m.cached) {
		m.cacheCursor = max(len(m.cached)-1, 0)
	}
}

func (m Model) updateCache(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.Manager.Cache()

	switch {
	case key.Matches(msg, SharedKeys.Quit):
		return m, tea.Quit

	case key.Matches(msg, SharedKeys.Back):
		m.message = ""
		m.Screen = ScreenResults

		return m, nil

	case key.Matches(msg, CacheKeys.CacheEmpty):
		cached, err := m.Manager.CacheEmptySources(m.Request.Sources)
		m.message = fmt.Sprintf("Cached %d folders", len(cached))

		if err != nil {
			m.message = err.Error()
		}

		m.refreshCached()

		return m, nil

	case key.Matches(msg, CacheKeys.Restore), key.Matches(msg, CacheKeys.Delete):
		if c == nil || len(m.cached) == 0 {
			return m, nil
		}

		// The list is a snapshot; the folder may have left the cache since.
		entry, ok := c.Get(m.cached[m.cacheCursor].CachedPath)
		if !ok {
			m.message = fmt.Sprintf("%s is no longer cached", m.cached[m.cacheCursor].OriginalPath)
			m.refreshCached()

			return m, nil
		}

		if key.Matches(msg, CacheKeys.Restore) {
			m.message = describeCacheResult("Restored", entry, c.Restore(entry.CachedPath))
		} else {
			m.message = describeCacheResult("Deleted", entry, c.Delete(entry.CachedPath))
		}

		m.refreshCached()

		return m, nil
	}

	m.cacheCursor = moveCursor(msg, m.cacheCursor, len(m.cached))

	return m, nil
}

func describeCacheResult(verb string, entry cache.CachedFolder, err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf("%s %s", verb, entry.OriginalPath)
	case errors.Is(err, cache.ErrOriginalOccupied):
		return fmt.Sprintf("Cannot restore %s: the folder exists again and holds files", entry.OriginalPath)
	default:
		return err.Error()
	}
}

func (m Model) viewCache() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Cached folders"))
	b.WriteString("\n")

	switch {
	case m.Manager.Cache() == nil:
		b.WriteString(mutedText(manager.ErrNoCache.Error()))
		b.WriteString("\n")
	case len(m.cached) == 0:
		b.WriteString(mutedText("No folders cached."))
		b.WriteString("\n")
	default:
		b.WriteString(renderCacheRows(m.cached, m.cacheCursor))
	}

	if m.message != "" {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render(m.message))
		b.WriteString("\n")
	}

	b.WriteString(helpFor(ListKeys.Up, ListKeys.Down, CacheKeys.Restore, CacheKeys.Delete,
		CacheKeys.CacheEmpty, SharedKeys.Back, SharedKeys.Quit))

	return BaseStyle.Render(b.String())
}

// renderCacheRows renders one row per cached folder: its name, when it was
// cached and where it came from.
func renderCacheRows(folders []cache.CachedFolder, cursor int) string {
	var b strings.Builder

	for i, f := range folders {
		selected := i == cursor

		name := f.DisplayName
		if selected {
			name = SelectedRowStyle.Render(name)
		}

		b.WriteString(RenderCursor(selected))
		b.WriteString(name)
		b.WriteString("  ")
		b.WriteString(mutedText(f.Timestamp.Format(cacheTimeLayout)))
		b.WriteString("  ")
		b.WriteString(f.OriginalPath)
		b.WriteString("\n")
	}

	return b.String()
}
