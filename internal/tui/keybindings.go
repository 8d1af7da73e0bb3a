package tui

import "github.com/charmbracelet/bubbles/key"

// SharedKeyMap defines keybindings available on all screens.
type SharedKeyMap struct {
	ForceQuit key.Binding
	Quit      key.Binding
	Back      key.Binding
}

// SharedKeys are available on all screens.
var SharedKeys = SharedKeyMap{
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "force quit"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
}

// ListKeyMap defines cursor movement shared by the list screens.
type ListKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
}

// ListKeys are the movement keybindings for list screens.
var ListKeys = ListKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Top: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
}

// PlanKeyMap defines keybindings for the plan screen.
type PlanKeyMap struct {
	Diff  key.Binding
	Merge key.Binding
}

// PlanKeys are the keybindings for the plan screen.
var PlanKeys = PlanKeyMap{
	Diff: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "diff"),
	),
	Merge: key.NewBinding(
		key.WithKeys("m", "enter"),
		key.WithHelp("m", "merge"),
	),
}

// ProgressKeyMap defines keybindings while a merge is running.
type ProgressKeyMap struct {
	Cancel key.Binding
}

// ProgressKeys are the keybindings for the progress screen.
var ProgressKeys = ProgressKeyMap{
	Cancel: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	),
}

// ResultsKeyMap defines keybindings for the results screen.
type ResultsKeyMap struct {
	Cache key.Binding
	Done  key.Binding
}

// ResultsKeys are the keybindings for the results screen.
var ResultsKeys = ResultsKeyMap{
	Cache: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "cached folders"),
	),
	Done: key.NewBinding(
		key.WithKeys("q", "enter"),
		key.WithHelp("q/enter", "quit"),
	),
}

// CacheKeyMap defines keybindings for the cached folders screen.
type CacheKeyMap struct {
	Restore    key.Binding
	Delete     key.Binding
	CacheEmpty key.Binding
}

// CacheKeys are the keybindings for the cached folders screen.
var CacheKeys = CacheKeyMap{
	Restore: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "restore"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d", "delete"),
		key.WithHelp("d", "delete"),
	),
	CacheEmpty: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "cache empty sources"),
	),
}

// helpFor renders the help line for the given bindings.
func helpFor(bindings ...key.Binding) string {
	pairs := make([]string, 0, len(bindings)*2)

	for _, b := range bindings {
		h := b.Help()
		pairs = append(pairs, h.Key, h.Desc)
	}

	return RenderHelp(pairs...)
}
