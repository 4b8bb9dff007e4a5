// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// SwitchFocus moves focus between the sidebar and the chat.
	SwitchFocus key.Binding

	// Upload opens the upload prompt.
	Upload key.Binding

	// Clear empties the transcript.
	Clear key.Binding

	// DevMode toggles developer mode.
	DevMode key.Binding

	// Info toggles the index info panel.
	Info key.Binding

	// Send submits the chat input.
	Send key.Binding

	// Newline inserts a line break in the chat input.
	Newline key.Binding

	// PrevTurn and NextTurn move the answer cursor.
	PrevTurn key.Binding
	NextTurn key.Binding

	// ToggleSources expands or collapses the selected answer's sources.
	ToggleSources key.Binding

	// TogglePrompt expands or collapses the selected answer's prompt.
	TogglePrompt key.Binding

	// ScrollUp and ScrollDown page the transcript.
	ScrollUp   key.Binding
	ScrollDown key.Binding

	// Up and Down navigate the document list.
	Up   key.Binding
	Down key.Binding

	// Delete removes the selected document.
	Delete key.Binding

	// Refresh reloads the document list.
	Refresh key.Binding

	// Confirm and Cancel answer dialogs and prompts.
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		SwitchFocus: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Upload: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "upload"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear chat"),
		),
		DevMode: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "dev mode"),
		),
		Info: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "index info"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+n"),
			key.WithHelp("alt+enter", "newline"),
		),
		PrevTurn: key.NewBinding(
			key.WithKeys("ctrl+up", "ctrl+k"),
			key.WithHelp("ctrl+k", "prev answer"),
		),
		NextTurn: key.NewBinding(
			key.WithKeys("ctrl+down", "ctrl+j"),
			key.WithHelp("ctrl+j", "next answer"),
		),
		ToggleSources: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "sources"),
		),
		TogglePrompt: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "prompt"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ChatHelp returns hints shown while the chat has focus.
func (k *KeyMap) ChatHelp() []key.Binding {
	return []key.Binding{k.Send, k.ToggleSources, k.TogglePrompt, k.Clear, k.SwitchFocus}
}

// DocumentsHelp returns hints shown while the sidebar has focus.
func (k *KeyMap) DocumentsHelp() []key.Binding {
	return []key.Binding{k.Upload, k.Delete, k.Refresh, k.DevMode, k.Info, k.SwitchFocus}
}

// DialogHelp returns hints shown while a dialog is open.
func (k *KeyMap) DialogHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns the full list of keybindings.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Newline, k.PrevTurn, k.NextTurn, k.ToggleSources, k.TogglePrompt},
		{k.Up, k.Down, k.Delete, k.Refresh, k.Upload},
		{k.SwitchFocus, k.Clear, k.DevMode, k.Info, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
