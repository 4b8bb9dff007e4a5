// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady     State = "ready"
	StateThinking  State = "thinking"
	StateUploading State = "uploading"
	StateDialog    State = "dialog"
	StateError     State = "error"
)

// Bar displays application status and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	focus   messages.FocusArea
	message string
	devMode bool
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		focus:  messages.FocusChat,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var left string
	switch s.state {
	case StateThinking:
		left = s.styles.Muted.Render("Thinking...")
	case StateUploading:
		left = s.styles.Warning.Render("Uploading...")
	case StateError:
		if s.message != "" {
			left = s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		} else {
			left = s.styles.Error.Render("Error")
		}
	case StateReady, StateDialog:
		if s.message != "" {
			left = s.styles.Normal.Render(s.message)
		} else {
			left = s.styles.Muted.Render("Ready")
		}
	default:
		left = s.styles.Muted.Render("Ready")
	}
	if s.devMode {
		left += " " + s.styles.Badge.Render("DEV")
	}
	return left
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	switch {
	case s.state == StateDialog:
		bindings = s.keymap.DialogHelp()
	case s.focus == messages.FocusDocuments:
		bindings = s.keymap.DocumentsHelp()
	default:
		bindings = s.keymap.ChatHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetFocus selects which pane's hints are shown.
func (s *Bar) SetFocus(focus messages.FocusArea) {
	s.focus = focus
}

// Focus returns the pane whose hints are shown.
func (s *Bar) Focus() messages.FocusArea {
	return s.focus
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetDevMode toggles the developer mode badge.
func (s *Bar) SetDevMode(enabled bool) {
	s.devMode = enabled
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
