// Package dialog provides a modal overlay for confirmations, alerts and
// the upload path prompt.
package dialog

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
)

// Kind selects the dialog's behaviour.
type Kind int

const (
	// KindConfirm asks a yes/no question.
	KindConfirm Kind = iota
	// KindAlert shows a message until dismissed.
	KindAlert
	// KindPrompt asks for a file path.
	KindPrompt
)

// Result is emitted when an open dialog closes.
type Result struct {
	Kind Kind

	// Accepted is true when the user confirmed or submitted.
	Accepted bool

	// Payload is the value given when the dialog was opened.
	Payload string

	// Value is the text entered into a prompt.
	Value string
}

// Dialog is a single modal overlay; opening a new one replaces the old.
type Dialog struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	input   *input.PathInput
	kind    Kind
	title   string
	message string
	payload string
	open    bool
	width   int
}

// New creates a closed dialog.
func New(s *styles.Styles, km *keymap.KeyMap) *Dialog {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Dialog{
		styles: s,
		keymap: km,
		input:  input.NewPathInput(s),
		width:  60,
	}
}

// OpenConfirm shows a yes/no question carrying payload.
func (d *Dialog) OpenConfirm(title, message, payload string) {
	d.show(KindConfirm, title, message, payload)
}

// OpenAlert shows a blocking message.
func (d *Dialog) OpenAlert(title, message string) {
	d.show(KindAlert, title, message, "")
}

// OpenPrompt shows the path input.
func (d *Dialog) OpenPrompt(title, message string) tea.Cmd {
	d.show(KindPrompt, title, message, "")
	d.input.Reset()
	return tea.Batch(d.input.Focus(), d.input.Init())
}

func (d *Dialog) show(kind Kind, title, message, payload string) {
	d.kind = kind
	d.title = title
	d.message = message
	d.payload = payload
	d.open = true
}

// Close hides the dialog without emitting a result.
func (d *Dialog) Close() {
	d.open = false
	d.input.Blur()
}

// IsOpen reports whether the dialog is visible.
func (d *Dialog) IsOpen() bool {
	return d.open
}

// Kind returns the kind of the current dialog.
func (d *Dialog) Kind() Kind {
	return d.kind
}

// Message returns the body text of the current dialog.
func (d *Dialog) Message() string {
	return d.message
}

// Update handles keys while the dialog is open.
func (d *Dialog) Update(msg tea.Msg) (*Dialog, tea.Cmd) {
	if !d.open {
		return d, nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if d.kind == KindPrompt {
			var cmd tea.Cmd
			d.input, cmd = d.input.Update(msg)
			return d, cmd
		}
		return d, nil
	}

	k := keyMsg.String()
	switch d.kind {
	case KindConfirm:
		switch {
		case keymap.Matches(k, d.keymap.Confirm):
			return d, d.finish(true)
		case keymap.Matches(k, d.keymap.Cancel):
			return d, d.finish(false)
		}
	case KindAlert:
		if k == "enter" || k == "esc" {
			return d, d.finish(true)
		}
	case KindPrompt:
		switch k {
		case "enter":
			return d, d.finish(d.input.Value() != "")
		case "esc":
			return d, d.finish(false)
		}
		var cmd tea.Cmd
		d.input, cmd = d.input.Update(keyMsg)
		return d, cmd
	}
	return d, nil
}

func (d *Dialog) finish(accepted bool) tea.Cmd {
	result := Result{
		Kind:     d.kind,
		Accepted: accepted,
		Payload:  d.payload,
	}
	if d.kind == KindPrompt {
		result.Value = d.input.Value()
	}
	d.Close()
	return func() tea.Msg { return result }
}

// View renders the dialog box, or nothing when closed.
func (d *Dialog) View() string {
	if !d.open {
		return ""
	}

	var b strings.Builder
	b.WriteString(d.styles.Title.Render(d.title))
	b.WriteString("\n\n")
	if d.message != "" {
		b.WriteString(d.styles.Normal.Render(d.message))
		b.WriteString("\n\n")
	}

	switch d.kind {
	case KindConfirm:
		b.WriteString(d.styles.Help.Render("[y] confirm  [n/esc] cancel"))
	case KindAlert:
		b.WriteString(d.styles.Help.Render("[enter] dismiss"))
	case KindPrompt:
		b.WriteString(d.input.View())
		b.WriteString("\n\n")
		b.WriteString(d.styles.Help.Render("[enter] upload  [esc] cancel"))
	}

	return d.styles.Dialog.Width(d.width).Render(b.String())
}

// SetWidth sets the dialog width.
func (d *Dialog) SetWidth(width int) {
	d.width = width
	d.input.SetWidth(width - 4)
}
