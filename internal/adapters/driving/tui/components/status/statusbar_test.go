package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, messages.FocusChat, bar.Focus())
	assert.Equal(t, "", bar.Message())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
	assert.Nil(t, bar.Init())
}

func TestStatusBar_Update(t *testing.T) {
	bar := NewBar(nil, nil)

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestStatusBar_ViewStates(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		message  string
		expected string
	}{
		{"ready", StateReady, "", "Ready"},
		{"ready with message", StateReady, "Uploaded notes.pdf", "Uploaded notes.pdf"},
		{"thinking", StateThinking, "", "Thinking..."},
		{"uploading", StateUploading, "", "Uploading..."},
		{"error", StateError, "backend down", "Error: backend down"},
		{"bare error", StateError, "", "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(200)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)

			assert.Contains(t, bar.View(), tt.expected)
		})
	}
}

func TestStatusBar_HintsFollowFocus(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(200)

	assert.Contains(t, bar.View(), "send")

	bar.SetFocus(messages.FocusDocuments)
	assert.Contains(t, bar.View(), "delete")

	bar.SetState(StateDialog)
	view := bar.View()
	assert.Contains(t, view, "confirm")
	assert.Contains(t, view, "cancel")
}

func TestStatusBar_DevModeBadge(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(200)

	assert.NotContains(t, bar.View(), "DEV")

	bar.SetDevMode(true)
	assert.Contains(t, bar.View(), "DEV")
}

func TestStatusBar_Width(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetWidth(120)

	assert.Equal(t, 120, bar.Width())
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("error")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
}
