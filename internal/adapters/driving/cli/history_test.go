package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestHistoryCmd(t *testing.T) {
	t.Run("no sessions", func(t *testing.T) {
		defer setupTestServices(&fakeGateway{})()

		out, err := executeCommand(t, "", "history", "list")

		require.NoError(t, err)
		assert.Contains(t, out, "No archived sessions.")
	})

	t.Run("list and show an archived session", func(t *testing.T) {
		defer setupTestServices(&fakeGateway{docs: []domain.Document{{Filename: "a.pdf", NumChunks: 1}}})()

		_, err := executeCommand(t, "one\n/clear\ntwo\n", "chat")
		require.NoError(t, err)
		sessionID := chatSession.SessionID()

		out, err := executeCommand(t, "", "history", "list")
		require.NoError(t, err)
		assert.Contains(t, out, sessionID)
		assert.Contains(t, out, "Exchanges: 2")

		out, err = executeCommand(t, "", "history", "show", sessionID, "--sources")
		require.NoError(t, err)
		assert.Contains(t, out, "You: one")
		assert.Contains(t, out, "answer to one")
		assert.Contains(t, out, "--- cleared ---")
		assert.Contains(t, out, "You: two")
		assert.Contains(t, out, "supporting passage")
	})

	t.Run("unknown session", func(t *testing.T) {
		defer setupTestServices(&fakeGateway{})()

		_, err := executeCommand(t, "", "history", "show", "missing")

		require.Error(t, err)
		assert.Equal(t, "no archived session missing", err.Error())
	})
}
