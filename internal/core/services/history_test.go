package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestHistoryService_FromChatSession(t *testing.T) {
	archive := memory.NewTranscriptArchive()
	session := NewChatSession(newMockGateway(), nil, archive, domain.DefaultSessionConfig())
	history := NewHistoryService(archive)
	ctx := context.Background()

	_, err := session.Send(ctx, "first")
	require.NoError(t, err)
	_, err = session.Send(ctx, "second")
	require.NoError(t, err)

	sessions, err := history.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, session.SessionID(), sessions[0].ID)
	assert.Equal(t, 2, sessions[0].Exchanges)

	exchanges, err := history.Exchanges(ctx, session.SessionID())
	require.NoError(t, err)
	require.Len(t, exchanges, 2)
	assert.Equal(t, "second", exchanges[1].Question.Content)
}

func TestHistoryService_Exchanges_Errors(t *testing.T) {
	history := NewHistoryService(memory.NewTranscriptArchive())

	_, err := history.Exchanges(context.Background(), "")
	assert.True(t, domain.IsValidation(err))

	_, err = history.Exchanges(context.Background(), "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
