package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// HistoryService reads archived chat sessions.
type HistoryService interface {
	// ListSessions returns archived sessions, most recent first.
	ListSessions(ctx context.Context) ([]domain.SessionSummary, error)

	// Exchanges returns the exchanges of one session.
	Exchanges(ctx context.Context, sessionID string) ([]domain.ArchivedExchange, error)
}
