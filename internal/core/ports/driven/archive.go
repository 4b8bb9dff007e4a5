package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// TranscriptArchive persists completed exchanges across process runs.
type TranscriptArchive interface {
	// Append stores one completed exchange.
	Append(ctx context.Context, exchange domain.ArchivedExchange) error

	// ListSessions returns archived sessions, most recent first.
	ListSessions(ctx context.Context) ([]domain.SessionSummary, error)

	// Exchanges returns the exchanges of a session in the order they completed.
	// Returns domain.ErrNotFound if the session has no exchanges.
	Exchanges(ctx context.Context, sessionID string) ([]domain.ArchivedExchange, error)
}
