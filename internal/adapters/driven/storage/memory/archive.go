package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure TranscriptArchive implements the interface.
var _ driven.TranscriptArchive = (*TranscriptArchive)(nil)

// TranscriptArchive keeps completed exchanges for the life of the process.
type TranscriptArchive struct {
	mu        sync.RWMutex
	exchanges map[string][]domain.ArchivedExchange
}

// NewTranscriptArchive creates an empty in-memory archive.
func NewTranscriptArchive() *TranscriptArchive {
	return &TranscriptArchive{
		exchanges: make(map[string][]domain.ArchivedExchange),
	}
}

// Append stores one completed exchange.
func (a *TranscriptArchive) Append(_ context.Context, exchange domain.ArchivedExchange) error {
	if exchange.SessionID == "" {
		return domain.NewValidationError("session_id", domain.ErrInvalidInput)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.exchanges[exchange.SessionID] = append(a.exchanges[exchange.SessionID], exchange)
	return nil
}

// ListSessions returns archived sessions, most recent first.
func (a *TranscriptArchive) ListSessions(_ context.Context) ([]domain.SessionSummary, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	sessions := make([]domain.SessionSummary, 0, len(a.exchanges))
	for id, exchanges := range a.exchanges {
		first, last := exchanges[0], exchanges[len(exchanges)-1]
		sessions = append(sessions, domain.SessionSummary{
			ID:        id,
			Exchanges: len(exchanges),
			StartedAt: first.Question.CreatedAt,
			LastAt:    last.Answer.CreatedAt,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastAt.After(sessions[j].LastAt)
	})
	return sessions, nil
}

// Exchanges returns a session's exchanges in completion order.
func (a *TranscriptArchive) Exchanges(_ context.Context, sessionID string) ([]domain.ArchivedExchange, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	exchanges, ok := a.exchanges[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]domain.ArchivedExchange, len(exchanges))
	copy(out, exchanges)
	return out, nil
}
