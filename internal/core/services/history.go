package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService reads archived chat sessions.
type HistoryService struct {
	archive driven.TranscriptArchive
}

// NewHistoryService creates a new history service.
func NewHistoryService(archive driven.TranscriptArchive) *HistoryService {
	return &HistoryService{archive: archive}
}

// ListSessions returns archived sessions, most recent first.
func (s *HistoryService) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	sessions, err := s.archive.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Exchanges returns the exchanges of one session.
func (s *HistoryService) Exchanges(ctx context.Context, sessionID string) ([]domain.ArchivedExchange, error) {
	if sessionID == "" {
		return nil, domain.NewValidationError("session_id", domain.ErrInvalidInput)
	}
	exchanges, err := s.archive.Exchanges(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return exchanges, nil
}
