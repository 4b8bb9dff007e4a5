package mcp

import (
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Corpus mirrors the backend document listing.
	Corpus driving.CorpusService

	// Chat answers questions.
	Chat driving.ChatSession

	// History reads archived sessions. Optional.
	History driving.HistoryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Corpus == nil {
		return ErrMissingCorpusService
	}
	if p.Chat == nil {
		return ErrMissingChatSession
	}
	return nil
}
