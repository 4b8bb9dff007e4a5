// Package tui provides an interactive terminal user interface for ragchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
type Ports struct {
	// Corpus mirrors the backend document listing.
	Corpus driving.CorpusService

	// Orchestrator sequences uploads and deletes.
	Orchestrator driving.DocumentOrchestrator

	// Chat is the conversation with the backend.
	Chat driving.ChatSession
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	corpus driving.CorpusService,
	orchestrator driving.DocumentOrchestrator,
	chat driving.ChatSession,
) *Ports {
	return &Ports{
		Corpus:       corpus,
		Orchestrator: orchestrator,
		Chat:         chat,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Corpus == nil {
		return ErrMissingCorpusService
	}
	if p.Orchestrator == nil {
		return ErrMissingOrchestrator
	}
	if p.Chat == nil {
		return ErrMissingChatSession
	}
	return nil
}
