package tui

import "errors"

// ErrMissingCorpusService is returned when the corpus service is not provided.
var ErrMissingCorpusService = errors.New("tui: corpus service is required")

// ErrMissingOrchestrator is returned when the document orchestrator is not provided.
var ErrMissingOrchestrator = errors.New("tui: document orchestrator is required")

// ErrMissingChatSession is returned when the chat session is not provided.
var ErrMissingChatSession = errors.New("tui: chat session is required")
