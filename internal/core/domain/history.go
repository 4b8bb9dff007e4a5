package domain

import "time"

// ArchivedExchange is a completed question/answer pair kept in the local archive.
type ArchivedExchange struct {
	// SessionID groups exchanges from one process run.
	SessionID string

	// Generation counts clears within the session.
	Generation int

	// Question is the user turn.
	Question ChatTurn

	// Answer is the assistant turn, possibly an error turn.
	Answer ChatTurn
}

// SessionSummary describes one archived chat session.
type SessionSummary struct {
	ID        string
	Exchanges int
	StartedAt time.Time
	LastAt    time.Time
}
