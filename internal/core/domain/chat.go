package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies the author of a history message sent to the gateway.
type Role string

const (
	// RoleUser marks a message written by the user.
	RoleUser Role = "user"

	// RoleAssistant marks a message produced by the assistant.
	RoleAssistant Role = "assistant"
)

// DefaultTopK is the number of passages requested per query.
const DefaultTopK = 5

// MaxTopK bounds the passages a single query may request.
const MaxTopK = 50

// SourceCitation is a retrieved passage supporting an answer.
// It is owned by the ChatTurn that produced it and never mutated.
type SourceCitation struct {
	ChunkID         string  `json:"chunk_id"`
	Source          string  `json:"source"`
	Page            *int    `json:"page,omitempty"`
	Text            string  `json:"text"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Location renders the citation's origin, e.g. "handbook.pdf • Page 3".
func (s SourceCitation) Location() string {
	if s.Page == nil {
		return s.Source
	}
	return fmt.Sprintf("%s • Page %d", s.Source, *s.Page)
}

// FormatPercent renders a [0,1] score as a percentage with one decimal.
func FormatPercent(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}

// SourceCountLabel returns "1 source" or "N sources".
func SourceCountLabel(n int) string {
	if n == 1 {
		return "1 source"
	}
	return fmt.Sprintf("%d sources", n)
}

// ChatTurn is one entry in the transcript.
// Once appended a turn is immutable; UI disclosure state lives elsewhere.
type ChatTurn struct {
	// ID is locally unique and strictly increasing within a session.
	ID int64 `json:"id"`

	// Content is the question, the answer, or a formatted error message.
	Content string `json:"content"`

	// IsUser is true for user turns and false for assistant or error turns.
	IsUser bool `json:"is_user"`

	// Sources holds the citations of an assistant turn.
	Sources []SourceCitation `json:"sources,omitempty"`

	// Confidence is in [0,1] and only meaningful on assistant turns.
	Confidence float64 `json:"confidence"`

	// PromptUsed is the raw generation prompt, set only in developer mode.
	PromptUsed string `json:"prompt_used,omitempty"`

	// Failed marks an assistant turn that carries an error message.
	Failed bool `json:"failed,omitempty"`

	// CreatedAt is when the turn was appended.
	CreatedAt time.Time `json:"created_at"`
}

// HasSources reports whether the turn carries any citations.
func (t ChatTurn) HasSources() bool {
	return !t.IsUser && len(t.Sources) > 0
}

// HasPrompt reports whether the turn carries a developer-mode prompt.
func (t ChatTurn) HasPrompt() bool {
	return !t.IsUser && t.PromptUsed != ""
}

// Role returns the history role of the turn.
func (t ChatTurn) Role() Role {
	if t.IsUser {
		return RoleUser
	}
	return RoleAssistant
}

// HistoryMessage is a prior transcript entry re-expressed for the gateway.
type HistoryMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// HistoryFromTurns maps turns to role/content pairs in transcript order.
func HistoryFromTurns(turns []ChatTurn) []HistoryMessage {
	history := make([]HistoryMessage, 0, len(turns))
	for i := range turns {
		history = append(history, HistoryMessage{
			Role:    turns[i].Role(),
			Content: turns[i].Content,
		})
	}
	return history
}

// ChatRequest is a question sent to the gateway.
type ChatRequest struct {
	Query         string
	History       []HistoryMessage
	TopK          int
	DeveloperMode bool
}

// ChatReply is the gateway's grounded answer.
type ChatReply struct {
	Answer     string           `json:"answer"`
	Sources    []SourceCitation `json:"sources"`
	Confidence float64          `json:"confidence"`
	PromptUsed *string          `json:"prompt_used,omitempty"`
}

// SessionState is the chat session's message-cycle state.
type SessionState int

const (
	// StateIdle accepts a new question.
	StateIdle SessionState = iota

	// StateAwaitingAnswer has one question outstanding.
	StateAwaitingAnswer
)

// String returns the string representation of the state.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	default:
		return "unknown"
	}
}

// SessionConfig holds per-session chat parameters.
type SessionConfig struct {
	// DeveloperMode asks the gateway to return the prompt it used.
	DeveloperMode bool

	// TopK is the number of passages requested per query.
	TopK int
}

// DefaultSessionConfig returns the baseline session configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		DeveloperMode: false,
		TopK:          DefaultTopK,
	}
}

// AskOptions overrides session configuration for a single question.
// The zero value keeps the session's settings.
type AskOptions struct {
	// TopK replaces the session's TopK when positive.
	TopK int
}

// ValidateTopK checks that topK lies in [1, MaxTopK].
func ValidateTopK(topK int) error {
	if topK < 1 || topK > MaxTopK {
		return NewValidationError("top_k",
			fmt.Errorf("%w: must be between 1 and %d", ErrInvalidInput, MaxTopK))
	}
	return nil
}

// Normalised clamps TopK into [1, MaxTopK], defaulting when unset.
func (c SessionConfig) Normalised() SessionConfig {
	switch {
	case c.TopK <= 0:
		c.TopK = DefaultTopK
	case c.TopK > MaxTopK:
		c.TopK = MaxTopK
	}
	return c
}

// IsBlank reports whether a query is empty after trimming.
func IsBlank(query string) bool {
	return strings.TrimSpace(query) == ""
}
