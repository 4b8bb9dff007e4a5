package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ChatSession owns the transcript and the message-cycle state machine.
//
// States: Idle -> AwaitingAnswer -> Idle. At most one question is outstanding.
type ChatSession interface {
	// Begin validates query, appends the user turn and moves to AwaitingAnswer.
	// The returned exchange performs the network call.
	Begin(query string) (PendingExchange, error)

	// BeginWith is Begin with per-question overrides that do not touch
	// the session config.
	BeginWith(query string, opts domain.AskOptions) (PendingExchange, error)

	// Send runs Begin and Complete for blocking callers.
	Send(ctx context.Context, query string) (*domain.ChatTurn, error)

	// SendWith runs BeginWith and Complete.
	SendWith(ctx context.Context, query string, opts domain.AskOptions) (*domain.ChatTurn, error)

	// Clear empties the transcript and abandons any outstanding question.
	Clear()

	// CanSend reports whether input would be accepted by Begin.
	CanSend(input string) bool

	// State returns the current message-cycle state.
	State() domain.SessionState

	// Transcript returns a snapshot of the turns in order.
	Transcript() []domain.ChatTurn

	// ToggleSources flips the sources disclosure of a turn.
	// Returns false when the turn has no sources.
	ToggleSources(turnID int64) bool

	// TogglePrompt flips the prompt disclosure of a turn.
	// Returns false when the turn has no prompt.
	TogglePrompt(turnID int64) bool

	// SourcesVisible reports whether a turn's sources are expanded.
	SourcesVisible(turnID int64) bool

	// PromptVisible reports whether a turn's prompt is expanded.
	PromptVisible(turnID int64) bool

	// Config returns the session configuration.
	Config() domain.SessionConfig

	// SetDeveloperMode toggles prompt echo for subsequent questions.
	SetDeveloperMode(enabled bool)

	// SetTopK sets the passages requested per question (1..domain.MaxTopK).
	SetTopK(topK int) error

	// SessionID identifies this session in the transcript archive.
	SessionID() string

	// Generation counts calls to Clear.
	Generation() int
}

// PendingExchange is a question that has been appended but not yet answered.
type PendingExchange interface {
	// Question returns the user turn that was appended.
	Question() domain.ChatTurn

	// Request returns what will be sent to the gateway.
	Request() domain.ChatRequest

	// Generation is the session generation the question belongs to.
	Generation() int

	// Complete sends the question and appends the answer or error turn.
	// On gateway failure the error turn is returned along with the cause.
	// If the session was cleared meanwhile nothing is appended and
	// domain.ErrStaleExchange is returned.
	Complete(ctx context.Context) (*domain.ChatTurn, error)
}
