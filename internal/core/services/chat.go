package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure ChatSession implements the interface.
var _ driving.ChatSession = (*ChatSession)(nil)

// errExchangeCompleted is returned when Complete is called twice.
var errExchangeCompleted = errors.New("exchange already completed")

// ChatSession owns the transcript and the Idle/AwaitingAnswer cycle.
//
// Clear bumps the session generation and cancels the outstanding request.
// A reply belonging to an older generation is dropped.
type ChatSession struct {
	gateway driven.Gateway
	corpus  driving.CorpusService    // Optional: gates sending on a non-empty corpus
	archive driven.TranscriptArchive // Optional: persists completed exchanges

	sessionID string
	now       func() time.Time

	mu          sync.Mutex
	turns       []domain.ChatTurn
	state       domain.SessionState
	config      domain.SessionConfig
	generation  int
	lastID      int64
	abort       context.CancelFunc
	showSources map[int64]bool
	showPrompt  map[int64]bool
}

// NewChatSession creates a new session.
// corpus and archive may be nil; without corpus, sending is never gated.
func NewChatSession(
	gateway driven.Gateway,
	corpus driving.CorpusService,
	archive driven.TranscriptArchive,
	config domain.SessionConfig,
) *ChatSession {
	return &ChatSession{
		gateway:     gateway,
		corpus:      corpus,
		archive:     archive,
		sessionID:   uuid.NewString(),
		now:         time.Now,
		turns:       []domain.ChatTurn{},
		state:       domain.StateIdle,
		config:      config.Normalised(),
		showSources: make(map[int64]bool),
		showPrompt:  make(map[int64]bool),
	}
}

// SessionID identifies this session in the transcript archive.
func (s *ChatSession) SessionID() string {
	return s.sessionID
}

// Generation counts calls to Clear.
func (s *ChatSession) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// State returns the current message-cycle state.
func (s *ChatSession) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a snapshot of the turns in order.
func (s *ChatSession) Transcript() []domain.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// CanSend reports whether input would be accepted by Begin.
func (s *ChatSession) CanSend(input string) bool {
	if domain.IsBlank(input) {
		return false
	}
	if s.corpusEmpty() {
		return false
	}
	return s.State() == domain.StateIdle
}

func (s *ChatSession) corpusEmpty() bool {
	return s.corpus != nil && s.corpus.IsEmpty()
}

// Begin validates query, appends the user turn and moves to AwaitingAnswer.
// On rejection the transcript and state are unchanged.
func (s *ChatSession) Begin(query string) (driving.PendingExchange, error) {
	return s.BeginWith(query, domain.AskOptions{})
}

// BeginWith is Begin with per-question overrides. The session config is
// left untouched. The query is stored and sent as typed.
func (s *ChatSession) BeginWith(query string, opts domain.AskOptions) (driving.PendingExchange, error) {
	if domain.IsBlank(query) {
		return nil, domain.NewValidationError("query", domain.ErrEmptyQuery)
	}
	if opts.TopK != 0 {
		if err := domain.ValidateTopK(opts.TopK); err != nil {
			return nil, err
		}
	}

	// Evaluated before taking the session lock; the corpus has its own.
	empty := s.corpusEmpty()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateAwaitingAnswer {
		return nil, domain.ErrAwaitingAnswer
	}
	if empty {
		return nil, domain.ErrCorpusEmpty
	}

	history := domain.HistoryFromTurns(s.turns)
	question := domain.ChatTurn{
		ID:        s.nextID(),
		Content:   query,
		IsUser:    true,
		CreatedAt: s.now(),
	}
	s.turns = append(s.turns, question)
	s.state = domain.StateAwaitingAnswer

	topK := s.config.TopK
	if opts.TopK > 0 {
		topK = opts.TopK
	}

	abortCtx, abort := context.WithCancel(context.Background())
	s.abort = abort

	logger.Section("Chat")
	logger.Debug("Question %d (history=%d, top_k=%d, developer_mode=%t)",
		question.ID, len(history), topK, s.config.DeveloperMode)

	return &exchange{
		session:    s,
		question:   question,
		generation: s.generation,
		abortCtx:   abortCtx,
		request: domain.ChatRequest{
			Query:         query,
			History:       history,
			TopK:          topK,
			DeveloperMode: s.config.DeveloperMode,
		},
	}, nil
}

// Send runs Begin and Complete for blocking callers.
func (s *ChatSession) Send(ctx context.Context, query string) (*domain.ChatTurn, error) {
	return s.SendWith(ctx, query, domain.AskOptions{})
}

// SendWith runs BeginWith and Complete.
func (s *ChatSession) SendWith(ctx context.Context, query string, opts domain.AskOptions) (*domain.ChatTurn, error) {
	ex, err := s.BeginWith(query, opts)
	if err != nil {
		return nil, err
	}
	return ex.Complete(ctx)
}

// Clear empties the transcript immediately and abandons any outstanding question.
func (s *ChatSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.abort != nil {
		s.abort()
		s.abort = nil
	}
	s.turns = []domain.ChatTurn{}
	s.showSources = make(map[int64]bool)
	s.showPrompt = make(map[int64]bool)
	s.generation++
	s.state = domain.StateIdle
	logger.Debug("Transcript cleared (generation %d)", s.generation)
}

// ToggleSources flips the sources disclosure of a turn.
func (s *ChatSession) ToggleSources(turnID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn, ok := s.findTurn(turnID)
	if !ok || !turn.HasSources() {
		return false
	}
	s.showSources[turnID] = !s.showSources[turnID]
	return true
}

// TogglePrompt flips the prompt disclosure of a turn.
func (s *ChatSession) TogglePrompt(turnID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn, ok := s.findTurn(turnID)
	if !ok || !turn.HasPrompt() {
		return false
	}
	s.showPrompt[turnID] = !s.showPrompt[turnID]
	return true
}

// SourcesVisible reports whether a turn's sources are expanded.
func (s *ChatSession) SourcesVisible(turnID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showSources[turnID]
}

// PromptVisible reports whether a turn's prompt is expanded.
func (s *ChatSession) PromptVisible(turnID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showPrompt[turnID]
}

// Config returns the session configuration.
func (s *ChatSession) Config() domain.SessionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// SetDeveloperMode toggles prompt echo for subsequent questions.
func (s *ChatSession) SetDeveloperMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.DeveloperMode = enabled
}

// SetTopK sets the passages requested per question.
func (s *ChatSession) SetTopK(topK int) error {
	if err := domain.ValidateTopK(topK); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.TopK = topK
	return nil
}

// nextID returns a wall-clock derived id, strictly greater than the last.
// Callers must hold mu.
func (s *ChatSession) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *ChatSession) findTurn(id int64) (domain.ChatTurn, bool) {
	for i := range s.turns {
		if s.turns[i].ID == id {
			return s.turns[i], true
		}
	}
	return domain.ChatTurn{}, false
}

// finish appends the answer turn if ex still belongs to the current generation.
func (s *ChatSession) finish(ex *exchange, reply *domain.ChatReply, sendErr error) (*domain.ChatTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ex.done {
		return nil, errExchangeCompleted
	}
	ex.done = true

	if ex.generation != s.generation {
		logger.Debug("Dropping reply to question %d from generation %d", ex.question.ID, ex.generation)
		return nil, domain.ErrStaleExchange
	}

	answer := domain.ChatTurn{
		ID:        s.nextID(),
		IsUser:    false,
		Sources:   []domain.SourceCitation{},
		CreatedAt: s.now(),
	}
	if sendErr != nil {
		answer.Content = domain.ChatErrorContent(sendErr)
		answer.Failed = true
	} else {
		answer.Content = reply.Answer
		answer.Confidence = reply.Confidence
		if len(reply.Sources) > 0 {
			answer.Sources = append(answer.Sources, reply.Sources...)
		}
		if ex.request.DeveloperMode && reply.PromptUsed != nil {
			answer.PromptUsed = *reply.PromptUsed
		}
	}

	s.turns = append(s.turns, answer)
	s.state = domain.StateIdle
	if s.abort != nil {
		s.abort()
		s.abort = nil
	}
	return &answer, nil
}

func (s *ChatSession) archiveExchange(ctx context.Context, ex *exchange, answer domain.ChatTurn) {
	if s.archive == nil {
		return
	}
	err := s.archive.Append(context.WithoutCancel(ctx), domain.ArchivedExchange{
		SessionID:  s.sessionID,
		Generation: ex.generation,
		Question:   ex.question,
		Answer:     answer,
	})
	if err != nil {
		logger.Warn("Failed to archive exchange: %v", err)
	}
}

// exchange is a question awaiting its answer.
type exchange struct {
	session    *ChatSession
	question   domain.ChatTurn
	request    domain.ChatRequest
	generation int
	abortCtx   context.Context
	done       bool // guarded by session.mu
}

func (e *exchange) Question() domain.ChatTurn   { return e.question }
func (e *exchange) Request() domain.ChatRequest { return e.request }
func (e *exchange) Generation() int             { return e.generation }

// Complete sends the question and appends the answer or error turn.
func (e *exchange) Complete(ctx context.Context) (*domain.ChatTurn, error) {
	e.session.mu.Lock()
	done := e.done
	e.session.mu.Unlock()
	if done {
		return nil, errExchangeCompleted
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(e.abortCtx, cancel)
	defer stop()

	reply, sendErr := e.session.gateway.SendChatMessage(ctx, e.request)
	if sendErr == nil && reply == nil {
		sendErr = errors.New("empty reply")
	}

	answer, err := e.session.finish(e, reply, sendErr)
	if err != nil {
		return nil, err
	}

	e.session.archiveExchange(ctx, e, *answer)

	if sendErr != nil {
		logger.Debug("Chat request failed: %v", sendErr)
		return answer, fmt.Errorf("send chat message: %w", sendErr)
	}
	logger.Debug("Answer %d: %d sources, confidence %.2f", answer.ID, len(answer.Sources), answer.Confidence)
	return answer, nil
}
