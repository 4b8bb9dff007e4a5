package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for ragchat resources.
	uriScheme = "ragchat://"

	jsonMIMEType = "application/json"
)

// exchangeInfo is the JSON form of an archived question/answer pair.
type exchangeInfo struct {
	Generation int             `json:"generation"`
	Question   domain.ChatTurn `json:"question"`
	Answer     domain.ChatTurn `json:"answer"`
}

// sessionInfo is the JSON form of an archived session summary.
type sessionInfo struct {
	ID        string    `json:"id"`
	Exchanges int       `json:"exchanges"`
	StartedAt time.Time `json:"started_at"`
	LastAt    time.Time `json:"last_at"`
	URI       string    `json:"uri"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Documents currently indexed by the backend",
		MIMEType:    jsonMIMEType,
	}, s.handleDocumentsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "transcript",
		Name:        "transcript",
		Description: "Turns of the current chat session",
		MIMEType:    jsonMIMEType,
	}, s.handleTranscriptResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sessions",
		Name:        "sessions",
		Description: "Archived chat sessions, most recent first",
		MIMEType:    jsonMIMEType,
	}, s.handleSessionsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}",
		Name:        "session-exchanges",
		Description: "Question/answer pairs of an archived chat session",
		MIMEType:    jsonMIMEType,
	}, s.handleSessionResource)
}

// handleDocumentsResource returns the mirrored document listing.
func (s *Server) handleDocumentsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResult(req.Params.URI, s.ports.Corpus.Documents())
}

// handleTranscriptResource returns the current session's turns.
func (s *Server) handleTranscriptResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResult(req.Params.URI, s.ports.Chat.Transcript())
}

// handleSessionsResource lists archived sessions.
func (s *Server) handleSessionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.History == nil {
		return jsonResult(req.Params.URI, []sessionInfo{})
	}

	sessions, err := s.ports.History.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	infos := make([]sessionInfo, len(sessions))
	for i, sess := range sessions {
		infos[i] = sessionInfo{
			ID:        sess.ID,
			Exchanges: sess.Exchanges,
			StartedAt: sess.StartedAt,
			LastAt:    sess.LastAt,
			URI:       uriScheme + "sessions/" + sess.ID,
		}
	}
	return jsonResult(req.Params.URI, infos)
}

// handleSessionResource returns the exchanges of one archived session.
func (s *Server) handleSessionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.History == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	sessionID := extractSessionID(req.Params.URI)
	if sessionID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	exchanges, err := s.ports.History.Exchanges(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	infos := make([]exchangeInfo, len(exchanges))
	for i := range exchanges {
		infos[i] = exchangeInfo{
			Generation: exchanges[i].Generation,
			Question:   exchanges[i].Question,
			Answer:     exchanges[i].Answer,
		}
	}
	return jsonResult(req.Params.URI, infos)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: jsonMIMEType,
			Text:     string(data),
		}},
	}, nil
}

// extractSessionID extracts the session ID from a URI like ragchat://sessions/{sessionId}.
func extractSessionID(uri string) string {
	const prefix = uriScheme + "sessions/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
