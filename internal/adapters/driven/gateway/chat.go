package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

const (
	chatPath   = "/api/chat/"
	healthPath = "/api/chat/health"
)

// chatRequest is the /api/chat/ request format.
type chatRequest struct {
	Query       string                  `json:"query"`
	ChatHistory []domain.HistoryMessage `json:"chat_history"`
	TopK        int                     `json:"top_k"`
}

// SendChatMessage asks a question. It is never retried: the backend
// runs generation for every attempt.
func (c *Client) SendChatMessage(ctx context.Context, in domain.ChatRequest) (*domain.ChatReply, error) {
	const op = "send chat message"

	if domain.IsBlank(in.Query) {
		return nil, domain.NewValidationError("query", domain.ErrEmptyQuery)
	}

	history := in.History
	if history == nil {
		history = []domain.HistoryMessage{}
	}
	topK := in.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	jsonBody, err := json.Marshal(chatRequest{
		Query:       in.Query,
		ChatHistory: history,
		TopK:        topK,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", op, err)
	}

	endpoint := c.baseURL + chatPath + "?developer_mode=" + strconv.FormatBool(in.DeveloperMode)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var reply domain.ChatReply
	if err := c.do(req, op, &reply); err != nil {
		return nil, err
	}
	if reply.Sources == nil {
		reply.Sources = []domain.SourceCitation{}
	}
	return &reply, nil
}

// CheckHealth reports gateway liveness.
func (c *Client) CheckHealth(ctx context.Context) (*domain.Health, error) {
	health, err := getJSON[domain.Health](ctx, c, "check health", healthPath)
	if err != nil {
		return nil, err
	}
	return &health, nil
}
