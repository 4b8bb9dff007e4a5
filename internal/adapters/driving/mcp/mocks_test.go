package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/services"
)

// stubGateway answers from fixed data. Calls to methods left unset fall
// through to the nil embedded interface and panic.
type stubGateway struct {
	driven.Gateway

	docs     []domain.Document
	listErr  error
	info     *domain.CorpusInfo
	infoErr  error
	health   *domain.Health
	chatFunc func(req domain.ChatRequest) (*domain.ChatReply, error)
	lastChat domain.ChatRequest
}

func (g *stubGateway) ListDocuments(context.Context) ([]domain.Document, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.docs, nil
}

func (g *stubGateway) GetCorpusInfo(context.Context) (*domain.CorpusInfo, error) {
	return g.info, g.infoErr
}

func (g *stubGateway) CheckHealth(context.Context) (*domain.Health, error) {
	if g.health == nil {
		return nil, &domain.NetworkError{Op: "check health", Err: context.DeadlineExceeded}
	}
	return g.health, nil
}

func (g *stubGateway) SendChatMessage(_ context.Context, req domain.ChatRequest) (*domain.ChatReply, error) {
	g.lastChat = req
	if g.chatFunc != nil {
		return g.chatFunc(req)
	}
	return &domain.ChatReply{
		Answer:     "answer to " + req.Query,
		Confidence: 0.8,
		Sources:    []domain.SourceCitation{{Source: "handbook.pdf", Text: "passage", SimilarityScore: 0.9}},
	}, nil
}

// testServer wires real services over gw into a server.
type testServer struct {
	*Server
	corpus  *services.CorpusService
	chat    *services.ChatSession
	archive *memory.TranscriptArchive
}

func newTestServer(t *testing.T, gw *stubGateway) *testServer {
	t.Helper()

	corpus := services.NewCorpusService(gw)
	archive := memory.NewTranscriptArchive()
	chat := services.NewChatSession(gw, corpus, archive, domain.DefaultSessionConfig())

	server, err := NewServer(&Ports{
		Corpus:  corpus,
		Chat:    chat,
		History: services.NewHistoryService(archive),
	})
	require.NoError(t, err)

	return &testServer{Server: server, corpus: corpus, chat: chat, archive: archive}
}
