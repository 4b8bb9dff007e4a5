package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/services"
)

// fakeGateway is an in-memory driven.Gateway backing real services in tests.
type fakeGateway struct {
	mu   sync.Mutex
	docs []domain.Document

	ListErr   error
	ListFunc  func(call int) ([]domain.Document, error) // call counts from 1
	UploadErr error
	DeleteErr error
	ChatFunc  func(req domain.ChatRequest) (*domain.ChatReply, error)
	Health    *domain.Health

	chats []domain.ChatRequest
	lists int
}

var _ driven.Gateway = (*fakeGateway)(nil)

func (g *fakeGateway) UploadDocument(_ context.Context, path string) (*domain.UploadResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.UploadErr != nil {
		return nil, g.UploadErr
	}
	g.docs = append(g.docs, domain.Document{Filename: path, NumChunks: 2})
	return &domain.UploadResult{Filename: path, NumChunks: 2, Message: "uploaded"}, nil
}

func (g *fakeGateway) ListDocuments(context.Context) ([]domain.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lists++
	if g.ListFunc != nil {
		return g.ListFunc(g.lists)
	}
	if g.ListErr != nil {
		return nil, g.ListErr
	}
	return append([]domain.Document(nil), g.docs...), nil
}

func (g *fakeGateway) DeleteDocument(_ context.Context, filename string) (*domain.DeleteResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DeleteErr != nil {
		return nil, g.DeleteErr
	}
	kept := g.docs[:0]
	for _, d := range g.docs {
		if d.Filename != filename {
			kept = append(kept, d)
		}
	}
	g.docs = kept
	return &domain.DeleteResult{Message: "deleted", NumChunksDeleted: 1}, nil
}

func (g *fakeGateway) GetCorpusInfo(context.Context) (*domain.CorpusInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &domain.CorpusInfo{
		TotalChunks:      domain.TotalChunks(g.docs),
		Model:            "all-MiniLM-L6-v2",
		Dimension:        384,
		SimilarityMetric: "cosine",
		CollectionName:   "documents",
		Provider:         "chroma",
	}, nil
}

func (g *fakeGateway) SendChatMessage(_ context.Context, req domain.ChatRequest) (*domain.ChatReply, error) {
	g.mu.Lock()
	g.chats = append(g.chats, req)
	g.mu.Unlock()

	if g.ChatFunc != nil {
		return g.ChatFunc(req)
	}
	page := 2
	reply := &domain.ChatReply{
		Answer:     "answer to " + req.Query,
		Confidence: 0.82,
		Sources: []domain.SourceCitation{
			{ChunkID: "c1", Source: "handbook.pdf", Page: &page, Text: "supporting passage", SimilarityScore: 0.9},
		},
	}
	if req.DeveloperMode {
		prompt := "PROMPT: " + req.Query
		reply.PromptUsed = &prompt
	}
	return reply, nil
}

func (g *fakeGateway) CheckHealth(context.Context) (*domain.Health, error) {
	if g.Health == nil {
		return nil, &domain.NetworkError{Op: "check health", Err: context.DeadlineExceeded}
	}
	return g.Health, nil
}

// setupTestServices wires real services over gw and returns a cleanup func.
func setupTestServices(gw *fakeGateway) func() {
	corpus := services.NewCorpusService(gw)
	archive := memory.NewTranscriptArchive()
	SetServices(&Services{
		Corpus:       corpus,
		Orchestrator: services.NewDocumentOrchestrator(gw, corpus),
		Chat:         services.NewChatSession(gw, corpus, archive, domain.DefaultSessionConfig()),
		Settings:     services.NewSettingsService(memory.NewConfigStore()),
		History:      services.NewHistoryService(archive),
	})
	return func() { SetServices(nil) }
}

// executeCommand runs the root command with args and stdin, returning
// everything written to stdout and stderr.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		askTopK, askDev, askJSON, askSources = 0, false, false, false
		deleteYes = false
		historySources = false
	})

	err := rootCmd.Execute()
	return buf.String(), err
}
