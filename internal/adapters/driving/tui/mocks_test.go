package tui

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/services"
)

// fakeGateway is an in-memory driven.Gateway backing real services in tests.
type fakeGateway struct {
	mu   sync.Mutex
	docs []domain.Document

	UploadErr error
	DeleteErr error
	ChatFunc  func(ctx context.Context, req domain.ChatRequest) (*domain.ChatReply, error)

	uploaded []string
}

var _ driven.Gateway = (*fakeGateway)(nil)

func newFakeGateway(docs ...domain.Document) *fakeGateway {
	return &fakeGateway{docs: docs}
}

func (g *fakeGateway) UploadDocument(_ context.Context, path string) (*domain.UploadResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uploaded = append(g.uploaded, path)
	if g.UploadErr != nil {
		return nil, g.UploadErr
	}
	g.docs = append(g.docs, domain.Document{Filename: path, NumChunks: 2})
	return &domain.UploadResult{Filename: path, NumChunks: 2, Message: "uploaded"}, nil
}

func (g *fakeGateway) ListDocuments(context.Context) ([]domain.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
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
	return &domain.CorpusInfo{TotalChunks: 3, Model: "mini", Dimension: 384, SimilarityMetric: "cosine"}, nil
}

func (g *fakeGateway) SendChatMessage(ctx context.Context, req domain.ChatRequest) (*domain.ChatReply, error) {
	if g.ChatFunc != nil {
		return g.ChatFunc(ctx, req)
	}
	return &domain.ChatReply{Answer: "answer to " + req.Query, Confidence: 0.8}, nil
}

func (g *fakeGateway) CheckHealth(context.Context) (*domain.Health, error) {
	return &domain.Health{Status: "healthy"}, nil
}

// newTestPorts wires real services over gw.
func newTestPorts(gw *fakeGateway) *Ports {
	corpus := services.NewCorpusService(gw)
	return NewPorts(
		corpus,
		services.NewDocumentOrchestrator(gw, corpus),
		services.NewChatSession(gw, corpus, nil, domain.DefaultSessionConfig()),
	)
}
