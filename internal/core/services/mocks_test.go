package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// mockGateway is a driven.Gateway with overridable behaviour and call counters.
type mockGateway struct {
	mu sync.Mutex

	UploadFunc func(ctx context.Context, path string) (*domain.UploadResult, error)
	ListFunc   func(ctx context.Context) ([]domain.Document, error)
	DeleteFunc func(ctx context.Context, filename string) (*domain.DeleteResult, error)
	InfoFunc   func(ctx context.Context) (*domain.CorpusInfo, error)
	ChatFunc   func(ctx context.Context, req domain.ChatRequest) (*domain.ChatReply, error)
	HealthFunc func(ctx context.Context) (*domain.Health, error)

	uploads  int
	lists    int
	deletes  int
	infos    int
	chats    []domain.ChatRequest
	uploaded []string
}

var _ driven.Gateway = (*mockGateway)(nil)

func newMockGateway(docs ...domain.Document) *mockGateway {
	return &mockGateway{
		ListFunc: func(context.Context) ([]domain.Document, error) {
			return docs, nil
		},
	}
}

func (m *mockGateway) UploadDocument(ctx context.Context, path string) (*domain.UploadResult, error) {
	m.mu.Lock()
	m.uploads++
	m.uploaded = append(m.uploaded, path)
	m.mu.Unlock()
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, path)
	}
	return &domain.UploadResult{Filename: path, NumChunks: 1, Message: "ok"}, nil
}

func (m *mockGateway) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	m.lists++
	m.mu.Unlock()
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []domain.Document{}, nil
}

func (m *mockGateway) DeleteDocument(ctx context.Context, filename string) (*domain.DeleteResult, error) {
	m.mu.Lock()
	m.deletes++
	m.mu.Unlock()
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, filename)
	}
	return &domain.DeleteResult{Message: "deleted", NumChunksDeleted: 1}, nil
}

func (m *mockGateway) GetCorpusInfo(ctx context.Context) (*domain.CorpusInfo, error) {
	m.mu.Lock()
	m.infos++
	m.mu.Unlock()
	if m.InfoFunc != nil {
		return m.InfoFunc(ctx)
	}
	return &domain.CorpusInfo{TotalChunks: 1, SimilarityMetric: "cosine"}, nil
}

func (m *mockGateway) SendChatMessage(ctx context.Context, req domain.ChatRequest) (*domain.ChatReply, error) {
	m.mu.Lock()
	m.chats = append(m.chats, req)
	m.mu.Unlock()
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	return &domain.ChatReply{Answer: "answer to " + req.Query, Sources: []domain.SourceCitation{}, Confidence: 0.5}, nil
}

func (m *mockGateway) CheckHealth(ctx context.Context) (*domain.Health, error) {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return &domain.Health{Status: "healthy", Service: "RAG Chat API"}, nil
}

func (m *mockGateway) counts() (uploads, lists, deletes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads, m.lists, m.deletes
}

func (m *mockGateway) chatRequests() []domain.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ChatRequest, len(m.chats))
	copy(out, m.chats)
	return out
}

// mockArchive records appended exchanges.
type mockArchive struct {
	mu        sync.Mutex
	appended  []domain.ArchivedExchange
	AppendErr error
}

func (a *mockArchive) Append(_ context.Context, ex domain.ArchivedExchange) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.AppendErr != nil {
		return a.AppendErr
	}
	a.appended = append(a.appended, ex)
	return nil
}

func (a *mockArchive) ListSessions(context.Context) ([]domain.SessionSummary, error) {
	return nil, nil
}

func (a *mockArchive) Exchanges(context.Context, string) ([]domain.ArchivedExchange, error) {
	return nil, domain.ErrNotFound
}

func (a *mockArchive) all() []domain.ArchivedExchange {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.ArchivedExchange(nil), a.appended...)
}
