package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// Gateway is the remote backend that indexes documents and answers questions.
//
// Failures are reported as *domain.NetworkError when no response arrived,
// *domain.ServerError for non-success responses, and *domain.ValidationError
// for input rejected before sending.
type Gateway interface {
	// UploadDocument sends the file at path for indexing.
	UploadDocument(ctx context.Context, path string) (*domain.UploadResult, error)

	// ListDocuments returns every indexed document.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document and all its chunks.
	// A missing document yields an error matching domain.ErrNotFound.
	DeleteDocument(ctx context.Context, filename string) (*domain.DeleteResult, error)

	// GetCorpusInfo returns a descriptive snapshot of the index.
	GetCorpusInfo(ctx context.Context) (*domain.CorpusInfo, error)

	// SendChatMessage asks a question with the given history.
	SendChatMessage(ctx context.Context, req domain.ChatRequest) (*domain.ChatReply, error)

	// CheckHealth reports gateway liveness.
	CheckHealth(ctx context.Context) (*domain.Health, error)
}
