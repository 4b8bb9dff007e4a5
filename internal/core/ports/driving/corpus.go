package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// CorpusService mirrors the gateway's document listing.
// The local sequence only ever changes by wholesale replacement from a listing.
type CorpusService interface {
	// Load performs the initial listing. A failure leaves the corpus empty
	// and is logged rather than returned.
	Load(ctx context.Context)

	// Refresh replaces the local corpus with a fresh listing.
	// On failure the previous corpus is kept and the error returned.
	Refresh(ctx context.Context) error

	// Documents returns a snapshot of the local corpus.
	Documents() []domain.Document

	// IsEmpty reports whether no documents are indexed.
	IsEmpty() bool

	// Len returns the number of documents.
	Len() int

	// Has reports whether filename is in the local corpus.
	Has(filename string) bool

	// Info returns a descriptive snapshot of the index. Results are cached briefly.
	Info(ctx context.Context) (*domain.CorpusInfo, error)

	// Health reports gateway liveness.
	Health(ctx context.Context) (*domain.Health, error)
}

// DocumentOrchestrator sequences uploads and deletes with corpus refreshes.
type DocumentOrchestrator interface {
	// Busy reports whether an upload is in flight.
	Busy() bool

	// Upload sends the file at path, then refreshes the corpus on success.
	Upload(ctx context.Context, path string) (*domain.UploadResult, error)

	// UploadFirst uploads only the first of paths, matching drop semantics.
	UploadFirst(ctx context.Context, paths []string) (*domain.UploadResult, error)

	// Delete asks confirm first; a declined confirmation sends nothing and
	// returns false. On success the corpus is refreshed.
	Delete(ctx context.Context, filename string, confirm ConfirmFunc) (bool, error)

	// Deleting reports whether a delete for filename is in flight.
	Deleting(filename string) bool
}

// ConfirmFunc is a yes/no gate shown before a destructive action.
type ConfirmFunc func(filename string) bool

// AlwaysConfirm approves every prompt.
func AlwaysConfirm(string) bool { return true }
