package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure DocumentOrchestrator implements the interface.
var _ driving.DocumentOrchestrator = (*DocumentOrchestrator)(nil)

// DocumentOrchestrator sequences uploads and deletes with corpus refreshes.
// The corpus only changes through a refresh after a mutation succeeds.
type DocumentOrchestrator struct {
	gateway driven.Gateway
	corpus  driving.CorpusService

	mu        sync.Mutex
	uploading bool
	deleting  map[string]struct{}
}

// NewDocumentOrchestrator creates a new orchestrator.
func NewDocumentOrchestrator(gateway driven.Gateway, corpus driving.CorpusService) *DocumentOrchestrator {
	return &DocumentOrchestrator{
		gateway:  gateway,
		corpus:   corpus,
		deleting: make(map[string]struct{}),
	}
}

// Busy reports whether an upload is in flight.
func (o *DocumentOrchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.uploading
}

// Deleting reports whether a delete for filename is in flight.
func (o *DocumentOrchestrator) Deleting(filename string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.deleting[filename]
	return ok
}

// Upload sends the file at path and refreshes the corpus on success.
//
// An empty path is a validation error that drivers suppress. If the upload
// succeeds but the refresh fails, the result is returned with the refresh error.
func (o *DocumentOrchestrator) Upload(ctx context.Context, path string) (*domain.UploadResult, error) {
	if strings.TrimSpace(path) == "" {
		return nil, domain.NewValidationError("file", domain.ErrNoFile)
	}

	if !o.acquireUpload() {
		return nil, domain.ErrUploadInProgress
	}
	defer o.releaseUpload()

	name := filepath.Base(path)
	logger.Section("Upload")
	logger.Debug("Uploading %s", path)
	if !domain.IsAcceptedFile(name) {
		logger.Warn("%s is not a .pdf, .docx or .txt file; the gateway may reject it", name)
	}

	result, err := o.gateway.UploadDocument(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	logger.Info("Uploaded %s (%d chunks)", result.Filename, result.NumChunks)

	if err := o.corpus.Refresh(ctx); err != nil {
		return result, fmt.Errorf("refresh after upload: %w", err)
	}
	return result, nil
}

// UploadFirst uploads only the first path. An empty list behaves like no file.
func (o *DocumentOrchestrator) UploadFirst(ctx context.Context, paths []string) (*domain.UploadResult, error) {
	if len(paths) == 0 {
		return o.Upload(ctx, "")
	}
	if len(paths) > 1 {
		logger.Debug("Ignoring %d additional paths", len(paths)-1)
	}
	return o.Upload(ctx, paths[0])
}

// Delete removes filename after confirm approves it.
// A declined confirmation sends nothing and returns false with no error.
func (o *DocumentOrchestrator) Delete(
	ctx context.Context, filename string, confirm driving.ConfirmFunc,
) (bool, error) {
	if strings.TrimSpace(filename) == "" {
		return false, domain.NewValidationError("filename", domain.ErrInvalidInput)
	}
	if confirm != nil && !confirm(filename) {
		logger.Debug("Delete of %s declined", filename)
		return false, nil
	}

	if !o.acquireDelete(filename) {
		return false, domain.ErrDeleteInProgress
	}
	defer o.releaseDelete(filename)

	logger.Section("Delete")
	result, err := o.gateway.DeleteDocument(ctx, filename)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", filename, err)
	}
	logger.Info("Deleted %s (%d chunks)", filename, result.NumChunksDeleted)

	if err := o.corpus.Refresh(ctx); err != nil {
		return true, fmt.Errorf("refresh after delete: %w", err)
	}
	return true, nil
}

func (o *DocumentOrchestrator) acquireUpload() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.uploading {
		return false
	}
	o.uploading = true
	return true
}

func (o *DocumentOrchestrator) releaseUpload() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.uploading = false
}

func (o *DocumentOrchestrator) acquireDelete(filename string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.deleting[filename]; ok {
		return false
	}
	o.deleting[filename] = struct{}{}
	return true
}

func (o *DocumentOrchestrator) releaseDelete(filename string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.deleting, filename)
}
